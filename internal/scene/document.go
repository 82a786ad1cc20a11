package scene

// Document is a host document: an ordered list of pages.
type Document struct {
	ID    string
	Name  string
	Pages []*Page
}

// Page is a top-level canvas holding the document's root nodes.
type Page struct {
	ID    string
	Name  string
	Nodes []Node
}

// Page returns the page with the given id, or the first page when id is
// empty.
func (d *Document) Page(id string) *Page {
	if id == "" {
		if len(d.Pages) == 0 {
			return nil
		}
		return d.Pages[0]
	}
	for _, p := range d.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Find locates a node by id across all pages, including invisible subtrees.
func (d *Document) Find(id string) (Node, *Page) {
	for _, p := range d.Pages {
		if n := findIn(p.Nodes, id); n != nil {
			return n, p
		}
	}
	return nil, nil
}

func findIn(nodes []Node, id string) Node {
	for _, n := range nodes {
		if n.NodeID() == id {
			return n
		}
		if c, ok := n.(Container); ok {
			if found := findIn(c.Children(), id); found != nil {
				return found
			}
		}
	}
	return nil
}

// Texts returns every text node under n in document order, regardless of
// visibility.
func Texts(n Node) []*Text {
	var out []*Text
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Text:
			out = append(out, v)
		case Container:
			for _, c := range v.Children() {
				walk(c)
			}
		}
	}
	walk(n)
	return out
}
