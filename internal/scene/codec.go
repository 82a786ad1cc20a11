package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const mixedTag = "MIXED"

type wireDocument struct {
	ID    string     `json:"id,omitempty"`
	Name  string     `json:"name"`
	Pages []wirePage `json:"pages"`
}

type wirePage struct {
	ID       string     `json:"id,omitempty"`
	Name     string     `json:"name"`
	Children []wireNode `json:"children,omitempty"`
}

type wireRun struct {
	Text      string    `json:"text"`
	FontName  *FontName `json:"fontName,omitempty"`
	FontSize  float64   `json:"fontSize,omitempty"`
	ListStyle ListStyle `json:"listStyle,omitempty"`
}

type wireNode struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Name    string          `json:"name,omitempty"`
	Visible *bool           `json:"visible,omitempty"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Fills   json.RawMessage `json:"fills,omitempty"`

	// Text shorthand for single-run layers.
	Characters string    `json:"characters,omitempty"`
	FontName   *FontName `json:"fontName,omitempty"`
	FontSize   float64   `json:"fontSize,omitempty"`
	ListStyle  ListStyle `json:"listStyle,omitempty"`

	Runs         []wireRun         `json:"runs,omitempty"`
	RelaunchData map[string]string `json:"relaunchData,omitempty"`
	Children     []wireNode        `json:"children,omitempty"`
}

// DecodeJSON reads a document in the scene JSON format.
func DecodeJSON(r io.Reader) (*Document, error) {
	var wd wireDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wd); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return fromWire(wd)
}

// DecodeYAML reads a document written as YAML with the same field names as
// the JSON format.
func DecodeYAML(r io.Reader) (*Document, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode scene yaml: empty document")
		}
		return nil, fmt.Errorf("decode scene yaml: %w", err)
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert scene yaml: %w", err)
	}
	return DecodeJSON(bytes.NewReader(buf))
}

// EncodeJSON writes a document in the scene JSON format.
func EncodeJSON(w io.Writer, d *Document) error {
	wd := wireDocument{ID: d.ID, Name: d.Name}
	for _, p := range d.Pages {
		wp := wirePage{ID: p.ID, Name: p.Name}
		for _, n := range p.Nodes {
			wn, err := toWire(n)
			if err != nil {
				return err
			}
			wp.Children = append(wp.Children, wn)
		}
		wd.Pages = append(wd.Pages, wp)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wd)
}

func fromWire(wd wireDocument) (*Document, error) {
	doc := &Document{ID: wd.ID, Name: wd.Name}
	for i, wp := range wd.Pages {
		p := &Page{ID: wp.ID, Name: wp.Name}
		if p.ID == "" {
			p.ID = fmt.Sprintf("page:%d", i)
		}
		for _, wn := range wp.Children {
			n, err := nodeFromWire(wn)
			if err != nil {
				return nil, fmt.Errorf("page %q: %w", wp.Name, err)
			}
			p.Nodes = append(p.Nodes, n)
		}
		doc.Pages = append(doc.Pages, p)
	}
	return doc, nil
}

func nodeFromWire(wn wireNode) (Node, error) {
	if wn.ID == "" {
		return nil, fmt.Errorf("%s node %q: missing id", wn.Type, wn.Name)
	}
	fills, err := decodeFills(wn.Fills)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", wn.ID, err)
	}
	h := Header{
		ID:      wn.ID,
		Name:    wn.Name,
		Visible: wn.Visible == nil || *wn.Visible,
		X:       wn.X,
		Y:       wn.Y,
		Fills:   fills,
	}

	switch wn.Type {
	case "TEXT":
		t := &Text{Header: h}
		if len(wn.Runs) > 0 {
			for _, wr := range wn.Runs {
				t.Runs = append(t.Runs, runFromWire(wr.Text, wr.FontName, wr.FontSize, wr.ListStyle))
			}
		} else if wn.Characters != "" {
			t.Runs = []Run{runFromWire(wn.Characters, wn.FontName, wn.FontSize, wn.ListStyle)}
		}
		t.SetRelaunchData(wn.RelaunchData)
		return t, nil
	case "FRAME", "GROUP", "COMPONENT", "INSTANCE", "SECTION":
		f := &Frame{Header: h, FrameType: wn.Type}
		for _, wc := range wn.Children {
			c, err := nodeFromWire(wc)
			if err != nil {
				return nil, err
			}
			f.Nodes = append(f.Nodes, c)
		}
		return f, nil
	case "":
		return nil, fmt.Errorf("node %s: missing type", wn.ID)
	default:
		if len(wn.Children) > 0 {
			return nil, fmt.Errorf("node %s: type %s cannot have children", wn.ID, wn.Type)
		}
		return &Shape{Header: h, ShapeType: wn.Type}, nil
	}
}

func runFromWire(text string, font *FontName, size float64, list ListStyle) Run {
	r := Run{Text: text, Font: DefaultFont, FontSize: size, ListStyle: list}
	if font != nil {
		r.Font = *font
	}
	if r.FontSize == 0 {
		r.FontSize = DefaultFontSize
	}
	if r.ListStyle == "" {
		r.ListStyle = ListNone
	}
	return r
}

func decodeFills(raw json.RawMessage) (Fills, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Fills{}, nil
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err == nil {
		if tag == mixedTag {
			return Fills{Mixed: true}, nil
		}
		return Fills{}, fmt.Errorf("fills: unknown tag %q", tag)
	}
	var paints []Paint
	if err := json.Unmarshal(raw, &paints); err != nil {
		return Fills{}, fmt.Errorf("fills: %w", err)
	}
	return Fills{Paints: paints}, nil
}

func encodeFills(f Fills) (json.RawMessage, error) {
	if f.Mixed {
		return json.Marshal(mixedTag)
	}
	if len(f.Paints) == 0 {
		return nil, nil
	}
	return json.Marshal(f.Paints)
}

func toWire(n Node) (wireNode, error) {
	x, y := n.Position()
	wn := wireNode{
		Type: n.Type(),
		ID:   n.NodeID(),
		Name: n.NodeName(),
		X:    x,
		Y:    y,
	}
	if !n.IsVisible() {
		hidden := false
		wn.Visible = &hidden
	}
	fills, err := encodeFills(n.NodeFills())
	if err != nil {
		return wn, fmt.Errorf("node %s: %w", wn.ID, err)
	}
	wn.Fills = fills

	switch v := n.(type) {
	case *Text:
		for _, r := range v.Runs {
			font := r.Font
			wn.Runs = append(wn.Runs, wireRun{Text: r.Text, FontName: &font, FontSize: r.FontSize, ListStyle: r.ListStyle})
		}
		if len(v.relaunch) > 0 {
			wn.RelaunchData = v.RelaunchData()
		}
	case *Frame:
		for _, c := range v.Nodes {
			wc, err := toWire(c)
			if err != nil {
				return wn, err
			}
			wn.Children = append(wn.Children, wc)
		}
	}
	return wn, nil
}
