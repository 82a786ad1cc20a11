package nodeinfo

import (
	"github.com/dgallion1/figsync/internal/classify"
	"github.com/dgallion1/figsync/internal/position"
	"github.com/dgallion1/figsync/internal/scene"
	"github.com/dgallion1/figsync/internal/visitor"
)

// ExportSettings carries what each exported row needs beyond the node.
type ExportSettings struct {
	Page     string
	Headings classify.HeadingSettings
}

var exportHandlers = visitor.Handlers[ExportSettings, []NodeInfo]{
	OnLeaf:      exportLeaf,
	OnContainer: exportContainer,
}

// Collect returns one NodeInfo per visible, non-empty text layer under
// node, top-to-bottom and left-to-right.
func Collect(node scene.Node, s ExportSettings) []NodeInfo {
	rows, _ := visitor.Visit(node, s, exportHandlers)
	return rows
}

func exportLeaf(t *scene.Text, s ExportSettings) ([]NodeInfo, bool) {
	chars := t.Characters()
	if chars == "" {
		return nil, false
	}
	return []NodeInfo{{
		ID:           t.ID,
		Page:         s.Page,
		Name:         TruncateName(t.Name),
		Characters:   chars,
		ListOption:   string(classify.ListOption(t)),
		HeadingLevel: classify.Heading(t.FontSize(), s.Headings).String(),
	}}, true
}

func exportContainer(c scene.Container, s ExportSettings, h visitor.Handlers[ExportSettings, []NodeInfo]) ([]NodeInfo, bool) {
	var rows []NodeInfo
	for _, child := range position.Sort(c.Children()) {
		if r, ok := visitor.Visit(child, s, h); ok {
			rows = append(rows, r...)
		}
	}
	return rows, true
}

// Merge attaches extra-column values from a previously parsed map to fresh
// export rows with the same id.
func Merge(rows []NodeInfo, previous Map, extra []string) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := Record{NodeInfo: r}
		if prev, ok := previous[r.ID]; ok && len(extra) > 0 {
			rec.Extra = make(map[string]string, len(extra))
			for _, col := range extra {
				rec.Extra[col] = prev.Extra[col]
			}
		}
		out = append(out, rec)
	}
	return out
}
