// Package tablegen builds a grid of text layers from CSV and reads such a
// grid back to CSV.
package tablegen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/figsync/internal/position"
	"github.com/dgallion1/figsync/internal/scene"
	"github.com/dgallion1/figsync/internal/visitor"
)

// ErrEmptyTable is returned when the CSV has no rows or the node holds no
// visible text.
var ErrEmptyTable = errors.New("table has no cells")

// Layout controls cell geometry and typography.
type Layout struct {
	CellWidth  float64
	CellHeight float64
	Font       scene.FontName
	HeaderFont scene.FontName
	FontSize   float64
	// NewID returns a fresh node id. Defaults to random UUIDs.
	NewID func() string
}

func DefaultLayout() Layout {
	return Layout{
		CellWidth:  160,
		CellHeight: 40,
		Font:       scene.DefaultFont,
		HeaderFont: scene.FontName{Family: scene.DefaultFont.Family, Style: "Bold"},
		FontSize:   14,
	}
}

// Table describes a generated grid.
type Table struct {
	Frame   *scene.Frame
	Rows    int
	Columns int
}

// Generate lays out csvText as a frame of row frames, one text layer per
// cell. The first row uses the header font. Short rows are padded with
// empty cells.
func Generate(csvText, name string, l Layout) (*Table, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(csvText, "\ufeff")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table csv: %w", err)
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}

	newID := l.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	if name == "" {
		name = "Table"
	}

	table := &scene.Frame{Header: scene.Header{
		ID:      newID(),
		Name:    name,
		Visible: true,
	}}
	for ri, row := range rows {
		rowFrame := &scene.Frame{
			Header: scene.Header{
				ID:      newID(),
				Name:    fmt.Sprintf("Row %d", ri+1),
				Visible: true,
				Y:       float64(ri) * l.CellHeight,
			},
			FrameType: "FRAME",
		}
		font := l.Font
		if ri == 0 {
			font = l.HeaderFont
		}
		for ci := 0; ci < cols; ci++ {
			var value string
			if ci < len(row) {
				value = row[ci]
			}
			cell := scene.NewText(newID(), fmt.Sprintf("Cell %d,%d", ri+1, ci+1), value, font, l.FontSize)
			cell.X = float64(ci) * l.CellWidth
			rowFrame.Append(cell)
		}
		table.Append(rowFrame)
	}
	return &Table{Frame: table, Rows: len(rows), Columns: cols}, nil
}

// Read turns a node back into CSV. A container with direct text children
// is one row whose cells are every visible text beneath it in position
// order; other containers contribute their children's rows.
func Read(node scene.Node) (string, error) {
	rows, ok := visitor.Visit(node, struct{}{}, visitor.Handlers[struct{}, [][]string]{
		OnLeaf: func(t *scene.Text, _ struct{}) ([][]string, bool) {
			return [][]string{{t.Characters()}}, true
		},
		OnContainer: readContainer,
	})
	if !ok || len(rows) == 0 {
		return "", ErrEmptyTable
	}

	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, row := range rows {
		for len(row) < cols {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write table csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write table csv: %w", err)
	}
	return sb.String(), nil
}

func readContainer(c scene.Container, s struct{}, h visitor.Handlers[struct{}, [][]string]) ([][]string, bool) {
	children := position.Sort(c.Children())
	if hasTextChild(children) {
		cells := cellsOf(c, s)
		if len(cells) == 0 {
			return nil, false
		}
		return [][]string{cells}, true
	}
	var rows [][]string
	for _, child := range children {
		if res, ok := visitor.Visit(child, s, h); ok {
			rows = append(rows, res...)
		}
	}
	return rows, len(rows) > 0
}

func hasTextChild(nodes []scene.Node) bool {
	for _, n := range nodes {
		if _, ok := n.(*scene.Text); ok && n.IsVisible() {
			return true
		}
	}
	return false
}

// cellsOf flattens every visible text under c into one row.
func cellsOf(c scene.Container, s struct{}) []string {
	cells, _ := visitor.Visit[struct{}, []string](c, s, visitor.Handlers[struct{}, []string]{
		OnLeaf: func(t *scene.Text, _ struct{}) ([]string, bool) {
			return []string{t.Characters()}, true
		},
		OnContainer: func(c scene.Container, s struct{}, h visitor.Handlers[struct{}, []string]) ([]string, bool) {
			var out []string
			for _, child := range position.Sort(c.Children()) {
				if res, ok := visitor.Visit(child, s, h); ok {
					out = append(out, res...)
				}
			}
			return out, len(out) > 0
		},
	})
	return cells
}
