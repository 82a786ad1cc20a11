package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/figsync/internal/scene"
	"github.com/dgallion1/figsync/internal/tablegen"
)

// CSVParser lays a CSV file out as a generated table: a frame of row
// frames with one text layer per cell.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*scene.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	ids := 0
	layout := tablegen.DefaultLayout()
	layout.NewID = func() string {
		ids++
		return fmt.Sprintf("1:%d", ids)
	}
	table, err := tablegen.Generate(string(src), baseName(filename), layout)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	return &scene.Document{
		ID:   documentID(src),
		Name: baseName(filename),
		Pages: []*scene.Page{{
			ID:    "0:1",
			Name:  "Page 1",
			Nodes: []scene.Node{table.Frame},
		}},
	}, nil
}
