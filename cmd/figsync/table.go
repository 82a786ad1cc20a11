package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/figsync/internal/scene"
	"github.com/dgallion1/figsync/internal/tablegen"
)

var (
	tableName string
	tableOut  string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Convert between CSV and table layers",
}

var tableCreateCmd = &cobra.Command{
	Use:   "create <csv>",
	Short: "Lay out a CSV as a table of text layers",
	Long: `Lay out a CSV as a frame of row frames, one text layer per cell, and
write it as a single-page scene.

Examples:
  figsync table create prices.csv --name Prices --out prices.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		table, err := tablegen.Generate(string(text), tableName, tablegen.DefaultLayout())
		if err != nil {
			return err
		}
		doc := &scene.Document{
			ID:   table.Frame.ID,
			Name: table.Frame.Name,
			Pages: []*scene.Page{
				{ID: "0:1", Name: "Page 1", Nodes: []scene.Node{table.Frame}},
			},
		}
		logger.Info("table created", "rows", table.Rows, "columns", table.Columns)
		return writeOutput(tableOut, func(w io.Writer) error {
			return scene.EncodeJSON(w, doc)
		})
	},
}

var tableReadCmd = &cobra.Command{
	Use:   "read <document> <node-id>",
	Short: "Read a table of text layers back to CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}
		node, _ := doc.Find(args[1])
		if node == nil {
			return fmt.Errorf("node %q not found", args[1])
		}
		text, err := tablegen.Read(node)
		if err != nil {
			return err
		}
		return writeString(tableOut, text)
	},
}

func init() {
	tableCreateCmd.Flags().StringVar(&tableName, "name", "", "table frame name (default: Table)")
	tableCmd.PersistentFlags().StringVarP(&tableOut, "out", "O", "", "output file (default: stdout)")
	tableCmd.AddCommand(tableCreateCmd, tableReadCmd)
}
