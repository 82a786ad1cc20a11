package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/figsync/internal/store"
)

var (
	exportPage     string
	exportNodes    []string
	exportOut      string
	exportPrevious string
)

var exportCmd = &cobra.Command{
	Use:   "export <document>",
	Short: "Export text layers to CSV",
	Long: `Export every visible text layer under the selection to CSV, in reading
order. Without --node the whole page is selected.

Translation columns of a previous export are carried over when --previous
names it.

Examples:
  figsync export landing.json
  figsync export landing.json --node 1:4 --out copy.csv
  figsync export landing.md --previous copy-fr.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(args[0], exportPage, exportNodes, store.NewMemory())
		if err != nil {
			return err
		}
		if exportPrevious != "" {
			prev, err := os.ReadFile(exportPrevious)
			if err != nil {
				return err
			}
			if _, err := sess.ParseCSV(string(prev)); err != nil {
				return err
			}
		}

		res, err := sess.Export(cmd.Context())
		if err != nil {
			return err
		}
		if err := writeString(exportOut, res.CSV); err != nil {
			return err
		}
		logger.Info("exported", "rows", res.Rows, "suggested_filename", res.Filename)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPage, "page", "", "page id to export (default: first page)")
	exportCmd.Flags().StringSliceVar(&exportNodes, "node", nil, "node ids to export instead of the page")
	exportCmd.Flags().StringVarP(&exportOut, "out", "O", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportPrevious, "previous", "", "previous export whose extra columns are kept")
}
