package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/figsync/internal/session"
	"github.com/dgallion1/figsync/internal/store"
)

var (
	updatePage    string
	updateNodes   []string
	updateLang    string
	updateOut     string
	updatePersist bool
)

var updateCmd = &cobra.Command{
	Use:   "update <document> <csv>",
	Short: "Apply an edited CSV to a document",
	Long: `Apply an edited CSV to the text layers of a document and write the
resulting scene as JSON.

With --lang, the named column replaces the characters column wherever it
is not empty. With --persist, the CSV and the changed layer ids are saved
to the configured store so a later review can restore them.

Examples:
  figsync update landing.json copy.csv --out landing.json
  figsync update landing.json copy.csv --lang fr --out landing-fr.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.Store(store.NewMemory())
		if updatePersist {
			var err error
			if st, err = store.Open(cfg); err != nil {
				return err
			}
		}
		defer st.Close()

		res, sess, err := applyCSV(cmd.Context(), args[0], args[1], st)
		if err != nil {
			return err
		}
		logger.Info(res.Message, "changed", res.Changed)
		return writeOutput(updateOut, sess.EncodeDocument)
	},
}

func init() {
	updateCmd.Flags().StringVar(&updatePage, "page", "", "page id to update (default: first page)")
	updateCmd.Flags().StringSliceVar(&updateNodes, "node", nil, "node ids to update instead of the page")
	updateCmd.Flags().StringVar(&updateLang, "lang", "", "language column to apply")
	updateCmd.Flags().StringVarP(&updateOut, "out", "O", "", "output scene file (default: stdout)")
	updateCmd.Flags().BoolVar(&updatePersist, "persist", false, "save the CSV to the configured store")
}

// applyCSV loads the document, applies the CSV at csvPath and returns the
// session holding the updated document.
func applyCSV(ctx context.Context, docPath, csvPath string, st store.Store) (*session.UpdateResult, *session.Session, error) {
	sess, err := openSession(docPath, updatePage, updateNodes, st)
	if err != nil {
		return nil, nil, err
	}
	text, err := os.ReadFile(csvPath)
	if err != nil {
		return nil, nil, err
	}
	if _, err := sess.ParseCSV(string(text)); err != nil {
		return nil, nil, err
	}

	var override *session.Settings
	if updateLang != "" {
		settings, err := sess.GetSettings(ctx)
		if err != nil {
			return nil, nil, err
		}
		settings.SelectedLang = updateLang
		override = &settings
	}
	res, err := sess.Update(ctx, override)
	if err != nil {
		return nil, nil, err
	}
	if updatePersist {
		if _, err := sess.PersistCSV(ctx); err != nil {
			return nil, nil, err
		}
	}
	return res, sess, nil
}
