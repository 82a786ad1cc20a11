package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dgallion1/figsync/internal/store"
)

const watchDebounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <document> <csv>",
	Short: "Re-apply a CSV every time it is saved",
	Long: `Watch a CSV file and apply it to a fresh copy of the document after
every save, writing the resulting scene to --out.

Accepts the same selection and language flags as update.

Examples:
  figsync watch landing.json copy.csv --out preview.json --lang de`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docPath, csvPath := args[0], args[1]
		apply := func() error {
			res, sess, err := applyCSV(cmd.Context(), docPath, csvPath, store.NewMemory())
			if err != nil {
				return err
			}
			logger.Info(res.Message, "changed", res.Changed)
			return writeOutput(updateOut, sess.EncodeDocument)
		}
		if err := apply(); err != nil {
			logger.Warn("apply failed", "error", err)
		}
		return watchFile(cmd.Context(), csvPath, watchDebounce, apply, logger)
	},
}

func init() {
	watchCmd.Flags().StringVar(&updatePage, "page", "", "page id to update (default: first page)")
	watchCmd.Flags().StringSliceVar(&updateNodes, "node", nil, "node ids to update instead of the page")
	watchCmd.Flags().StringVar(&updateLang, "lang", "", "language column to apply")
	watchCmd.Flags().StringVarP(&updateOut, "out", "O", "", "output scene file (default: stdout)")
}

// watchFile calls fn once per burst of writes to path until ctx is done.
// The parent directory is watched so editors that save by rename are seen.
// Errors from fn are logged and watching continues.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func() error, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.Info("watching", "path", abs)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			if err := fn(); err != nil {
				log.Warn("apply failed", "error", err)
			}
		}
	}
}
