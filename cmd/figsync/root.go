package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/figsync/internal/config"
	"github.com/dgallion1/figsync/internal/parser"
	"github.com/dgallion1/figsync/internal/scene"
	"github.com/dgallion1/figsync/internal/session"
	"github.com/dgallion1/figsync/internal/store"
)

var (
	cfgFile string
	verbose bool

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "figsync",
	Short: "Round-trip design copy through CSV",
	Long: `figsync exports the text layers of a design document to CSV and
applies an edited CSV back onto the document.

Documents can be scene files (.json, .yaml) or prose files (.md, .txt,
.html, .pdf, .docx, .csv), which are laid out as a page of text layers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			os.Setenv("FIGSYNC_CONFIG", cfgFile)
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := cfg.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (yaml, json or toml)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(exportCmd, updateCmd, watchCmd, tableCmd, serveCmd)
}

// loadDocument parses the file at path into a scene document.
func loadDocument(path string) (*scene.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parser.ParseBytes(data, path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
}

// openSession loads a document and selects either the given nodes or,
// when none are given, everything on the given page.
func openSession(path, page string, nodes []string, st store.Store) (*session.Session, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	sess, err := session.New("cli", doc, session.Options{
		Store:     st,
		Headings:  cfg.Headings,
		MinWindow: session.Size{Width: cfg.MinWindowWidth, Height: cfg.MinWindowHeight},
		Log:       logger,
	})
	if err != nil {
		return nil, err
	}
	if len(nodes) > 0 {
		err = sess.Select(nodes)
	} else {
		err = sess.SelectPage(page)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// writeOutput writes to path, or to stdout when path is empty or "-".
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeString(path, s string) error {
	return writeOutput(path, func(w io.Writer) error {
		_, err := fmt.Fprint(w, s)
		return err
	})
}
