// Package updater reconciles live text layers against a parsed CSV
// snapshot and writes the differences back.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/dgallion1/figsync/internal/classify"
	"github.com/dgallion1/figsync/internal/nodeinfo"
	"github.com/dgallion1/figsync/internal/position"
	"github.com/dgallion1/figsync/internal/scene"
	"github.com/dgallion1/figsync/internal/visitor"
)

// RelaunchCommand is the relaunch key attached to every changed layer.
const RelaunchCommand = "review"

const relaunchLabel = "Review copy changes"

// Settings drive one update sweep.
type Settings struct {
	Headings     classify.HeadingSettings `json:"headings"`
	SelectedLang string                   `json:"selectedLang,omitempty"`
}

// Engine applies a nodeinfo.Map to scene subtrees.
type Engine struct {
	fonts scene.FontLoader
	log   *slog.Logger
}

func NewEngine(fonts scene.FontLoader, log *slog.Logger) *Engine {
	return &Engine{fonts: fonts, log: log}
}

type sweep struct {
	m        nodeinfo.Map
	settings Settings
}

// Update walks node and returns the ids of changed text layers in visual
// order. Containers are processed one child at a time. On error the ids
// written before the failure are returned with it.
func (e *Engine) Update(ctx context.Context, node scene.Node, m nodeinfo.Map, s Settings) ([]string, error) {
	h := visitor.AsyncHandlers[sweep, []string]{
		OnLeaf:      e.leaf,
		OnContainer: e.container,
	}
	ids, _, err := visitor.VisitAsync(ctx, node, sweep{m: m, settings: s}, h)
	return ids, err
}

func (e *Engine) leaf(ctx context.Context, t *scene.Text, sw sweep) ([]string, bool, error) {
	changed, err := e.UpdateLeaf(ctx, t, sw.m, sw.settings)
	if !changed {
		return nil, false, err
	}
	return []string{t.ID}, true, err
}

func (e *Engine) container(ctx context.Context, c scene.Container, sw sweep, h visitor.AsyncHandlers[sweep, []string]) ([]string, bool, error) {
	var ids []string
	for _, child := range position.Sort(c.Children()) {
		got, ok, err := visitor.VisitAsync(ctx, child, sw, h)
		if ok {
			ids = append(ids, got...)
		}
		if err != nil {
			return ids, ok || len(ids) > 0, err
		}
	}
	return ids, true, nil
}

// UpdateLeaf writes the mapped text and list style to t when they differ.
// A missing map entry is logged and reported as unchanged. When the text
// was written but the list style failed, it returns true with the error.
func (e *Engine) UpdateLeaf(ctx context.Context, t *scene.Text, m nodeinfo.Map, s Settings) (bool, error) {
	rec, ok := m[t.ID]
	if !ok {
		e.log.Warn("text layer not found in csv", "node_id", t.ID, "name", t.Name)
		return false, nil
	}

	changed := false

	want := ReplacementText(rec, s.SelectedLang)
	if want != t.Characters() {
		if err := scene.LoadFonts(ctx, e.fonts, t); err != nil {
			return false, fmt.Errorf("update %s: %w", t.ID, err)
		}
		if err := replaceText(t, want); err != nil {
			return false, fmt.Errorf("update %s: %w", t.ID, err)
		}
		markChanged(t)
		changed = true
	}

	listChanged, err := e.applyListOption(ctx, t, rec.ListOption)
	if err != nil {
		return changed, fmt.Errorf("update %s: %w", t.ID, err)
	}
	if listChanged {
		markChanged(t)
	}
	return changed || listChanged, nil
}

func markChanged(t *scene.Text) {
	t.SetRelaunchData(map[string]string{RelaunchCommand: relaunchLabel})
}

func (e *Engine) applyListOption(ctx context.Context, t *scene.Text, option string) (bool, error) {
	if option == "" || option == string(classify.OptionMixed) {
		return false, nil
	}
	style, ok := scene.ParseListStyle(option)
	if !ok {
		e.log.Warn("unknown list option", "node_id", t.ID, "list_option", option)
		return false, nil
	}
	if t.ListStyle().Equal(scene.Definite(style)) {
		return false, nil
	}
	if err := scene.LoadFonts(ctx, e.fonts, t); err != nil {
		return false, err
	}
	t.SetListStyle(style)
	return true, nil
}

// ReplacementText picks the selected language column when it holds a
// non-empty value and falls back to the characters column otherwise.
func ReplacementText(rec nodeinfo.Record, selectedLang string) string {
	if selectedLang != "" {
		if v := rec.Get(selectedLang); v != "" {
			return v
		}
	}
	return rec.Characters
}

// replaceText swaps the full range by inserting before deleting so the
// first run's style carries over.
func replaceText(t *scene.Text, s string) error {
	old := t.Len()
	if err := t.InsertCharacters(0, s); err != nil {
		return err
	}
	n := utf8.RuneCountInString(s)
	return t.DeleteCharacters(n, n+old)
}

// Summary is the user-facing result line for a sweep.
func Summary(changed int) string {
	switch changed {
	case 0:
		return "Nothing was updated"
	case 1:
		return "Updated 1 text layer"
	default:
		return fmt.Sprintf("Updated %d text layers", changed)
	}
}
