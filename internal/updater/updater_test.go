package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/figsync/internal/classify"
	"github.com/dgallion1/figsync/internal/nodeinfo"
	"github.com/dgallion1/figsync/internal/scene"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func settings(lang string) Settings {
	return Settings{Headings: classify.DefaultHeadings(), SelectedLang: lang}
}

func record(id, chars, list string, extra map[string]string) nodeinfo.Record {
	return nodeinfo.Record{
		NodeInfo: nodeinfo.NodeInfo{ID: id, Characters: chars, ListOption: list},
		Extra:    extra,
	}
}

func TestReplacementText(t *testing.T) {
	tests := []struct {
		name string
		rec  nodeinfo.Record
		lang string
		want string
	}{
		{"empty language falls back", record("1", "A", "", map[string]string{"fr": ""}), "fr", "A"},
		{"language wins", record("1", "A", "", map[string]string{"fr": "B"}), "fr", "B"},
		{"missing column falls back", record("1", "A", "", nil), "de", "A"},
		{"no language selected", record("1", "A", "", map[string]string{"fr": "B"}), "", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReplacementText(tt.rec, tt.lang); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func screen() (*scene.Frame, *scene.Text, *scene.Text) {
	a := scene.NewText("1:2", "Title", "Hello", scene.DefaultFont, 36)
	b := scene.NewText("1:3", "Body", "Body copy", scene.DefaultFont, 14)
	b.Y = 50
	hidden := scene.NewText("1:4", "Hidden", "keep", scene.DefaultFont, 14)
	hidden.Visible = false
	root := &scene.Frame{
		Header: scene.Header{ID: "1:1", Visible: true},
		Nodes:  []scene.Node{b, hidden, a},
	}
	return root, a, b
}

func TestUpdate_ChangesAndIdempotence(t *testing.T) {
	root, a, b := screen()
	m := nodeinfo.Map{
		"1:2": record("1:2", "Bonjour", "NONE", nil),
		"1:3": record("1:3", "Body copy", "ORDERED", nil),
		"1:4": record("1:4", "should not apply", "NONE", nil),
	}
	fonts := scene.NewFontBook()
	e := NewEngine(fonts, discard)

	ids, err := e.Update(context.Background(), root, m, settings(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1:2" || ids[1] != "1:3" {
		t.Fatalf("expected [1:2 1:3], got %v", ids)
	}
	if a.Characters() != "Bonjour" {
		t.Errorf("expected %q, got %q", "Bonjour", a.Characters())
	}
	if style, _ := b.ListStyle().Get(); style != scene.ListOrdered {
		t.Errorf("expected ORDERED, got %s", style)
	}
	if a.RelaunchData()[RelaunchCommand] == "" || b.RelaunchData()[RelaunchCommand] == "" {
		t.Error("expected relaunch data on changed layers")
	}
	if fonts.Loaded(scene.DefaultFont) == 0 {
		t.Error("expected fonts to be loaded before mutation")
	}

	again, err := e.Update(context.Background(), root, m, settings(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("expected no changes on second pass, got %v", again)
	}
}

func TestUpdateLeaf_MissingRowIsNotAnError(t *testing.T) {
	_, a, _ := screen()
	e := NewEngine(scene.NewFontBook(), discard)
	changed, err := e.UpdateLeaf(context.Background(), a, nodeinfo.Map{}, settings(""))
	if err != nil || changed {
		t.Errorf("expected (false, nil), got (%v, %v)", changed, err)
	}
	if len(a.RelaunchData()) != 0 {
		t.Error("expected untouched layer to carry no relaunch data")
	}
}

func TestUpdateLeaf_ListOptions(t *testing.T) {
	tests := []struct {
		option  string
		changed bool
	}{
		{"MIXED", false},
		{"BULLETED", false},
		{"", false},
		{"NONE", false},
		{"UNORDERED", true},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			_, a, _ := screen()
			e := NewEngine(scene.NewFontBook(), discard)
			m := nodeinfo.Map{"1:2": record("1:2", "Hello", tt.option, nil)}
			changed, err := e.UpdateLeaf(context.Background(), a, m, settings(""))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if changed != tt.changed {
				t.Errorf("expected changed=%v, got %v", tt.changed, changed)
			}
		})
	}
}

func TestUpdateLeaf_SelectedLanguage(t *testing.T) {
	_, a, _ := screen()
	e := NewEngine(scene.NewFontBook(), discard)
	m := nodeinfo.Map{"1:2": record("1:2", "Hello", "NONE", map[string]string{"fr": "Salut"})}
	changed, err := e.UpdateLeaf(context.Background(), a, m, settings("fr"))
	if err != nil || !changed {
		t.Fatalf("expected change, got (%v, %v)", changed, err)
	}
	if a.Characters() != "Salut" {
		t.Errorf("expected %q, got %q", "Salut", a.Characters())
	}
}

func TestUpdate_FontFailureStopsWalk(t *testing.T) {
	root, a, b := screen()
	m := nodeinfo.Map{
		"1:2": record("1:2", "Changed", "NONE", nil),
		"1:3": record("1:3", "Changed too", "NONE", nil),
	}
	e := NewEngine(scene.NewFontBook("Roboto"), discard)
	_, err := e.Update(context.Background(), root, m, settings(""))
	if !errors.Is(err, scene.ErrFontUnavailable) {
		t.Fatalf("expected ErrFontUnavailable, got %v", err)
	}
	if a.Characters() != "Hello" || b.Characters() != "Body copy" {
		t.Error("expected no mutation when fonts cannot load")
	}
}

// secondCallFails loads fonts once, then reports every font unavailable.
type secondCallFails struct {
	calls int
}

func (f *secondCallFails) LoadFont(_ context.Context, font scene.FontName) error {
	f.calls++
	if f.calls > 1 {
		return fmt.Errorf("%w: %s", scene.ErrFontUnavailable, font)
	}
	return nil
}

func TestUpdate_ListFailureKeepsWrittenText(t *testing.T) {
	root, a, _ := screen()
	m := nodeinfo.Map{
		"1:2": record("1:2", "Bonjour", "ORDERED", nil),
		"1:3": record("1:3", "Changed too", "NONE", nil),
	}
	e := NewEngine(&secondCallFails{}, discard)

	ids, err := e.Update(context.Background(), root, m, settings(""))
	if !errors.Is(err, scene.ErrFontUnavailable) {
		t.Fatalf("expected ErrFontUnavailable, got %v", err)
	}
	if len(ids) != 1 || ids[0] != "1:2" {
		t.Fatalf("expected [1:2], got %v", ids)
	}
	if a.Characters() != "Bonjour" {
		t.Errorf("expected %q, got %q", "Bonjour", a.Characters())
	}
	if a.RelaunchData()[RelaunchCommand] == "" {
		t.Error("expected relaunch data on the written layer")
	}
}

func TestSummary(t *testing.T) {
	tests := map[int]string{
		0: "Nothing was updated",
		1: "Updated 1 text layer",
		7: "Updated 7 text layers",
	}
	for n, want := range tests {
		if got := Summary(n); got != want {
			t.Errorf("Summary(%d): expected %q, got %q", n, want, got)
		}
	}
}
