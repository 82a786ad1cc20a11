package scene

import (
	"context"
	"errors"
	"testing"
)

var bold = FontName{Family: "Inter", Style: "Bold"}

func twoRunText() *Text {
	return &Text{
		Header: Header{ID: "1:2", Visible: true},
		Runs: []Run{
			{Text: "Hello ", Font: bold, FontSize: 24, ListStyle: ListNone},
			{Text: "world", Font: DefaultFont, FontSize: 14, ListStyle: ListNone},
		},
	}
}

func TestText_MixedProperties(t *testing.T) {
	txt := twoRunText()
	if txt.Characters() != "Hello world" {
		t.Fatalf("expected %q, got %q", "Hello world", txt.Characters())
	}
	if !txt.FontSize().IsMixed() {
		t.Error("expected mixed font size across runs")
	}
	style, ok := txt.ListStyle().Get()
	if !ok || style != ListNone {
		t.Errorf("expected definite NONE list style, got %v (definite=%v)", style, ok)
	}

	txt.Runs[1].ListStyle = ListOrdered
	if !txt.ListStyle().IsMixed() {
		t.Error("expected mixed list style after changing one run")
	}
}

func TestText_InsertThenDeletePreservesFirstRunStyle(t *testing.T) {
	txt := NewText("1:1", "Title", "Old title", bold, 32)
	old := txt.Len()
	replacement := "New héadline"

	if err := txt.InsertCharacters(0, replacement); err != nil {
		t.Fatalf("insert: %v", err)
	}
	n := len([]rune(replacement))
	if err := txt.DeleteCharacters(n, n+old); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if txt.Characters() != replacement {
		t.Errorf("expected %q, got %q", replacement, txt.Characters())
	}
	if len(txt.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(txt.Runs))
	}
	if txt.Runs[0].Font != bold || txt.Runs[0].FontSize != 32 {
		t.Errorf("expected style to survive, got %+v", txt.Runs[0])
	}
}

func TestText_DeleteAcrossRuns(t *testing.T) {
	txt := twoRunText()
	if err := txt.DeleteCharacters(3, 8); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if txt.Characters() != "Helrld" {
		t.Errorf("expected %q, got %q", "Helrld", txt.Characters())
	}
	if len(txt.Runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(txt.Runs))
	}
}

func TestText_DeleteMergesEqualRuns(t *testing.T) {
	txt := &Text{Runs: []Run{
		{Text: "ab", Font: DefaultFont, FontSize: 12},
		{Text: "X", Font: bold, FontSize: 12},
		{Text: "cd", Font: DefaultFont, FontSize: 12},
	}}
	if err := txt.DeleteCharacters(2, 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(txt.Runs) != 1 || txt.Runs[0].Text != "abcd" {
		t.Errorf("expected single merged run %q, got %+v", "abcd", txt.Runs)
	}
}

func TestText_InsertAtEndUsesLastRun(t *testing.T) {
	txt := twoRunText()
	if err := txt.InsertCharacters(txt.Len(), "!"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if txt.Runs[1].Text != "world!" {
		t.Errorf("expected last run %q, got %q", "world!", txt.Runs[1].Text)
	}
}

func TestText_RangeErrors(t *testing.T) {
	txt := NewText("1:1", "n", "abc", DefaultFont, 12)
	if err := txt.InsertCharacters(4, "x"); err == nil {
		t.Error("expected error inserting past the end")
	}
	if err := txt.DeleteCharacters(2, 1); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestText_FontsAndLoading(t *testing.T) {
	txt := twoRunText()
	fonts := txt.Fonts()
	if len(fonts) != 2 || fonts[0] != bold || fonts[1] != DefaultFont {
		t.Fatalf("unexpected fonts: %v", fonts)
	}

	book := NewFontBook("Inter")
	if err := LoadFonts(context.Background(), book, txt); err != nil {
		t.Fatalf("load fonts: %v", err)
	}
	if book.Loaded(bold) != 1 || book.Loaded(DefaultFont) != 1 {
		t.Errorf("expected each font loaded once")
	}

	strict := NewFontBook("Roboto")
	err := LoadFonts(context.Background(), strict, txt)
	if !errors.Is(err, ErrFontUnavailable) {
		t.Errorf("expected ErrFontUnavailable, got %v", err)
	}
}

func TestText_RelaunchDataIsCopied(t *testing.T) {
	txt := NewText("1:1", "n", "abc", DefaultFont, 12)
	data := map[string]string{"review": "Review copy changes"}
	txt.SetRelaunchData(data)
	data["review"] = "mutated"
	if got := txt.RelaunchData()["review"]; got != "Review copy changes" {
		t.Errorf("expected stored copy, got %q", got)
	}
	txt.SetRelaunchData(nil)
	if len(txt.RelaunchData()) != 0 {
		t.Error("expected relaunch data cleared")
	}
}

func TestMixed_Equal(t *testing.T) {
	if !Definite(14.0).Equal(Definite(14.0)) {
		t.Error("expected equal definite values")
	}
	if Definite(0.0).Equal(MixedValue[float64]()) {
		t.Error("mixed must never equal a definite zero value")
	}
	if !MixedValue[float64]().Equal(MixedValue[float64]()) {
		t.Error("expected mixed to equal mixed")
	}
}
