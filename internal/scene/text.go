package scene

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ListStyle is a paragraph list type.
type ListStyle string

const (
	ListOrdered   ListStyle = "ORDERED"
	ListUnordered ListStyle = "UNORDERED"
	ListNone      ListStyle = "NONE"
)

// ParseListStyle validates a list style tag.
func ParseListStyle(s string) (ListStyle, bool) {
	switch ListStyle(s) {
	case ListOrdered, ListUnordered, ListNone:
		return ListStyle(s), true
	}
	return "", false
}

// FontName identifies a font face.
type FontName struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

func (f FontName) String() string {
	return f.Family + " " + f.Style
}

// DefaultFont is used for runs created without an explicit font.
var DefaultFont = FontName{Family: "Inter", Style: "Regular"}

// DefaultFontSize is the size of runs created without an explicit size.
const DefaultFontSize = 12

// Run is a span of characters sharing one style.
type Run struct {
	Text      string
	Font      FontName
	FontSize  float64
	ListStyle ListStyle
}

func (r Run) sameStyle(o Run) bool {
	return r.Font == o.Font && r.FontSize == o.FontSize && r.ListStyle == o.ListStyle
}

// Text is an editable text layer made of styled runs.
type Text struct {
	Header
	Runs []Run

	relaunch map[string]string
}

// NewText builds a single-run text layer.
func NewText(id, name, chars string, font FontName, size float64) *Text {
	return &Text{
		Header: Header{ID: id, Name: name, Visible: true},
		Runs:   []Run{{Text: chars, Font: font, FontSize: size, ListStyle: ListNone}},
	}
}

// Characters returns the full text content.
func (t *Text) Characters() string {
	var sb strings.Builder
	for _, r := range t.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Len returns the text length in runes.
func (t *Text) Len() int {
	n := 0
	for _, r := range t.Runs {
		n += utf8.RuneCountInString(r.Text)
	}
	return n
}

// FontSize returns the full-range font size.
func (t *Text) FontSize() Mixed[float64] {
	if len(t.Runs) == 0 {
		return Definite[float64](DefaultFontSize)
	}
	first := t.Runs[0].FontSize
	for _, r := range t.Runs[1:] {
		if r.FontSize != first {
			return MixedValue[float64]()
		}
	}
	return Definite(first)
}

// ListStyle returns the full-range list style.
func (t *Text) ListStyle() Mixed[ListStyle] {
	if len(t.Runs) == 0 {
		return Definite(ListNone)
	}
	first := normalizeList(t.Runs[0].ListStyle)
	for _, r := range t.Runs[1:] {
		if normalizeList(r.ListStyle) != first {
			return MixedValue[ListStyle]()
		}
	}
	return Definite(first)
}

// Fonts returns the distinct fonts used across the full range, in run order.
func (t *Text) Fonts() []FontName {
	seen := make(map[FontName]bool)
	var fonts []FontName
	for _, r := range t.Runs {
		if !seen[r.Font] {
			seen[r.Font] = true
			fonts = append(fonts, r.Font)
		}
	}
	if len(fonts) == 0 {
		fonts = append(fonts, DefaultFont)
	}
	return fonts
}

// InsertCharacters inserts s at rune offset start. The inserted characters
// take the style of the run they land in: the run containing start, or the
// last run when inserting at the end.
func (t *Text) InsertCharacters(start int, s string) error {
	total := t.Len()
	if start < 0 || start > total {
		return fmt.Errorf("insert at %d: out of range [0, %d]", start, total)
	}
	if s == "" {
		return nil
	}
	if len(t.Runs) == 0 {
		t.Runs = []Run{{Text: s, Font: DefaultFont, FontSize: DefaultFontSize, ListStyle: ListNone}}
		return nil
	}

	pos := 0
	for i := range t.Runs {
		n := utf8.RuneCountInString(t.Runs[i].Text)
		if start < pos+n || (start == pos+n && i == len(t.Runs)-1) {
			runes := []rune(t.Runs[i].Text)
			off := start - pos
			t.Runs[i].Text = string(runes[:off]) + s + string(runes[off:])
			return nil
		}
		pos += n
	}
	return nil
}

// DeleteCharacters removes the rune range [start, end). Runs left empty are
// dropped and adjacent runs with equal styles are merged.
func (t *Text) DeleteCharacters(start, end int) error {
	total := t.Len()
	if start < 0 || end > total || start > end {
		return fmt.Errorf("delete [%d, %d): out of range [0, %d]", start, end, total)
	}
	if start == end {
		return nil
	}

	kept := t.Runs[:0]
	pos := 0
	for _, r := range t.Runs {
		runes := []rune(r.Text)
		n := len(runes)
		lo := clamp(start-pos, 0, n)
		hi := clamp(end-pos, 0, n)
		pos += n
		r.Text = string(runes[:lo]) + string(runes[hi:])
		if r.Text == "" {
			continue
		}
		if len(kept) > 0 && kept[len(kept)-1].sameStyle(r) {
			kept[len(kept)-1].Text += r.Text
			continue
		}
		kept = append(kept, r)
	}
	t.Runs = kept
	return nil
}

// SetListStyle applies a list style across the full range.
func (t *Text) SetListStyle(style ListStyle) {
	for i := range t.Runs {
		t.Runs[i].ListStyle = style
	}
}

// SetRelaunchData attaches host-visible relaunch commands to the node.
// An empty map clears them.
func (t *Text) SetRelaunchData(data map[string]string) {
	if len(data) == 0 {
		t.relaunch = nil
		return
	}
	t.relaunch = make(map[string]string, len(data))
	for k, v := range data {
		t.relaunch[k] = v
	}
}

// RelaunchData returns a copy of the node's relaunch commands.
func (t *Text) RelaunchData() map[string]string {
	out := make(map[string]string, len(t.relaunch))
	for k, v := range t.relaunch {
		out[k] = v
	}
	return out
}

func normalizeList(s ListStyle) ListStyle {
	if s == "" {
		return ListNone
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
