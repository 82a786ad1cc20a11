package parser

import (
	"fmt"
	"strings"

	"github.com/dgallion1/figsync/internal/scene"
)

// Type sizes used when laying out prose. Heading sizes match the default
// heading thresholds so exported rows classify back to the source level.
const (
	BodySize   = 14
	lineHeight = 1.5
)

var (
	bodyFont    = scene.DefaultFont
	headingFont = scene.FontName{Family: scene.DefaultFont.Family, Style: "Bold"}
)

// HeadingSize returns the font size used for a heading level (1-6).
func HeadingSize(level int) float64 {
	switch level {
	case 1:
		return 36
	case 2:
		return 28
	case 3:
		return 22
	case 4:
		return 18
	default:
		return 16
	}
}

// layout places text layers top to bottom. Headings open nested section
// frames; content is appended to the innermost open section.
type layout struct {
	title string
	ids   int
	y     float64
	root  *scene.Frame
	stack []stackEntry
}

type stackEntry struct {
	frame *scene.Frame
	level int
}

func newLayout(title string) *layout {
	l := &layout{title: title}
	l.root = &scene.Frame{Header: scene.Header{ID: l.nextID(), Name: title, Visible: true}}
	l.stack = []stackEntry{{frame: l.root, level: 0}}
	return l
}

func (l *layout) nextID() string {
	l.ids++
	return fmt.Sprintf("1:%d", l.ids)
}

func (l *layout) top() *scene.Frame {
	return l.stack[len(l.stack)-1].frame
}

func (l *layout) place(t *scene.Text) {
	t.Y = l.y
	size := float64(scene.DefaultFontSize)
	if v, ok := t.FontSize().Get(); ok {
		size = v
	}
	l.y += size * lineHeight
	l.top().Append(t)
}

// heading opens a section frame at level, closing sections at the same or
// deeper level first.
func (l *layout) heading(level int, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for len(l.stack) > 1 && l.stack[len(l.stack)-1].level >= level {
		l.stack = l.stack[:len(l.stack)-1]
	}
	section := &scene.Frame{Header: scene.Header{
		ID:      l.nextID(),
		Name:    text,
		Visible: true,
		Y:       l.y,
	}}
	l.top().Append(section)
	l.stack = append(l.stack, stackEntry{frame: section, level: level})

	t := scene.NewText(l.nextID(), text, text, headingFont, HeadingSize(level))
	l.place(t)
}

func (l *layout) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	l.place(scene.NewText(l.nextID(), text, text, bodyFont, BodySize))
}

func (l *layout) listItem(text string, style scene.ListStyle) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	t := scene.NewText(l.nextID(), text, text, bodyFont, BodySize)
	t.SetListStyle(style)
	l.place(t)
}

// document wraps the laid out frame in a single-page document.
func (l *layout) document(data []byte) *scene.Document {
	return &scene.Document{
		ID:   documentID(data),
		Name: l.title,
		Pages: []*scene.Page{{
			ID:    "0:1",
			Name:  "Page 1",
			Nodes: []scene.Node{l.root},
		}},
	}
}
