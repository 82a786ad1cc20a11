package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/figsync/internal/scene"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*scene.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	l := newLayout(baseName(filename))
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if level := docxHeadingLevel(para); level > 0 {
			l.heading(level, text)
			continue
		}
		if style, ok := docxListStyle(para); ok {
			l.listItem(text, style)
			continue
		}
		l.paragraph(text)
	}
	return l.document(src), nil
}

// docxListStyle reports list paragraphs: numbered list styles are ordered,
// any other numbering or list style is a bullet list.
func docxListStyle(para *docx.Paragraph) (scene.ListStyle, bool) {
	if para.Properties == nil {
		return "", false
	}
	if para.Properties.Style != nil {
		style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
		switch {
		case strings.HasPrefix(style, "listnumber"):
			return scene.ListOrdered, true
		case strings.HasPrefix(style, "listbullet"), style == "listparagraph":
			return scene.ListUnordered, true
		}
	}
	if para.Properties.NumProperties != nil {
		return scene.ListUnordered, true
	}
	return "", false
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	switch {
	case strings.EqualFold(style, "Heading1") || strings.EqualFold(style, "heading 1"):
		return 1
	case strings.EqualFold(style, "Heading2") || strings.EqualFold(style, "heading 2"):
		return 2
	case strings.EqualFold(style, "Heading3") || strings.EqualFold(style, "heading 3"):
		return 3
	case strings.EqualFold(style, "Heading4") || strings.EqualFold(style, "heading 4"):
		return 4
	case strings.EqualFold(style, "Heading5") || strings.EqualFold(style, "heading 5"):
		return 5
	case strings.EqualFold(style, "Heading6") || strings.EqualFold(style, "heading 6"):
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
