package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/figsync/internal/scene"
)

// PDFParser handles PDF files. Text is grouped into lines by baseline and
// font size; large lines become headings. If the Go library fails and
// FallbackPdftotext is set, pdftotext output is laid out as plain text.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*scene.Document, error) {
	// ledongthuc/pdf opens by path, so we write to a temp file.
	tmp, err := os.CreateTemp("", "figsync-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var src bytes.Buffer
	if _, err := io.Copy(tmp, io.TeeReader(r, &src)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFLines(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, ferr := extractPdftotext(tmpPath)
		if ferr != nil {
			return nil, fmt.Errorf("extract pdf text: %w", err)
		}
		doc, terr := (&TextParser{}).Parse(strings.NewReader(text), filename)
		if terr != nil {
			return nil, terr
		}
		doc.ID = documentID(src.Bytes())
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	l := newLayout(baseName(filename))
	for _, lines := range pages {
		for _, para := range paragraphs(lines) {
			if level := pdfHeadingLevel(para.size); level > 0 {
				l.heading(level, para.text)
			} else {
				l.paragraph(para.text)
			}
		}
	}
	return l.document(src.Bytes()), nil
}

// pdfLine is a run of glyphs sharing a baseline and font size.
type pdfLine struct {
	text string
	size float64
	y    float64
}

func extractPDFLines(path string) ([][]pdfLine, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages [][]pdfLine
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, groupLines(page.Content().Text))
	}
	return pages, nil
}

// groupLines joins glyphs in content order. A baseline or size change
// starts a new line; a horizontal gap inserts a space.
func groupLines(glyphs []pdflib.Text) []pdfLine {
	var lines []pdfLine
	var sb strings.Builder
	var cur pdfLine
	var lastEnd float64
	started := false

	flush := func() {
		if t := strings.TrimSpace(sb.String()); t != "" {
			cur.text = t
			lines = append(lines, cur)
		}
		sb.Reset()
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		size := math.Round(g.FontSize)
		newLine := !started || math.Abs(g.Y-cur.y) > size/2 || size != cur.size
		if newLine {
			if started {
				flush()
			}
			cur = pdfLine{size: size, y: g.Y}
			started = true
		} else if g.X-lastEnd > size/4 {
			sb.WriteByte(' ')
		}
		sb.WriteString(g.S)
		lastEnd = g.X + g.W
	}
	if started {
		flush()
	}
	return lines
}

type pdfParagraph struct {
	text string
	size float64
}

// paragraphs merges consecutive body lines of equal size whose baselines
// are close. Heading-sized lines always stand alone.
func paragraphs(lines []pdfLine) []pdfParagraph {
	var out []pdfParagraph
	for i, ln := range lines {
		if i > 0 && len(out) > 0 {
			prev := lines[i-1]
			last := &out[len(out)-1]
			if pdfHeadingLevel(ln.size) == 0 && prev.size == ln.size && last.size == ln.size &&
				math.Abs(prev.y-ln.y) <= ln.size*1.6 {
				last.text += "\n" + ln.text
				continue
			}
		}
		out = append(out, pdfParagraph{text: ln.text, size: ln.size})
	}
	return out
}

// pdfHeadingLevel maps a point size onto heading levels using the same
// thresholds as the default heading settings.
func pdfHeadingLevel(size float64) int {
	for level := 1; level <= 4; level++ {
		if size >= HeadingSize(level) {
			return level
		}
	}
	return 0
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
