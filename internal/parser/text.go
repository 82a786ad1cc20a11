package parser

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/figsync/internal/scene"
)

var (
	bulletPattern = regexp.MustCompile(`^\s*[-*•]\s+`)
	numberPattern  = regexp.MustCompile(`^\s*\d+[.)]\s+`)
)

// TextParser handles plain text files. Blank lines separate paragraphs; a
// paragraph whose every line is bulleted or numbered becomes list items.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*scene.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs [][]string
	var current []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	l := newLayout(baseName(filename))
	for _, para := range paragraphs {
		switch {
		case allMatch(para, bulletPattern):
			for _, line := range para {
				l.listItem(bulletPattern.ReplaceAllString(line, ""), scene.ListUnordered)
			}
		case allMatch(para, numberPattern):
			for _, line := range para {
				l.listItem(numberPattern.ReplaceAllString(line, ""), scene.ListOrdered)
			}
		default:
			l.paragraph(strings.Join(para, "\n"))
		}
	}
	return l.document(src), nil
}

func allMatch(lines []string, re *regexp.Regexp) bool {
	for _, line := range lines {
		if !re.MatchString(line) {
			return false
		}
	}
	return len(lines) > 0
}
