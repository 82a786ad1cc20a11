package nodeinfo

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// ErrInvalidCSV wraps every other rejection of uploaded CSV text.
var ErrInvalidCSV = errors.New("invalid csv")

// required columns for an import; the rest of the base set is optional.
var requiredColumns = []string{ColID, ColCharacters}

const utf8BOM = "\ufeff"

// Marshal renders records as CSV: the base header followed by extra
// columns, every id prefixed with the sigil.
func Marshal(records []Record, extra []string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, BaseColumns...), extra...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{AddSigil(r.ID), r.Page, r.Name, r.Characters, r.ListOption, r.HeadingLevel}
		for _, col := range extra {
			row = append(row, r.Extra[col])
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// Parsed is the result of reading CSV text in header-row mode.
type Parsed struct {
	Fields  []string // header names in file order
	Records []Record // ids as written, sigil included
}

// Extra returns the non-base columns, in file order.
func (p *Parsed) Extra() []string {
	var out []string
	for _, f := range p.Fields {
		if !IsBaseColumn(f) {
			out = append(out, f)
		}
	}
	return out
}

// Parse reads CSV text whose first row is the header. Any error discards
// the whole result.
func Parse(text string) (*Parsed, error) {
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, utf8BOM)))
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidCSV, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	parsed := &Parsed{Fields: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}
		parsed.Records = append(parsed.Records, recordFromRow(header, row))
	}
	return parsed, nil
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" {
			return fmt.Errorf("%w: empty column name", ErrInvalidCSV)
		}
		if seen[h] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidCSV, h)
		}
		seen[h] = true
	}
	for _, c := range requiredColumns {
		if !seen[c] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}

func recordFromRow(header, row []string) Record {
	var r Record
	for i, col := range header {
		v := row[i]
		switch col {
		case ColID:
			r.ID = v
		case ColPage:
			r.Page = v
		case ColName:
			r.Name = v
		case ColCharacters:
			r.Characters = v
		case ColListOption:
			r.ListOption = v
		case ColHeadingLevel:
			r.HeadingLevel = v
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[col] = v
		}
	}
	return r
}

// Map indexes records by raw (sigil-stripped) node id.
type Map map[string]Record

// BuildMap indexes records by stripped id. Later duplicates overwrite
// earlier ones; the number of overwritten rows is returned.
func BuildMap(records []Record) (Map, int) {
	m := make(Map, len(records))
	dupes := 0
	for _, r := range records {
		r.ID = StripSigil(r.ID)
		if _, ok := m[r.ID]; ok {
			dupes++
		}
		m[r.ID] = r
	}
	return m, dupes
}

// Filename is the default download name for a document export.
func Filename(documentName string) string {
	return documentName + ".csv"
}

// DataURI wraps CSV text in a downloadable data URI, escaped the way
// encodeURIComponent escapes.
func DataURI(csvText string) string {
	return "data:text/csv;charset=utf-8," + encodeURIComponent(csvText)
}

var uriUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
	"%7E", "~",
)

func encodeURIComponent(s string) string {
	return uriUnescaper.Replace(url.QueryEscape(s))
}
