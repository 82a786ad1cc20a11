// Package nodeinfo maps text layers to CSV rows and back. Exported ids
// carry a leading sigil so spreadsheets keep them as text.
package nodeinfo

import (
	"strings"
	"unicode/utf8"
)

// Sigil prefixes every exported id.
const Sigil = "$"

const (
	maxNameRunes = 20
	ellipsis     = "..."
)

// Base column names, in export order.
const (
	ColID           = "id"
	ColPage         = "page"
	ColName         = "name"
	ColCharacters   = "characters"
	ColListOption   = "listOption"
	ColHeadingLevel = "headingLevel"
)

// BaseColumns is the fixed column order of every export.
var BaseColumns = []string{ColID, ColPage, ColName, ColCharacters, ColListOption, ColHeadingLevel}

// NodeInfo is one exported text layer. ID holds the raw node id.
type NodeInfo struct {
	ID           string `json:"id"`
	Page         string `json:"page"`
	Name         string `json:"name"`
	Characters   string `json:"characters"`
	ListOption   string `json:"listOption"`
	HeadingLevel string `json:"headingLevel"`
}

// Record is a NodeInfo plus any extra columns (e.g. one per language).
type Record struct {
	NodeInfo
	Extra map[string]string `json:"extra,omitempty"`
}

// Get returns a column value by name.
func (r Record) Get(column string) string {
	switch column {
	case ColID:
		return r.ID
	case ColPage:
		return r.Page
	case ColName:
		return r.Name
	case ColCharacters:
		return r.Characters
	case ColListOption:
		return r.ListOption
	case ColHeadingLevel:
		return r.HeadingLevel
	}
	return r.Extra[column]
}

// AddSigil prefixes an id for export.
func AddSigil(id string) string {
	return Sigil + id
}

// StripSigil removes one leading sigil if present.
func StripSigil(id string) string {
	return strings.TrimPrefix(id, Sigil)
}

// TruncateName shortens names longer than 20 characters to their first 20
// characters followed by "...".
func TruncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxNameRunes {
		return name
	}
	return string([]rune(name)[:maxNameRunes]) + ellipsis
}

// IsBaseColumn reports whether a header belongs to the fixed base set.
func IsBaseColumn(name string) bool {
	for _, c := range BaseColumns {
		if c == name {
			return true
		}
	}
	return false
}
