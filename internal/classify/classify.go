// Package classify derives heading levels and list options from text
// layer properties.
package classify

import (
	"errors"
	"fmt"

	"github.com/dgallion1/figsync/internal/scene"
)

// ErrInvalidHeadings is returned when thresholds are not descending.
var ErrInvalidHeadings = errors.New("invalid heading settings")

// HeadingSettings are font-size thresholds; H1 is the largest.
type HeadingSettings struct {
	H1 float64 `json:"h1"`
	H2 float64 `json:"h2"`
	H3 float64 `json:"h3"`
	H4 float64 `json:"h4"`
}

// DefaultHeadings returns the stock thresholds.
func DefaultHeadings() HeadingSettings {
	return HeadingSettings{H1: 36, H2: 28, H3: 22, H4: 18}
}

// Validate checks H1 ≥ H2 ≥ H3 ≥ H4 > 0.
func (s HeadingSettings) Validate() error {
	if s.H4 <= 0 {
		return fmt.Errorf("%w: h4 must be positive, got %v", ErrInvalidHeadings, s.H4)
	}
	if s.H1 < s.H2 || s.H2 < s.H3 || s.H3 < s.H4 {
		return fmt.Errorf("%w: thresholds must descend h1 ≥ h2 ≥ h3 ≥ h4, got %v/%v/%v/%v",
			ErrInvalidHeadings, s.H1, s.H2, s.H3, s.H4)
	}
	return nil
}

// Level is a heading level. Level 1 is the most prominent heading and
// level 0 is body text.
type Level int

// LevelMixed marks a layer whose font size varies across its range.
const LevelMixed Level = -1

func (l Level) String() string {
	if l == LevelMixed {
		return "MIXED"
	}
	return fmt.Sprintf("%d", int(l))
}

// Heading classifies a full-range font size against the thresholds.
func Heading(fontSize scene.Mixed[float64], s HeadingSettings) Level {
	size, ok := fontSize.Get()
	if !ok {
		return LevelMixed
	}
	switch {
	case size >= s.H1:
		return 1
	case size >= s.H2:
		return 2
	case size >= s.H3:
		return 3
	case size >= s.H4:
		return 4
	default:
		return 0
	}
}

// Option is the exported list classification.
type Option string

const (
	OptionOrdered   Option = "ORDERED"
	OptionUnordered Option = "UNORDERED"
	OptionNone      Option = "NONE"
	OptionMixed     Option = "MIXED"
)

// ListOption reads a text layer's full-range list style.
func ListOption(t *scene.Text) Option {
	style, ok := t.ListStyle().Get()
	if !ok {
		return OptionMixed
	}
	return Option(style)
}
