package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrFontUnavailable is returned when a font cannot be loaded.
var ErrFontUnavailable = errors.New("font unavailable")

// FontLoader loads font resources before text is mutated.
type FontLoader interface {
	LoadFont(ctx context.Context, font FontName) error
}

// LoadFonts loads every font used across a text node's full range.
func LoadFonts(ctx context.Context, loader FontLoader, t *Text) error {
	for _, f := range t.Fonts() {
		if err := loader.LoadFont(ctx, f); err != nil {
			return fmt.Errorf("load font %s: %w", f, err)
		}
	}
	return nil
}

// FontBook is an in-memory FontLoader. A nil or empty family set accepts
// every font.
type FontBook struct {
	mu        sync.Mutex
	available map[string]bool
	loaded    map[FontName]int
}

// NewFontBook creates a loader that only knows the given families.
func NewFontBook(families ...string) *FontBook {
	b := &FontBook{loaded: make(map[FontName]int)}
	if len(families) > 0 {
		b.available = make(map[string]bool, len(families))
		for _, f := range families {
			b.available[f] = true
		}
	}
	return b
}

func (b *FontBook) LoadFont(ctx context.Context, font FontName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.available != nil && !b.available[font.Family] {
		return fmt.Errorf("%w: %s", ErrFontUnavailable, font)
	}
	b.loaded[font]++
	return nil
}

// Loaded reports how many times a font was requested.
func (b *FontBook) Loaded(font FontName) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded[font]
}
