// Package position orders sibling nodes by their visual placement.
package position

import (
	"slices"

	"github.com/dgallion1/figsync/internal/scene"
)

// Compare orders by y ascending, then x ascending.
func Compare(a, b scene.Node) int {
	ax, ay := a.Position()
	bx, by := b.Position()
	switch {
	case ay < by:
		return -1
	case ay > by:
		return 1
	case ax < bx:
		return -1
	case ax > bx:
		return 1
	}
	return 0
}

// Sort returns a stably sorted copy of nodes; the input is left untouched.
func Sort(nodes []scene.Node) []scene.Node {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, Compare)
	return out
}
