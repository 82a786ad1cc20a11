// Package visitor walks a scene tree and dispatches each node to a handler
// chosen by its kind. The same walk serves read-only export (Visit) and
// font-loading updates (VisitAsync).
package visitor

import (
	"context"

	"github.com/dgallion1/figsync/internal/scene"
)

// Handlers is the capability set for a synchronous walk. A nil handler
// yields no result for that kind. OnContainer orders children itself
// before recursing.
type Handlers[S, T any] struct {
	OnLeaf      func(node *scene.Text, settings S) (T, bool)
	OnImage     func(node scene.Node) (T, bool)
	OnContainer func(node scene.Container, settings S, h Handlers[S, T]) (T, bool)
}

// Visit dispatches node to the matching handler. Invisible nodes yield no
// result and are never descended into.
func Visit[S, T any](node scene.Node, settings S, h Handlers[S, T]) (T, bool) {
	var zero T
	if node == nil || !node.IsVisible() {
		return zero, false
	}

	switch scene.Classify(node) {
	case scene.KindLeaf:
		if h.OnLeaf != nil {
			return h.OnLeaf(node.(*scene.Text), settings)
		}
	case scene.KindImage:
		if h.OnImage != nil {
			return h.OnImage(node)
		}
	case scene.KindContainer:
		if h.OnContainer != nil {
			return h.OnContainer(node.(scene.Container), settings, h)
		}
	case scene.KindOpaque:
	}
	return zero, false
}

// AsyncHandlers is the capability set for a walk whose handlers may block,
// e.g. on font loading, and may fail.
type AsyncHandlers[S, T any] struct {
	OnLeaf      func(ctx context.Context, node *scene.Text, settings S) (T, bool, error)
	OnImage     func(ctx context.Context, node scene.Node) (T, bool, error)
	OnContainer func(ctx context.Context, node scene.Container, settings S, h AsyncHandlers[S, T]) (T, bool, error)
}

// VisitAsync is Visit for AsyncHandlers.
func VisitAsync[S, T any](ctx context.Context, node scene.Node, settings S, h AsyncHandlers[S, T]) (T, bool, error) {
	var zero T
	if node == nil || !node.IsVisible() {
		return zero, false, nil
	}

	switch scene.Classify(node) {
	case scene.KindLeaf:
		if h.OnLeaf != nil {
			return h.OnLeaf(ctx, node.(*scene.Text), settings)
		}
	case scene.KindImage:
		if h.OnImage != nil {
			return h.OnImage(ctx, node)
		}
	case scene.KindContainer:
		if h.OnContainer != nil {
			return h.OnContainer(ctx, node.(scene.Container), settings, h)
		}
	case scene.KindOpaque:
	}
	return zero, false, nil
}
