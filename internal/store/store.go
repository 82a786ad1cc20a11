// Package store persists per-document shared plugin data: string values
// addressed by document, namespace and key.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidKey is returned for empty or malformed key parts.
var ErrInvalidKey = errors.New("invalid store key")

// Key addresses one value.
type Key struct {
	Document  string
	Namespace string
	Name      string
}

func (k Key) String() string {
	return k.Document + "/" + k.Namespace + "/" + k.Name
}

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.:\-]+$`)

// Validate rejects key parts that cannot be stored by every backend.
func (k Key) Validate() error {
	for _, part := range []string{k.Document, k.Namespace, k.Name} {
		if !segmentPattern.MatchString(part) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, k.String())
		}
	}
	return nil
}

// DocumentKey maps a document id onto a valid Key.Document. Ids that are
// already valid segments pass through; any other id is replaced by a
// prefixed hash of itself.
func DocumentKey(id string) string {
	if segmentPattern.MatchString(id) {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return "doc-" + hex.EncodeToString(sum[:8])
}

// Store is a shared string store. Implementations are safe for concurrent
// use.
type Store interface {
	// Get returns the value and whether it exists.
	Get(ctx context.Context, key Key) (string, bool, error)
	Set(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, key Key) error
	// Keys lists names stored under a document namespace, sorted.
	Keys(ctx context.Context, document, namespace string) ([]string, error)
	Close() error
}
