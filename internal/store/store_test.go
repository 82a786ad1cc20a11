package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/figsync/internal/config"
	"github.com/dgallion1/figsync/internal/pathstore"
)

// fakePathstore serves the subset of the pathstore API the client uses.
type fakePathstore struct {
	mu       sync.Mutex
	nodes    map[string]any
	failNext atomic.Int32
}

func (f *fakePathstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.failNext.Load() > 0 {
		f.failNext.Add(-1)
		http.Error(w, "try again", http.StatusServiceUnavailable)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		var req pathstore.NodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		if prefix, ok := strings.CutSuffix(key, "/*"); ok {
			var nodes []pathstore.ListChildrenResponse
			for k, v := range f.nodes {
				if strings.HasPrefix(k, prefix+"/") {
					nodes = append(nodes, pathstore.ListChildrenResponse{Key: k, Value: v})
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
			return
		}
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(pathstore.NodeResponse{Key: key, Value: v})
	case http.MethodDelete:
		delete(f.nodes, key)
		w.WriteHeader(http.StatusNoContent)
	}
}

func newFakePathstore(t *testing.T) (*fakePathstore, *pathstore.Client) {
	t.Helper()
	fake := &fakePathstore{nodes: make(map[string]any)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := pathstore.NewClient(srv.URL, "test").WithRetry(3, time.Millisecond)
	return fake, client
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, sqlite.Close()) })

	_, client := newFakePathstore(t)
	return map[string]Store{
		"memory":    NewMemory(),
		"sqlite":    sqlite,
		"pathstore": NewPathstore(client),
	}
}

func TestStore_Contract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{Document: "doc-1", Namespace: "copy", Name: "settings"}

			_, ok, err := s.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, key, `{"h1":36}`))
			got, ok, err := s.Get(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"h1":36}`, got)

			require.NoError(t, s.Set(ctx, key, "replaced"))
			got, _, err = s.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, "replaced", got)

			require.NoError(t, s.Set(ctx, Key{Document: "doc-1", Namespace: "copy", Name: "csv"}, "id,characters"))
			require.NoError(t, s.Set(ctx, Key{Document: "doc-2", Namespace: "copy", Name: "other"}, "x"))
			names, err := s.Keys(ctx, "doc-1", "copy")
			require.NoError(t, err)
			assert.Equal(t, []string{"csv", "settings"}, names)

			require.NoError(t, s.Delete(ctx, key))
			_, ok, err = s.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_InvalidKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Set(context.Background(), Key{Document: "doc", Namespace: "copy", Name: "a/b"}, "v")
			assert.ErrorIs(t, err, ErrInvalidKey)
			_, _, err = s.Get(context.Background(), Key{Namespace: "copy", Name: "x"})
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	key := Key{Document: "doc", Namespace: "copy", Name: "csv"}

	s, err := NewSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, key, "id,characters\n"))
	require.NoError(t, s.Close())

	s, err = NewSQLite(dir)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "id,characters\n", got)
}

func TestPathstore_RetriesTransientFailure(t *testing.T) {
	fake, client := newFakePathstore(t)
	s := NewPathstore(client)
	ctx := context.Background()
	key := Key{Document: "doc", Namespace: "copy", Name: "csv"}

	fake.failNext.Store(2)
	require.NoError(t, s.Set(ctx, key, "v"))

	fake.mu.Lock()
	keys := make([]string, 0, len(fake.nodes))
	for k := range fake.nodes {
		keys = append(keys, k)
	}
	fake.mu.Unlock()
	sort.Strings(keys)
	assert.Equal(t, []string{"figsync/documents/doc/copy/csv"}, keys)
}

func TestPathstore_GivesUpAfterAttempts(t *testing.T) {
	fake, client := newFakePathstore(t)
	s := NewPathstore(client)
	fake.failNext.Store(10)

	err := s.Set(context.Background(), Key{Document: "doc", Namespace: "copy", Name: "csv"}, "v")
	var serr *pathstore.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusServiceUnavailable, serr.Status)
}

func TestOpen(t *testing.T) {
	s, err := Open(config.Config{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(config.Config{StoreBackend: config.BackendSQLite, SQLiteDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.Config{StoreBackend: "redis"})
	assert.Error(t, err)
}

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "3f2a9c0d11b4e6a7", DocumentKey("3f2a9c0d11b4e6a7"))

	for _, id := range []string{"Landing Page v2", "team/landing", ""} {
		got := DocumentKey(id)
		assert.Regexp(t, `^doc-[0-9a-f]{16}$`, got, id)
		assert.NoError(t, Key{Document: got, Namespace: "figsync", Name: "csv"}.Validate(), id)
	}
	assert.NotEqual(t, DocumentKey("a b"), DocumentKey("a c"))
	assert.Equal(t, DocumentKey("a b"), DocumentKey("a b"))
}
