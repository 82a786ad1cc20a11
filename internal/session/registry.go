package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/figsync/internal/scene"
)

const cleanupInterval = time.Minute

type entry struct {
	session *Session
	seen    time.Time
}

// Registry is a thread-safe set of open sessions with idle eviction.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	opts     Options
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRegistry(ttl time.Duration, opts Options) *Registry {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		opts:     opts,
		log:      log,
	}
}

// Create opens a session over doc under a fresh id.
func (r *Registry) Create(doc *scene.Document) (*Session, error) {
	id := uuid.NewString()
	s, err := New(id, doc, r.opts)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	r.mu.Lock()
	r.sessions[id] = &entry{session: s, seen: time.Now()}
	r.mu.Unlock()
	r.log.Info("session opened", "session_id", id, "document_id", doc.ID)
	return s, nil
}

// Get returns the session with id, or nil. A hit counts as activity.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil
	}
	e.seen = time.Now()
	return e.session
}

// Delete closes the session with id and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	r.log.Info("session closed", "session_id", id)
	return true
}

// List returns every open session, oldest first.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.session)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how
// many were removed.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, e := range r.sessions {
		if now.Sub(e.seen) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.log.Info("expired idle sessions", "removed", removed, "open", len(r.sessions))
	}
	return removed
}

// Start launches the eviction loop.
func (r *Registry) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}

// Stop ends the eviction loop and waits for it to exit.
func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}
