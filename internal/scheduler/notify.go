package scheduler

import (
	"sync"
	"time"
)

// Handle controls a shown notification.
type Handle interface {
	Cancel()
}

// Notifier shows user-visible progress messages.
type Notifier interface {
	Notify(message string, opts NotifyOptions) Handle
}

// NotifyOptions mirror the host's notification options.
type NotifyOptions struct {
	Timeout time.Duration `json:"timeout,omitempty"` // zero keeps it until cancelled
	Error   bool          `json:"error,omitempty"`
}

// Notification is one entry in a Center's history.
type Notification struct {
	Seq       int           `json:"seq"`
	Message   string        `json:"message"`
	Options   NotifyOptions `json:"options"`
	Cancelled bool          `json:"cancelled"`
	CreatedAt time.Time     `json:"created_at"`
}

// Center is an in-memory Notifier that keeps at most one live
// notification: showing a new one cancels the previous one.
type Center struct {
	mu      sync.Mutex
	history []Notification
	live    int // index into history, -1 when none
	limit   int
}

// NewCenter keeps up to limit entries of history.
func NewCenter(limit int) *Center {
	if limit <= 0 {
		limit = 100
	}
	return &Center{live: -1, limit: limit}
}

type centerHandle struct {
	c   *Center
	seq int
}

func (h centerHandle) Cancel() {
	h.c.cancel(h.seq)
}

func (c *Center) Notify(message string, opts NotifyOptions) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.live >= 0 {
		c.history[c.live].Cancelled = true
	}
	seq := 1
	if n := len(c.history); n > 0 {
		seq = c.history[n-1].Seq + 1
	}
	c.history = append(c.history, Notification{
		Seq:       seq,
		Message:   message,
		Options:   opts,
		CreatedAt: time.Now(),
	})
	if len(c.history) > c.limit {
		c.history = c.history[len(c.history)-c.limit:]
	}
	c.live = len(c.history) - 1
	return centerHandle{c: c, seq: seq}
}

func (c *Center) cancel(seq int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.history {
		if c.history[i].Seq == seq {
			c.history[i].Cancelled = true
			if i == c.live {
				c.live = -1
			}
			return
		}
	}
}

// Live returns the notification currently shown, if any. Notifications
// with a timeout stop being live once it elapses.
func (c *Center) Live() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live < 0 {
		return Notification{}, false
	}
	n := c.history[c.live]
	if n.Options.Timeout > 0 && time.Since(n.CreatedAt) > n.Options.Timeout {
		return Notification{}, false
	}
	return n, true
}

// History returns a copy of all retained notifications, oldest first.
func (c *Center) History() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.history))
	copy(out, c.history)
	return out
}
