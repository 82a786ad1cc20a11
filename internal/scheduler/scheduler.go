// Package scheduler processes top-level subtrees strictly one at a time,
// yielding between items and keeping the user informed of progress.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// DoneTimeout is how long the terminal notification stays up.
const DoneTimeout = 3 * time.Second

// Sequencer owns the notifier and the pause taken between items.
type Sequencer struct {
	notifier Notifier
	yield    time.Duration
	log      *slog.Logger
}

func NewSequencer(n Notifier, yield time.Duration, log *slog.Logger) *Sequencer {
	return &Sequencer{notifier: n, yield: yield, log: log}
}

// Job describes one sequential sweep.
type Job[I, T, R any] struct {
	Label string // progress verb, e.g. "Exporting"
	Items []I

	// Step processes a single item to completion.
	Step func(ctx context.Context, index int, item I) (T, error)

	// Finish aggregates step results and returns the terminal message.
	Finish func(results []T) (R, string, error)
}

// Run processes job items in order, never two at once. Each progress
// notification replaces the previous one. Items processed before a failure
// stay applied; the failure is returned as is.
func Run[I, T, R any](ctx context.Context, s *Sequencer, job Job[I, T, R]) (R, error) {
	var zero R
	var live Handle
	show := func(msg string, opts NotifyOptions) {
		if live != nil {
			live.Cancel()
		}
		live = s.notifier.Notify(msg, opts)
	}
	cancelLive := func() {
		if live != nil {
			live.Cancel()
			live = nil
		}
	}

	results := make([]T, 0, len(job.Items))
	total := len(job.Items)
	for i, item := range job.Items {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				cancelLive()
				return zero, err
			}
		}
		show(fmt.Sprintf("%s %d of %d", job.Label, i+1, total), NotifyOptions{})
		s.log.Debug("sweep step", "label", job.Label, "index", i, "total", total)

		res, err := job.Step(ctx, i, item)
		if err != nil {
			cancelLive()
			return zero, err
		}
		results = append(results, res)
	}

	out, msg, err := job.Finish(results)
	if err != nil {
		cancelLive()
		return zero, err
	}
	show(msg, NotifyOptions{Timeout: DoneTimeout})
	return out, nil
}

// pause hands control back before the next item starts.
func (s *Sequencer) pause(ctx context.Context) error {
	if s.yield <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	t := time.NewTimer(s.yield)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
