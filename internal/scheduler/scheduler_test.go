package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu     sync.Mutex
	events []string
}

type recHandle struct {
	r   *recorder
	msg string
}

func (h recHandle) Cancel() {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	h.r.events = append(h.r.events, "cancel:"+h.msg)
}

func (r *recorder) Notify(msg string, _ NotifyOptions) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "show:"+msg)
	return recHandle{r: r, msg: msg}
}

func TestRun_SequentialOrder(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer(rec, time.Millisecond, discard)

	var active, maxActive int32
	var order []string
	job := Job[string, int, int]{
		Label: "Updating",
		Items: []string{"a", "b", "c"},
		Step: func(ctx context.Context, i int, item string) (int, error) {
			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			defer atomic.AddInt32(&active, -1)
			time.Sleep(2 * time.Millisecond)
			order = append(order, item)
			return i + 1, nil
		},
		Finish: func(results []int) (int, string, error) {
			sum := 0
			for _, r := range results {
				sum += r
			}
			return sum, "Done", nil
		},
	}

	sum, err := Run(context.Background(), seq, job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != 6 {
		t.Errorf("expected 6, got %d", sum)
	}
	if maxActive != 1 {
		t.Errorf("expected at most one active step, got %d", maxActive)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("expected [a b c], got %v", order)
	}

	want := []string{
		"show:Updating 1 of 3",
		"cancel:Updating 1 of 3",
		"show:Updating 2 of 3",
		"cancel:Updating 2 of 3",
		"show:Updating 3 of 3",
		"cancel:Updating 3 of 3",
		"show:Done",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("expected %v, got %v", want, rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, rec.events)
		}
	}
}

func TestRun_StepErrorStopsSweep(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer(rec, 0, discard)
	boom := errors.New("boom")
	var processed []int

	job := Job[int, int, int]{
		Label: "Exporting",
		Items: []int{1, 2, 3},
		Step: func(ctx context.Context, i int, item int) (int, error) {
			if item == 2 {
				return 0, boom
			}
			processed = append(processed, item)
			return item, nil
		},
		Finish: func(results []int) (int, string, error) {
			t.Fatal("finish must not run after a failed step")
			return 0, "", nil
		},
	}

	if _, err := Run(context.Background(), seq, job); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(processed) != 1 {
		t.Errorf("expected only the first item processed, got %v", processed)
	}
	last := rec.events[len(rec.events)-1]
	if last != "cancel:Exporting 2 of 3" {
		t.Errorf("expected live notification cancelled, got %q", last)
	}
}

func TestRun_ContextCancelledBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	seq := NewSequencer(NewCenter(10), time.Hour, discard)
	job := Job[int, int, int]{
		Label: "Updating",
		Items: []int{1, 2},
		Step: func(ctx context.Context, i int, item int) (int, error) {
			cancel()
			return item, nil
		},
		Finish: func(results []int) (int, string, error) { return 0, "", nil },
	}
	if _, err := Run(ctx, seq, job); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCenter_AtMostOneLive(t *testing.T) {
	c := NewCenter(2)
	first := c.Notify("one", NotifyOptions{})
	c.Notify("two", NotifyOptions{})

	live, ok := c.Live()
	if !ok || live.Message != "two" {
		t.Fatalf("expected live %q, got %+v", "two", live)
	}
	first.Cancel()
	if live, ok := c.Live(); !ok || live.Message != "two" {
		t.Error("cancelling an old handle must not clear the live notification")
	}

	third := c.Notify("three", NotifyOptions{})
	hist := c.History()
	if len(hist) != 2 || hist[0].Message != "two" || !hist[0].Cancelled {
		t.Errorf("unexpected history %+v", hist)
	}
	third.Cancel()
	if _, ok := c.Live(); ok {
		t.Error("expected no live notification after cancel")
	}
}

func TestCenter_TimeoutExpires(t *testing.T) {
	c := NewCenter(5)
	c.Notify("done", NotifyOptions{Timeout: time.Millisecond})
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Live(); ok {
		t.Error("expected timed notification to expire")
	}
}
