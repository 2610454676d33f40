package daemon

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakePoller struct {
	mu           sync.Mutex
	polls        int
	deregistered int
	panicOnce    bool
}

func (p *fakePoller) Poll() {
	p.mu.Lock()
	p.polls++
	shouldPanic := p.panicOnce
	p.panicOnce = false
	p.mu.Unlock()
	if shouldPanic {
		panic("geometry exploded")
	}
}

func (p *fakePoller) Deregister() {
	p.mu.Lock()
	p.deregistered++
	p.mu.Unlock()
}

func (p *fakePoller) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls, p.deregistered
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_PollsUntilCancelledThenDeregisters(t *testing.T) {
	p := &fakePoller{}
	r := NewRunner(RunnerConfig{Interval: 5 * time.Millisecond, Logger: quietLogger()}, p)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if polls, _ := p.counts(); polls >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("runner did not poll")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, dereg := p.counts(); dereg != 1 {
		t.Fatalf("Deregister called %d times, want 1", dereg)
	}
}

func TestRunner_RecoversFromPanic(t *testing.T) {
	p := &fakePoller{panicOnce: true}
	ticks := 0
	r := NewRunner(RunnerConfig{Logger: quietLogger(), Tick: func() { ticks++ }}, p)

	r.PollNow()
	r.PollNow()

	if polls, _ := p.counts(); polls != 2 {
		t.Fatalf("polls = %d, want 2", polls)
	}
	if ticks != 1 {
		t.Fatalf("ticks = %d, want 1 (skipped after panic)", ticks)
	}
}

func TestNewRunner_DefaultInterval(t *testing.T) {
	r := NewRunner(RunnerConfig{}, &fakePoller{})
	if r.interval != DefaultInterval {
		t.Fatalf("interval = %v, want %v", r.interval, DefaultInterval)
	}
}
