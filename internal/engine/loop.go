package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Loop runs posted closures one at a time, in posting order, on a single
// goroutine. Every ManagedVideo write and every engine flag change happens
// inside a closure executed by Run.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	logger  *slog.Logger
}

// NewLoop constructs an idle loop. Nothing executes until Run is called.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Post schedules fn and returns immediately. Safe from any goroutine,
// including from inside a running closure.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

const (
	doPending int32 = iota
	doRunning
	doAbandoned
)

// Do posts fn and blocks until it has run or ctx is done. When Do returns an
// error fn has not run and never will; once fn has started Do waits for it,
// so fn may write to the caller's variables. Calling Do from a closure
// running on the loop deadlocks; use Post there.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	var state atomic.Int32
	done := make(chan struct{})
	l.Post(func() {
		if !state.CompareAndSwap(doPending, doRunning) {
			return
		}
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(doPending, doAbandoned) {
			return ctx.Err()
		}
		<-done
		return nil
	}
}

// Run executes posted closures until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		batch := l.take()
		for _, fn := range batch {
			l.execute(fn)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	return batch
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()
	fn()
}
