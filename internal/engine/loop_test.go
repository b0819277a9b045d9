package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoop_RunsInPostingOrder(t *testing.T) {
	loop := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() {
			got = append(got, i)
			if i == 0 {
				loop.Post(func() { got = append(got, 99) })
			}
		})
	}

	waitCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := loop.Do(waitCtx, func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if err := loop.Do(waitCtx, func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	expected := []int{0, 1, 2, 3, 4, 99}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

func TestLoop_DoHonoursContext(t *testing.T) {
	loop := NewLoop(nil)

	// Nothing executes without Run
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := loop.Do(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLoop_SurvivesPanic(t *testing.T) {
	loop := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	loop.Post(func() { panic("boom") })

	ran := false
	waitCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := loop.Do(waitCtx, func() { ran = true }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !ran {
		t.Error("loop stopped after a panicking task")
	}
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	loop := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoop_DoSkipsAbandonedTask(t *testing.T) {
	loop := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	release := make(chan struct{})
	loop.Post(func() { <-release })

	var ran atomic.Bool
	short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	if err := loop.Do(short, func() { ran.Store(true) }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)

	waitCtx, stopWait := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopWait()
	if err := loop.Do(waitCtx, func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if ran.Load() {
		t.Error("task ran after Do gave up on it")
	}
}

func TestLoop_DoWaitsForStartedTask(t *testing.T) {
	loop := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()

	result := 0
	err := loop.Do(short, func() {
		<-short.Done()
		time.Sleep(10 * time.Millisecond)
		result = 42
	})
	if err != nil {
		t.Fatalf("a started task must complete, got %v", err)
	}
	if result != 42 {
		t.Errorf("expected the task's write to be visible, got %d", result)
	}
}
