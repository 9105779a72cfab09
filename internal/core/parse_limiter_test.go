package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestParseLimiter_AcquireRelease(t *testing.T) {
	l := NewParseLimiter(2, time.Second)
	ctx := context.Background()

	if got := l.Status().Available; got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire #%d: %v", i+1, err)
		}
	}
	if got := l.Active(); got != 2 {
		t.Errorf("Active = %d, want 2", got)
	}
	if got := l.Status().Available; got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	l.Release()
	l.Release()
	if got := l.Active(); got != 0 {
		t.Errorf("after Release, Active = %d, want 0", got)
	}
}

func TestParseLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewParseLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	if err := l.Acquire(ctx); !errors.Is(err, ErrTooManyParses) {
		t.Errorf("second Acquire = %v, want ErrTooManyParses", err)
	}
}

func TestParseLimiter_ContextCancelled(t *testing.T) {
	l := NewParseLimiter(1, 5*time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestParseLimiter_RunBoundsConcurrency(t *testing.T) {
	const limit = 3
	l := NewParseLimiter(limit, time.Second)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		current int
		peak    int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Run(context.Background(), func() error {
				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak > limit {
		t.Errorf("peak concurrency = %d, want <= %d", peak, limit)
	}
	if got := l.Active(); got != 0 {
		t.Errorf("final Active = %d, want 0", got)
	}
}

func TestParseLimiter_RunReturnsError(t *testing.T) {
	l := NewParseLimiter(1, time.Second)
	want := errors.New("boom")

	if err := l.Run(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Run = %v, want %v", err, want)
	}
	if got := l.Active(); got != 0 {
		t.Errorf("Active after failed Run = %d, want 0", got)
	}
}

func TestParseLimiter_WaitForDrain(t *testing.T) {
	l := NewParseLimiter(2, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- l.WaitForDrain(context.Background()) }()

	select {
	case <-done:
		t.Fatal("WaitForDrain returned with a parse in progress")
	case <-time.After(30 * time.Millisecond):
	}

	l.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return after release")
	}
}

func TestParseLimiter_Defaults(t *testing.T) {
	l := NewParseLimiter(0, 0)
	if got := l.Capacity(); got != DefaultMaxConcurrentParses {
		t.Errorf("Capacity = %d, want %d", got, DefaultMaxConcurrentParses)
	}
}
