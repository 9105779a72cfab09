package core

// parse_limiter.go bounds how many uploads are parsed at once.
//
// Parsing holds the whole file plus its column copies in memory, so a burst of
// large uploads is the main way to exhaust the process. Requests that cannot get
// a slot within the configured wait fail with ErrTooManyParses. Cache hits never
// take a slot.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyParses is returned when every parse slot stays busy for the whole wait.
var ErrTooManyParses = errors.New("too many files being processed, please try again shortly")

// DefaultMaxConcurrentParses is used when the configured limit is not positive.
const DefaultMaxConcurrentParses = 4

// DefaultParseWait is used when the configured wait is not positive.
const DefaultParseWait = 10 * time.Second

// ParseLimiter is a counting semaphore around parse work.
type ParseLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewParseLimiter returns a limiter allowing maxConcurrent parses at a time.
func NewParseLimiter(maxConcurrent int, maxWait time.Duration) *ParseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentParses
	}
	if maxWait <= 0 {
		maxWait = DefaultParseWait
	}
	return &ParseLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's max wait.
// Every successful Acquire must be paired with Release.
func (l *ParseLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyParses
	}
}

// Release frees a slot taken by Acquire.
func (l *ParseLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Run executes fn while holding a slot.
func (l *ParseLimiter) Run(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// Active returns the number of parses in progress.
func (l *ParseLimiter) Active() int { return int(l.active.Load()) }

// Capacity returns the configured concurrency limit.
func (l *ParseLimiter) Capacity() int { return cap(l.slots) }

// WaitForDrain blocks until no parse is in progress or ctx ends.
// Used during shutdown after the HTTP server stops accepting requests.
func (l *ParseLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ParseLimiterStatus is a point-in-time view of the limiter for the health endpoint.
type ParseLimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Capacity  int `json:"capacity"`
}

// Status returns the limiter's current state.
func (l *ParseLimiter) Status() ParseLimiterStatus {
	return ParseLimiterStatus{
		Active:    l.Active(),
		Available: cap(l.slots) - len(l.slots),
		Capacity:  cap(l.slots),
	}
}
