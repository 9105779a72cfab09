package eventlog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls atomic.Int32
	days  atomic.Int32
	err   error
}

func (p *countingPurger) Purge(_ context.Context, days int) (int64, error) {
	p.calls.Add(1)
	p.days.Store(int32(days))
	return 3, p.err
}

func TestStartPurgeScheduler(t *testing.T) {
	p := &countingPurger{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		StartPurgeScheduler(ctx, p, RetentionConfig{RetentionDays: 7, Interval: 10 * time.Millisecond})
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "scheduler did not stop after cancel")
	}

	assert.GreaterOrEqual(t, p.calls.Load(), int32(2))
	assert.Equal(t, int32(7), p.days.Load())
}

func TestRunPurge_ErrorIsLogged(t *testing.T) {
	p := &countingPurger{err: errors.New("db down")}
	runPurge(context.Background(), p, 30)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestRetentionConfig_Defaults(t *testing.T) {
	got := RetentionConfig{}.withDefaults()
	assert.Equal(t, 30, got.RetentionDays)
	assert.Equal(t, 24*time.Hour, got.Interval)
}
