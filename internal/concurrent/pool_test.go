package concurrent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CoversEveryIndex(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]bool)

	err := Run(context.Background(), 100, 4, func(ctx context.Context, i int) error {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, seen, 100)
}

func TestRun_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int64

	err := Run(context.Background(), 64, 3, func(ctx context.Context, i int) error {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestRun_FirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	var after atomic.Int64

	err := Run(context.Background(), 1000, 1, func(ctx context.Context, i int) error {
		if i == 5 {
			return boom
		}
		if i > 5 {
			after.Add(1)
		}
		return nil
	})
	require.ErrorIs(t, err, boom)

	// Serial execution with limit 1: once index 5 fails, the remaining
	// tasks observe the canceled context and never run fn.
	assert.Zero(t, after.Load())
}

func TestRun_ZeroTasks(t *testing.T) {
	err := Run(context.Background(), 0, 2, func(ctx context.Context, i int) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.NoError(t, err)
}

func TestRun_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, 10, 2, func(ctx context.Context, i int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
