package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/logger"
)

// fakeClock advances only when the controller sleeps
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

type countingRotator struct {
	calls int
	err   error
}

func (r *countingRotator) Rotate() error {
	r.calls++
	return r.err
}

func testConfig(clock *fakeClock) Config {
	return Config{
		Window:           10 * time.Minute,
		Budget:           4,
		Margin:           5 * time.Second,
		TotalBlockBudget: 20 * time.Minute,
		Account:          "alice",
		Now:              clock.Now,
		Sleep:            clock.Sleep,
	}
}

func blocked() error {
	return &errs.Error{Kind: errs.KindBlocked, Code: 429}
}

func TestWindowCountAndExpiry(t *testing.T) {
	w := NewWindow(3, time.Minute)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	w.Record(start)
	w.Record(start.Add(10 * time.Second))
	assert.Equal(t, 2, w.Count(start.Add(20*time.Second)))
	assert.Equal(t, 1, w.Count(start.Add(time.Minute)), "entry exactly one window old has expired")
	assert.Equal(t, 0, w.Count(start.Add(2*time.Minute)))

	w.Record(start.Add(2 * time.Minute))
	w.Reset()
	assert.Equal(t, 0, w.Count(start.Add(2*time.Minute)))
}

func TestWindowDelay(t *testing.T) {
	w := NewWindow(2, time.Minute)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Zero(t, w.Delay(start))
	w.Record(start)
	assert.Zero(t, w.Delay(start))
	w.Record(start.Add(15 * time.Second))

	assert.Equal(t, 30*time.Second, w.Delay(start.Add(30*time.Second)))
	assert.Zero(t, w.Delay(start.Add(time.Minute)))
}

func TestWindowBlockWait(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	margin := 5 * time.Second

	t.Run("empty window waits only the margin", func(t *testing.T) {
		w := NewWindow(4, time.Minute)
		assert.Equal(t, margin, w.BlockWait(start, margin))
	})

	t.Run("grows with fill", func(t *testing.T) {
		half := NewWindow(4, time.Minute)
		full := NewWindow(4, time.Minute)
		for i := 0; i < 2; i++ {
			half.Record(start)
		}
		for i := 0; i < 4; i++ {
			full.Record(start)
		}

		now := start.Add(20 * time.Second)
		assert.Equal(t, margin+20*time.Second, half.BlockWait(now, margin))
		assert.Equal(t, margin+40*time.Second, full.BlockWait(now, margin))
	})

	t.Run("over budget is capped at full fill", func(t *testing.T) {
		w := NewWindow(1, time.Minute)
		w.Record(start)
		w.Record(start)
		w.Record(start)
		assert.Equal(t, margin+time.Minute, w.BlockWait(start, margin))
	})

	t.Run("never negative", func(t *testing.T) {
		w := NewWindow(4, time.Minute)
		w.Record(start)
		assert.GreaterOrEqual(t, w.BlockWait(start.Add(59*time.Second), 0), time.Duration(0))
	})
}

func TestBlockLedgerCharge(t *testing.T) {
	l := NewBlockLedger()

	total, exceeded := l.Charge(30*time.Second, time.Minute)
	assert.Equal(t, 30*time.Second, total)
	assert.False(t, exceeded)

	total, exceeded = l.Charge(30*time.Second, time.Minute)
	assert.Equal(t, time.Minute, total)
	assert.True(t, exceeded)
	assert.Zero(t, l.Total())
}

func TestControllerPassesThroughResults(t *testing.T) {
	clock := newFakeClock()
	c := NewController(testConfig(clock), nil, nil, logger.NewNopLogger())

	rejected := &errs.Error{Kind: errs.KindRejected, Code: 400}
	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return rejected
	})

	assert.Same(t, rejected, err)
	assert.Equal(t, 1, calls, "rejected requests are not retried internally")
	assert.Empty(t, clock.sleeps)
}

func TestControllerDelaysWhenWindowIsFull(t *testing.T) {
	clock := newFakeClock()
	c := NewController(testConfig(clock), nil, nil, logger.NewNopLogger())

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Do(context.Background(), func(ctx context.Context) error { return nil }))
	}
	assert.Empty(t, clock.sleeps)

	require.NoError(t, c.Do(context.Background(), func(ctx context.Context) error { return nil }))
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 10*time.Minute, clock.sleeps[0])

	stats := c.Stats()
	assert.Equal(t, 5, stats.Requests)
	assert.Equal(t, 10*time.Minute, stats.Delayed)
}

func TestControllerRetriesAfterBlock(t *testing.T) {
	clock := newFakeClock()
	rot := &countingRotator{}
	c := NewController(testConfig(clock), nil, rot, logger.NewTestLogger())

	calls := 0
	got, err := DoWithResult(context.Background(), c, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", blocked()
		}
		return "page", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "page", got)
	assert.Equal(t, 2, calls)
	require.Len(t, clock.sleeps, 1)
	assert.Greater(t, clock.sleeps[0], time.Duration(0))
	assert.Equal(t, 0, rot.calls)
	assert.Equal(t, clock.sleeps[0], c.Ledger().Total())
	assert.Equal(t, 1, c.Stats().Blocks)
}

func TestControllerRotatesOnceWhenBudgetReached(t *testing.T) {
	clock := newFakeClock()
	rot := &countingRotator{}
	c := NewController(testConfig(clock), nil, rot, logger.NewNopLogger())

	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return blocked()
	})

	require.Error(t, err)
	assert.True(t, errs.IsRotated(err))
	assert.Equal(t, 1, rot.calls)
	assert.Zero(t, c.Ledger().Total(), "ledger resets after rotation")

	stats := c.Stats()
	assert.GreaterOrEqual(t, stats.BlockWait, 20*time.Minute)
	assert.Equal(t, calls, stats.Blocks)
	assert.Equal(t, 1, stats.Rotations)
}

func TestControllerReportsExhaustion(t *testing.T) {
	clock := newFakeClock()
	rot := &countingRotator{err: errs.ErrCredentialsExhausted}
	c := NewController(testConfig(clock), nil, rot, logger.NewNopLogger())

	err := c.Do(context.Background(), func(ctx context.Context) error { return blocked() })
	assert.True(t, errs.IsExhausted(err))
	assert.Equal(t, 1, rot.calls)
}

func TestSharedLedgerCarriesWaitAcrossControllers(t *testing.T) {
	clock := newFakeClock()
	shared := NewBlockLedger()
	rot := &countingRotator{}

	first := NewController(testConfig(clock), shared, rot, logger.NewNopLogger())
	second := NewController(testConfig(clock), shared, rot, logger.NewNopLogger())

	calls := 0
	require.NoError(t, first.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return blocked()
		}
		return nil
	}))
	carried := shared.Total()
	assert.Greater(t, carried, time.Duration(0))

	calls = 0
	require.NoError(t, second.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return blocked()
		}
		return nil
	}))
	assert.Greater(t, shared.Total(), carried, "second session inherits the first one's wait")

	private := NewController(testConfig(clock), nil, rot, logger.NewNopLogger())
	assert.Zero(t, private.Ledger().Total())
}

func TestControllerHonoursCancellation(t *testing.T) {
	clock := newFakeClock()
	c := NewController(testConfig(clock), nil, nil, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Do(ctx, func(ctx context.Context) error {
		cancel()
		return blocked()
	})
	assert.ErrorIs(t, err, context.Canceled)
}
