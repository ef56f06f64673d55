package crawl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/logger"
)

type eventLog struct {
	kinds []EventKind
}

func (l *eventLog) Observe(e Event) { l.kinds = append(l.kinds, e.Kind) }

func (l *eventLog) count(kind EventKind) int {
	n := 0
	for _, k := range l.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func newDriver(creds Credentials, store Checkpointer, obs Observer) *Driver {
	return NewDriver(creds, DriverConfig{
		Budgets:  testBudgets(),
		Store:    store,
		Logger:   logger.NewNopLogger(),
		Observer: obs,
	})
}

func TestDriverCompletesOnFirstSession(t *testing.T) {
	f := network()
	f.followees["1"] = []string{"2"}
	creds := newFakeCreds(f)
	store := &memStore{}
	events := &eventLog{}

	g, err := newDriver(creds, store, events).Run(context.Background(), "target", nil)
	require.NoError(t, err)

	assert.False(t, g.HasPending())
	assert.Equal(t, graph.PhaseSampled, g.Phase)
	assert.Equal(t, 0, creds.advances)
	assert.Equal(t, g.Stats(), store.last.Stats())
	assert.Equal(t, 1, events.count(EventSeeded))
	assert.Equal(t, 1, events.count(EventSampled))
	assert.Equal(t, 2, events.count(EventNodeResolved))
	assert.Equal(t, 1, events.count(EventFinished))
}

func TestDriverAdvancesAfterRejectedPass(t *testing.T) {
	first := network()
	first.fail["2"] = rejected()
	second := newFakeFetcher("bob").share(first)
	creds := newFakeCreds(first, second)
	d := NewDriver(creds, DriverConfig{Budgets: func() Budgets {
		b := testBudgets()
		b.BadRequestThreshold = 1
		return b
	}()})

	g, err := d.Run(context.Background(), "target", nil)
	require.NoError(t, err)

	assert.False(t, g.HasPending())
	assert.Equal(t, 1, creds.advances)
	assert.Equal(t, 1, first.profileCalls["1"])
	assert.Zero(t, second.profileCalls["1"], "resolved nodes are never fetched again")
	assert.Equal(t, 1, second.profileCalls["2"])
}

func TestDriverExhaustsCredentials(t *testing.T) {
	f := network()
	f.fail["2"] = rejected()
	creds := newFakeCreds(f)
	store := &memStore{}
	events := &eventLog{}

	g, err := newDriver(creds, store, events).Run(context.Background(), "target", nil)
	require.Error(t, err)
	assert.True(t, errs.IsExhausted(err))
	assert.ErrorIs(t, err, errs.ErrCredentialsExhausted)

	require.NotNil(t, g)
	require.NotNil(t, store.last)
	assert.Equal(t, 1, store.last.Stats().Resolved, "partial work is checkpointed")
	assert.Equal(t, 1, store.last.Stats().Unresolved)
	assert.Equal(t, 1, events.count(EventFinished))
}

func TestDriverRebindsAfterRotation(t *testing.T) {
	first := network()
	first.rotateOn = "2"
	second := newFakeFetcher("bob").share(first)
	creds := newFakeCreds(first, second)

	g, err := newDriver(creds, nil, nil).Run(context.Background(), "target", nil)
	require.NoError(t, err)

	assert.False(t, g.HasPending())
	assert.Equal(t, 0, creds.advances, "the controller rotated, the driver must not advance again")
	assert.Equal(t, 1, second.profileCalls["2"])
}

func TestDriverRetriesSeedAfterRotation(t *testing.T) {
	first := network()
	first.rotateOn = "100"
	second := newFakeFetcher("bob").share(first)
	creds := newFakeCreds(first, second)

	g, err := newDriver(creds, nil, nil).Run(context.Background(), "target", nil)
	require.NoError(t, err)
	assert.Equal(t, "100", g.TargetID)
	assert.Equal(t, 1, second.profileCalls["100"])
}

func TestDriverResumesCheckpoint(t *testing.T) {
	f := network()
	g := graph.New("target", "100")
	g.Phase = graph.PhaseSampled
	g.AddNode(graph.Node{ID: "1", Nickname: "a", Status: graph.Resolved})
	g.AddNode(graph.Node{ID: "2", Nickname: "b"})
	creds := newFakeCreds(f)

	out, err := newDriver(creds, nil, nil).Run(context.Background(), "target", g)
	require.NoError(t, err)

	assert.False(t, out.HasPending())
	assert.Zero(t, f.profileCalls["100"], "a resumed crawl does not reseed")
	assert.Zero(t, f.profileCalls["1"])
	assert.Empty(t, f.likerCalls)
}

func TestDriverResumeSeededRunsSampling(t *testing.T) {
	f := network()
	f.posts = []likedPost{{likers: []string{"1"}}}
	g := seeded(t, f)
	creds := newFakeCreds(f)

	out, err := newDriver(creds, nil, nil).Run(context.Background(), "target", g)
	require.NoError(t, err)
	assert.Equal(t, graph.PhaseSampled, out.Phase)
	a, _ := out.Node("1")
	assert.Equal(t, 1, a.LikeCount)
}

func TestDriverCancelledSavesState(t *testing.T) {
	f := network()
	creds := newFakeCreds(f)
	store := &memStore{}
	g := graph.New("target", "100")
	g.Phase = graph.PhaseSampled
	g.AddNode(graph.Node{ID: "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDriver(creds, store, nil).Run(ctx, "target", g)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotZero(t, store.saves)
}

func TestDriverNoCredentials(t *testing.T) {
	creds := newFakeCreds()
	g, err := newDriver(creds, nil, nil).Run(context.Background(), "target", nil)
	assert.Nil(t, g)
	assert.True(t, errs.IsExhausted(err))
}
