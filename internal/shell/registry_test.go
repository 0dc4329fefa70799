package shell

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/artifacts-web/internal/carousel"
	"finitefield.org/artifacts-web/internal/metrics"
	"finitefield.org/artifacts-web/internal/testutil"
	"finitefield.org/artifacts-web/internal/viewport"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T, n int) (*Registry, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry(testCatalog(t, n), RegistryOptions{
		IdleTTL: 10 * time.Minute,
		Logger:  testutil.Logger(t),
		Metrics: metrics.New(),
		Now:     c.Now,
	})
	return r, c
}

func TestMountClassifiesInitialWidth(t *testing.T) {
	r, _ := newTestRegistry(t, 10)

	wide := r.Mount("v1", "ru", 1280)
	require.Equal(t, viewport.Wide, wide.Controller.Snapshot().Mode)
	require.NotEmpty(t, wide.ID)

	compact := r.Mount("v2", "en", 390)
	require.Equal(t, viewport.Compact, compact.Controller.Snapshot().Mode)
	require.Equal(t, "en", compact.Lang)
	require.Equal(t, 2, r.Len())
}

func TestResizeSwitchesModeAndResetsCounters(t *testing.T) {
	r, _ := newTestRegistry(t, 10)
	m := r.Mount("v1", "ru", 1280)
	m.Controller.ChangePage(carousel.Next)
	require.Equal(t, 2, m.Controller.Snapshot().Page)

	var changes []carousel.Change
	m.Controller.Subscribe(func(c carousel.Change) { changes = append(changes, c) })

	require.Equal(t, viewport.Compact, m.Resize(500, 300))
	st := m.Controller.Snapshot()
	require.Equal(t, viewport.Compact, st.Mode)
	require.Zero(t, st.CardIndex)
	require.Len(t, changes, 1)

	m.Resize(600, 300)
	require.Len(t, changes, 1, "same mode must not notify")

	m.Controller.ScrollCarousel(carousel.Next)
	require.Len(t, changes, 2)
	require.NotNil(t, changes[1].Scroll)
	require.Equal(t, 320.0, changes[1].Scroll.Left)

	m.Resize(1024, 0)
	require.Equal(t, 1, m.Controller.Snapshot().Page)
}

func TestMountReplacesPreviousShell(t *testing.T) {
	r, _ := newTestRegistry(t, 10)
	first := r.Mount("v1", "ru", 1280)
	second := r.Mount("v1", "ru", 1280)

	require.NotEqual(t, first.ID, second.ID)
	require.True(t, first.Controller.Closed())
	require.True(t, first.Classifier.Closed())
	require.Equal(t, 1, r.Len())

	_, ok := r.Get("v1", first.ID)
	require.False(t, ok)
	got, ok := r.Get("v1", "")
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestUnmountReleasesSubscriptions(t *testing.T) {
	r, _ := newTestRegistry(t, 10)
	m := r.Mount("v1", "ru", 1280)
	calls := 0
	m.Controller.Subscribe(func(carousel.Change) { calls++ })

	require.False(t, r.Unmount("v1", "other", ReasonExplicit))
	require.True(t, r.Unmount("v1", m.ID, ReasonExplicit))
	require.False(t, r.Unmount("v1", m.ID, ReasonExplicit))

	require.Zero(t, m.Controller.Observers())
	select {
	case <-m.Done():
	default:
		t.Fatal("Done not closed after unmount")
	}
	m.Resize(320, 200)
	m.Controller.ChangePage(carousel.Next)
	require.Zero(t, calls)
	require.Equal(t, viewport.Wide, m.Controller.Snapshot().Mode)
}

func TestSweepEvictsIdleShells(t *testing.T) {
	r, c := newTestRegistry(t, 3)
	stale := r.Mount("stale", "ru", 1280)
	c.Advance(8 * time.Minute)
	fresh := r.Mount("fresh", "ru", 1280)
	c.Advance(3 * time.Minute)

	require.Equal(t, 1, r.Sweep())
	require.True(t, stale.Controller.Closed())
	require.False(t, fresh.Controller.Closed())

	_, ok := r.Get("fresh", fresh.ID)
	require.True(t, ok)
	c.Advance(9 * time.Minute)
	require.Zero(t, r.Sweep(), "Get refreshes activity")
}

func TestRunClosesEverythingOnCancel(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	m := r.Mount("v1", "ru", 1280)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.Zero(t, r.Len())
	require.True(t, m.Controller.Closed())
}
