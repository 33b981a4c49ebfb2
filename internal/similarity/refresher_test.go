package similarity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nexxt/connect/internal/stores/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingGraph records refresh calls and can block them
type countingGraph struct {
	graph.Store
	mutex   sync.Mutex
	calls   int
	err     error
	release chan struct{}
}

func (g *countingGraph) RefreshSimilarities(ctx context.Context, opts graph.SimilarityOptions) ([]graph.ProjectionResult, error) {
	if g.release != nil {
		<-g.release
	}
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return []graph.ProjectionResult{{Name: "user_skill_graph", Status: graph.StatusWritten}}, nil
}

func (g *countingGraph) Calls() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.calls
}

func TestNewRefresher_InvalidSchedule(t *testing.T) {
	_, err := NewRefresher(graph.NewInMemoryStore(), Config{Schedule: "every now and then"})
	assert.Error(t, err)
}

func TestRefresher_RefreshNow(t *testing.T) {
	g := &countingGraph{Store: graph.NewInMemoryStore()}
	r, err := NewRefresher(g, Config{})
	require.NoError(t, err)

	r.NotifyUpdate()
	results, err := r.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 1)

	status := r.Status()
	assert.Equal(t, 1, status.Runs)
	assert.Zero(t, status.PendingUpdates)
	assert.Equal(t, TriggerManual, status.LastTrigger)
	assert.NotNil(t, status.LastRunAt)
	assert.Empty(t, status.LastError)
}

func TestRefresher_RecordsErrors(t *testing.T) {
	g := &countingGraph{Store: graph.NewInMemoryStore(), err: errors.New("gds unavailable")}
	r, err := NewRefresher(g, Config{})
	require.NoError(t, err)

	_, err = r.RefreshNow(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "gds unavailable", r.Status().LastError)
}

func TestRefresher_TriggersCoalesce(t *testing.T) {
	r, err := NewRefresher(graph.NewInMemoryStore(), Config{})
	require.NoError(t, err)

	assert.True(t, r.Trigger(TriggerManual))
	assert.False(t, r.Trigger(TriggerSchedule))
}

func TestRefresher_ServeRunsOnStartAndThreshold(t *testing.T) {
	g := &countingGraph{Store: graph.NewInMemoryStore()}
	r, err := NewRefresher(g, Config{Schedule: "@every 1h", RefreshOnStart: true, UpdateThreshold: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	require.Eventually(t, func() bool { return g.Calls() == 1 }, time.Second, 10*time.Millisecond)

	r.NotifyUpdate()
	assert.Equal(t, 1, r.Status().PendingUpdates)
	r.NotifyUpdate()
	require.Eventually(t, func() bool { return g.Calls() == 2 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return r.Status().LastTrigger == TriggerThreshold }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestRefresher_RunsDoNotOverlap(t *testing.T) {
	g := &countingGraph{Store: graph.NewInMemoryStore(), release: make(chan struct{})}
	r, err := NewRefresher(g, Config{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.RefreshNow(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return r.Status().Running }, time.Second, 5*time.Millisecond)
	assert.Zero(t, g.Calls())

	g.release <- struct{}{}
	require.Eventually(t, func() bool { return g.Calls() == 1 }, time.Second, 5*time.Millisecond)
	g.release <- struct{}{}
	wg.Wait()
	assert.Equal(t, 2, g.Calls())
	assert.Equal(t, 2, r.Status().Runs)
}
