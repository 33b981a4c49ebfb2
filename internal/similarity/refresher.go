// Package similarity keeps the graph similarity relationships up to date.
package similarity

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nexxt/connect/internal/metrics"
	"github.com/nexxt/connect/internal/stores/graph"
	"github.com/robfig/cron/v3"
)

// Triggers recorded in metrics and status
const (
	TriggerStartup   = "startup"
	TriggerSchedule  = "schedule"
	TriggerThreshold = "threshold"
	TriggerManual    = "manual"
)

// Config controls when refreshes run
type Config struct {
	Schedule        string // cron spec, e.g. "@every 30m"
	RefreshOnStart  bool
	UpdateThreshold int // profile updates that trigger an early refresh, 0 disables
	RunTimeout      time.Duration
	Options         graph.SimilarityOptions
}

// Status describes the refresher state
type Status struct {
	Schedule       string                   `json:"schedule"`
	Running        bool                     `json:"running"`
	Runs           int                      `json:"runs"`
	PendingUpdates int                      `json:"pending_updates"`
	LastTrigger    string                   `json:"last_trigger,omitempty"`
	LastRunAt      *time.Time               `json:"last_run_at,omitempty"`
	LastDuration   string                   `json:"last_duration,omitempty"`
	LastError      string                   `json:"last_error,omitempty"`
	LastResults    []graph.ProjectionResult `json:"last_results,omitempty"`
}

// Refresher recomputes node similarity on a schedule, on startup and after
// enough profile updates. Runs never overlap; triggers that arrive while a
// run is queued are merged into it.
type Refresher struct {
	graph   graph.Store
	config  Config
	trigger chan string

	runMutex sync.Mutex
	mutex    sync.RWMutex
	status   Status
}

// NewRefresher validates the schedule and creates a refresher
func NewRefresher(g graph.Store, config Config) (*Refresher, error) {
	if config.Schedule != "" {
		if _, err := cron.ParseStandard(config.Schedule); err != nil {
			return nil, fmt.Errorf("invalid similarity refresh schedule %q: %w", config.Schedule, err)
		}
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = 30 * time.Minute
	}
	if config.Options.TopK <= 0 {
		config.Options = graph.DefaultSimilarityOptions
	}

	return &Refresher{
		graph:   g,
		config:  config,
		trigger: make(chan string, 1),
		status:  Status{Schedule: config.Schedule},
	}, nil
}

// Trigger queues a background refresh. It returns false when one is already queued.
func (r *Refresher) Trigger(reason string) bool {
	select {
	case r.trigger <- reason:
		return true
	default:
		return false
	}
}

// NotifyUpdate counts a profile change and queues a refresh once the
// threshold is reached
func (r *Refresher) NotifyUpdate() {
	r.mutex.Lock()
	r.status.PendingUpdates++
	reached := r.config.UpdateThreshold > 0 && r.status.PendingUpdates >= r.config.UpdateThreshold
	r.mutex.Unlock()

	if reached {
		r.Trigger(TriggerThreshold)
	}
}

// Status returns a copy of the current state
func (r *Refresher) Status() Status {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s := r.status
	s.LastResults = append([]graph.ProjectionResult(nil), r.status.LastResults...)
	return s
}

// RefreshNow runs a refresh synchronously, waiting for any run in progress
func (r *Refresher) RefreshNow(ctx context.Context) ([]graph.ProjectionResult, error) {
	return r.run(ctx, TriggerManual)
}

func (r *Refresher) run(ctx context.Context, reason string) ([]graph.ProjectionResult, error) {
	r.runMutex.Lock()
	defer r.runMutex.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.config.RunTimeout)
	defer cancel()

	r.mutex.Lock()
	r.status.Running = true
	r.status.LastTrigger = reason
	r.status.PendingUpdates = 0
	r.mutex.Unlock()

	start := time.Now()
	log.Printf("[SIMILARITY]: Refresh started (trigger: %s)", reason)
	results, err := r.graph.RefreshSimilarities(ctx, r.config.Options)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		log.Printf("[SIMILARITY]: Refresh failed after %s: %v", elapsed, err)
	} else {
		for _, res := range results {
			if res.Status == graph.StatusFailed {
				outcome = "partial"
			}
		}
		log.Printf("[SIMILARITY]: Refresh finished in %s (%s)", elapsed, outcome)
	}
	metrics.SimilarityRuns.WithLabelValues(reason, outcome).Inc()
	metrics.SimilarityDuration.Observe(elapsed.Seconds())

	finished := start.UTC()
	r.mutex.Lock()
	r.status.Running = false
	r.status.Runs++
	r.status.LastRunAt = &finished
	r.status.LastDuration = elapsed.String()
	r.status.LastResults = results
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
	r.mutex.Unlock()

	return results, err
}

// Serve implements suture.Service
func (r *Refresher) Serve(ctx context.Context) error {
	var c *cron.Cron
	if r.config.Schedule != "" {
		c = cron.New()
		if _, err := c.AddFunc(r.config.Schedule, func() { r.Trigger(TriggerSchedule) }); err != nil {
			return fmt.Errorf("failed to schedule similarity refresh: %w", err)
		}
		c.Start()
		defer c.Stop()
	}

	if r.config.RefreshOnStart {
		r.Trigger(TriggerStartup)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reason := <-r.trigger:
			// Errors are kept in Status; the next trigger retries
			_, _ = r.run(ctx, reason)
		}
	}
}

func (r *Refresher) String() string { return "similarity-refresher" }
