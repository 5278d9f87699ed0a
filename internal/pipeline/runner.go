// Package pipeline orchestrates one fetch → enrich → persist cycle.
// It coordinates: schema bootstrap → fetch → enrichment → bulk upsert.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"forex-bar-lab/internal/domain"
	"forex-bar-lab/internal/enrich"
	"forex-bar-lab/internal/observability"
	"forex-bar-lab/internal/storage"
)

// State identifies where a run is in its linear progression. Any
// component error moves the run directly to StateFailed; there are no
// other branches.
type State int

const (
	StateStart State = iota
	StateSchemaReady
	StateFetched
	StateEnriched
	StatePersisted
	StateDone
	StateFailed
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateSchemaReady:
		return "SCHEMA_READY"
	case StateFetched:
		return "FETCHED"
	case StateEnriched:
		return "ENRICHED"
	case StatePersisted:
		return "PERSISTED"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Fetcher retrieves the last count bars for a symbol/interval, oldest
// first. Satisfied by *twelvedata.Client.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, interval string, count int) ([]domain.Bar, error)
}

// Summary reports the outcome of a completed run.
type Summary struct {
	BarsFetched     int
	RowsWritten     int
	LatestTimestamp time.Time // zero when nothing was persisted
}

// Runner drives the pipeline through its states.
type Runner struct {
	fetcher Fetcher
	schema  storage.SchemaManager
	store   storage.BarStore

	symbol     string
	interval   string
	outputSize int

	logger  *log.Logger
	metrics *observability.Metrics

	state State
}

// Options for creating Runner.
type Options struct {
	Fetcher       Fetcher
	SchemaManager storage.SchemaManager
	BarStore      storage.BarStore

	Symbol     string
	Interval   string
	OutputSize int

	Logger  *log.Logger            // defaults to log.Default()
	Metrics *observability.Metrics // optional
}

// New creates a new Runner.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		fetcher:    opts.Fetcher,
		schema:     opts.SchemaManager,
		store:      opts.BarStore,
		symbol:     opts.Symbol,
		interval:   opts.Interval,
		outputSize: opts.OutputSize,
		logger:     logger,
		metrics:    opts.Metrics,
		state:      StateStart,
	}
}

// State returns the runner's current (or terminal) state.
func (r *Runner) State() State {
	return r.state
}

// Run executes one pipeline cycle. Component errors are returned as-is,
// never wrapped into a different kind; the runner only logs which stage
// failed. A fetch that yields zero bars completes the run with a zero
// summary rather than failing it.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	if err := r.schema.EnsureSchema(ctx); err != nil {
		return nil, r.fail("schema bootstrap", err)
	}
	r.transition(StateSchemaReady)

	fetchStart := time.Now()
	bars, err := r.fetcher.FetchBars(ctx, r.symbol, r.interval, r.outputSize)
	if err != nil {
		return nil, r.fail("fetch", err)
	}
	r.observeFetch(len(bars), time.Since(fetchStart))
	r.transition(StateFetched)
	summary.BarsFetched = len(bars)
	r.logger.Printf("fetched %d bars for %s @ %s", len(bars), r.symbol, r.interval)

	if len(bars) == 0 {
		// Fetching nothing is a successful run with zero rows.
		r.transition(StateDone)
		r.observeSuccess()
		r.logger.Printf("no bars to persist, run complete")
		return summary, nil
	}

	enriched := enrich.EnrichAll(bars)
	r.transition(StateEnriched)

	upsertStart := time.Now()
	written, err := r.store.UpsertBulk(ctx, enriched)
	if err != nil {
		return nil, r.fail("persist", err)
	}
	r.observeUpsert(written, time.Since(upsertStart))
	r.transition(StatePersisted)

	summary.RowsWritten = written
	summary.LatestTimestamp = enriched[len(enriched)-1].Datetime

	r.transition(StateDone)
	r.observeSuccess()
	r.logger.Printf("upserted %d rows up to %s", written, summary.LatestTimestamp.Format("2006-01-02 15:04:05 MST"))

	return summary, nil
}

// transition advances the state machine and logs the step.
func (r *Runner) transition(next State) {
	r.logger.Printf("state %s -> %s", r.state, next)
	r.state = next
}

// fail marks the run failed and logs the stage that caused it.
// The component error passes through untouched.
func (r *Runner) fail(stage string, err error) error {
	r.transition(StateFailed)
	r.logger.Printf("%s failed: %v", stage, err)
	if r.metrics != nil {
		r.metrics.RunsTotal.WithLabelValues("failure").Inc()
	}
	return err
}

func (r *Runner) observeFetch(bars int, d time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.BarsFetched.Add(float64(bars))
	r.metrics.FetchDuration.Observe(d.Seconds())
}

func (r *Runner) observeUpsert(rows int, d time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.RowsUpserted.Add(float64(rows))
	r.metrics.UpsertDuration.Observe(d.Seconds())
}

func (r *Runner) observeSuccess() {
	if r.metrics == nil {
		return
	}
	r.metrics.RunsTotal.WithLabelValues("success").Inc()
	r.metrics.LastSuccessfulRun.SetToCurrentTime()
}
