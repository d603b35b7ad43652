// Package importer sequences a collection import: CSV load, duplicate
// classification against the store, per-record enrichment, and persistence.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mtgtools/commander-companion/internal/cards"
	"github.com/mtgtools/commander-companion/internal/cards/csvimport"
)

// State identifies where an import batch is in its lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateClassifying State = "classifying"
	StateEnriching   State = "enriching"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// ErrImportInFlight is returned by Start while a batch is running.
// Imports are single-flight: the caller must observe a terminal result
// before starting another.
var ErrImportInFlight = errors.New("an import is already in flight")

// Progress is one progress notification. Percent is in [0,100] and is
// monotonically non-decreasing within a phase; it resets to 0 at the
// Loading to Enriching boundary.
type Progress struct {
	State   State
	Percent int
}

// Result is the terminal outcome of an import batch.
type Result struct {
	// NewRecords holds the enriched records that were not already in
	// the store, in input order.
	NewRecords []cards.Record

	// QuantityUpdates counts records whose identifier matched a stored
	// record and whose quantity was incremented in place.
	QuantityUpdates int

	// Err is non-nil when the batch failed. Per-record enrichment
	// failures never set it.
	Err error
}

// NothingNew reports the "all duplicates, quantities updated" outcome,
// distinct from a batch that imported new records.
func (r Result) NothingNew() bool {
	return r.Err == nil && len(r.NewRecords) == 0 && r.QuantityUpdates > 0
}

// Enricher resolves catalog metadata for one record.
type Enricher interface {
	Enrich(ctx context.Context, rec cards.Record) cards.Record
}

// Store is the persistence surface the orchestrator needs. A nil Store
// means every record is treated as new and nothing is persisted.
type Store interface {
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	IncrementQuantity(ctx context.Context, scryfallID string, delta float64) error
	UpsertCards(ctx context.Context, records []cards.Record) error
}

// Importer runs import batches on a single background goroutine.
type Importer struct {
	enricher Enricher
	store    Store
	logger   *zap.Logger

	inFlight atomic.Bool

	mu    sync.RWMutex
	state State

	progressCh chan Progress
	resultCh   chan Result
}

// New creates an Importer. store may be nil.
func New(enricher Enricher, store Store, logger *zap.Logger) *Importer {
	return &Importer{
		enricher: enricher,
		store:    store,
		logger:   logger,
		state:    StateIdle,
		// Buffered so a slow consumer drops progress rather than
		// stalling the worker; results are never dropped.
		progressCh: make(chan Progress, 64),
		resultCh:   make(chan Result, 1),
	}
}

// Progress returns the progress notification stream.
func (i *Importer) Progress() <-chan Progress {
	return i.progressCh
}

// Results returns the terminal result stream. Exactly one Result is
// delivered per started batch.
func (i *Importer) Results() <-chan Result {
	return i.resultCh
}

// State returns the current batch state.
func (i *Importer) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Start begins importing the CSV at path on a background goroutine.
// It returns ErrImportInFlight if a batch is already running.
func (i *Importer) Start(ctx context.Context, path string) error {
	if !i.inFlight.CompareAndSwap(false, true) {
		return ErrImportInFlight
	}

	go func() {
		defer i.inFlight.Store(false)
		result := i.run(ctx, path)
		if result.Err != nil {
			i.setState(StateFailed)
			i.logger.Warn("import failed", zap.String("path", path), zap.Error(result.Err))
		} else {
			i.setState(StateDone)
			i.logger.Info("import finished",
				zap.String("path", path),
				zap.Int("new_records", len(result.NewRecords)),
				zap.Int("quantity_updates", result.QuantityUpdates),
			)
		}
		i.resultCh <- result
	}()

	return nil
}

// run executes one batch and returns its terminal result.
func (i *Importer) run(ctx context.Context, path string) Result {
	// Loading: parse the CSV, 0-100%.
	i.setState(StateLoading)
	records, err := csvimport.Load(path, func(pct int) {
		i.notify(StateLoading, pct)
	})
	if err != nil {
		return Result{Err: err}
	}

	// Classifying: partition into known identifiers (quantity bumped in
	// place, the one direct store mutation on the worker) and new records.
	i.setState(StateClassifying)
	newRecords := records
	quantityUpdates := 0
	if i.store != nil {
		existing, err := i.store.ExistingIDs(ctx)
		if err != nil {
			return Result{Err: fmt.Errorf("classify against store: %w", err)}
		}

		newRecords = newRecords[:0:0]
		for _, rec := range records {
			if _, known := existing[rec.ScryfallID]; rec.ScryfallID != "" && known {
				if err := i.store.IncrementQuantity(ctx, rec.ScryfallID, rec.Quantity); err != nil {
					return Result{Err: fmt.Errorf("increment quantity for %s: %w", rec.ScryfallID, err)}
				}
				quantityUpdates++
			} else {
				newRecords = append(newRecords, rec)
			}
		}
	}

	// Enriching: sequential, per-record failures degrade silently.
	// Progress resets to 0 for this phase.
	i.setState(StateEnriching)
	i.notify(StateEnriching, 0)
	for idx := range newRecords {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}
		newRecords[idx] = i.enricher.Enrich(ctx, newRecords[idx])
		i.notify(StateEnriching, (idx+1)*100/len(newRecords))
	}

	if i.store != nil && len(newRecords) > 0 {
		if err := i.store.UpsertCards(ctx, newRecords); err != nil {
			return Result{Err: fmt.Errorf("persist imported records: %w", err)}
		}
	}

	return Result{NewRecords: newRecords, QuantityUpdates: quantityUpdates}
}

func (i *Importer) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// notify delivers a progress event without ever blocking the worker.
func (i *Importer) notify(state State, percent int) {
	select {
	case i.progressCh <- Progress{State: state, Percent: percent}:
	default:
	}
}
