package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mtgtools/commander-companion/internal/cards"
)

const csvHeader = `Card Name,Set Code,Set Name,Collector Number,Rarity,Language,Quantity,Condition,Finish,Altered,Signed,Misprint,Price (USD),Price (EUR),Price (USD Foil),Price (EUR Foil),Price (USD Etched),Price (EUR Etched),Scryfall ID,Container Type,Container Name`

func writeCSV(t *testing.T, rows ...string) string {
	t.Helper()
	content := csvHeader
	for _, row := range rows {
		content += "\n" + row
	}
	path := filepath.Join(t.TempDir(), "collection.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test csv: %v", err)
	}
	return path
}

func row(name, id string, quantity string) string {
	return name + `,SET,Set,1,common,en,` + quantity + `,NM,nonfoil,false,false,false,,,,,,,` + id + `,deck,Deck`
}

// passthroughEnricher tags records so the test can see enrichment ran.
type passthroughEnricher struct{}

func (passthroughEnricher) Enrich(_ context.Context, rec cards.Record) cards.Record {
	rec.TypeLine = "Enriched"
	return rec
}

// memStore is an in-memory Store double.
type memStore struct {
	mu         sync.Mutex
	existing   map[string]struct{}
	increments map[string]float64
	upserted   []cards.Record

	existingErr error
}

func newMemStore(ids ...string) *memStore {
	existing := make(map[string]struct{})
	for _, id := range ids {
		existing[id] = struct{}{}
	}
	return &memStore{existing: existing, increments: make(map[string]float64)}
}

func (s *memStore) ExistingIDs(_ context.Context) (map[string]struct{}, error) {
	if s.existingErr != nil {
		return nil, s.existingErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.existing))
	for id := range s.existing {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *memStore) IncrementQuantity(_ context.Context, id string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.increments[id] += delta
	return nil
}

func (s *memStore) UpsertCards(_ context.Context, records []cards.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, records...)
	return nil
}

// awaitResult drains progress and returns the terminal result.
func awaitResult(t *testing.T, imp *Importer) (Result, []Progress) {
	t.Helper()
	var events []Progress
	for {
		select {
		case p := <-imp.Progress():
			events = append(events, p)
		case r := <-imp.Results():
			// Collect progress still buffered behind the result.
			for {
				select {
				case p := <-imp.Progress():
					events = append(events, p)
				default:
					return r, events
				}
			}
		case <-time.After(5 * time.Second):
			t.Fatal("import did not finish")
		}
	}
}

func TestImportAllNew(t *testing.T) {
	path := writeCSV(t, row("Sol Ring", "abc-123", "2"), row("Counterspell", "def-456", "1"))
	store := newMemStore()
	imp := New(passthroughEnricher{}, store, zap.NewNop())

	if err := imp.Start(context.Background(), path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result, _ := awaitResult(t, imp)

	if result.Err != nil {
		t.Fatalf("Result.Err = %v", result.Err)
	}
	if len(result.NewRecords) != 2 {
		t.Fatalf("NewRecords = %d, want 2", len(result.NewRecords))
	}
	if result.QuantityUpdates != 0 {
		t.Errorf("QuantityUpdates = %d, want 0", result.QuantityUpdates)
	}
	for _, rec := range result.NewRecords {
		if rec.TypeLine != "Enriched" {
			t.Errorf("record %q was not enriched", rec.Name)
		}
	}
	if len(store.upserted) != 2 {
		t.Errorf("store received %d records, want 2", len(store.upserted))
	}
	if imp.State() != StateDone {
		t.Errorf("State() = %s, want %s", imp.State(), StateDone)
	}
}

func TestImportDuplicatesIncrementInPlace(t *testing.T) {
	path := writeCSV(t, row("Sol Ring", "abc-123", "2"), row("Counterspell", "def-456", "1"))
	store := newMemStore("abc-123")
	imp := New(passthroughEnricher{}, store, zap.NewNop())

	if err := imp.Start(context.Background(), path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result, _ := awaitResult(t, imp)

	if result.Err != nil {
		t.Fatalf("Result.Err = %v", result.Err)
	}
	if len(result.NewRecords) != 1 || result.NewRecords[0].Name != "Counterspell" {
		t.Errorf("NewRecords = %+v, want only Counterspell", result.NewRecords)
	}
	if result.QuantityUpdates != 1 {
		t.Errorf("QuantityUpdates = %d, want 1", result.QuantityUpdates)
	}
	if store.increments["abc-123"] != 2 {
		t.Errorf("increment for abc-123 = %v, want 2", store.increments["abc-123"])
	}
}

func TestImportNothingNew(t *testing.T) {
	path := writeCSV(t, row("Sol Ring", "abc-123", "1"))
	store := newMemStore("abc-123")
	imp := New(passthroughEnricher{}, store, zap.NewNop())

	if err := imp.Start(context.Background(), path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result, _ := awaitResult(t, imp)

	if !result.NothingNew() {
		t.Errorf("NothingNew() = false for all-duplicate batch: %+v", result)
	}
	if len(store.upserted) != 0 {
		t.Errorf("store received %d upserts, want 0", len(store.upserted))
	}
}

func TestImportNilStoreTreatsAllAsNew(t *testing.T) {
	path := writeCSV(t, row("Sol Ring", "abc-123", "1"))
	imp := New(passthroughEnricher{}, nil, zap.NewNop())

	if err := imp.Start(context.Background(), path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result, _ := awaitResult(t, imp)

	if result.Err != nil {
		t.Fatalf("Result.Err = %v", result.Err)
	}
	if len(result.NewRecords) != 1 {
		t.Errorf("NewRecords = %d, want 1", len(result.NewRecords))
	}
}

func TestImportMissingFileFails(t *testing.T) {
	imp := New(passthroughEnricher{}, nil, zap.NewNop())

	if err := imp.Start(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result, _ := awaitResult(t, imp)

	if result.Err == nil {
		t.Fatal("Result.Err = nil for missing file")
	}
	if imp.State() != StateFailed {
		t.Errorf("State() = %s, want %s", imp.State(), StateFailed)
	}
}

func TestImportStoreFailureFails(t *testing.T) {
	path := writeCSV(t, row("Sol Ring", "abc-123", "1"))
	store := newMemStore()
	store.existingErr = errors.New("db locked")
	imp := New(passthroughEnricher{}, store, zap.NewNop())

	if err := imp.Start(context.Background(), path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result, _ := awaitResult(t, imp)

	if result.Err == nil {
		t.Fatal("Result.Err = nil when classification failed")
	}
}

func TestSingleFlight(t *testing.T) {
	path := writeCSV(t, row("Sol Ring", "abc-123", "1"))

	// An enricher that blocks until released holds the batch in flight.
	release := make(chan struct{})
	blocking := enricherFunc(func(_ context.Context, rec cards.Record) cards.Record {
		<-release
		return rec
	})
	imp := New(blocking, nil, zap.NewNop())

	if err := imp.Start(context.Background(), path); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}

	// Second start while the first is in flight must be rejected.
	err := imp.Start(context.Background(), path)
	if !errors.Is(err, ErrImportInFlight) {
		t.Errorf("second Start() error = %v, want ErrImportInFlight", err)
	}

	close(release)
	result, _ := awaitResult(t, imp)
	if result.Err != nil {
		t.Fatalf("Result.Err = %v", result.Err)
	}

	// After the terminal result a new batch may start.
	if err := imp.Start(context.Background(), path); err != nil {
		t.Errorf("Start() after completion error = %v", err)
	}
	result, _ = awaitResult(t, imp)
	if result.Err != nil {
		t.Errorf("second batch Result.Err = %v", result.Err)
	}
}

type enricherFunc func(ctx context.Context, rec cards.Record) cards.Record

func (f enricherFunc) Enrich(ctx context.Context, rec cards.Record) cards.Record {
	return f(ctx, rec)
}

func TestProgressPhases(t *testing.T) {
	path := writeCSV(t,
		row("Card One", "id-1", "1"),
		row("Card Two", "id-2", "1"),
		row("Card Three", "id-3", "1"),
	)
	imp := New(passthroughEnricher{}, newMemStore(), zap.NewNop())

	if err := imp.Start(context.Background(), path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result, events := awaitResult(t, imp)
	if result.Err != nil {
		t.Fatalf("Result.Err = %v", result.Err)
	}

	var sawLoading, sawEnrichingReset, sawEnrichingFull bool
	lastPerState := make(map[State]int)
	for _, e := range events {
		if e.Percent < lastPerState[e.State] {
			t.Errorf("progress regressed within %s: %d after %d", e.State, e.Percent, lastPerState[e.State])
		}
		lastPerState[e.State] = e.Percent

		switch {
		case e.State == StateLoading:
			sawLoading = true
		case e.State == StateEnriching && e.Percent == 0:
			sawEnrichingReset = true
		case e.State == StateEnriching && e.Percent == 100:
			sawEnrichingFull = true
		}
	}
	if !sawLoading {
		t.Error("no loading progress observed")
	}
	if !sawEnrichingReset {
		t.Error("enriching phase did not reset progress to 0")
	}
	if !sawEnrichingFull {
		t.Error("enriching phase did not reach 100")
	}
}

func TestCancelledContext(t *testing.T) {
	path := writeCSV(t, row("Sol Ring", "abc-123", "1"))
	imp := New(passthroughEnricher{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := imp.Start(ctx, path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result, _ := awaitResult(t, imp)
	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Result.Err = %v, want context.Canceled", result.Err)
	}
}
