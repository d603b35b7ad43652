package view

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mtgtools/commander-companion/internal/cards"
)

func testCollection() []cards.Record {
	return []cards.Record{
		{Name: "Sol Ring", TypeLine: "Artifact", ScryfallID: "id-sol", Quantity: 1},
		{Name: "Atraxa, Praetors' Voice", TypeLine: "Legendary Creature — Phyrexian Angel Horror",
			ColorIdentity: []string{"W", "U", "B", "G"}, ScryfallID: "id-atraxa", Quantity: 1},
		{Name: "Lightning Bolt", TypeLine: "Instant", ColorIdentity: []string{"R"}, ScryfallID: "id-bolt", Quantity: 4},
		{Name: "Counterspell", TypeLine: "Instant", ColorIdentity: []string{"U"}, ScryfallID: "id-counter", Quantity: 2},
	}
}

func TestCommanders(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())

	commanders := v.Commanders()
	if len(commanders) != 1 {
		t.Fatalf("Commanders() returned %d, want 1", len(commanders))
	}
	if commanders[0].Name != "Atraxa, Praetors' Voice" {
		t.Errorf("commander = %q", commanders[0].Name)
	}
}

func TestSetCommander(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())

	if err := v.SetCommander("Atraxa, Praetors' Voice"); err != nil {
		t.Fatalf("SetCommander() error = %v", err)
	}
	if got := v.Commander(); got == nil || got.Name != "Atraxa, Praetors' Voice" {
		t.Errorf("Commander() = %+v", got)
	}
}

func TestSetCommanderUnknown(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())

	err := v.SetCommander("Nonexistent Card")
	if !errors.Is(err, ErrUnknownCard) {
		t.Errorf("SetCommander() error = %v, want ErrUnknownCard", err)
	}
}

func TestSetCommanderNotLegendary(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())

	err := v.SetCommander("Sol Ring")
	if !errors.Is(err, ErrNotLegendary) {
		t.Errorf("SetCommander() error = %v, want ErrNotLegendary", err)
	}
}

func TestFilteredScoredWithoutCommander(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())

	rows := v.FilteredScored()
	if len(rows) != 4 {
		t.Fatalf("FilteredScored() returned %d rows, want the full collection", len(rows))
	}
	for _, row := range rows {
		if row.SynergyDisplay != "" || row.SynergyStars != 0 {
			t.Errorf("synergy columns filled without a commander: %+v", row)
		}
	}
	// Color glyphs are always rendered.
	if rows[0].ColorDisplay != cards.ColorlessSymbol {
		t.Errorf("colorless display = %q", rows[0].ColorDisplay)
	}
}

func TestFilteredScoredWithCommander(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())
	if err := v.SetCommander("Atraxa, Praetors' Voice"); err != nil {
		t.Fatalf("SetCommander() error = %v", err)
	}

	rows := v.FilteredScored()

	// Lightning Bolt is off-identity and must be gone.
	for _, row := range rows {
		if row.Record.Name == "Lightning Bolt" {
			t.Error("off-identity card passed the filter")
		}
	}
	if len(rows) != 3 {
		t.Fatalf("FilteredScored() returned %d rows, want 3", len(rows))
	}

	stars := make(map[string]int, len(rows))
	for _, row := range rows {
		stars[row.Record.Name] = row.SynergyStars
	}
	// Colorless non-legendary: raw 3 of 6, 3 stars.
	if stars["Sol Ring"] != 3 {
		t.Errorf("Sol Ring stars = %d, want 3", stars["Sol Ring"])
	}
	// Legendary in identity: raw 5 of 6, 4 stars.
	if stars["Atraxa, Praetors' Voice"] != 4 {
		t.Errorf("Atraxa stars = %d, want 4", stars["Atraxa, Praetors' Voice"])
	}
	// In-identity non-legendary: raw 2 of 6, 2 stars.
	if stars["Counterspell"] != 2 {
		t.Errorf("Counterspell stars = %d, want 2", stars["Counterspell"])
	}
}

func TestToggleSortTriState(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())

	// First toggle: ascending by name.
	v.ToggleSort(ColumnName)
	rows := v.FilteredScored()
	if rows[0].Record.Name != "Atraxa, Praetors' Voice" {
		t.Errorf("ascending sort first row = %q", rows[0].Record.Name)
	}

	// Second toggle: descending.
	v.ToggleSort(ColumnName)
	rows = v.FilteredScored()
	if rows[0].Record.Name != "Sol Ring" {
		t.Errorf("descending sort first row = %q", rows[0].Record.Name)
	}

	// Third toggle: back to ascending.
	v.ToggleSort(ColumnName)
	rows = v.FilteredScored()
	if rows[0].Record.Name != "Atraxa, Praetors' Voice" {
		t.Errorf("re-ascending sort first row = %q", rows[0].Record.Name)
	}
}

func TestToggleSortSwitchesColumn(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())
	if err := v.SetCommander("Atraxa, Praetors' Voice"); err != nil {
		t.Fatalf("SetCommander() error = %v", err)
	}

	v.ToggleSort(ColumnName)
	v.ToggleSort(ColumnSynergy)

	rows := v.FilteredScored()
	for i := 1; i < len(rows); i++ {
		if rows[i].SynergyStars < rows[i-1].SynergyStars {
			t.Errorf("synergy sort not ascending: %d after %d", rows[i].SynergyStars, rows[i-1].SynergyStars)
		}
	}
}

// recordingStore records deletions.
type recordingStore struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (s *recordingStore) DeleteByID(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func TestDeleteRecords(t *testing.T) {
	store := &recordingStore{}
	v := New(store)
	v.SetCollection(testCollection())

	if err := v.DeleteRecords(context.Background(), []string{"id-bolt"}); err != nil {
		t.Fatalf("DeleteRecords() error = %v", err)
	}

	for _, rec := range v.Collection() {
		if rec.Name == "Lightning Bolt" {
			t.Error("deleted record still in collection")
		}
	}
	if len(store.deleted) != 1 || store.deleted[0] != "id-bolt" {
		t.Errorf("store deletions = %v", store.deleted)
	}
}

func TestDeleteRecordsClearsCommander(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())
	if err := v.SetCommander("Atraxa, Praetors' Voice"); err != nil {
		t.Fatalf("SetCommander() error = %v", err)
	}

	if err := v.DeleteRecords(context.Background(), []string{"id-atraxa"}); err != nil {
		t.Fatalf("DeleteRecords() error = %v", err)
	}
	if v.Commander() != nil {
		t.Error("commander selection survived deletion of the commander")
	}
}

func TestSetCollectionKeepsValidCommander(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())
	if err := v.SetCommander("Atraxa, Praetors' Voice"); err != nil {
		t.Fatalf("SetCommander() error = %v", err)
	}

	// Reloading a collection still containing the commander keeps it.
	v.SetCollection(testCollection())
	if v.Commander() == nil {
		t.Error("commander cleared although still present")
	}

	// Reloading without it clears the selection.
	v.SetCollection([]cards.Record{{Name: "Sol Ring", TypeLine: "Artifact"}})
	if v.Commander() != nil {
		t.Error("stale commander survived collection replacement")
	}
}

func TestAppend(t *testing.T) {
	v := New(nil)
	v.SetCollection(testCollection())
	v.Append([]cards.Record{{Name: "Arcane Signet", TypeLine: "Artifact", ScryfallID: "id-signet"}})

	if got := len(v.Collection()); got != 5 {
		t.Errorf("collection size after append = %d, want 5", got)
	}
}
