// Package view exposes the collection to a front end: commander
// selection, color filtering, synergy display and column sorting.
// It is the boundary behind which any GUI or terminal table sits.
package view

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mtgtools/commander-companion/internal/cards"
	"github.com/mtgtools/commander-companion/internal/synergy"
)

// Column names the sortable display columns.
type Column string

const (
	ColumnName    Column = "name"
	ColumnColor   Column = "color"
	ColumnType    Column = "type"
	ColumnCost    Column = "cost"
	ColumnSynergy Column = "synergy"
	ColumnDetails Column = "details"
)

// ErrUnknownCard is returned when the requested commander is not in the
// collection.
var ErrUnknownCard = errors.New("card not found in collection")

// ErrNotLegendary is returned when the requested commander's type line
// lacks the Legendary supertype.
var ErrNotLegendary = errors.New("card is not legendary")

// Row is one displayable line of the filtered, scored collection.
type Row struct {
	Record         cards.Record
	ColorDisplay   string
	SynergyStars   int
	SynergyDisplay string
}

// DeleteStore is the persistence hook for record deletion. Optional.
type DeleteStore interface {
	DeleteByID(ctx context.Context, scryfallID string) error
}

// View holds the in-memory collection and the transient presentation
// state (selected commander, per-column sort direction).
type View struct {
	mu         sync.RWMutex
	collection []cards.Record
	commander  *cards.Record
	store      DeleteStore

	// sortDir is the tri-state per-column direction: 0 unsorted,
	// 1 ascending, -1 descending.
	sortDir    map[Column]int
	activeSort Column
}

// New creates an empty view. store may be nil.
func New(store DeleteStore) *View {
	return &View{
		store:   store,
		sortDir: make(map[Column]int),
	}
}

// SetCollection replaces the in-memory collection and clears the
// commander selection if the selected card is gone.
func (v *View) SetCollection(records []cards.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.collection = append([]cards.Record(nil), records...)
	v.refreshCommanderLocked()
}

// Append adds newly imported records to the collection.
func (v *View) Append(records []cards.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.collection = append(v.collection, records...)
}

// Collection returns a copy of the in-memory collection in its current
// insertion order.
func (v *View) Collection() []cards.Record {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return append([]cards.Record(nil), v.collection...)
}

// Commanders lists every legendary card in the collection, the
// candidates for the commander selection.
func (v *View) Commanders() []cards.Record {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var commanders []cards.Record
	for _, rec := range v.collection {
		if rec.IsLegendary() {
			commanders = append(commanders, rec)
		}
	}
	return commanders
}

// SetCommander selects the reference card by name. The card must exist
// in the collection and be legendary.
func (v *View) SetCommander(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.collection {
		if v.collection[i].Name == name {
			if !v.collection[i].IsLegendary() {
				return fmt.Errorf("%q: %w", name, ErrNotLegendary)
			}
			rec := v.collection[i]
			v.commander = &rec
			return nil
		}
	}
	return fmt.Errorf("%q: %w", name, ErrUnknownCard)
}

// Commander returns the selected commander, or nil.
func (v *View) Commander() *cards.Record {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.commander == nil {
		return nil
	}
	rec := *v.commander
	return &rec
}

// ToggleSort advances the tri-state sort for a column:
// unsorted to ascending, then descending, then ascending again.
// Toggling a column deactivates any other column's sort.
func (v *View) ToggleSort(col Column) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.sortDir[col] {
	case 1:
		v.sortDir[col] = -1
	default:
		v.sortDir[col] = 1
	}
	v.activeSort = col
}

// FilteredScored derives the displayable view: the collection filtered
// by the commander's color identity, scored against the commander, and
// ordered by the active column sort (insertion order when none).
//
// With no commander selected the whole collection is returned with
// empty synergy columns.
func (v *View) FilteredScored() []Row {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var allowed []string
	if v.commander != nil {
		allowed = v.commander.ColorIdentity
	}

	filtered := synergy.FilterByColors(v.collection, allowed)

	rows := make([]Row, 0, len(filtered))
	for _, rec := range filtered {
		row := Row{
			Record:       rec,
			ColorDisplay: cards.ColorSymbols(rec.ColorIdentity),
		}
		if v.commander != nil {
			row.SynergyStars = synergy.ScoreStars(&rec, v.commander)
			row.SynergyDisplay = synergy.StarDisplay(row.SynergyStars)
		}
		rows = append(rows, row)
	}

	v.sortRowsLocked(rows)
	return rows
}

// DeleteRecords removes records by identifier from the in-memory
// collection and, when a store is attached, from persistence.
func (v *View) DeleteRecords(ctx context.Context, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			drop[id] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return nil
	}

	kept := v.collection[:0]
	for _, rec := range v.collection {
		if _, gone := drop[rec.ScryfallID]; gone {
			continue
		}
		kept = append(kept, rec)
	}
	v.collection = kept
	v.refreshCommanderLocked()

	if v.store != nil {
		for id := range drop {
			if err := v.store.DeleteByID(ctx, id); err != nil {
				return fmt.Errorf("delete record %s: %w", id, err)
			}
		}
	}
	return nil
}

// refreshCommanderLocked drops the commander selection when the
// selected card no longer exists in the collection.
func (v *View) refreshCommanderLocked() {
	if v.commander == nil {
		return
	}
	for i := range v.collection {
		if v.collection[i].Name == v.commander.Name {
			return
		}
	}
	v.commander = nil
}

// sortRowsLocked orders rows by the active column sort, if any.
func (v *View) sortRowsLocked(rows []Row) {
	dir := v.sortDir[v.activeSort]
	if v.activeSort == "" || dir == 0 {
		return
	}

	less := func(a, b Row) bool {
		switch v.activeSort {
		case ColumnName:
			return strings.ToLower(a.Record.Name) < strings.ToLower(b.Record.Name)
		case ColumnColor:
			return a.ColorDisplay < b.ColorDisplay
		case ColumnType:
			return a.Record.TypeLine < b.Record.TypeLine
		case ColumnCost:
			return a.Record.ManaCost < b.Record.ManaCost
		case ColumnSynergy:
			return a.SynergyStars < b.SynergyStars
		case ColumnDetails:
			return a.Record.OracleTextEN < b.Record.OracleTextEN
		default:
			return false
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if dir < 0 {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}
