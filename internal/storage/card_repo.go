package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mtgtools/commander-companion/internal/cards"
)

// CardRepository handles database operations for the card collection.
type CardRepository interface {
	// UpsertCards persists a batch of records. A record whose
	// identifier already exists has its stored quantity incremented by
	// the record's quantity instead of creating a duplicate row.
	// Records with an empty identifier are always inserted as new.
	UpsertCards(ctx context.Context, records []cards.Record) error

	// LoadAll returns every stored record in insertion order, with the
	// color identity decoded from its serialized form.
	LoadAll(ctx context.Context) ([]cards.Record, error)

	// ExistingIDs returns every non-empty identifier currently stored.
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)

	// IncrementQuantity adds delta to the stored quantity for one
	// identifier. Absent identifiers are a no-op, not an error.
	IncrementQuantity(ctx context.Context, scryfallID string, delta float64) error

	// DeleteByID removes the record with the given identifier.
	DeleteByID(ctx context.Context, scryfallID string) error

	// Clear removes all records.
	Clear(ctx context.Context) error
}

// cardRepository is the concrete implementation of CardRepository.
type cardRepository struct {
	db *DB
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db *DB) CardRepository {
	return &cardRepository{db: db}
}

const cardColumns = `
	name, color_identity, type_line, mana_cost, oracle_text_en, oracle_text_fr,
	scryfall_id, quantity, set_code, set_name, collector_number, rarity,
	language, condition, finish, altered, signed, misprint,
	price_usd, price_eur, price_usd_foil, price_eur_foil,
	price_usd_etched, price_eur_etched, container_type, container_name`

// encodeColors serializes a color identity to its stored JSON form.
func encodeColors(colors []string) string {
	if colors == nil {
		colors = []string{}
	}
	data, err := json.Marshal(colors)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeColors deserializes a stored color identity. Malformed values
// decode to the empty identity rather than failing a full reload.
func decodeColors(raw string) []string {
	var colors []string
	if err := json.Unmarshal([]byte(raw), &colors); err != nil {
		return []string{}
	}
	if colors == nil {
		return []string{}
	}
	return colors
}

// nullableID maps an empty identifier to NULL so the unique constraint
// only applies to real catalog identifiers.
func nullableID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// UpsertCards persists a batch of records inside one transaction.
func (r *cardRepository) UpsertCards(ctx context.Context, records []cards.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO cards (` + cardColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scryfall_id) DO UPDATE SET
			quantity = cards.quantity + excluded.quantity,
			updated_at = excluded.updated_at
	`

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now()
		for i := range records {
			rec := &records[i]
			_, err := stmt.ExecContext(ctx,
				rec.Name, encodeColors(rec.ColorIdentity), rec.TypeLine, rec.ManaCost,
				rec.OracleTextEN, rec.OracleTextFR, nullableID(rec.ScryfallID), rec.Quantity,
				rec.SetCode, rec.SetName, rec.CollectorNumber, rec.Rarity,
				rec.Language, rec.Condition, rec.Finish,
				rec.Altered, rec.Signed, rec.Misprint,
				rec.PriceUSD, rec.PriceEUR, rec.PriceUSDFoil, rec.PriceEURFoil,
				rec.PriceUSDEtched, rec.PriceEUREtched,
				rec.ContainerType, rec.ContainerName,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert card %q: %w", rec.Name, err)
			}
		}
		return nil
	})
}

// LoadAll returns every stored record in insertion order.
func (r *cardRepository) LoadAll(ctx context.Context) ([]cards.Record, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY id`

	rows, err := r.db.Conn().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []cards.Record
	for rows.Next() {
		var (
			rec       cards.Record
			colorsRaw string
			id        sql.NullString
		)
		err := rows.Scan(
			&rec.Name, &colorsRaw, &rec.TypeLine, &rec.ManaCost,
			&rec.OracleTextEN, &rec.OracleTextFR, &id, &rec.Quantity,
			&rec.SetCode, &rec.SetName, &rec.CollectorNumber, &rec.Rarity,
			&rec.Language, &rec.Condition, &rec.Finish,
			&rec.Altered, &rec.Signed, &rec.Misprint,
			&rec.PriceUSD, &rec.PriceEUR, &rec.PriceUSDFoil, &rec.PriceEURFoil,
			&rec.PriceUSDEtched, &rec.PriceEUREtched,
			&rec.ContainerType, &rec.ContainerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		rec.ColorIdentity = decodeColors(colorsRaw)
		if id.Valid {
			rec.ScryfallID = id.String
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return records, nil
}

// ExistingIDs returns every non-empty identifier currently stored.
func (r *cardRepository) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	query := `SELECT scryfall_id FROM cards WHERE scryfall_id IS NOT NULL AND scryfall_id != ''`

	rows, err := r.db.Conn().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing identifiers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identifiers: %w", err)
	}

	return ids, nil
}

// IncrementQuantity adds delta to the stored quantity for one identifier.
func (r *cardRepository) IncrementQuantity(ctx context.Context, scryfallID string, delta float64) error {
	query := `UPDATE cards SET quantity = quantity + ?, updated_at = ? WHERE scryfall_id = ?`

	_, err := r.db.Conn().ExecContext(ctx, query, delta, time.Now(), scryfallID)
	if err != nil {
		return fmt.Errorf("failed to increment quantity for %s: %w", scryfallID, err)
	}

	return nil
}

// DeleteByID removes the record with the given identifier.
func (r *cardRepository) DeleteByID(ctx context.Context, scryfallID string) error {
	query := `DELETE FROM cards WHERE scryfall_id = ?`

	_, err := r.db.Conn().ExecContext(ctx, query, scryfallID)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", scryfallID, err)
	}

	return nil
}

// Clear removes all records.
func (r *cardRepository) Clear(ctx context.Context) error {
	_, err := r.db.Conn().ExecContext(ctx, `DELETE FROM cards`)
	if err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	return nil
}
