// Package enrich fills in catalog-derived card fields from the remote
// card database, with optional localized rules-text resolution.
package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/mtgtools/commander-companion/internal/cards"
	"github.com/mtgtools/commander-companion/internal/cards/scryfall"
)

// Catalog is the card-database lookup surface consumed by enrichment.
type Catalog interface {
	GetCard(ctx context.Context, id string) (*scryfall.Card, error)
	GetCardByFuzzyName(ctx context.Context, name string) (*scryfall.Card, error)
	GetPrintings(ctx context.Context, printsURI string) (*scryfall.CardList, error)
}

// Translator translates rules text when no localized printing exists.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Enricher resolves card metadata for imported records. Failures are
// contained per record: a record that cannot be enriched passes through
// with its original fields intact.
type Enricher struct {
	catalog    Catalog
	translator Translator
	targetLang string
	logger     *zap.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithTranslator enables the machine-translation fallback for the
// localized rules text.
func WithTranslator(t Translator) Option {
	return func(e *Enricher) { e.translator = t }
}

// WithTargetLanguage sets the secondary rules-text language tag.
// Default is "fr".
func WithTargetLanguage(lang string) Option {
	return func(e *Enricher) { e.targetLang = lang }
}

// New creates an Enricher backed by the given catalog.
func New(catalog Catalog, logger *zap.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		catalog:    catalog,
		targetLang: "fr",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a copy of rec with catalog fields filled in.
//
// Exactly one lookup is made: by identifier when the record has one,
// otherwise by fuzzy name. A failed or empty lookup returns the record
// unchanged; no error is ever propagated for a single record.
func (e *Enricher) Enrich(ctx context.Context, rec cards.Record) cards.Record {
	var (
		card *scryfall.Card
		err  error
	)
	if rec.ScryfallID != "" {
		card, err = e.catalog.GetCard(ctx, rec.ScryfallID)
	} else {
		card, err = e.catalog.GetCardByFuzzyName(ctx, rec.Name)
	}
	if err != nil || card == nil {
		e.logger.Debug("catalog lookup failed, record passes through unenriched",
			zap.String("name", rec.Name),
			zap.String("scryfall_id", rec.ScryfallID),
			zap.Error(err),
		)
		return rec
	}

	rec.ScryfallID = card.ID
	rec.ColorIdentity = card.ColorIdentity
	rec.TypeLine = card.TypeLine
	rec.ManaCost = card.ManaCost
	rec.OracleTextEN = card.OracleText
	rec.OracleTextFR = e.localizedText(ctx, card)

	return rec
}

// localizedText resolves the secondary-language rules text for a card.
//
// A printing whose language tag matches the target language wins; a
// printing with an empty oracle text counts as absent. Without such a
// printing the translation fallback is consulted, and on total failure
// the untranslated original is used. With no translator configured the
// field stays empty.
func (e *Enricher) localizedText(ctx context.Context, card *scryfall.Card) string {
	if card.PrintsSearchURI != "" {
		list, err := e.catalog.GetPrintings(ctx, card.PrintsSearchURI)
		if err == nil && list != nil {
			for _, printing := range list.Data {
				if printing.Lang == e.targetLang && printing.OracleText != "" {
					return printing.OracleText
				}
			}
		} else {
			e.logger.Debug("printings lookup failed",
				zap.String("card", card.Name),
				zap.Error(err),
			)
		}
	}

	if e.translator == nil || card.OracleText == "" {
		return ""
	}

	translated, err := e.translator.Translate(ctx, card.OracleText, "en", e.targetLang)
	if err != nil {
		e.logger.Debug("translation fallback failed, keeping original text",
			zap.String("card", card.Name),
			zap.Error(err),
		)
		return card.OracleText
	}
	return translated
}
