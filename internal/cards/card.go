// Package cards defines the card record type shared by the importer,
// enrichment, persistence and presentation layers.
package cards

import "strings"

// Color codes used for color identity, in canonical WUBRG order.
const (
	ColorWhite = "W"
	ColorBlue  = "U"
	ColorBlack = "B"
	ColorRed   = "R"
	ColorGreen = "G"
)

// colorSymbols maps a color code to its display glyph. Colorless cards
// display as the single colorless glyph.
var colorSymbols = map[string]string{
	ColorWhite: "⚪",
	ColorBlue:  "🔵",
	ColorBlack: "⚫",
	ColorRed:   "🔴",
	ColorGreen: "🟢",
}

// ColorlessSymbol is displayed for cards with an empty color identity.
const ColorlessSymbol = "⭕"

// Record represents one owned card entry in the collection.
//
// A Record is created by the CSV importer with only the collectible
// fields populated; enrichment fills in ScryfallID, ColorIdentity,
// TypeLine, ManaCost and the oracle texts from the catalog.
type Record struct {
	// Catalog-derived fields (empty until enriched).
	Name          string   `json:"name"`
	ColorIdentity []string `json:"color_identity"`
	TypeLine      string   `json:"type_line"`
	ManaCost      string   `json:"mana_cost"`
	OracleTextEN  string   `json:"oracle_text_en"`
	OracleTextFR  string   `json:"oracle_text_fr"`

	// ScryfallID is the external catalog identifier. When non-empty it
	// is unique within the store.
	ScryfallID string `json:"scryfall_id"`

	// Quantity owned. REAL in the store to match the CSV coercion rules.
	Quantity float64 `json:"quantity"`

	// Collectible provenance fields, carried through unchanged.
	SetCode         string `json:"set_code"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
	Rarity          string `json:"rarity"`
	Language        string `json:"language"`
	Condition       string `json:"condition"`
	Finish          string `json:"finish"`

	Altered  bool `json:"altered"`
	Signed   bool `json:"signed"`
	Misprint bool `json:"misprint"`

	PriceUSD       float64 `json:"price_usd"`
	PriceEUR       float64 `json:"price_eur"`
	PriceUSDFoil   float64 `json:"price_usd_foil"`
	PriceEURFoil   float64 `json:"price_eur_foil"`
	PriceUSDEtched float64 `json:"price_usd_etched"`
	PriceEUREtched float64 `json:"price_eur_etched"`

	ContainerType string `json:"container_type"`
	ContainerName string `json:"container_name"`
}

// IsLegendary reports whether the card's type line carries the
// Legendary supertype.
func (r *Record) IsLegendary() bool {
	return strings.Contains(r.TypeLine, "Legendary")
}

// IsColorless reports whether the card has an empty color identity.
func (r *Record) IsColorless() bool {
	return len(r.ColorIdentity) == 0
}

// SubsetOf reports whether every color in colors appears in allowed.
// The empty set is a subset of anything, including the empty set.
func SubsetOf(colors, allowed []string) bool {
	if len(colors) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(allowed))
	for _, c := range allowed {
		set[c] = struct{}{}
	}
	for _, c := range colors {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}

// ColorSymbols converts color codes to their display glyphs. Unknown
// codes pass through unchanged so nothing is silently dropped.
func ColorSymbols(colors []string) string {
	if len(colors) == 0 {
		return ColorlessSymbol
	}
	var b strings.Builder
	for _, c := range colors {
		if sym, ok := colorSymbols[c]; ok {
			b.WriteString(sym)
		} else {
			b.WriteString(c)
		}
	}
	return b.String()
}
