package synergy

import "github.com/mtgtools/commander-companion/internal/cards"

// FilterByColors returns the subsequence of records compatible with the
// allowed color set, preserving order.
//
// An empty allowed set means no commander is selected yet and returns
// the input unchanged. Otherwise a record passes when it is colorless
// or its color identity is a subset of the allowed colors.
func FilterByColors(records []cards.Record, allowed []string) []cards.Record {
	if len(allowed) == 0 {
		return records
	}

	filtered := make([]cards.Record, 0, len(records))
	for _, rec := range records {
		if rec.IsColorless() || cards.SubsetOf(rec.ColorIdentity, allowed) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
