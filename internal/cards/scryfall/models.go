package scryfall

// Card represents the subset of the Scryfall card object consumed by
// enrichment. ColorIdentity is the deckbuilding identity, distinct from
// the colors of a single printing's mana cost.
type Card struct {
	ID              string   `json:"id"`
	OracleID        string   `json:"oracle_id"`
	Name            string   `json:"name"`
	Lang            string   `json:"lang"`
	TypeLine        string   `json:"type_line"`
	ManaCost        string   `json:"mana_cost"`
	OracleText      string   `json:"oracle_text"`
	Colors          []string `json:"colors"`
	ColorIdentity   []string `json:"color_identity"`
	PrintsSearchURI string   `json:"prints_search_uri"`
}

// CardList is a paginated list response, as returned by the printings
// sub-resource.
type CardList struct {
	Object     string  `json:"object"`
	TotalCards int     `json:"total_cards"`
	HasMore    bool    `json:"has_more"`
	NextPage   string  `json:"next_page"`
	Data       []*Card `json:"data"`
}
