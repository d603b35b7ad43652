// Package synergy scores collection cards against a reference commander
// and filters collections by color identity.
package synergy

import (
	"math"
	"strings"

	"github.com/mtgtools/commander-companion/internal/cards"
)

const (
	// MaxScore is the maximum attainable raw synergy score.
	MaxScore = 6

	// MaxStars is the maximum star count in star presentation mode.
	MaxStars = 5

	// StarSymbol is the glyph repeated in the star display form.
	StarSymbol = "⭐"

	legendaryBonus = 3
	colorlessBonus = 1
	subsetBonus    = 2
)

// Score computes the raw synergy score of card against commander.
//
// Three independent bonuses apply: +3 when the card is legendary,
// +1 when it is colorless, +2 when its color identity is a subset of
// the commander's. The empty identity subsets anything, so a colorless
// card always collects the subset bonus too.
func Score(card, commander *cards.Record) int {
	score := 0
	if card.IsLegendary() {
		score += legendaryBonus
	}
	if card.IsColorless() {
		score += colorlessBonus
	}
	if cards.SubsetOf(card.ColorIdentity, commander.ColorIdentity) {
		score += subsetBonus
	}
	return score
}

// Percent converts a raw score to a percentage rounded to one decimal
// place, in [0.0, 100.0].
func Percent(raw int) float64 {
	return math.Round(float64(raw)/MaxScore*100*10) / 10
}

// Stars converts a percentage to a star count clamped to [0, MaxStars].
func Stars(percent float64) int {
	n := int(math.Round(percent / 100 * MaxStars))
	if n < 0 {
		return 0
	}
	if n > MaxStars {
		return MaxStars
	}
	return n
}

// StarDisplay renders a star count as repeated star glyphs.
func StarDisplay(stars int) string {
	if stars <= 0 {
		return ""
	}
	return strings.Repeat(StarSymbol, stars)
}

// ScoreStars is the composed presentation pipeline: raw score to star
// count for card against commander.
func ScoreStars(card, commander *cards.Record) int {
	return Stars(Percent(Score(card, commander)))
}
