// Package score holds the similarity arithmetic shared by every strategy:
// clamping, additive boosts, normalization to the 0-100 envelope scale and
// the auto-accept decision.
package score

import (
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Boost and threshold constants.
const (
	GeoBoostMax      = 0.2
	GeoBoostRadiusKm = 100.0

	PlaceBoostWeight        = 0.1
	PlaceBoostMinSimilarity = 0.3

	// StrongFuzzyFloor lifts rows from targeted fuzzy channels above generic similarity.
	StrongFuzzyFloor = 0.8
	// WeakSimilarityCap keeps similarity-only fallback rows below strong matches.
	WeakSimilarityCap = 0.7

	DefaultMatchThreshold    = 0.85
	IdentifierMatchThreshold = 0.99
)

// Clamp bounds a similarity to [0,1]. NaN maps to 0.
func Clamp(sim float64) float64 {
	switch {
	case math.IsNaN(sim), sim < 0:
		return 0
	case sim > 1:
		return 1
	default:
		return sim
	}
}

// GeoBoost returns the proximity boost for a candidate distanceKm away.
// Linear from GeoBoostMax at 0 km down to 0 at GeoBoostRadiusKm and beyond.
func GeoBoost(distanceKm float64) float64 {
	if math.IsNaN(distanceKm) || distanceKm < 0 {
		return 0
	}
	return math.Max(0, GeoBoostMax*(1-math.Min(distanceKm/GeoBoostRadiusKm, 1)))
}

// PlaceBoost returns the boost for a textual place-context similarity.
// Similarities at or below PlaceBoostMinSimilarity contribute nothing.
func PlaceBoost(placeSimilarity float64) float64 {
	if placeSimilarity <= PlaceBoostMinSimilarity {
		return 0
	}
	return Clamp(placeSimilarity) * PlaceBoostWeight
}

// Apply adds boost to sim and clamps the result.
func Apply(sim, boost float64) float64 {
	return Clamp(sim + boost)
}

// Floor raises sim to at least floor.
func Floor(sim, floor float64) float64 {
	return Clamp(math.Max(sim, floor))
}

// Cap lowers sim to at most ceiling.
func Cap(sim, ceiling float64) float64 {
	return Clamp(math.Min(sim, ceiling))
}

// Round rounds x to the given number of decimal places (half away from zero).
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Normalize converts a similarity to the 0-100 envelope score with two decimals.
func Normalize(sim float64) float64 {
	return math.Min(100, Round(Clamp(sim)*100, 2))
}

// IsMatch reports whether a candidate should be auto-accepted: its label
// equals the query case-insensitively, or its score reaches threshold.
func IsMatch(label, queryText string, score, threshold float64) bool {
	lower := cases.Lower(language.Und)
	if lower.String(label) == lower.String(queryText) {
		return true
	}
	return score/100 >= threshold
}
