package algorithms

import (
	"cmp"
	"math"
	"slices"

	"ngo_connect_backend/internal/models"
)

const (
	DefaultRadiusKm       = 50.0
	DefaultTieThresholdKm = 5.0
)

// RankingMode selects how filtered candidates are ordered.
type RankingMode string

const (
	// RankingPairwise is the legacy comparator: within the tie threshold the
	// higher rating wins, otherwise the closer NGO wins. It is not transitive
	// for three or more candidates.
	RankingPairwise RankingMode = "pairwise"
	// RankingBanded buckets distance into tie-threshold-wide bands, then orders
	// by rating and finally by distance. It is a strict weak ordering.
	RankingBanded RankingMode = "banded"
)

type MatchOptions struct {
	RadiusKm       float64
	TieThresholdKm float64
	Ranking        RankingMode
}

func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		RadiusKm:       DefaultRadiusKm,
		TieThresholdKm: DefaultTieThresholdKm,
		Ranking:        RankingPairwise,
	}
}

// normalized fills zero or negative values with defaults.
func (o MatchOptions) normalized() MatchOptions {
	if o.RadiusKm <= 0 || math.IsNaN(o.RadiusKm) {
		o.RadiusKm = DefaultRadiusKm
	}
	if o.TieThresholdKm <= 0 || math.IsNaN(o.TieThresholdKm) {
		o.TieThresholdKm = DefaultTieThresholdKm
	}
	if o.Ranking != RankingBanded {
		o.Ranking = RankingPairwise
	}
	return o
}

// Candidate is an eligible NGO with its distance to the report, computed for
// this request only.
type Candidate struct {
	NGO        models.NGO
	DistanceKm float64
}

// FilterCandidates keeps NGOs that are active, serve category and lie within
// radiusKm (inclusive) of origin. Catalog order is preserved. A radius <= 0
// means DefaultRadiusKm. No match yields an empty, non-nil slice.
func FilterCandidates(catalog []models.NGO, origin models.GeoPoint, category string, radiusKm float64) []Candidate {
	radiusKm = MatchOptions{RadiusKm: radiusKm}.normalized().RadiusKm

	out := make([]Candidate, 0, len(catalog))
	for _, ngo := range catalog {
		if !ngo.Active || !ngo.Serves(category) {
			continue
		}
		distance := DistanceKm(origin, ngo.Location.Point())
		if distance <= radiusKm {
			out = append(out, Candidate{NGO: ngo, DistanceKm: distance})
		}
	}
	return out
}

// ComparePairwise is the legacy priority comparator.
func ComparePairwise(a, b Candidate, tieThresholdKm float64) int {
	if math.Abs(a.DistanceKm-b.DistanceKm) < tieThresholdKm {
		return cmp.Compare(b.NGO.Rating, a.NGO.Rating)
	}
	return cmp.Compare(a.DistanceKm, b.DistanceKm)
}

// CompareBanded orders by distance band, then rating descending, then distance.
func CompareBanded(a, b Candidate, bandKm float64) int {
	bandA := math.Floor(a.DistanceKm / bandKm)
	bandB := math.Floor(b.DistanceKm / bandKm)
	if c := cmp.Compare(bandA, bandB); c != 0 {
		return c
	}
	if c := cmp.Compare(b.NGO.Rating, a.NGO.Rating); c != 0 {
		return c
	}
	return cmp.Compare(a.DistanceKm, b.DistanceKm)
}

// RankCandidates sorts candidates in place by notification priority. The sort
// is stable, so equal candidates keep catalog order.
func RankCandidates(candidates []Candidate, opts MatchOptions) {
	opts = opts.normalized()

	switch opts.Ranking {
	case RankingBanded:
		slices.SortStableFunc(candidates, func(a, b Candidate) int {
			return CompareBanded(a, b, opts.TieThresholdKm)
		})
	default:
		slices.SortStableFunc(candidates, func(a, b Candidate) int {
			return ComparePairwise(a, b, opts.TieThresholdKm)
		})
	}
}

// Match runs filter and rank.
func Match(catalog []models.NGO, origin models.GeoPoint, category string, opts MatchOptions) []Candidate {
	opts = opts.normalized()
	candidates := FilterCandidates(catalog, origin, category, opts.RadiusKm)
	RankCandidates(candidates, opts)
	return candidates
}
