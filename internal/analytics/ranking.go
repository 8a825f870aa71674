package analytics

import (
	"cmp"
	"slices"
)

// Predicate selects the species a ranking includes.
type Predicate func(Species) bool

// RareOrMigratory selects species whose presence status is Rare or Migratory.
func RareOrMigratory(s Species) bool {
	return s.PresenceStatus == StatusRare || s.PresenceStatus == StatusMigratory
}

// RankTopSpecies returns up to n species with the highest counts, optionally
// filtered by include. Equal counts are ordered by common name, then
// scientific name, so the result never depends on input order.
// n <= 0 or empty input yields an empty slice.
func RankTopSpecies(counts []SpeciesCount, n int, include Predicate) []RankedSpecies {
	if n <= 0 || len(counts) == 0 {
		return []RankedSpecies{}
	}

	candidates := make([]SpeciesCount, 0, len(counts))
	for _, c := range counts {
		if include != nil && !include(c.Species) {
			continue
		}
		candidates = append(candidates, c)
	}

	slices.SortFunc(candidates, func(a, b SpeciesCount) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(a.Species.CommonName, b.Species.CommonName),
			cmp.Compare(a.Species.ScientificName, b.Species.ScientificName),
			cmp.Compare(a.Species.ID, b.Species.ID),
		)
	})

	ranked := make([]RankedSpecies, 0, min(n, len(candidates)))
	for _, c := range candidates[:min(n, len(candidates))] {
		ranked = append(ranked, RankedSpecies{
			Name:               c.Species.CommonName,
			ScientificName:     c.Species.ScientificName,
			Count:              c.Count,
			ConservationStatus: c.Species.ConservationStatus,
			Status:             c.Species.PresenceStatus,
		})
	}
	return ranked
}

// BuildStatusDistribution sums counts per presence status. Species with any
// other status contribute to no bucket.
func BuildStatusDistribution(counts []SpeciesCount) StatusDistribution {
	var dist StatusDistribution
	for _, c := range counts {
		switch c.Species.PresenceStatus {
		case StatusResident:
			dist.Resident += c.Count
		case StatusMigratory:
			dist.Migratory += c.Count
		case StatusRare:
			dist.Rare += c.Count
		}
	}
	return dist
}
