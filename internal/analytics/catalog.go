package analytics

import (
	"strings"

	"golang.org/x/text/cases"
)

// Catalog indexes species by ID and by case-folded common and scientific name.
type Catalog struct {
	byID   map[string]Species
	byName map[string]Species
}

// NewCatalog builds a catalog. Later entries win on duplicate IDs or names.
func NewCatalog(species []Species) *Catalog {
	c := &Catalog{
		byID:   make(map[string]Species, len(species)),
		byName: make(map[string]Species, 2*len(species)),
	}
	for _, s := range species {
		if s.ID != "" {
			c.byID[s.ID] = s
		}
		if key := foldName(s.CommonName); key != "" {
			c.byName[key] = s
		}
		if key := foldName(s.ScientificName); key != "" {
			c.byName[key] = s
		}
	}
	return c
}

// Len returns the number of species with an ID.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}

// ByID looks a species up by catalog ID.
func (c *Catalog) ByID(id string) (Species, bool) {
	if c == nil {
		return Species{}, false
	}
	s, ok := c.byID[id]
	return s, ok
}

// ByName looks a species up by common or scientific name, ignoring case.
func (c *Catalog) ByName(name string) (Species, bool) {
	if c == nil {
		return Species{}, false
	}
	s, ok := c.byName[foldName(name)]
	return s, ok
}

// Resolve finds the species a record refers to. The catalog reference wins,
// then a name match against the catalog, then the names the record carries.
// ok is false for unidentified records and dangling references.
func (c *Catalog) Resolve(r *SightingRecord) (Species, bool) {
	if r.SpeciesRef != "" {
		if s, ok := c.ByID(r.SpeciesRef); ok {
			return s, true
		}
	}
	for _, name := range []string{r.CommonName, r.ScientificName} {
		if name == "" {
			continue
		}
		if s, ok := c.ByName(name); ok {
			return s, true
		}
	}
	if r.CommonName == "" && r.ScientificName == "" {
		return Species{}, false
	}
	return Species{CommonName: r.CommonName, ScientificName: r.ScientificName}, true
}

// speciesKey groups counts for one species. Catalog IDs win; uncatalogued
// species group by folded name.
func speciesKey(s Species) string {
	if s.ID != "" {
		return "id:" + s.ID
	}
	if s.CommonName != "" {
		return "name:" + foldName(s.CommonName)
	}
	return "name:" + foldName(s.ScientificName)
}

// CountBySpecies groups identified records by species and counts them.
// Unresolvable records are ignored; call Sanitize first to account for them.
// The result is ordered by first appearance.
func CountBySpecies(records []SightingRecord, catalog *Catalog) []SpeciesCount {
	index := make(map[string]int)
	counts := make([]SpeciesCount, 0)

	for i := range records {
		s, ok := catalog.Resolve(&records[i])
		if !ok {
			continue
		}
		key := speciesKey(s)
		if pos, seen := index[key]; seen {
			counts[pos].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, SpeciesCount{Species: s, Count: 1})
	}

	return counts
}

// foldName normalizes a name for case-insensitive comparison.
func foldName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}
