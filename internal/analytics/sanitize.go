package analytics

import (
	"github.com/vedanthangal/sanctuary/internal/errors"
)

// MalformedRecord is a record that cannot take part in aggregation.
type MalformedRecord struct {
	Record SightingRecord
	Err    error
}

// Sanitize splits records into those that can be aggregated and those that
// cannot. A record is malformed when it has no observation time or when it
// references a species the catalog does not know and carries no names.
func Sanitize(records []SightingRecord, catalog *Catalog) (valid []SightingRecord, malformed []MalformedRecord) {
	valid = make([]SightingRecord, 0, len(records))

	for i := range records {
		r := &records[i]
		switch {
		case r.ObservedAt.IsZero():
			malformed = append(malformed, MalformedRecord{
				Record: *r,
				Err:    malformedError(r, "missing or unparseable observation time"),
			})
		case r.SpeciesRef != "" && r.CommonName == "" && r.ScientificName == "" && !catalogHas(catalog, r.SpeciesRef):
			malformed = append(malformed, MalformedRecord{
				Record: *r,
				Err:    malformedError(r, "unknown species reference"),
			})
		default:
			valid = append(valid, *r)
		}
	}

	return valid, malformed
}

func catalogHas(c *Catalog, id string) bool {
	_, ok := c.ByID(id)
	return ok
}

func malformedError(r *SightingRecord, reason string) error {
	return errors.Newf("sighting %s skipped: %s", r.ID, reason).
		Component("analytics").
		Category(errors.CategoryMalformedRecord).
		Context("sighting_id", r.ID).
		Context("species_ref", r.SpeciesRef).
		Build()
}
