package analytics

// BuildMonthlyTimeline counts the records observed in year, one per record,
// bucketed by UTC calendar month. Records from other years and records
// without an observation time are left out.
func BuildMonthlyTimeline(records []SightingRecord, year int) MonthlyTimeline {
	timeline := MonthlyTimeline{Year: year}

	for i := range records {
		if !inYear(&records[i], year) {
			continue
		}
		timeline.add(records[i].ObservedAt.UTC().Month())
	}

	return timeline
}

func inYear(r *SightingRecord, year int) bool {
	return !r.ObservedAt.IsZero() && r.ObservedAt.UTC().Year() == year
}

// FilterYear returns the records observed in year (UTC), preserving order.
func FilterYear(records []SightingRecord, year int) []SightingRecord {
	out := make([]SightingRecord, 0, len(records))
	for i := range records {
		if inYear(&records[i], year) {
			out = append(out, records[i])
		}
	}
	return out
}
