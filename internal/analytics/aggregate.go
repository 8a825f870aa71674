package analytics

// Aggregate builds every dashboard view for year from one set of records.
// Malformed records are dropped first and reported in Skipped; all other
// views are derived from the same year-filtered records, so
// TotalSightings == Timeline.Total == Seasonal.Total().
func Aggregate(records []SightingRecord, catalog *Catalog, year, topN int) AggregatedAnalytics {
	valid, malformed := Sanitize(records, catalog)
	inYear := FilterYear(valid, year)

	timeline := BuildMonthlyTimeline(inYear, year)
	counts := CountBySpecies(inYear, catalog)

	return AggregatedAnalytics{
		Year:               year,
		TotalSpecies:       len(counts),
		TotalSightings:     timeline.Total,
		TopSpecies:         RankTopSpecies(counts, topN, nil),
		RareSpecies:        RankTopSpecies(counts, topN, RareOrMigratory),
		Timeline:           timeline,
		Seasonal:           BuildSeasonalRollup(timeline),
		StatusDistribution: BuildStatusDistribution(counts),
		SkippedRecords:     len(malformed),
		Skipped:            malformed,
	}
}
