package analytics

import "time"

// Season is one of the four fixed seasons at the sanctuary.
type Season string

const (
	SeasonWinter      Season = "Winter"
	SeasonSummer      Season = "Summer"
	SeasonMonsoon     Season = "Monsoon"
	SeasonPostMonsoon Season = "Post-monsoon"
)

// SeasonOrder is the display order of the seasonal buckets.
var SeasonOrder = [4]Season{SeasonWinter, SeasonSummer, SeasonMonsoon, SeasonPostMonsoon}

// SeasonTable maps each calendar month (index month-1) to its season.
// December belongs to the winter bucket of its own calendar year.
var SeasonTable = [12]Season{
	SeasonWinter,      // January
	SeasonWinter,      // February
	SeasonSummer,      // March
	SeasonSummer,      // April
	SeasonSummer,      // May
	SeasonMonsoon,     // June
	SeasonMonsoon,     // July
	SeasonMonsoon,     // August
	SeasonMonsoon,     // September
	SeasonPostMonsoon, // October
	SeasonPostMonsoon, // November
	SeasonWinter,      // December
}

var seasonLabels = map[Season]string{
	SeasonWinter:      "Winter (Dec-Feb)",
	SeasonSummer:      "Summer (Mar-May)",
	SeasonMonsoon:     "Monsoon (Jun-Sep)",
	SeasonPostMonsoon: "Post-monsoon (Oct-Nov)",
}

// Label returns the season name with its month range.
func (s Season) Label() string {
	return seasonLabels[s]
}

// SeasonOf returns the season month m belongs to.
func SeasonOf(m time.Month) Season {
	return SeasonTable[m-1]
}

// SeasonBucket is one seasonal total.
type SeasonBucket struct {
	Season Season `json:"season"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// SeasonalBuckets holds the four seasons in SeasonOrder.
type SeasonalBuckets [4]SeasonBucket

// Total returns the sum of all buckets.
func (b SeasonalBuckets) Total() int {
	total := 0
	for i := range b {
		total += b[i].Count
	}
	return total
}

// Get returns the count for season s.
func (b SeasonalBuckets) Get(s Season) int {
	for i := range b {
		if b[i].Season == s {
			return b[i].Count
		}
	}
	return 0
}

// BuildSeasonalRollup sums the timeline's months into the four seasons.
func BuildSeasonalRollup(timeline MonthlyTimeline) SeasonalBuckets {
	var buckets SeasonalBuckets
	index := make(map[Season]int, len(SeasonOrder))
	for i, s := range SeasonOrder {
		buckets[i] = SeasonBucket{Season: s, Label: s.Label()}
		index[s] = i
	}

	for month, count := range timeline.Monthly {
		buckets[index[SeasonTable[month]]].Count += count
	}

	return buckets
}
