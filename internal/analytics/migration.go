package analytics

import "time"

// MigrationStatus describes bird activity for a month of the year.
type MigrationStatus struct {
	Month    string   `json:"month"`
	Season   Season   `json:"season"`
	Label    string   `json:"label"`
	Status   string   `json:"status"`
	Trend    string   `json:"trend"`
	Insights []string `json:"insights"`
}

// MigrationStatusFor returns the migration outlook for month m, keyed on
// the month's season in SeasonTable.
func MigrationStatusFor(m time.Month) MigrationStatus {
	season := SeasonOf(m)
	ms := MigrationStatus{
		Month:  m.String(),
		Season: season,
		Label:  season.Label(),
	}

	switch season {
	case SeasonWinter:
		ms.Status = "Winter Migration Peak"
		ms.Trend = "Northern birds migrating south"
		ms.Insights = []string{
			"Peak season for migratory water birds (herons, storks, pelicans)",
			"Large congregations at the tank and surrounding wetlands",
			"Best time for birdwatching in the sanctuary",
		}
	case SeasonSummer:
		ms.Status = "Breeding Season"
		ms.Trend = "Stable populations"
		ms.Insights = []string{
			"Migratory birds beginning their return northward",
			"Local breeding species establishing territories",
			"Less activity compared to winter",
		}
	default:
		ms.Status = "Summer/Monsoon Transition"
		ms.Trend = "Moderate activity"
		ms.Insights = []string{
			"Residual migratory species still present",
			"Local breeding birds active",
			"Monsoon rains expanding temporary habitat",
		}
	}

	return ms
}
