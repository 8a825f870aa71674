package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedanthangal/sanctuary/internal/analytics"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	timeline := analytics.MonthlyTimeline{Year: 2024, Monthly: [12]int{1200, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0, 1}, Total: 1204}
	result := analytics.AggregatedAnalytics{
		Year:           2024,
		TotalSpecies:   2,
		TotalSightings: 1204,
		Timeline:       timeline,
		Seasonal:       analytics.BuildSeasonalRollup(timeline),
		TopSpecies: []analytics.RankedSpecies{
			{Name: "Black-headed Ibis", Count: 1201},
			{Name: "Spot-billed Pelican", Count: 3},
		},
		StatusDistribution: analytics.StatusDistribution{Resident: 1201, Rare: 3},
		Source:             "fallback",
		DatasetVersion:     "2025.1",
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &result))
	out := buf.String()

	assert.Contains(t, out, "fallback (2025.1)")
	assert.Contains(t, out, "1,204")
	assert.Contains(t, out, "January")
	assert.Contains(t, out, "1. Black-headed Ibis")
	assert.Contains(t, out, "Rare species")
	assert.Contains(t, out, "(none)")
	assert.NotContains(t, out, "Skipped records")

	winter := analytics.SeasonWinter.Label()
	for line := range strings.Lines(out) {
		if strings.HasPrefix(line, winter) {
			assert.Contains(t, line, "1,201")
		}
	}
}

func TestCommandRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	cmd := Command(nil, nil)
	cmd.SetArgs([]string{"--format", "xml"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
