// Package report implements the command that prints a year's analytics.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/app"
	"github.com/vedanthangal/sanctuary/internal/buildinfo"
	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/errors"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Command creates the report command.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var year int
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard analytics for a year",
		Long:  "Compute the dashboard analytics for a year from the store, the eBird feed or the fallback dataset, and print them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if format != FormatText && format != FormatJSON {
				return errors.Newf("unknown format %q, want %s or %s", format, FormatText, FormatJSON).
					Component("conf").
					Category(errors.CategoryValidation).
					Build()
			}

			a, err := app.New(cmd.Context(), settings, build)
			defer func() {
				if closeErr := a.Close(); err == nil {
					err = closeErr
				}
			}()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("year") {
				year = a.Service.CurrentYear()
			}
			result, err := a.Service.GetAnalytics(cmd.Context(), year)
			if err != nil {
				return err
			}

			if format == FormatJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return Write(cmd.OutOrStdout(), &result)
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Calendar year, defaults to the current year")
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Output format: text, json")

	return cmd
}

// Write renders result as a plain-text report.
func Write(w io.Writer, result *analytics.AggregatedAnalytics) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	p.Fprintf(tw, "Year\t%d\n", result.Year)
	p.Fprintf(tw, "Source\t%s\n", sourceLabel(result))
	p.Fprintf(tw, "Species\t%d\n", result.TotalSpecies)
	p.Fprintf(tw, "Sightings\t%d\n", result.TotalSightings)
	if result.SkippedRecords > 0 {
		p.Fprintf(tw, "Skipped records\t%d\n", result.SkippedRecords)
	}

	fmt.Fprintln(tw, "\nMonth\tSightings")
	for i, n := range result.Timeline.Monthly {
		p.Fprintf(tw, "%s\t%d\n", time.Month(i+1), n)
	}

	fmt.Fprintln(tw, "\nSeason\tSightings")
	for _, b := range result.Seasonal {
		p.Fprintf(tw, "%s\t%d\n", b.Label, b.Count)
	}

	d := result.StatusDistribution
	fmt.Fprintln(tw, "\nStatus\tSightings")
	p.Fprintf(tw, "Resident\t%d\n", d.Resident)
	p.Fprintf(tw, "Migratory\t%d\n", d.Migratory)
	p.Fprintf(tw, "Rare\t%d\n", d.Rare)

	writeRanking(tw, p, "Top species", result.TopSpecies)
	writeRanking(tw, p, "Rare species", result.RareSpecies)

	return tw.Flush()
}

func writeRanking(w io.Writer, p *message.Printer, title string, ranking []analytics.RankedSpecies) {
	fmt.Fprintf(w, "\n%s\tSightings\n", title)
	if len(ranking) == 0 {
		fmt.Fprintln(w, "(none)\t")
		return
	}
	for i := range ranking {
		p.Fprintf(w, "%d. %s\t%d\n", i+1, ranking[i].Name, ranking[i].Count)
	}
}

func sourceLabel(result *analytics.AggregatedAnalytics) string {
	if result.DatasetVersion == "" {
		return result.Source
	}
	return fmt.Sprintf("%s (%s)", result.Source, result.DatasetVersion)
}
