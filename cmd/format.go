package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukman83/vinted-backoffice/internal/analytics"
	"github.com/lukman83/vinted-backoffice/internal/listing"
	"github.com/lukman83/vinted-backoffice/internal/models"
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", "json", "Output format: json, table")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListingsTable prints listings in a human-friendly card layout.
func printListingsTable(w io.Writer, views []listing.View) {
	if len(views) == 0 {
		fmt.Fprintln(w, "No listings.")
		return
	}
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(w)
		}
		l := v.Listing
		fmt.Fprintf(w, " %d. %s  [%s]\n", i+1, truncate(l.Title, 60), v.Primary)
		fmt.Fprintf(w, "    %s  |  %s  |  %s\n", l.ID, l.SKU, formatPrice(l.Price))
		fmt.Fprintf(w, "    Views %d  Favorites %d  Offers %d\n", l.Views, l.Favorites, l.Offers)
		if len(v.Insights) > 0 {
			var types []string
			for _, in := range v.Insights {
				types = append(types, string(in.Type))
			}
			fmt.Fprintf(w, "    Insights: %s\n", strings.Join(types, ", "))
		}
	}
}

// printViewTable prints one listing with every derived field.
func printViewTable(w io.Writer, v *listing.View) {
	l := v.Listing
	fmt.Fprintf(w, "%s\n", l.Title)
	fmt.Fprintf(w, "  ID:        %s (marketplace %s)\n", l.ID, l.ListingID)
	fmt.Fprintf(w, "  SKU:       %s\n", l.SKU)
	fmt.Fprintf(w, "  Price:     %s\n", formatPrice(l.Price))
	if l.Brand != "" {
		fmt.Fprintf(w, "  Brand:     %s\n", l.Brand)
	}
	fmt.Fprintf(w, "  Photos:    %d\n", l.PhotoCount())
	fmt.Fprintf(w, "  Published: %s\n", l.PublishedDate.Format(time.DateOnly))
	if l.BoostExpiry != nil {
		fmt.Fprintf(w, "  Boosted:   until %s\n", l.BoostExpiry.Format(time.DateOnly))
	}
	if l.SoldAt != nil {
		fmt.Fprintf(w, "  Sold:      %s\n", l.SoldAt.Format(time.DateOnly))
	}
	fmt.Fprintf(w, "  Activity:  %d views, %d favorites, %d offers\n", l.Views, l.Favorites, l.Offers)
	printStatuses(w, v)
	fmt.Fprintln(w)
	printInsightsTable(w, v.Insights)
}

func printStatuses(w io.Writer, v *listing.View) {
	var names []string
	for _, s := range v.Statuses {
		names = append(names, string(s))
	}
	fmt.Fprintf(w, "  Status:    %s (%s)\n", v.Primary, strings.Join(names, ", "))
}

func printInsightsTable(w io.Writer, insights []models.ListingInsight) {
	if len(insights) == 0 {
		fmt.Fprintln(w, "  No recommendations.")
		return
	}
	for _, in := range insights {
		line := fmt.Sprintf("  %-8s %s", in.Severity, in.Type)
		if data := formatData(in.Data); data != "" {
			line += "  " + data
		}
		fmt.Fprintln(w, line)
	}
}

func printSummaryTable(w io.Writer, s *analytics.Summary) {
	fmt.Fprintf(w, "Report %s .. %s (%s buckets)\n",
		s.Window.From.Format(time.DateOnly), s.Window.To.AddDate(0, 0, -1).Format(time.DateOnly), s.Window.Granularity)
	fmt.Fprintf(w, "  Listings:   %d (avg price %s)\n", s.Listings, formatPrice(s.AveragePrice))
	fmt.Fprintf(w, "  Views:      %d (%s)\n", s.Views, formatTrend(s.ViewsTrend))
	fmt.Fprintf(w, "  Favorites:  %d (%s)\n", s.Favorites, formatTrend(s.FavoritesTrend))
	fmt.Fprintf(w, "  Offers:     %d\n", s.Offers)

	fmt.Fprintln(w, "  By status:")
	for _, st := range models.StatusPriority {
		if n := s.ByStatus[st]; n > 0 {
			fmt.Fprintf(w, "    %-12s %d\n", st, n)
		}
	}
	fmt.Fprintln(w, "  Insights:")
	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityWarning, models.SeverityInfo} {
		fmt.Fprintf(w, "    %-12s %d\n", sev, s.BySeverity[sev])
	}
	if len(s.NeedsAttention) > 0 {
		fmt.Fprintf(w, "  Needs attention: %s\n", strings.Join(s.NeedsAttention, ", "))
	}
}

// formatData renders insight placeholders as sorted key=value pairs.
func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

// formatPrice formats a euro amount as "€12.50".
func formatPrice(p float64) string {
	return fmt.Sprintf("€%.2f", p)
}

func formatTrend(pct float64) string {
	return fmt.Sprintf("%+.0f%%", pct)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
