package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/vinted-backoffice/internal/insight"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the insight rule table and the effective thresholds",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func init() {
	addFormatFlag(rulesCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	eng, err := buildEngine()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != "table" {
		return writeJSON(out, struct {
			Rules      []insight.RuleInfo `json:"rules"`
			Thresholds insight.Thresholds `json:"thresholds"`
		}{eng.Rules(), eng.Thresholds()})
	}

	for i, r := range eng.Rules() {
		fmt.Fprintf(out, " %d. %-17s %s\n", i+1, r.Type, r.Severity)
	}
	t := eng.Thresholds()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  stale after     %d days\n", t.StaleAfterDays)
	fmt.Fprintf(out, "  min photos      %d (+%d%% views)\n", t.MinPhotos, t.PhotoUpliftPercent)
	fmt.Fprintf(out, "  low engagement  < %.2f favorites/view\n", t.LowEngagementRatio)
	fmt.Fprintf(out, "  offer gap       >= %.0f%%\n", t.OfferGapThreshold*100)
	fmt.Fprintf(out, "  min description %d chars (+%d%% views)\n", t.MinDescriptionLength, t.DescriptionUpliftPercent)
	return nil
}
