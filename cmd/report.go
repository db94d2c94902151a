package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/vinted-backoffice/internal/analytics"
	"github.com/lukman83/vinted-backoffice/internal/store"
	"github.com/lukman83/vinted-backoffice/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize listing activity and insights over a date range",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().String("range", "7d", "Range: today, 7d, 30d, custom")
	reportCmd.Flags().String("from", "", "Custom range start (YYYY-MM-DD)")
	reportCmd.Flags().String("to", "", "Custom range end, inclusive (YYYY-MM-DD)")
	reportCmd.Flags().String("brand", "", "Restrict to one brand")
	reportCmd.Flags().String("category", "", "Restrict to one category")
	addFormatFlag(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	preset, _ := cmd.Flags().GetString("range")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	format, _ := cmd.Flags().GetString("format")

	r, err := analytics.ParseRange(preset, from, to)
	if err != nil {
		return err
	}
	var f store.Filter
	f.Brand, _ = cmd.Flags().GetString("brand")
	f.Category, _ = cmd.Flags().GetString("category")

	svc, repo, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer repo.Close()

	spin := ui.NewSpinner(cmd.ErrOrStderr())
	spin.Start(fmt.Sprintf("Building %s report...", r.Preset))
	ctx := ui.WithProgress(cmd.Context(), spin.Update)
	summary, err := svc.Report(ctx, r, f, cfg.MaxConcurrent)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	if format == "table" {
		printSummaryTable(cmd.OutOrStdout(), summary)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}
