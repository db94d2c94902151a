package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lukman83/vinted-backoffice/internal/store"
	"github.com/lukman83/vinted-backoffice/internal/ui"
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List published listings with their status",
	Args:  cobra.NoArgs,
	RunE:  runListings,
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one listing with statuses and insights",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var insightsCmd = &cobra.Command{
	Use:   "insights [id]",
	Short: "Show the recommendations for one listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var statusesCmd = &cobra.Command{
	Use:   "statuses [id]",
	Short: "Show the status badges of one listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	listingsCmd.Flags().String("query", "", "Match title, brand or SKU")
	listingsCmd.Flags().String("brand", "", "Filter by brand")
	listingsCmd.Flags().String("category", "", "Filter by category")
	listingsCmd.Flags().Bool("hidden", false, "Only hidden listings (--hidden=false for visible only)")
	listingsCmd.Flags().Bool("sold", false, "Only sold listings (--sold=false for unsold only)")
	listingsCmd.Flags().Int("limit", 0, "Maximum listings (0 = all)")
	listingsCmd.Flags().Int("offset", 0, "Listings to skip")
	addFormatFlag(listingsCmd)
	rootCmd.AddCommand(listingsCmd)

	for _, c := range []*cobra.Command{showCmd, insightsCmd, statusesCmd} {
		addFormatFlag(c)
		rootCmd.AddCommand(c)
	}
}

func runListings(cmd *cobra.Command, args []string) error {
	f := store.Filter{}
	f.Query, _ = cmd.Flags().GetString("query")
	f.Brand, _ = cmd.Flags().GetString("brand")
	f.Category, _ = cmd.Flags().GetString("category")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	f.Offset, _ = cmd.Flags().GetInt("offset")
	f.Hidden = changedBool(cmd, "hidden")
	f.Sold = changedBool(cmd, "sold")
	format, _ := cmd.Flags().GetString("format")

	svc, repo, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer repo.Close()

	spin := ui.NewSpinner(cmd.ErrOrStderr())
	spin.Start("Loading listings...")
	ctx := ui.WithProgress(cmd.Context(), spin.Update)
	views, err := svc.List(ctx, f)
	spin.Stop()
	if err != nil {
		return err
	}

	switch format {
	case "table":
		printListingsTable(cmd.OutOrStdout(), views)
		return nil
	default:
		return writeJSON(cmd.OutOrStdout(), views)
	}
}

// runShow serves show, insights and statuses; they differ only in output.
func runShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	svc, repo, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer repo.Close()

	v, err := svc.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch cmd.Name() {
	case "insights":
		if format == "table" {
			printInsightsTable(out, v.Insights)
			return nil
		}
		return writeJSON(out, v.Insights)
	case "statuses":
		if format == "table" {
			printStatuses(out, v)
			return nil
		}
		return writeJSON(out, map[string]any{"statuses": v.Statuses, "primary_status": v.Primary})
	default:
		if format == "table" {
			printViewTable(out, v)
			return nil
		}
		return writeJSON(out, v)
	}
}

// changedBool maps an unset flag to nil so the filter matches both states.
func changedBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return store.Bool(v)
}
