package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukman83/vinted-backoffice/internal/listing"
	"github.com/lukman83/vinted-backoffice/internal/models"
)

// action runs one service call against the listing named by the first argument.
type action func(ctx context.Context, svc *listing.Service, cmd *cobra.Command, id string) (*listing.View, error)

func actionCommand(use, short string, run action) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, repo, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			v, err := run(cmd.Context(), svc, cmd, args[0])
			if err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			return printView(cmd, v)
		},
	}
	addFormatFlag(c)
	return c
}

func printView(cmd *cobra.Command, v *listing.View) error {
	format, _ := cmd.Flags().GetString("format")
	if format == "table" {
		printViewTable(cmd.OutOrStdout(), v)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), v)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a listing with a generated id and SKU",
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

func init() {
	boostCmd := actionCommand("boost", "Boost a listing", func(ctx context.Context, svc *listing.Service, cmd *cobra.Command, id string) (*listing.View, error) {
		days, _ := cmd.Flags().GetInt("days")
		return svc.Boost(ctx, id, time.Duration(days)*24*time.Hour)
	})
	boostCmd.Flags().Int("days", 7, "Boost duration in days")

	rootCmd.AddCommand(
		boostCmd,
		actionCommand("repost", "Republish a listing under a fresh marketplace id", func(ctx context.Context, svc *listing.Service, cmd *cobra.Command, id string) (*listing.View, error) {
			return svc.Repost(ctx, id)
		}),
		actionCommand("hide", "Hide a listing from buyers", func(ctx context.Context, svc *listing.Service, cmd *cobra.Command, id string) (*listing.View, error) {
			return svc.SetHidden(ctx, id, true)
		}),
		actionCommand("unhide", "Make a hidden listing visible again", func(ctx context.Context, svc *listing.Service, cmd *cobra.Command, id string) (*listing.View, error) {
			return svc.SetHidden(ctx, id, false)
		}),
		actionCommand("mark-sold", "Record a sale", func(ctx context.Context, svc *listing.Service, cmd *cobra.Command, id string) (*listing.View, error) {
			return svc.MarkSold(ctx, id)
		}),
	)

	createCmd.Flags().String("title", "", "Listing title (required)")
	createCmd.Flags().Float64("price", 0, "Asking price (required)")
	createCmd.Flags().String("description", "", "Description")
	createCmd.Flags().String("category", "", "Category, e.g. tops")
	createCmd.Flags().String("brand", "", "Brand")
	createCmd.Flags().String("condition", "", "new_with_tags, very_good, good, satisfactory")
	createCmd.Flags().String("material", "", "Material")
	createCmd.Flags().String("size", "", "Size label")
	createCmd.Flags().String("package-size", "", "small, medium, large")
	createCmd.Flags().StringSlice("photos", nil, "Photo URLs, main photo first")
	createCmd.Flags().String("sku", "", "SKU (generated when empty)")
	addFormatFlag(createCmd)
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	var draft models.PublishedListing
	draft.Title, _ = flags.GetString("title")
	draft.Price, _ = flags.GetFloat64("price")
	draft.Description, _ = flags.GetString("description")
	draft.Category, _ = flags.GetString("category")
	draft.Brand, _ = flags.GetString("brand")
	draft.Material, _ = flags.GetString("material")
	draft.Size, _ = flags.GetString("size")
	draft.SKU, _ = flags.GetString("sku")
	draft.Photos, _ = flags.GetStringSlice("photos")
	condition, _ := flags.GetString("condition")
	draft.Condition = models.Condition(strings.TrimSpace(condition))
	pkg, _ := flags.GetString("package-size")
	draft.PackageSize = models.PackageSize(strings.TrimSpace(pkg))

	svc, repo, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer repo.Close()

	v, err := svc.Create(cmd.Context(), draft)
	if err != nil {
		return fmt.Errorf("create failed: %w", err)
	}
	return printView(cmd, v)
}
