package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/vinted-backoffice/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the demo listings into the configured store",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	_, repo, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := store.Seed(cmd.Context(), repo); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	all, err := repo.List(cmd.Context(), store.Filter{})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s store, %d listings total.\n", cfg.StoreDriver, len(all))
	return nil
}
