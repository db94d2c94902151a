package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/lukman83/vinted-backoffice/internal/analytics"
	"github.com/lukman83/vinted-backoffice/internal/listing"
	"github.com/lukman83/vinted-backoffice/internal/models"
	"github.com/lukman83/vinted-backoffice/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log a periodic digest of listings that need attention",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("cron", "", "Cron schedule (default from $BACKOFFICE_WATCH_CRON or @every 1h)")
	watchCmd.Flags().Bool("once", false, "Print one digest and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	schedule := cfg.WatchSchedule
	if v, _ := cmd.Flags().GetString("cron"); v != "" {
		schedule = v
	}
	once, _ := cmd.Flags().GetBool("once")

	svc, repo, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer repo.Close()

	digest := func() {
		if err := logDigest(cmd.Context(), svc); err != nil {
			log.Printf("watch: %v", err)
		}
	}
	digest()
	if once {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, digest); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("watch: digest scheduled %q", schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Printf("watch: stopped")
	return nil
}

func logDigest(ctx context.Context, svc *listing.Service) error {
	s, err := svc.Report(ctx, analytics.Range{Preset: analytics.PresetToday}, store.Filter{Sold: store.Bool(false)}, cfg.MaxConcurrent)
	if err != nil {
		return err
	}
	log.Printf("digest: %d unsold listings, %d critical / %d warning insights, %d need repost, %d views today",
		s.Listings,
		s.BySeverity[models.SeverityCritical],
		s.BySeverity[models.SeverityWarning],
		s.ByType[models.InsightOldListing],
		s.Views)
	if len(s.NeedsAttention) > 0 {
		log.Printf("digest: needs attention: %v", s.NeedsAttention)
	}
	return nil
}
