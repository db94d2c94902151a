package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/lukman83/vinted-backoffice/config"
	"github.com/lukman83/vinted-backoffice/internal/httputil"
	"github.com/lukman83/vinted-backoffice/internal/insight"
	"github.com/lukman83/vinted-backoffice/internal/listing"
	"github.com/lukman83/vinted-backoffice/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Vinted back-office - listing insights CLI & MCP server",
	Long:  "A Go-based CLI tool and MCP server that derives listing statuses and seller recommendations for a Vinted reseller back office.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("store", "", "Listing store: "+strings.Join(store.Drivers(), ", "))
	rootCmd.PersistentFlags().String("sqlite-path", "", "SQLite database file (sqlite store)")
	rootCmd.PersistentFlags().String("postgres-url", "", "Postgres connection string (postgres store)")
	rootCmd.PersistentFlags().String("source-url", "", "Remote JSON export URL (http store)")
	rootCmd.PersistentFlags().String("rules", "", "YAML file with insight threshold overrides")
	rootCmd.PersistentFlags().Bool("seed", false, "Load the demo listings when opening the store")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("store"); v != "" {
		cfg.StoreDriver = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("sqlite-path"); v != "" {
		cfg.SQLitePath = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("postgres-url"); v != "" {
		cfg.PostgresURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("source-url"); v != "" {
		cfg.SourceURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("rules"); v != "" {
		cfg.RulesFile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("seed"); v {
		cfg.SeedOnOpen = true
	}
}

// buildHTTPClient creates the rate-limited client used by the http store.
func buildHTTPClient() *http.Client {
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	return httputil.NewHTTPClient(&httputil.LimitedTransport{
		Base: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
		},
		RateLimiter: limiter,
		UserAgent:   cfg.UserAgent,
	})
}

func buildEngine() (*insight.Engine, error) {
	thresholds, err := config.LoadThresholds(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	return insight.New(
		insight.WithThresholds(thresholds),
		insight.WithDiagnostics(logDiagnostics),
	), nil
}

// openService opens the configured store and wraps it in the action
// service. The caller closes the returned repository.
func openService(ctx context.Context) (*listing.Service, store.Repository, error) {
	eng, err := buildEngine()
	if err != nil {
		return nil, nil, err
	}
	repo, err := store.Open(ctx, cfg.StoreDriver, store.Options{
		SQLitePath:  cfg.SQLitePath,
		PostgresURL: cfg.PostgresURL,
		SourceURL:   cfg.SourceURL,
		HTTPClient:  buildHTTPClient(),
		Seed:        cfg.SeedOnOpen,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return listing.NewService(repo, eng), repo, nil
}

func logDiagnostics(kind insight.DiagnosticKind, listingID, message string) {
	if listingID == "" {
		listingID = "-"
	}
	log.Printf("insight %s: listing %s: %s", kind, listingID, message)
}
