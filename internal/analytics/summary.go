package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lukman83/vinted-backoffice/internal/insight"
	"github.com/lukman83/vinted-backoffice/internal/models"
	"github.com/lukman83/vinted-backoffice/internal/store"
)

// Item is one listing together with its evaluation.
type Item struct {
	Listing    models.PublishedListing
	Evaluation insight.Evaluation
}

// Summary holds the dashboard KPIs for one window.
type Summary struct {
	Window          Window                       `json:"window"`
	Listings        int                          `json:"listings"`
	ByStatus        map[models.ListingStatus]int `json:"by_status"`
	Views           int                          `json:"views"`
	Favorites       int                          `json:"favorites"`
	Offers          int                          `json:"offers"`
	ViewsTrend      float64                      `json:"views_trend"`
	FavoritesTrend  float64                      `json:"favorites_trend"`
	AveragePrice    float64                      `json:"average_price"`
	BySeverity      map[models.Severity]int      `json:"by_severity"`
	ByType          map[models.InsightType]int   `json:"by_type"`
	NeedsAttention  []string                     `json:"needs_attention"`
	ViewsSeries     []models.HistoryPoint        `json:"views_series"`
	FavoritesSeries []models.HistoryPoint        `json:"favorites_series"`
	OffersSeries    []models.HistoryPoint        `json:"offers_series"`
	GeneratedAt     time.Time                    `json:"generated_at"`
}

type Options struct {
	Filter        store.Filter
	MaxConcurrent int
	Now           func() time.Time
}

// Summarize aggregates already evaluated items. Listings are counted once
// under their primary status; NeedsAttention lists ids with a critical or
// warning insight, most important primary status first.
func Summarize(w Window, items []Item) Summary {
	s := Summary{
		Window:         w,
		Listings:       len(items),
		ByStatus:       make(map[models.ListingStatus]int),
		BySeverity:     make(map[models.Severity]int),
		ByType:         make(map[models.InsightType]int),
		NeedsAttention: []string{},
	}

	var (
		urgent    []Item
		priceSum  float64
		viewsPrev int
		favsPrev  int
	)
	prev := w.Previous()
	for _, it := range items {
		l := &it.Listing
		s.ByStatus[it.Evaluation.Primary]++
		priceSum += l.Price

		s.Views += Total(l.ViewsHistory, w)
		s.Favorites += Total(l.FavoritesHistory, w)
		s.Offers += Total(l.OffersHistory, w)
		viewsPrev += Total(l.ViewsHistory, prev)
		favsPrev += Total(l.FavoritesHistory, prev)

		s.ViewsSeries = merge(s.ViewsSeries, Bucket(l.ViewsHistory, w))
		s.FavoritesSeries = merge(s.FavoritesSeries, Bucket(l.FavoritesHistory, w))
		s.OffersSeries = merge(s.OffersSeries, Bucket(l.OffersHistory, w))

		flagged := false
		for _, in := range it.Evaluation.Insights {
			s.BySeverity[in.Severity]++
			s.ByType[in.Type]++
			if in.Severity == models.SeverityCritical || in.Severity == models.SeverityWarning {
				flagged = true
			}
		}
		if flagged {
			urgent = append(urgent, it)
		}
	}

	sort.SliceStable(urgent, func(i, j int) bool {
		return insight.Higher(urgent[i].Evaluation.Primary, urgent[j].Evaluation.Primary)
	})
	for _, it := range urgent {
		s.NeedsAttention = append(s.NeedsAttention, it.Listing.ID)
	}

	if len(items) > 0 {
		s.AveragePrice = priceSum / float64(len(items))
	} else {
		s.ViewsSeries = Bucket(nil, w)
		s.FavoritesSeries = Bucket(nil, w)
		s.OffersSeries = Bucket(nil, w)
	}
	s.ViewsTrend = percentChange(s.Views, viewsPrev)
	s.FavoritesTrend = percentChange(s.Favorites, favsPrev)
	return s
}

func percentChange(cur, prev int) float64 {
	if prev == 0 {
		return 0
	}
	return float64(cur-prev) / float64(prev) * 100
}

// Build lists repo and evaluates the listings concurrently, at most
// MaxConcurrent at a time, before summarizing them over r.
func Build(ctx context.Context, repo store.Repository, eng *insight.Engine, r Range, opts Options) (*Summary, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	at := now()
	w, err := r.Resolve(at)
	if err != nil {
		return nil, err
	}

	listings, err := repo.List(ctx, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	limit := opts.MaxConcurrent
	if limit <= 0 {
		limit = 4
	}
	items := make([]Item, len(listings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range listings {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = Item{Listing: listings[i], Evaluation: eng.Evaluate(&listings[i])}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := Summarize(w, items)
	s.GeneratedAt = at
	return &s, nil
}
