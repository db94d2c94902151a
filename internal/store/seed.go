package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

//go:embed seed.json
var seedJSON []byte

// seedRecord describes a demo listing relative to "now" so the dataset never goes stale.
type seedRecord struct {
	ID            string             `json:"id"`
	SKU           string             `json:"sku"`
	ListingID     string             `json:"listing_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Category      string             `json:"category"`
	Brand         string             `json:"brand"`
	Condition     models.Condition   `json:"condition"`
	Material      string             `json:"material"`
	Size          string             `json:"size"`
	PhotoCount    int                `json:"photo_count"`
	Price         float64            `json:"price"`
	PackageSize   models.PackageSize `json:"package_size"`
	DaysAgo       int                `json:"days_ago"`
	Hidden        bool               `json:"hidden"`
	BoostDaysLeft int                `json:"boost_days_left"`
	SoldDaysAgo   int                `json:"sold_days_ago"`
	Views         int                `json:"views"`
	Favorites     int                `json:"favorites"`
	Offers        int                `json:"offers"`
	AvgOfferPrice float64            `json:"avg_offer_price"`
}

// SeedListings materializes the embedded demo dataset against now.
func SeedListings(now time.Time) ([]models.PublishedListing, error) {
	var records []seedRecord
	if err := json.Unmarshal(seedJSON, &records); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}

	out := make([]models.PublishedListing, 0, len(records))
	for _, r := range records {
		published := now.Add(-time.Duration(r.DaysAgo) * 24 * time.Hour)
		l := models.PublishedListing{
			ID:               r.ID,
			SKU:              r.SKU,
			ListingID:        r.ListingID,
			Title:            r.Title,
			Description:      r.Description,
			Category:         r.Category,
			Brand:            r.Brand,
			Condition:        r.Condition,
			Material:         r.Material,
			Size:             r.Size,
			Photos:           seedPhotos(r.ID, r.PhotoCount),
			Price:            r.Price,
			PackageSize:      r.PackageSize,
			PublishedDate:    published,
			IsHidden:         r.Hidden,
			Views:            r.Views,
			Favorites:        r.Favorites,
			Offers:           r.Offers,
			AvgOfferPrice:    r.AvgOfferPrice,
			ViewsHistory:     spread(r.Views, published, now),
			FavoritesHistory: spread(r.Favorites, published, now),
			OffersHistory:    spread(r.Offers, published, now),
		}
		if r.BoostDaysLeft > 0 {
			expiry := now.Add(time.Duration(r.BoostDaysLeft) * 24 * time.Hour)
			l.BoostActive = true
			l.BoostExpiry = &expiry
		}
		if r.SoldDaysAgo > 0 {
			sold := now.Add(-time.Duration(r.SoldDaysAgo) * 24 * time.Hour)
			l.SoldAt = &sold
		}
		l.ViewsTrend = halfTrend(l.ViewsHistory)
		l.FavoritesTrend = halfTrend(l.FavoritesHistory)
		out = append(out, l)
	}
	return out, nil
}

// Seed writes the demo dataset into repo.
func Seed(ctx context.Context, repo Repository) error {
	listings, err := SeedListings(time.Now())
	if err != nil {
		return err
	}
	for i := range listings {
		if err := repo.Save(ctx, &listings[i]); err != nil {
			return fmt.Errorf("seed %s: %w", listings[i].ID, err)
		}
	}
	return nil
}

func seedPhotos(id string, n int) []string {
	photos := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		photos = append(photos, fmt.Sprintf("https://images.example.com/%s/%d.jpg", id, i))
	}
	return photos
}

// spread distributes total over one point per day since published, weighting
// the first days more heavily the way fresh listings get most of their traffic.
func spread(total int, published, now time.Time) []models.HistoryPoint {
	start := published.Truncate(24 * time.Hour)
	days := int(now.Sub(start)/(24*time.Hour)) + 1
	if days < 1 {
		days = 1
	}

	weights := make([]int, days)
	sum := 0
	for i := range weights {
		weights[i] = days - i
		sum += weights[i]
	}

	points := make([]models.HistoryPoint, days)
	left := total
	for i := range points {
		v := total * weights[i] / sum
		if i == days-1 {
			v = left
		}
		left -= v
		points[i] = models.HistoryPoint{Date: start.Add(time.Duration(i) * 24 * time.Hour), Value: v}
	}
	return points
}

// halfTrend compares the second half of a series with the first, in percent.
func halfTrend(points []models.HistoryPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	mid := len(points) / 2
	var before, after int
	for i, p := range points {
		if i < mid {
			before += p.Value
		} else {
			after += p.Value
		}
	}
	if before == 0 {
		return 0
	}
	return float64(after-before) / float64(before) * 100
}
