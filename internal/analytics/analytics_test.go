package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/lukman83/vinted-backoffice/internal/insight"
	"github.com/lukman83/vinted-backoffice/internal/models"
	"github.com/lukman83/vinted-backoffice/internal/store"
)

var testNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestResolvePresets(t *testing.T) {
	tests := []struct {
		r        Range
		from, to time.Time
		gran     Granularity
		buckets  int
	}{
		{Range{Preset: PresetToday}, day(0), day(1), Hourly, 24},
		{Range{Preset: Preset7Days}, day(-6), day(1), Daily, 7},
		{Range{Preset: Preset30Days}, day(-29), day(1), Daily, 30},
		{Range{Preset: PresetCustom, From: day(-3).Add(5 * time.Hour), To: day(-1)}, day(-3), day(0), Daily, 3},
		{Range{Preset: PresetCustom, From: day(-2), To: day(-2)}, day(-2), day(-1), Daily, 1},
	}
	for _, tt := range tests {
		w, err := tt.r.Resolve(testNow)
		if err != nil {
			t.Fatalf("%s: %v", tt.r.Preset, err)
		}
		if !w.From.Equal(tt.from) || !w.To.Equal(tt.to) || w.Granularity != tt.gran {
			t.Errorf("%s: got [%v, %v) %s", tt.r.Preset, w.From, w.To, w.Granularity)
		}
		if n := len(w.Starts()); n != tt.buckets {
			t.Errorf("%s: %d buckets, want %d", tt.r.Preset, n, tt.buckets)
		}
	}
}

func TestResolveRejectsBadCustom(t *testing.T) {
	bad := []Range{
		{Preset: PresetCustom, From: day(0), To: day(-1)},
		{Preset: PresetCustom, From: day(0)},
		{Preset: "yesterday"},
	}
	for _, r := range bad {
		if _, err := r.Resolve(testNow); err == nil {
			t.Errorf("expected error for %+v", r)
		}
	}
}

func TestResolveLocalMidnight(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2026, 3, 15, 0, 30, 0, 0, loc)
	w, err := Range{Preset: PresetToday}.Resolve(now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, loc)
	if !w.From.Equal(want) {
		t.Fatalf("from: got %v, want %v", w.From, want)
	}
}

func TestParsePreset(t *testing.T) {
	for in, want := range map[string]Preset{"": Preset7Days, "TODAY": PresetToday, " 30d ": Preset30Days, "custom": PresetCustom} {
		got, err := ParsePreset(in)
		if err != nil || got != want {
			t.Errorf("ParsePreset(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePreset("90d"); err == nil {
		t.Errorf("expected error for 90d")
	}
}

func TestBucketZeroFillsAndIgnoresOutside(t *testing.T) {
	w := Window{From: day(-2), To: day(1), Granularity: Daily}
	points := []models.HistoryPoint{
		{Date: day(-5), Value: 100},
		{Date: day(-2), Value: 3},
		{Date: day(-2).Add(20 * time.Hour), Value: 2},
		{Date: day(0).Add(9 * time.Hour), Value: 7},
		{Date: day(1), Value: 50},
	}
	got := Bucket(points, w)
	want := []int{5, 0, 7}
	if len(got) != len(want) {
		t.Fatalf("buckets: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Value != want[i] || !got[i].Date.Equal(day(-2+i)) {
			t.Errorf("bucket %d: got %v=%d, want %v=%d", i, got[i].Date, got[i].Value, day(-2+i), want[i])
		}
	}
}

func TestBucketHourly(t *testing.T) {
	w, _ := Range{Preset: PresetToday}.Resolve(testNow)
	got := Bucket([]models.HistoryPoint{
		{Date: day(0).Add(9*time.Hour + 15*time.Minute), Value: 4},
		{Date: day(0).Add(9*time.Hour + 45*time.Minute), Value: 1},
	}, w)
	if got[9].Value != 5 || got[8].Value != 0 || got[10].Value != 0 {
		t.Fatalf("hourly bucket 9: got %d", got[9].Value)
	}
}

func TestTrend(t *testing.T) {
	w := Window{From: day(-1), To: day(1), Granularity: Daily}
	tests := []struct {
		name   string
		points []models.HistoryPoint
		want   float64
	}{
		{"growth", []models.HistoryPoint{{Date: day(-3), Value: 10}, {Date: day(0), Value: 15}}, 50},
		{"decline", []models.HistoryPoint{{Date: day(-2), Value: 20}, {Date: day(-1), Value: 5}}, -75},
		{"no previous", []models.HistoryPoint{{Date: day(0), Value: 9}}, 0},
	}
	for _, tt := range tests {
		if got := Trend(tt.points, w); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	w := Window{From: day(-1), To: day(1), Granularity: Daily}
	items := []Item{
		{
			Listing: models.PublishedListing{ID: "a", Price: 30, ViewsHistory: []models.HistoryPoint{{Date: day(-2), Value: 4}, {Date: day(0), Value: 6}}},
			Evaluation: insight.Evaluation{
				Primary:  models.StatusHidden,
				Insights: []models.ListingInsight{{Type: models.InsightHidden, Severity: models.SeverityCritical}},
			},
		},
		{
			Listing: models.PublishedListing{ID: "b", Price: 10, ViewsHistory: []models.HistoryPoint{{Date: day(-1), Value: 2}}},
			Evaluation: insight.Evaluation{
				Primary:  models.StatusActive,
				Insights: []models.ListingInsight{{Type: models.InsightMissingBrand, Severity: models.SeverityInfo}},
			},
		},
	}
	s := Summarize(w, items)
	if s.Listings != 2 || s.ByStatus[models.StatusHidden] != 1 || s.ByStatus[models.StatusActive] != 1 {
		t.Fatalf("status counts: %+v", s.ByStatus)
	}
	if s.Views != 8 || s.AveragePrice != 20 {
		t.Fatalf("views %d avg %v", s.Views, s.AveragePrice)
	}
	if s.ViewsTrend != 100 {
		t.Fatalf("views trend: got %v", s.ViewsTrend)
	}
	if len(s.ViewsSeries) != 2 || s.ViewsSeries[0].Value != 2 || s.ViewsSeries[1].Value != 6 {
		t.Fatalf("series: %+v", s.ViewsSeries)
	}
	if len(s.NeedsAttention) != 1 || s.NeedsAttention[0] != "a" {
		t.Fatalf("needs attention: %v", s.NeedsAttention)
	}
	if s.BySeverity[models.SeverityCritical] != 1 || s.ByType[models.InsightMissingBrand] != 1 {
		t.Fatalf("insight counts: %+v %+v", s.BySeverity, s.ByType)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	w := Window{From: day(-6), To: day(1), Granularity: Daily}
	s := Summarize(w, nil)
	if s.AveragePrice != 0 || len(s.ViewsSeries) != 7 || len(s.OffersSeries) != 7 {
		t.Fatalf("empty summary: %+v", s)
	}
}

func TestBuildOverStore(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	listings, err := store.SeedListings(testNow)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	for i := range listings {
		if err := repo.Save(ctx, &listings[i]); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	clock := func() time.Time { return testNow }
	eng := insight.New(insight.WithClock(clock))
	s, err := Build(ctx, repo, eng, Range{Preset: Preset30Days}, Options{MaxConcurrent: 2, Now: clock})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.Listings != len(listings) {
		t.Fatalf("listings: got %d, want %d", s.Listings, len(listings))
	}

	wantViews := 0
	for _, l := range listings {
		for _, p := range l.ViewsHistory {
			if !p.Date.Before(day(-29)) {
				wantViews += p.Value
			}
		}
	}
	if s.Views != wantViews {
		t.Errorf("views in window: got %d, want %d", s.Views, wantViews)
	}
	if len(s.ViewsSeries) != 30 {
		t.Errorf("daily series: got %d buckets", len(s.ViewsSeries))
	}
	if s.ByStatus[models.StatusSold] != 1 || s.ByStatus[models.StatusHidden] != 1 {
		t.Errorf("status counts: %+v", s.ByStatus)
	}
	if !s.GeneratedAt.Equal(testNow) {
		t.Errorf("generated at: %v", s.GeneratedAt)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := store.NewMemoryStore()
	repo.Save(context.Background(), &models.PublishedListing{ID: "x", Photos: []string{}})
	if _, err := Build(ctx, repo, insight.New(), Range{}, Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("custom", "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.From.Day() != 1 || r.To.Day() != 7 || r.Preset != PresetCustom {
		t.Fatalf("range: %+v", r)
	}
	if r, err := ParseRange("30d", "garbage", ""); err != nil || r.Preset != Preset30Days {
		t.Fatalf("dates must be ignored for presets: %+v %v", r, err)
	}
	if _, err := ParseRange("custom", "01/03/2026", "2026-03-07"); err == nil {
		t.Fatalf("expected date error")
	}
}
