package insight

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return testNow.Add(-time.Duration(n) * 24 * time.Hour) }

func newTestEngine(diag DiagnosticFunc) *Engine {
	return New(WithClock(func() time.Time { return testNow }), WithDiagnostics(diag))
}

func photos(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "photo.jpg"
	}
	return out
}

// optimalListing triggers no rule at all.
func optimalListing() *models.PublishedListing {
	return &models.PublishedListing{
		ID:            "l-1",
		SKU:           "VB-TSH-NIK-0001",
		Title:         "Nike Tech Fleece",
		Description:   strings.Repeat("a", 200),
		Brand:         "Nike",
		Condition:     models.ConditionVeryGood,
		Photos:        photos(8),
		Price:         45,
		PackageSize:   models.PackageSmall,
		PublishedDate: daysAgo(2),
		Views:         100,
		Favorites:     20,
	}
}

func insightTypes(in []models.ListingInsight) []models.InsightType {
	out := make([]models.InsightType, 0, len(in))
	for _, i := range in {
		out = append(out, i.Type)
	}
	return out
}

func findInsight(in []models.ListingInsight, t models.InsightType) *models.ListingInsight {
	for i := range in {
		if in[i].Type == t {
			return &in[i]
		}
	}
	return nil
}

func TestOptimalListing(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()

	got := e.Generate(l)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil insights, got %v", got)
	}
	if p := e.PrimaryStatus(l); p != models.StatusActive {
		t.Fatalf("primary status: got %s, want active", p)
	}
}

func TestHiddenOldFewPhotos(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.Photos = photos(2)
	l.IsHidden = true
	l.PublishedDate = daysAgo(30)

	statuses := e.Statuses(l)
	want := []models.ListingStatus{models.StatusHidden, models.StatusLowPhotos}
	if !reflect.DeepEqual(statuses, want) {
		t.Fatalf("statuses: got %v, want %v", statuses, want)
	}
	if p := e.PrimaryStatus(l); p != models.StatusHidden {
		t.Fatalf("primary: got %s, want hidden", p)
	}

	insights := e.Generate(l)
	hidden := findInsight(insights, models.InsightHidden)
	if hidden == nil || hidden.Severity != models.SeverityCritical {
		t.Fatalf("expected critical hidden insight, got %v", insights)
	}
	if p := findInsight(insights, models.InsightPhotos); p == nil || p.Severity != models.SeverityWarning {
		t.Fatalf("expected warning photos insight, got %v", insights)
	}
	if findInsight(insights, models.InsightOldListing) != nil {
		t.Fatalf("oldListing must not fire for hidden listing")
	}
}

func TestHiddenExcludesEngagementAndRepost(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.IsHidden = true
	l.PublishedDate = daysAgo(20)
	l.Views, l.Favorites = 500, 1

	insights := e.Generate(l)
	if findInsight(insights, models.InsightLowEngagement) != nil {
		t.Errorf("lowEngagement fired for hidden listing")
	}
	for _, s := range e.Statuses(l) {
		if s == models.StatusNeedsRepost {
			t.Errorf("needsRepost fired for hidden listing")
		}
	}
}

func TestStalenessBoundary(t *testing.T) {
	e := newTestEngine(nil)

	tests := []struct {
		days int
		want bool
	}{
		{13, false},
		{14, true},
		{30, true},
	}
	for _, tt := range tests {
		l := optimalListing()
		l.PublishedDate = daysAgo(tt.days)

		hasStatus := false
		for _, s := range e.Statuses(l) {
			if s == models.StatusNeedsRepost {
				hasStatus = true
			}
		}
		if hasStatus != tt.want {
			t.Errorf("%d days: needsRepost = %v, want %v", tt.days, hasStatus, tt.want)
		}
		old := findInsight(e.Generate(l), models.InsightOldListing)
		if (old != nil) != tt.want {
			t.Errorf("%d days: oldListing present = %v, want %v", tt.days, old != nil, tt.want)
		}
		if old != nil && old.Data["days"] != 14 {
			t.Errorf("oldListing days: got %v, want 14", old.Data["days"])
		}
	}
}

func TestSoldExcludesRepost(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.PublishedDate = daysAgo(40)
	sold := daysAgo(1)
	l.SoldAt = &sold

	statuses := e.Statuses(l)
	if !reflect.DeepEqual(statuses, []models.ListingStatus{models.StatusSold}) {
		t.Fatalf("statuses: got %v, want [sold]", statuses)
	}
	if findInsight(e.Generate(l), models.InsightOldListing) != nil {
		t.Fatalf("oldListing must not fire for sold listing")
	}
}

func TestOfferGapBoundary(t *testing.T) {
	e := newTestEngine(nil)

	tests := []struct {
		avg         float64
		want        bool
		wantPercent int
	}{
		{80, true, 20},
		{81, false, 0},
		{50, true, 50},
		{120, false, 0},
	}
	for _, tt := range tests {
		l := optimalListing()
		l.Price = 100
		l.Offers = 1
		l.AvgOfferPrice = tt.avg

		got := findInsight(e.Generate(l), models.InsightOffersLow)
		if (got != nil) != tt.want {
			t.Errorf("avg %.0f: offersLow present = %v, want %v", tt.avg, got != nil, tt.want)
			continue
		}
		if got != nil && got.Data["percent"] != tt.wantPercent {
			t.Errorf("avg %.0f: percent = %v, want %d", tt.avg, got.Data["percent"], tt.wantPercent)
		}
	}
}

func TestOffersLowNeedsOffers(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.Price = 100
	l.AvgOfferPrice = 10
	l.Offers = 0
	if findInsight(e.Generate(l), models.InsightOffersLow) != nil {
		t.Fatalf("offersLow fired without offers")
	}
}

func TestLowEngagement(t *testing.T) {
	e := newTestEngine(nil)

	tests := []struct {
		views, favorites int
		want             bool
	}{
		{0, 0, false},
		{100, 4, true},
		{100, 5, false},
		{10, 50, false},
	}
	for _, tt := range tests {
		l := optimalListing()
		l.Views, l.Favorites = tt.views, tt.favorites
		got := findInsight(e.Generate(l), models.InsightLowEngagement) != nil
		if got != tt.want {
			t.Errorf("views=%d favorites=%d: lowEngagement = %v, want %v", tt.views, tt.favorites, got, tt.want)
		}
	}
}

func TestPhotosRuleNeverFiresWithEnoughPhotos(t *testing.T) {
	e := newTestEngine(nil)
	for n := 5; n <= 20; n++ {
		l := optimalListing()
		l.Photos = photos(n)
		if findInsight(e.Generate(l), models.InsightPhotos) != nil {
			t.Fatalf("photos insight fired with %d photos", n)
		}
	}
	l := optimalListing()
	l.Photos = photos(4)
	p := findInsight(e.Generate(l), models.InsightPhotos)
	if p == nil || p.Data["percent"] != 30 {
		t.Fatalf("expected photos insight with percent 30, got %+v", p)
	}
}

func TestContentRules(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.Brand = "   "
	l.Description = "Short text"

	got := insightTypes(e.Generate(l))
	want := []models.InsightType{models.InsightMissingBrand, models.InsightShortDescription}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("insights: got %v, want %v", got, want)
	}
}

func TestShortDescriptionCountsRunes(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.Description = strings.Repeat("é", 50)
	if findInsight(e.Generate(l), models.InsightShortDescription) != nil {
		t.Fatalf("50 accented characters should satisfy the minimum length")
	}
}

func TestBoostInsightCarriesExpiry(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.BoostActive = true
	expiry := testNow.Add(48 * time.Hour)
	l.BoostExpiry = &expiry

	insights := e.Generate(l)
	b := findInsight(insights, models.InsightBoostActive)
	if b == nil {
		t.Fatalf("expected boostActive insight")
	}
	if b.Data["date"] != "2026-03-17" {
		t.Errorf("boost date: got %v", b.Data["date"])
	}
	if p := e.PrimaryStatus(l); p != models.StatusBoostActive {
		t.Errorf("primary: got %s, want boostActive", p)
	}

	l.BoostExpiry = nil
	b = findInsight(e.Generate(l), models.InsightBoostActive)
	if b == nil || b.Data != nil {
		t.Errorf("boost without expiry should carry no data, got %+v", b)
	}
}

func TestExpiredBoostIsNotActive(t *testing.T) {
	var kinds []DiagnosticKind
	e := newTestEngine(func(kind DiagnosticKind, id, msg string) { kinds = append(kinds, kind) })
	l := optimalListing()
	l.BoostActive = true
	expiry := testNow.Add(-time.Hour)
	l.BoostExpiry = &expiry

	if p := e.PrimaryStatus(l); p != models.StatusActive {
		t.Fatalf("primary: got %s, want active", p)
	}
	if len(kinds) == 0 || kinds[0] != KindStaleSnapshot {
		t.Fatalf("expected stale snapshot diagnostic, got %v", kinds)
	}
}

func TestRuleOrder(t *testing.T) {
	e := newTestEngine(nil)
	l := &models.PublishedListing{
		ID:            "l-all",
		Photos:        photos(1),
		Price:         100,
		PublishedDate: daysAgo(20),
		Views:         100,
		Favorites:     1,
		Offers:        2,
		AvgOfferPrice: 60,
		BoostActive:   true,
	}
	got := insightTypes(e.Generate(l))
	want := []models.InsightType{
		models.InsightPhotos,
		models.InsightOldListing,
		models.InsightLowEngagement,
		models.InsightOffersLow,
		models.InsightMissingBrand,
		models.InsightShortDescription,
		models.InsightBoostActive,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order: got %v, want %v", got, want)
	}
	if len(e.Rules()) != 8 {
		t.Fatalf("expected 8 rules, got %d", len(e.Rules()))
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.Photos = photos(3)
	l.Brand = ""
	l.PublishedDate = daysAgo(15)

	first := e.Generate(l)
	second := e.Generate(l)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("generate not idempotent:\n%v\n%v", first, second)
	}
	if first[0].ID == "" || first[0].ID == first[1].ID {
		t.Fatalf("insight ids must be set and distinct: %v", first)
	}
}

func TestGenerateDoesNotMutate(t *testing.T) {
	e := newTestEngine(nil)
	l := optimalListing()
	l.Favorites = 500
	l.Views = -3
	before := l.Clone()

	e.Evaluate(l)
	if !reflect.DeepEqual(before, l) {
		t.Fatalf("listing mutated during evaluation")
	}
}

func TestPrimaryIsMemberOfStatuses(t *testing.T) {
	e := newTestEngine(nil)
	sold := daysAgo(1)
	variants := []func(l *models.PublishedListing){
		func(l *models.PublishedListing) {},
		func(l *models.PublishedListing) { l.IsHidden = true },
		func(l *models.PublishedListing) { l.SoldAt = &sold },
		func(l *models.PublishedListing) { l.BoostActive = true },
		func(l *models.PublishedListing) { l.PublishedDate = daysAgo(60) },
		func(l *models.PublishedListing) { l.Photos = nil },
		func(l *models.PublishedListing) { l.Photos = []string{} },
		func(l *models.PublishedListing) { l.IsHidden = true; l.BoostActive = true; l.Photos = photos(1) },
	}
	for i, mutate := range variants {
		l := optimalListing()
		mutate(l)
		statuses := e.Statuses(l)
		primary := e.PrimaryStatus(l)
		if len(statuses) == 0 || statuses[0] != primary {
			t.Errorf("variant %d: primary %s not first of %v", i, primary, statuses)
		}
		for j := 1; j < len(statuses); j++ {
			if !Higher(statuses[j-1], statuses[j]) {
				t.Errorf("variant %d: statuses out of order: %v", i, statuses)
			}
		}
	}
}

func TestMalformedInputDegrades(t *testing.T) {
	var msgs []string
	e := newTestEngine(func(kind DiagnosticKind, id, msg string) {
		if kind == KindMalformed {
			msgs = append(msgs, msg)
		}
	})

	if got := e.Statuses(nil); !reflect.DeepEqual(got, []models.ListingStatus{models.StatusActive}) {
		t.Fatalf("nil listing statuses: got %v", got)
	}
	if got := e.Generate(nil); got == nil || len(got) != 0 {
		t.Fatalf("nil listing insights: got %v", got)
	}

	l := &models.PublishedListing{ID: "broken", Description: strings.Repeat("x", 60), Brand: "Zara"}
	ev := e.Evaluate(l)
	if ev.Primary != models.StatusActive {
		t.Fatalf("malformed listing primary: got %s", ev.Primary)
	}
	for _, in := range ev.Insights {
		if in.Type == models.InsightPhotos || in.Type == models.InsightOldListing || in.Type == models.InsightOffersLow {
			t.Errorf("rule %s should not fire on malformed input", in.Type)
		}
	}
	if len(msgs) < 3 {
		t.Fatalf("expected diagnostics for nil listing, photos, price and date, got %v", msgs)
	}
}

func TestStaleSnapshotClamps(t *testing.T) {
	var stale int
	e := newTestEngine(func(kind DiagnosticKind, id, msg string) {
		if kind == KindStaleSnapshot {
			stale++
		}
	})
	l := optimalListing()
	l.Views, l.Favorites = 10, 40
	if findInsight(e.Generate(l), models.InsightLowEngagement) != nil {
		t.Fatalf("clamped ratio must not trigger lowEngagement")
	}
	if stale != 1 {
		t.Fatalf("expected one stale snapshot diagnostic, got %d", stale)
	}
}

func TestThresholdOverrides(t *testing.T) {
	e := New(
		WithClock(func() time.Time { return testNow }),
		WithThresholds(Thresholds{StaleAfterDays: 7, MinPhotos: 10}),
	)
	th := e.Thresholds()
	if th.StaleAfterDays != 7 || th.MinPhotos != 10 || th.LowEngagementRatio != 0.05 {
		t.Fatalf("unexpected thresholds %+v", th)
	}

	l := optimalListing()
	l.PublishedDate = daysAgo(8)
	got := insightTypes(e.Generate(l))
	want := []models.InsightType{models.InsightPhotos, models.InsightOldListing}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("insights: got %v, want %v", got, want)
	}
}
