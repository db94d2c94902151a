package analytics

import (
	"sort"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

// Bucket sums points into one bucket per hour or day of w. Every bucket is
// present, empty ones with a zero value; points outside w are ignored.
func Bucket(points []models.HistoryPoint, w Window) []models.HistoryPoint {
	starts := w.Starts()
	out := make([]models.HistoryPoint, len(starts))
	for i, s := range starts {
		out[i].Date = s
	}
	for _, p := range points {
		if !w.Contains(p.Date) {
			continue
		}
		i := sort.Search(len(starts), func(i int) bool { return starts[i].After(p.Date) }) - 1
		if i >= 0 {
			out[i].Value += p.Value
		}
	}
	return out
}

// Total sums the points that fall inside w.
func Total(points []models.HistoryPoint, w Window) int {
	sum := 0
	for _, p := range points {
		if w.Contains(p.Date) {
			sum += p.Value
		}
	}
	return sum
}

// Trend is the signed percentage change of w against the preceding window of
// equal length. It is 0 when the preceding window saw nothing.
func Trend(points []models.HistoryPoint, w Window) float64 {
	return percentChange(Total(points, w), Total(points, w.Previous()))
}

// merge adds b into a bucket by bucket; both come from Bucket over one window.
func merge(a, b []models.HistoryPoint) []models.HistoryPoint {
	if a == nil {
		return append([]models.HistoryPoint{}, b...)
	}
	for i := range a {
		if i < len(b) {
			a[i].Value += b[i].Value
		}
	}
	return a
}
