package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

var (
	ErrNotFound     = errors.New("listing not found")
	ErrReadOnly     = errors.New("store is read-only")
	// ErrDuplicateSKU is returned by Save when another listing already
	// holds the same non-empty SKU.
	ErrDuplicateSKU = errors.New("sku already in use")
)

// Repository owns PublishedListing records. Readers get copies; callers
// that want to change a record must go through Save.
type Repository interface {
	Get(ctx context.Context, id string) (*models.PublishedListing, error)
	List(ctx context.Context, f Filter) ([]models.PublishedListing, error)
	Save(ctx context.Context, l *models.PublishedListing) error
	Close() error
}

// Filter narrows List results. Nil tri-state fields match everything.
type Filter struct {
	Query    string
	Brand    string
	Category string
	Hidden   *bool
	Sold     *bool
	Limit    int
	Offset   int
}

// Match reports whether l passes every criterion of f except paging.
func (f Filter) Match(l *models.PublishedListing) bool {
	if f.Brand != "" && !strings.EqualFold(f.Brand, l.Brand) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, l.Category) {
		return false
	}
	if f.Hidden != nil && *f.Hidden != l.IsHidden {
		return false
	}
	if f.Sold != nil && *f.Sold != l.IsSold() {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(l.Title + " " + l.Brand + " " + l.SKU)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Page applies Offset and Limit to an already sorted slice.
func (f Filter) Page(in []models.PublishedListing) []models.PublishedListing {
	if f.Offset > 0 {
		if f.Offset >= len(in) {
			return []models.PublishedListing{}
		}
		in = in[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(in) {
		in = in[:f.Limit]
	}
	return in
}

// Sort orders listings newest first, breaking ties by id.
func Sort(in []models.PublishedListing) {
	sort.SliceStable(in, func(i, j int) bool {
		a, b := in[i].PublishedDate, in[j].PublishedDate
		if !a.Equal(b) {
			return a.After(b)
		}
		return in[i].ID < in[j].ID
	})
}

// apply filters, sorts and pages in memory; used by stores without a query language.
func apply(all []models.PublishedListing, f Filter) []models.PublishedListing {
	out := make([]models.PublishedListing, 0, len(all))
	for i := range all {
		if f.Match(&all[i]) {
			out = append(out, all[i])
		}
	}
	Sort(out)
	return f.Page(out)
}

func Bool(v bool) *bool { return &v }
