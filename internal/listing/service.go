// Package listing applies seller actions to stored listings and hands back
// the re-derived statuses and insights after every change.
package listing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lukman83/vinted-backoffice/internal/analytics"
	"github.com/lukman83/vinted-backoffice/internal/insight"
	"github.com/lukman83/vinted-backoffice/internal/models"
	"github.com/lukman83/vinted-backoffice/internal/sku"
	"github.com/lukman83/vinted-backoffice/internal/store"
)

var (
	ErrInvalidListing = errors.New("invalid listing")
	ErrSold           = errors.New("listing is sold")
)

// View is a listing as the back office shows it: the stored record plus
// everything derived from it at read time.
type View struct {
	Listing *models.PublishedListing `json:"listing"`
	insight.Evaluation
}

// Service wires a repository to the insight engine.
type Service struct {
	repo   store.Repository
	engine *insight.Engine
	now    func() time.Time

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
	skuMu   sync.Mutex // serializes Create so two drafts never share a SKU
	locks   idLocks    // one read-modify-write per listing at a time
}

type Option func(*Service)

// WithClock sets the time used for boosts, reposts and new listings. It
// should match the clock of the engine.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo store.Repository, engine *insight.Engine, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		engine: engine,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entropy = ulid.Monotonic(rand.New(rand.NewSource(s.now().UnixNano())), 0)
	return s
}

func (s *Service) view(l *models.PublishedListing) *View {
	return &View{Listing: l, Evaluation: s.engine.Evaluate(l)}
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(l), nil
}

func (s *Service) List(ctx context.Context, f store.Filter) ([]View, error) {
	listings, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	out := make([]View, 0, len(listings))
	for i := range listings {
		out = append(out, *s.view(&listings[i]))
	}
	return out, nil
}

// Report summarizes the listings matching f over r.
func (s *Service) Report(ctx context.Context, r analytics.Range, f store.Filter, maxConcurrent int) (*analytics.Summary, error) {
	return analytics.Build(ctx, s.repo, s.engine, r, analytics.Options{
		Filter:        f,
		MaxConcurrent: maxConcurrent,
		Now:           s.now,
	})
}

// mutate loads id, applies fn and saves the result. Concurrent actions on
// the same id run one after the other so none of them is lost.
func (s *Service) mutate(ctx context.Context, id string, fn func(l *models.PublishedListing, now time.Time) error) (*View, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(l, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("save %s: %w", id, err)
	}
	return s.view(l), nil
}

// Boost promotes id for d starting now. Boosting again extends from now,
// not from the previous expiry.
func (s *Service) Boost(ctx context.Context, id string, d time.Duration) (*View, error) {
	if d <= 0 {
		return nil, fmt.Errorf("%w: boost duration must be positive, got %s", ErrInvalidListing, d)
	}
	return s.mutate(ctx, id, func(l *models.PublishedListing, now time.Time) error {
		if l.IsSold() {
			return fmt.Errorf("boost %s: %w", id, ErrSold)
		}
		expiry := now.Add(d)
		l.BoostActive = true
		l.BoostExpiry = &expiry
		return nil
	})
}

// Repost republishes id under a fresh marketplace id. The listing becomes
// visible again and any running boost ends with the old posting.
func (s *Service) Repost(ctx context.Context, id string) (*View, error) {
	return s.mutate(ctx, id, func(l *models.PublishedListing, now time.Time) error {
		if l.IsSold() {
			return fmt.Errorf("repost %s: %w", id, ErrSold)
		}
		l.PublishedDate = now
		l.IsHidden = false
		l.BoostActive = false
		l.BoostExpiry = nil
		l.ListingID = s.newID(now)
		return nil
	})
}

func (s *Service) SetHidden(ctx context.Context, id string, hidden bool) (*View, error) {
	return s.mutate(ctx, id, func(l *models.PublishedListing, now time.Time) error {
		l.IsHidden = hidden
		return nil
	})
}

// MarkSold records the sale. Marking an already sold listing keeps the
// original sale time.
func (s *Service) MarkSold(ctx context.Context, id string) (*View, error) {
	return s.mutate(ctx, id, func(l *models.PublishedListing, now time.Time) error {
		if l.IsSold() {
			return nil
		}
		sold := now
		l.SoldAt = &sold
		l.BoostActive = false
		l.BoostExpiry = nil
		return nil
	})
}

// Create stores a new listing built from draft. Id, publish date and
// analytics are always assigned here; the SKU only when draft has none.
func (s *Service) Create(ctx context.Context, draft models.PublishedListing) (*View, error) {
	if err := validate(&draft); err != nil {
		return nil, err
	}

	s.skuMu.Lock()
	defer s.skuMu.Unlock()

	now := s.now()
	l := draft.Clone()
	l.ID = s.newID(now)
	l.Title = strings.TrimSpace(l.Title)
	l.Brand = strings.TrimSpace(l.Brand)
	if l.Photos == nil {
		l.Photos = []string{}
	}
	l.PublishedDate = now
	l.IsHidden = false
	l.BoostActive, l.BoostExpiry, l.SoldAt = false, nil, nil
	l.Views, l.Favorites, l.Offers = 0, 0, 0
	l.ViewsTrend, l.FavoritesTrend, l.AvgOfferPrice = 0, 0, 0
	l.ViewsHistory = []models.HistoryPoint{}
	l.FavoritesHistory = []models.HistoryPoint{}
	l.OffersHistory = []models.HistoryPoint{}

	if l.SKU != "" {
		if err := s.repo.Save(ctx, l); err != nil {
			return nil, fmt.Errorf("create listing: %w", err)
		}
		return s.view(l), nil
	}

	// Another process on the same store may save the code first.
	var err error
	for attempt := 0; attempt < maxSKUAttempts; attempt++ {
		if l.SKU, err = s.nextSKU(ctx, l.Category, l.Brand); err != nil {
			return nil, err
		}
		err = s.repo.Save(ctx, l)
		if !errors.Is(err, store.ErrDuplicateSKU) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return s.view(l), nil
}

const maxSKUAttempts = 5

func (s *Service) nextSKU(ctx context.Context, category, brand string) (string, error) {
	all, err := s.repo.List(ctx, store.Filter{})
	if err != nil {
		return "", fmt.Errorf("allocate sku: %w", err)
	}
	codes := make([]string, 0, len(all))
	for _, l := range all {
		codes = append(codes, l.SKU)
	}
	return sku.Generate(category, brand, sku.Next(codes)), nil
}

func (s *Service) newID(now time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

func validate(l *models.PublishedListing) error {
	switch {
	case strings.TrimSpace(l.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidListing)
	case l.Price <= 0:
		return fmt.Errorf("%w: price must be positive, got %.2f", ErrInvalidListing, l.Price)
	case l.Condition != "" && !l.Condition.Valid():
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidListing, l.Condition)
	case l.PackageSize != "" && !l.PackageSize.Valid():
		return fmt.Errorf("%w: unknown package size %q", ErrInvalidListing, l.PackageSize)
	}
	return nil
}
