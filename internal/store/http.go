package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lukman83/vinted-backoffice/internal/httputil"
	"github.com/lukman83/vinted-backoffice/internal/models"
	"github.com/lukman83/vinted-backoffice/internal/ui"
)

// HTTPSource reads listings from a remote JSON export (an array of
// PublishedListing). It is read-only and fetches on every call.
type HTTPSource struct {
	client *http.Client
	url    string
}

func NewHTTPSource(client *http.Client, url string) *HTTPSource {
	if client == nil {
		client = httputil.NewHTTPClient(nil)
	}
	return &HTTPSource{client: client, url: url}
}

func (s *HTTPSource) fetch(ctx context.Context) ([]models.PublishedListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.JSONHeaders() {
		req.Header[k] = v
	}

	ui.Progressf(ctx, "Fetching listings from %s...", req.URL.Host)
	resp, err := httputil.DoWithRetry(s.client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("http store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http store: unexpected status %d", resp.StatusCode)
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("http store: read body: %w", err)
	}

	var listings []models.PublishedListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("http store: decode: %w", err)
	}
	ui.Progressf(ctx, "Fetched %d listings", len(listings))
	return listings, nil
}

func (s *HTTPSource) Get(ctx context.Context, id string) (*models.PublishedListing, error) {
	all, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *HTTPSource) List(ctx context.Context, f Filter) ([]models.PublishedListing, error) {
	all, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return apply(all, f), nil
}

func (s *HTTPSource) Save(ctx context.Context, l *models.PublishedListing) error {
	return ErrReadOnly
}

func (s *HTTPSource) Close() error { return nil }
