package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

// MemoryStore keeps listings in a map. It is safe for concurrent use and
// never hands out its internal records.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]*models.PublishedListing
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{listings: make(map[string]*models.PublishedListing)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.PublishedListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l.Clone(), nil
}

func (m *MemoryStore) List(ctx context.Context, f Filter) ([]models.PublishedListing, error) {
	m.mu.RLock()
	all := make([]models.PublishedListing, 0, len(m.listings))
	for _, l := range m.listings {
		all = append(all, *l.Clone())
	}
	m.mu.RUnlock()
	return apply(all, f), nil
}

func (m *MemoryStore) Save(ctx context.Context, l *models.PublishedListing) error {
	if l == nil || l.ID == "" {
		return fmt.Errorf("memory store: listing id is required")
	}
	c := l.Clone()
	c.UpdatedAt = time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	if c.SKU != "" {
		for id, other := range m.listings {
			if id != c.ID && other.SKU == c.SKU {
				return fmt.Errorf("%w: %s", ErrDuplicateSKU, c.SKU)
			}
		}
	}
	m.listings[c.ID] = c

	l.UpdatedAt = c.UpdatedAt
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listings)
}

func (m *MemoryStore) Close() error { return nil }
