package store

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// Options carries what any driver may need; each driver reads its own fields.
type Options struct {
	SQLitePath  string
	PostgresURL string
	SourceURL   string
	HTTPClient  *http.Client
	Seed        bool
}

// Opener builds a Repository for one driver.
type Opener func(ctx context.Context, opts Options) (Repository, error)

var (
	registry = make(map[string]Opener)
	mu       sync.RWMutex
)

func Register(name string, open Opener) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = open
}

// Open builds the repository registered under driver.
func Open(ctx context.Context, driver string, opts Options) (Repository, error) {
	mu.RLock()
	open, ok := registry[driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store driver %q not registered", driver)
	}
	return open(ctx, opts)
}

func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("memory", func(ctx context.Context, opts Options) (Repository, error) {
		m := NewMemoryStore()
		if err := Seed(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	})
	Register("sqlite", func(ctx context.Context, opts Options) (Repository, error) {
		s, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if opts.Seed {
			if err := Seed(ctx, s); err != nil {
				s.Close()
				return nil, err
			}
		}
		return s, nil
	})
	Register("postgres", func(ctx context.Context, opts Options) (Repository, error) {
		s, err := NewPostgresStore(ctx, opts.PostgresURL)
		if err != nil {
			return nil, err
		}
		if opts.Seed {
			if err := Seed(ctx, s); err != nil {
				s.Close()
				return nil, err
			}
		}
		return s, nil
	})
	Register("http", func(ctx context.Context, opts Options) (Repository, error) {
		if opts.SourceURL == "" {
			return nil, fmt.Errorf("http store: source url is required")
		}
		return NewHTTPSource(opts.HTTPClient, opts.SourceURL), nil
	})
}
