package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	if connString == "" {
		return nil, fmt.Errorf("postgres: connection string is required")
	}
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id                TEXT PRIMARY KEY,
			sku               TEXT NOT NULL DEFAULT '',
			listing_id        TEXT NOT NULL DEFAULT '',
			title             TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			category          TEXT NOT NULL DEFAULT '',
			brand             TEXT NOT NULL DEFAULT '',
			condition         TEXT NOT NULL DEFAULT '',
			material          TEXT NOT NULL DEFAULT '',
			size              TEXT NOT NULL DEFAULT '',
			photos            JSONB NOT NULL DEFAULT '[]',
			price             NUMERIC(10,2) NOT NULL DEFAULT 0,
			package_size      TEXT NOT NULL DEFAULT '',
			published_date    TIMESTAMPTZ NOT NULL,
			is_hidden         BOOLEAN NOT NULL DEFAULT FALSE,
			boost_active      BOOLEAN NOT NULL DEFAULT FALSE,
			boost_expiry      TIMESTAMPTZ,
			sold_at           TIMESTAMPTZ,
			views             INTEGER NOT NULL DEFAULT 0,
			favorites         INTEGER NOT NULL DEFAULT 0,
			offers            INTEGER NOT NULL DEFAULT 0,
			views_trend       DOUBLE PRECISION NOT NULL DEFAULT 0,
			favorites_trend   DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_offer_price   NUMERIC(10,2) NOT NULL DEFAULT 0,
			views_history     JSONB NOT NULL DEFAULT '[]',
			favorites_history JSONB NOT NULL DEFAULT '[]',
			offers_history    JSONB NOT NULL DEFAULT '[]',
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_published ON listings(published_date DESC, id);
		CREATE INDEX IF NOT EXISTS idx_listings_brand     ON listings(LOWER(brand));
		DROP INDEX IF EXISTS idx_listings_sku;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_sku_unique ON listings(sku) WHERE sku <> '';
	`)
	return err
}

// pgColumns casts NUMERIC columns so they scan straight into float64.
const pgColumns = `id, sku, listing_id, title, description, category, brand, condition,
	material, size, photos, price::float8, package_size, published_date, is_hidden, boost_active,
	boost_expiry, sold_at, views, favorites, offers, views_trend, favorites_trend,
	avg_offer_price::float8, views_history, favorites_history, offers_history, updated_at`

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.PublishedListing, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s: %w", id, err)
	}
	return l, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]models.PublishedListing, error) {
	tail, args := buildListQuery(f, postgresDialect)
	rows, err := s.pool.Query(ctx, `SELECT `+pgColumns+` FROM listings`+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	out := []models.PublishedListing{}
	for rows.Next() {
		l, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, l *models.PublishedListing) error {
	if l == nil || l.ID == "" {
		return fmt.Errorf("postgres: listing id is required")
	}
	cols, err := encodeColumns(l)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku,
			listing_id = EXCLUDED.listing_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			brand = EXCLUDED.brand,
			condition = EXCLUDED.condition,
			material = EXCLUDED.material,
			size = EXCLUDED.size,
			photos = EXCLUDED.photos,
			price = EXCLUDED.price,
			package_size = EXCLUDED.package_size,
			published_date = EXCLUDED.published_date,
			is_hidden = EXCLUDED.is_hidden,
			boost_active = EXCLUDED.boost_active,
			boost_expiry = EXCLUDED.boost_expiry,
			sold_at = EXCLUDED.sold_at,
			views = EXCLUDED.views,
			favorites = EXCLUDED.favorites,
			offers = EXCLUDED.offers,
			views_trend = EXCLUDED.views_trend,
			favorites_trend = EXCLUDED.favorites_trend,
			avg_offer_price = EXCLUDED.avg_offer_price,
			views_history = EXCLUDED.views_history,
			favorites_history = EXCLUDED.favorites_history,
			offers_history = EXCLUDED.offers_history,
			updated_at = NOW()
		RETURNING updated_at`

	err = s.pool.QueryRow(ctx, query,
		l.ID, l.SKU, l.ListingID, l.Title, l.Description, l.Category, l.Brand, string(l.Condition),
		l.Material, l.Size, cols.photos, l.Price, string(l.PackageSize), l.PublishedDate,
		l.IsHidden, l.BoostActive, l.BoostExpiry, l.SoldAt, l.Views, l.Favorites,
		l.Offers, l.ViewsTrend, l.FavoritesTrend, l.AvgOfferPrice, cols.views,
		cols.favorites, cols.offers,
	).Scan(&l.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("postgres: save %s: %w: %s", l.ID, ErrDuplicateSKU, l.SKU)
	}
	if err != nil {
		return fmt.Errorf("postgres: save %s: %w", l.ID, err)
	}
	return nil
}

const uniqueViolation = "23505"

func scanPostgres(row pgx.Row) (*models.PublishedListing, error) {
	var (
		l              models.PublishedListing
		condition, pkg string
		c              jsonColumns
	)
	err := row.Scan(&l.ID, &l.SKU, &l.ListingID, &l.Title, &l.Description, &l.Category, &l.Brand,
		&condition, &l.Material, &l.Size, &c.photos, &l.Price, &pkg, &l.PublishedDate, &l.IsHidden,
		&l.BoostActive, &l.BoostExpiry, &l.SoldAt, &l.Views, &l.Favorites, &l.Offers, &l.ViewsTrend,
		&l.FavoritesTrend, &l.AvgOfferPrice, &c.views, &c.favorites, &c.offers, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Condition = models.Condition(condition)
	l.PackageSize = models.PackageSize(pkg)
	if err := decodeColumns(&l, c); err != nil {
		return nil, err
	}
	return &l, nil
}
