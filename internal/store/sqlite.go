package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

const (
	sqliteDriverName = "sqlite3_backoffice"
	// sqliteLowerFunc replaces LOWER, which folds ASCII only.
	sqliteLowerFunc = "unicode_lower"
)

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(sqliteLowerFunc, strings.ToLower, true)
		},
	})
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}
	db, err := sql.Open(sqliteDriverName, dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		sku TEXT NOT NULL DEFAULT '',
		listing_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		condition TEXT NOT NULL DEFAULT '',
		material TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		photos JSON NOT NULL DEFAULT '[]',
		price REAL NOT NULL DEFAULT 0,
		package_size TEXT NOT NULL DEFAULT '',
		published_date DATETIME NOT NULL,
		is_hidden BOOLEAN NOT NULL DEFAULT FALSE,
		boost_active BOOLEAN NOT NULL DEFAULT FALSE,
		boost_expiry DATETIME,
		sold_at DATETIME,
		views INTEGER NOT NULL DEFAULT 0,
		favorites INTEGER NOT NULL DEFAULT 0,
		offers INTEGER NOT NULL DEFAULT 0,
		views_trend REAL NOT NULL DEFAULT 0,
		favorites_trend REAL NOT NULL DEFAULT 0,
		avg_offer_price REAL NOT NULL DEFAULT 0,
		views_history JSON NOT NULL DEFAULT '[]',
		favorites_history JSON NOT NULL DEFAULT '[]',
		offers_history JSON NOT NULL DEFAULT '[]',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_listings_published ON listings(published_date DESC, id);
	CREATE INDEX IF NOT EXISTS idx_listings_brand ON listings(brand);
	DROP INDEX IF EXISTS idx_listings_sku;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_sku_unique ON listings(sku) WHERE sku <> '';
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.PublishedListing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %s: %w", id, err)
	}
	return l, nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]models.PublishedListing, error) {
	tail, args := buildListQuery(f, sqliteDialect)
	rows, err := s.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings`+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	out := []models.PublishedListing{}
	for rows.Next() {
		l, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, l *models.PublishedListing) error {
	if l == nil || l.ID == "" {
		return fmt.Errorf("sqlite: listing id is required")
	}
	cols, err := encodeColumns(l)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sku = excluded.sku,
			listing_id = excluded.listing_id,
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			brand = excluded.brand,
			condition = excluded.condition,
			material = excluded.material,
			size = excluded.size,
			photos = excluded.photos,
			price = excluded.price,
			package_size = excluded.package_size,
			published_date = excluded.published_date,
			is_hidden = excluded.is_hidden,
			boost_active = excluded.boost_active,
			boost_expiry = excluded.boost_expiry,
			sold_at = excluded.sold_at,
			views = excluded.views,
			favorites = excluded.favorites,
			offers = excluded.offers,
			views_trend = excluded.views_trend,
			favorites_trend = excluded.favorites_trend,
			avg_offer_price = excluded.avg_offer_price,
			views_history = excluded.views_history,
			favorites_history = excluded.favorites_history,
			offers_history = excluded.offers_history,
			updated_at = excluded.updated_at`,
		l.ID, l.SKU, l.ListingID, l.Title, l.Description, l.Category, l.Brand, string(l.Condition),
		l.Material, l.Size, string(cols.photos), l.Price, string(l.PackageSize), l.PublishedDate.UTC(),
		l.IsHidden, l.BoostActive, utcPtr(l.BoostExpiry), utcPtr(l.SoldAt), l.Views, l.Favorites,
		l.Offers, l.ViewsTrend, l.FavoritesTrend, l.AvgOfferPrice, string(cols.views),
		string(cols.favorites), string(cols.offers), now)
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("sqlite: save %s: %w: %s", l.ID, ErrDuplicateSKU, l.SKU)
	}
	if err != nil {
		return fmt.Errorf("sqlite: save %s: %w", l.ID, err)
	}
	l.UpdatedAt = now
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (*models.PublishedListing, error) {
	var (
		l                   models.PublishedListing
		condition, pkg      string
		photos, vh, fh, oh  string
		boostExpiry, soldAt sql.NullTime
	)
	err := row.Scan(&l.ID, &l.SKU, &l.ListingID, &l.Title, &l.Description, &l.Category, &l.Brand,
		&condition, &l.Material, &l.Size, &photos, &l.Price, &pkg, &l.PublishedDate, &l.IsHidden,
		&l.BoostActive, &boostExpiry, &soldAt, &l.Views, &l.Favorites, &l.Offers, &l.ViewsTrend,
		&l.FavoritesTrend, &l.AvgOfferPrice, &vh, &fh, &oh, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Condition = models.Condition(condition)
	l.PackageSize = models.PackageSize(pkg)
	if boostExpiry.Valid {
		t := boostExpiry.Time
		l.BoostExpiry = &t
	}
	if soldAt.Valid {
		t := soldAt.Time
		l.SoldAt = &t
	}
	cols := jsonColumns{photos: []byte(photos), views: []byte(vh), favorites: []byte(fh), offers: []byte(oh)}
	if err := decodeColumns(&l, cols); err != nil {
		return nil, err
	}
	return &l, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
