package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

const listingColumns = `id, sku, listing_id, title, description, category, brand, condition,
	material, size, photos, price, package_size, published_date, is_hidden, boost_active,
	boost_expiry, sold_at, views, favorites, offers, views_trend, favorites_trend,
	avg_offer_price, views_history, favorites_history, offers_history, updated_at`

// dialect holds what differs between the SQL drivers when listing.
type dialect struct {
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
	// lower is a SQL function that lowercases the way strings.ToLower does.
	lower string
	// unlimited is the LIMIT value that means no limit.
	unlimited string
}

var (
	sqliteDialect = dialect{
		placeholder: func(int) string { return "?" },
		lower:       sqliteLowerFunc,
		unlimited:   "-1",
	}
	postgresDialect = dialect{
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		lower:       "LOWER",
		unlimited:   "ALL",
	}
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildListQuery renders the WHERE/ORDER/LIMIT tail of a listing query. It
// keeps the same semantics as Filter.Match.
func buildListQuery(f Filter, d dialect) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clause = strings.ReplaceAll(clause, "%l", d.lower)
		where = append(where, strings.ReplaceAll(clause, "%p", d.placeholder(len(args))))
	}

	if f.Brand != "" {
		add("%l(brand) = %p", strings.ToLower(f.Brand))
	}
	if f.Category != "" {
		add("%l(category) = %p", strings.ToLower(f.Category))
	}
	if f.Hidden != nil {
		add("is_hidden = %p", *f.Hidden)
	}
	if f.Sold != nil {
		if *f.Sold {
			where = append(where, "sold_at IS NOT NULL")
		} else {
			where = append(where, "sold_at IS NULL")
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		add(`%l(title || ' ' || brand || ' ' || sku) LIKE %p ESCAPE '\'`, "%"+likeEscaper.Replace(q)+"%")
	}

	var b strings.Builder
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY published_date DESC, id ASC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		b.WriteString(" LIMIT " + d.placeholder(len(args)))
	} else if f.Offset > 0 {
		b.WriteString(" LIMIT " + d.unlimited)
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		b.WriteString(" OFFSET " + d.placeholder(len(args)))
	}
	return b.String(), args
}

// jsonColumns encodes the slice-valued fields of l.
type jsonColumns struct {
	photos, views, favorites, offers []byte
}

func encodeColumns(l *models.PublishedListing) (jsonColumns, error) {
	var (
		c   jsonColumns
		err error
	)
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	if c.photos, err = json.Marshal(photos); err != nil {
		return c, fmt.Errorf("encode photos: %w", err)
	}
	if c.views, err = marshalHistory(l.ViewsHistory); err != nil {
		return c, err
	}
	if c.favorites, err = marshalHistory(l.FavoritesHistory); err != nil {
		return c, err
	}
	if c.offers, err = marshalHistory(l.OffersHistory); err != nil {
		return c, err
	}
	return c, nil
}

func marshalHistory(h []models.HistoryPoint) ([]byte, error) {
	if h == nil {
		h = []models.HistoryPoint{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return data, nil
}

func decodeColumns(l *models.PublishedListing, c jsonColumns) error {
	if err := json.Unmarshal(c.photos, &l.Photos); err != nil {
		return fmt.Errorf("decode photos of %s: %w", l.ID, err)
	}
	if err := json.Unmarshal(c.views, &l.ViewsHistory); err != nil {
		return fmt.Errorf("decode views history of %s: %w", l.ID, err)
	}
	if err := json.Unmarshal(c.favorites, &l.FavoritesHistory); err != nil {
		return fmt.Errorf("decode favorites history of %s: %w", l.ID, err)
	}
	if err := json.Unmarshal(c.offers, &l.OffersHistory); err != nil {
		return fmt.Errorf("decode offers history of %s: %w", l.ID, err)
	}
	return nil
}
