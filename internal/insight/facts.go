package insight

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

// facts is a read-once snapshot of the listing fields the rules look at.
// Rules never touch the listing itself, so a record updated concurrently by
// the host cannot be observed half-written within one evaluation.
type facts struct {
	id          string
	hasPhotos   bool
	photoCount  int
	brand       string
	descLen     int
	price       float64
	hidden      bool
	sold        bool
	boosted     bool
	boostExpiry *time.Time
	ageDays     int
	ageKnown    bool
	views       int
	favorites   int
	offers      int
	avgOffer    float64
}

func (e *Engine) snapshot(l *models.PublishedListing) facts {
	now := e.now()

	id := l.ID
	photos := l.Photos
	brand := strings.TrimSpace(l.Brand)
	desc := strings.TrimSpace(l.Description)
	price := l.Price
	published := l.PublishedDate
	hidden := l.IsHidden
	soldAt := l.SoldAt
	boosted := l.BoostActive
	expiry := l.BoostExpiry
	views, favorites, offers := l.Views, l.Favorites, l.Offers
	avgOffer := l.AvgOfferPrice
	condition, pkg := l.Condition, l.PackageSize

	f := facts{
		id:         id,
		hasPhotos:  photos != nil,
		photoCount: len(photos),
		brand:      brand,
		descLen:    utf8.RuneCountInString(desc),
		price:      price,
		hidden:     hidden,
		sold:       soldAt != nil,
		views:      views,
		favorites:  favorites,
		offers:     offers,
		avgOffer:   avgOffer,
	}

	if id == "" {
		e.diag(KindMalformed, "", "listing has no id")
	}
	if photos == nil {
		e.diag(KindMalformed, id, "photos missing")
	}
	if price <= 0 {
		e.diag(KindMalformed, id, "non-positive price")
	}
	if condition != "" && !condition.Valid() {
		e.diag(KindMalformed, id, "unknown condition "+string(condition))
	}
	if pkg != "" && !pkg.Valid() {
		e.diag(KindMalformed, id, "unknown package size "+string(pkg))
	}

	if published.IsZero() {
		e.diag(KindMalformed, id, "published date missing")
	} else {
		f.ageKnown = true
		if age := now.Sub(published); age > 0 {
			f.ageDays = int(age / (24 * time.Hour))
		}
	}

	if views < 0 || favorites < 0 || offers < 0 {
		e.diag(KindMalformed, id, "negative analytics counter")
		f.views = max(views, 0)
		f.favorites = max(favorites, 0)
		f.offers = max(offers, 0)
	}
	if f.favorites > f.views {
		e.diag(KindStaleSnapshot, id, "favorites exceed views")
	}
	if avgOffer < 0 {
		e.diag(KindMalformed, id, "negative average offer price")
		f.avgOffer = 0
	}

	if boosted {
		if expiry != nil && !now.Before(*expiry) {
			e.diag(KindStaleSnapshot, id, "boost flag set past its expiry")
		} else {
			f.boosted = true
			if expiry != nil {
				t := *expiry
				f.boostExpiry = &t
			}
		}
	}

	return f
}

// stale reports whether the listing is old enough to need a repost.
func (f facts) stale(t Thresholds) bool {
	return f.ageKnown && !f.hidden && !f.sold && f.ageDays >= t.StaleAfterDays
}

func (f facts) fewPhotos(t Thresholds) bool {
	return f.hasPhotos && f.photoCount < t.MinPhotos
}

// engagement is favorites per view clamped to [0, 1].
func (f facts) engagement() float64 {
	if f.views <= 0 {
		return 0
	}
	r := float64(f.favorites) / float64(f.views)
	if r > 1 {
		return 1
	}
	return r
}

// offerGap is how far below the asking price the average offer sits, as a fraction.
func (f facts) offerGap() float64 {
	if f.price <= 0 || f.offers <= 0 {
		return 0
	}
	gap := (f.price - f.avgOffer) / f.price
	if gap < 0 {
		return 0
	}
	if gap > 1 {
		return 1
	}
	return gap
}
