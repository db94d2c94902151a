package insight

import "github.com/lukman83/vinted-backoffice/internal/models"

// Statuses returns every status that applies to l, highest priority first.
// The result is never empty.
func (e *Engine) Statuses(l *models.PublishedListing) []models.ListingStatus {
	if l == nil {
		e.diag(KindMalformed, "", "nil listing")
		return []models.ListingStatus{models.StatusActive}
	}
	return e.statuses(e.snapshot(l))
}

// PrimaryStatus is the single badge shown where only one fits.
func (e *Engine) PrimaryStatus(l *models.PublishedListing) models.ListingStatus {
	return e.Statuses(l)[0]
}

func (e *Engine) statuses(f facts) []models.ListingStatus {
	applies := map[models.ListingStatus]bool{
		models.StatusSold:        f.sold,
		models.StatusHidden:      f.hidden,
		models.StatusBoostActive: f.boosted,
		models.StatusNeedsRepost: f.stale(e.thresholds),
		models.StatusLowPhotos:   f.fewPhotos(e.thresholds),
	}
	// active is the floor: boost and hidden badges layer on top of it.
	applies[models.StatusActive] = !applies[models.StatusSold] &&
		!applies[models.StatusNeedsRepost] &&
		!applies[models.StatusLowPhotos]

	out := make([]models.ListingStatus, 0, len(models.StatusPriority))
	for _, s := range models.StatusPriority {
		if applies[s] {
			out = append(out, s)
		}
	}
	return out
}

// Higher reports whether a outranks b in display priority.
func Higher(a, b models.ListingStatus) bool {
	return rank(a) < rank(b)
}

func rank(s models.ListingStatus) int {
	for i, p := range models.StatusPriority {
		if p == s {
			return i
		}
	}
	return len(models.StatusPriority)
}
