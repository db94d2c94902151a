package models

import "time"

type Condition string

const (
	ConditionNewWithTags  Condition = "new_with_tags"
	ConditionVeryGood     Condition = "very_good"
	ConditionGood         Condition = "good"
	ConditionSatisfactory Condition = "satisfactory"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNewWithTags, ConditionVeryGood, ConditionGood, ConditionSatisfactory:
		return true
	}
	return false
}

type PackageSize string

const (
	PackageSmall  PackageSize = "small"
	PackageMedium PackageSize = "medium"
	PackageLarge  PackageSize = "large"
)

func (p PackageSize) Valid() bool {
	switch p {
	case PackageSmall, PackageMedium, PackageLarge:
		return true
	}
	return false
}

// HistoryPoint is one bucket of an analytics time series.
type HistoryPoint struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
}

// PublishedListing is one marketplace posting together with its analytics snapshot.
type PublishedListing struct {
	ID          string      `json:"id"`
	SKU         string      `json:"sku"`
	ListingID   string      `json:"listing_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Brand       string      `json:"brand,omitempty"`
	Condition   Condition   `json:"condition"`
	Material    string      `json:"material,omitempty"`
	Size        string      `json:"size,omitempty"`
	Photos      []string    `json:"photos"`
	Price       float64     `json:"price"`
	PackageSize PackageSize `json:"package_size"`

	PublishedDate time.Time  `json:"published_date"`
	IsHidden      bool       `json:"is_hidden"`
	BoostActive   bool       `json:"boost_active"`
	BoostExpiry   *time.Time `json:"boost_expiry,omitempty"`
	SoldAt        *time.Time `json:"sold_at,omitempty"`

	Views            int            `json:"views"`
	Favorites        int            `json:"favorites"`
	Offers           int            `json:"offers"`
	ViewsTrend       float64        `json:"views_trend"`
	FavoritesTrend   float64        `json:"favorites_trend"`
	AvgOfferPrice    float64        `json:"avg_offer_price"`
	ViewsHistory     []HistoryPoint `json:"views_history"`
	FavoritesHistory []HistoryPoint `json:"favorites_history"`
	OffersHistory    []HistoryPoint `json:"offers_history"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PhotoCount is the number of attached photos; the first one is the main photo.
func (l *PublishedListing) PhotoCount() int {
	return len(l.Photos)
}

func (l *PublishedListing) IsSold() bool {
	return l.SoldAt != nil
}

// Clone returns a deep copy so callers can hand out listings without sharing slices.
func (l *PublishedListing) Clone() *PublishedListing {
	if l == nil {
		return nil
	}
	c := *l
	if l.Photos != nil {
		c.Photos = append([]string{}, l.Photos...)
	}
	c.ViewsHistory = clonePoints(l.ViewsHistory)
	c.FavoritesHistory = clonePoints(l.FavoritesHistory)
	c.OffersHistory = clonePoints(l.OffersHistory)
	if l.BoostExpiry != nil {
		t := *l.BoostExpiry
		c.BoostExpiry = &t
	}
	if l.SoldAt != nil {
		t := *l.SoldAt
		c.SoldAt = &t
	}
	return &c
}

func clonePoints(in []HistoryPoint) []HistoryPoint {
	if in == nil {
		return nil
	}
	return append([]HistoryPoint{}, in...)
}

// ListingStatus is a derived badge; several may apply to one listing at once.
type ListingStatus string

const (
	StatusSold        ListingStatus = "sold"
	StatusHidden      ListingStatus = "hidden"
	StatusBoostActive ListingStatus = "boostActive"
	StatusNeedsRepost ListingStatus = "needsRepost"
	StatusLowPhotos   ListingStatus = "lowPhotos"
	StatusActive      ListingStatus = "active"
)

// StatusPriority lists statuses from highest to lowest display priority.
var StatusPriority = []ListingStatus{
	StatusSold,
	StatusHidden,
	StatusBoostActive,
	StatusNeedsRepost,
	StatusLowPhotos,
	StatusActive,
}

type InsightType string

const (
	InsightPhotos           InsightType = "photos"
	InsightOldListing       InsightType = "oldListing"
	InsightLowEngagement    InsightType = "lowEngagement"
	InsightOffersLow        InsightType = "offersLow"
	InsightMissingBrand     InsightType = "missingBrand"
	InsightShortDescription InsightType = "shortDescription"
	InsightHidden           InsightType = "hidden"
	InsightBoostActive      InsightType = "boostActive"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ListingInsight is an advisory recommendation. Data holds the template
// placeholders (percent, days, date) and never any localized text.
type ListingInsight struct {
	ID       string         `json:"id"`
	Type     InsightType    `json:"type"`
	Severity Severity       `json:"severity"`
	Data     map[string]any `json:"data,omitempty"`
}
