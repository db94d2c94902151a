// Package insight derives display statuses and seller recommendations from a
// published listing. Every function here is pure: it reads one listing value
// and returns freshly built results, without I/O and without mutating input.
package insight

import (
	"time"

	"github.com/google/uuid"
	"github.com/lukman83/vinted-backoffice/internal/models"
)

// DiagnosticKind classifies anomalies found while reading a listing.
type DiagnosticKind string

const (
	KindMalformed     DiagnosticKind = "malformed_input"
	KindStaleSnapshot DiagnosticKind = "stale_snapshot"
)

// DiagnosticFunc receives anomalies. It is the only side channel of the engine.
type DiagnosticFunc func(kind DiagnosticKind, listingID, message string)

// NoOpDiagnostics discards everything (default).
var NoOpDiagnostics DiagnosticFunc = func(kind DiagnosticKind, listingID, message string) {}

// insightNamespace scopes the name-based insight ids.
var insightNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e3f-9a10-2c4d6e8f0b13")

// Engine evaluates the rule table. The zero value is not usable; call New.
type Engine struct {
	thresholds Thresholds
	rules      []rule
	now        func() time.Time
	diag       DiagnosticFunc
}

type Option func(*Engine)

// WithClock overrides the time source used for listing age and boost expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t.withDefaults() }
}

func WithDiagnostics(fn DiagnosticFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.diag = fn
		}
	}
}

// New creates an engine with the default rule table.
func New(opts ...Option) *Engine {
	e := &Engine{
		thresholds: DefaultThresholds(),
		rules:      defaultRules,
		now:        time.Now,
		diag:       NoOpDiagnostics,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Rules returns the table in evaluation order.
func (e *Engine) Rules() []RuleInfo {
	out := make([]RuleInfo, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, RuleInfo{Type: r.Type, Severity: r.Severity})
	}
	return out
}

// Generate returns the insights that apply to l, in rule-table order.
// A listing with nothing to improve yields an empty, non-nil slice.
func (e *Engine) Generate(l *models.PublishedListing) []models.ListingInsight {
	if l == nil {
		e.diag(KindMalformed, "", "nil listing")
		return []models.ListingInsight{}
	}
	return e.generate(e.snapshot(l))
}

func (e *Engine) generate(f facts) []models.ListingInsight {
	out := []models.ListingInsight{}
	for _, r := range e.rules {
		if !r.When(f, e.thresholds) {
			continue
		}
		in := models.ListingInsight{
			ID:       insightID(f.id, r.Type),
			Type:     r.Type,
			Severity: r.Severity,
		}
		if r.Data != nil {
			in.Data = r.Data(f, e.thresholds)
		}
		out = append(out, in)
	}
	return out
}

func insightID(listingID string, t models.InsightType) string {
	return uuid.NewSHA1(insightNamespace, []byte(listingID+"/"+string(t))).String()
}

// Evaluation bundles everything derived from one read of a listing.
type Evaluation struct {
	Statuses []models.ListingStatus  `json:"statuses"`
	Primary  models.ListingStatus    `json:"primary_status"`
	Insights []models.ListingInsight `json:"insights"`
}

// Evaluate derives statuses and insights from a single snapshot of l.
func (e *Engine) Evaluate(l *models.PublishedListing) Evaluation {
	if l == nil {
		e.diag(KindMalformed, "", "nil listing")
		return Evaluation{
			Statuses: []models.ListingStatus{models.StatusActive},
			Primary:  models.StatusActive,
			Insights: []models.ListingInsight{},
		}
	}
	f := e.snapshot(l)
	statuses := e.statuses(f)
	return Evaluation{
		Statuses: statuses,
		Primary:  statuses[0],
		Insights: e.generate(f),
	}
}
