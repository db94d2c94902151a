// Package analytics aggregates listing activity over a date range: bucketed
// series, trends against the preceding period and back-office KPIs.
package analytics

import (
	"fmt"
	"strings"
	"time"
)

type Preset string

const (
	PresetToday  Preset = "today"
	Preset7Days  Preset = "7d"
	Preset30Days Preset = "30d"
	PresetCustom Preset = "custom"
)

// ParsePreset accepts the preset names case-insensitively; empty means 7d.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Preset7Days, nil
	case PresetToday, Preset7Days, Preset30Days, PresetCustom:
		return p, nil
	}
	return "", fmt.Errorf("unknown range %q (want today, 7d, 30d or custom)", s)
}

type Granularity string

const (
	Hourly Granularity = "hour"
	Daily  Granularity = "day"
)

// Range is what the user picked. From and To are only read for PresetCustom
// and are both inclusive calendar days.
type Range struct {
	Preset Preset
	From   time.Time
	To     time.Time
}

// Window is a resolved half-open interval [From, To) with its bucket size.
type Window struct {
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Granularity Granularity `json:"granularity"`
}

// Resolve pins r to concrete instants in now's location. Windows always start
// at local midnight, so a 7d range covers today and the six days before it.
func (r Range) Resolve(now time.Time) (Window, error) {
	today := midnight(now)
	tomorrow := today.AddDate(0, 0, 1)

	switch r.Preset {
	case PresetToday:
		return Window{From: today, To: tomorrow, Granularity: Hourly}, nil
	case Preset7Days, "":
		return Window{From: tomorrow.AddDate(0, 0, -7), To: tomorrow, Granularity: Daily}, nil
	case Preset30Days:
		return Window{From: tomorrow.AddDate(0, 0, -30), To: tomorrow, Granularity: Daily}, nil
	case PresetCustom:
		if r.From.IsZero() || r.To.IsZero() {
			return Window{}, fmt.Errorf("custom range needs both from and to")
		}
		from := midnight(r.From.In(now.Location()))
		to := midnight(r.To.In(now.Location()))
		if to.Before(from) {
			return Window{}, fmt.Errorf("custom range ends (%s) before it starts (%s)",
				to.Format(time.DateOnly), from.Format(time.DateOnly))
		}
		return Window{From: from, To: to.AddDate(0, 0, 1), Granularity: Daily}, nil
	}
	return Window{}, fmt.Errorf("unknown range preset %q", r.Preset)
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Starts lists the bucket start times in chronological order.
func (w Window) Starts() []time.Time {
	var out []time.Time
	for t := w.From; t.Before(w.To); t = w.next(t) {
		out = append(out, t)
	}
	return out
}

// Previous is the window of the same length that ends where w starts.
func (w Window) Previous() Window {
	if w.Granularity == Daily {
		days := len(w.Starts())
		return Window{From: w.From.AddDate(0, 0, -days), To: w.From, Granularity: Daily}
	}
	return Window{From: w.From.Add(-w.To.Sub(w.From)), To: w.From, Granularity: w.Granularity}
}

func (w Window) next(t time.Time) time.Time {
	if w.Granularity == Hourly {
		return t.Add(time.Hour)
	}
	return t.AddDate(0, 0, 1)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseRange builds a Range from user input. from and to are YYYY-MM-DD
// calendar days in the local time zone and are only read for custom ranges.
func ParseRange(preset, from, to string) (Range, error) {
	p, err := ParsePreset(preset)
	if err != nil {
		return Range{}, err
	}
	r := Range{Preset: p}
	if p != PresetCustom {
		return r, nil
	}
	if r.From, err = time.ParseInLocation(time.DateOnly, from, time.Local); err != nil {
		return r, fmt.Errorf("invalid from date %q: want YYYY-MM-DD", from)
	}
	if r.To, err = time.ParseInLocation(time.DateOnly, to, time.Local); err != nil {
		return r, fmt.Errorf("invalid to date %q: want YYYY-MM-DD", to)
	}
	return r, nil
}
