package analytics

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned for unknown range kinds or malformed dates.
var ErrInvalidRange = errors.New("invalid date range")

// Range kinds accepted by ResolveRange.
const (
	RangeToday  = "today"
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeCustom = "custom"
)

// Range is a half-open window [From, To).
type Range struct {
	Kind string    `json:"kind"`
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Previous returns the window of equal length ending at r.From.
func (r Range) Previous() Range {
	return Range{Kind: r.Kind, From: r.From.Add(-r.To.Sub(r.From)), To: r.From}
}

// ResolveRange maps a kind onto calendar bounds in now's location. Weeks
// start on Sunday. Custom ranges take YYYY-MM-DD dates with an inclusive end;
// a missing bound defaults to today.
func ResolveRange(kind, from, to string, now time.Time) (Range, error) {
	today := startOfDay(now)
	switch kind {
	case "", RangeToday:
		return Range{Kind: RangeToday, From: today, To: today.AddDate(0, 0, 1)}, nil
	case RangeWeek:
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return Range{Kind: RangeWeek, From: start, To: start.AddDate(0, 0, 7)}, nil
	case RangeMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Range{Kind: RangeMonth, From: start, To: start.AddDate(0, 1, 0)}, nil
	case RangeCustom:
		r := Range{Kind: RangeCustom, From: today, To: today.AddDate(0, 0, 1)}
		if from != "" {
			t, err := time.ParseInLocation("2006-01-02", from, now.Location())
			if err != nil {
				return Range{}, fmt.Errorf("from must be YYYY-MM-DD: %w", ErrInvalidRange)
			}
			r.From = t
		}
		if to != "" {
			t, err := time.ParseInLocation("2006-01-02", to, now.Location())
			if err != nil {
				return Range{}, fmt.Errorf("to must be YYYY-MM-DD: %w", ErrInvalidRange)
			}
			r.To = t.AddDate(0, 0, 1)
		}
		if !r.From.Before(r.To) {
			return Range{}, fmt.Errorf("from must not be after to: %w", ErrInvalidRange)
		}
		return r, nil
	default:
		return Range{}, fmt.Errorf("unknown range %q: %w", kind, ErrInvalidRange)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
