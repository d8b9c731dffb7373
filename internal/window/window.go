// Package window resolves named calendar windows in the business time zone.
package window

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidWindow = errors.New("window end is before its start")
	ErrUnknownKind   = errors.New("unknown window")
)

type Kind string

const (
	Today      Kind = "today"
	Yesterday  Kind = "yesterday"
	ThisWeek   Kind = "thisWeek"
	LastWeek   Kind = "lastWeek"
	ThisMonth  Kind = "thisMonth"
	LastMonth  Kind = "lastMonth"
	Last7Days  Kind = "last7Days"
	Last30Days Kind = "last30Days"
	Custom     Kind = "custom"
)

var kinds = []Kind{Today, Yesterday, ThisWeek, LastWeek, ThisMonth, LastMonth, Last7Days, Last30Days, Custom}

// ParseKind matches a window name case-insensitively.
func ParseKind(raw string) (Kind, error) {
	trimmed := strings.TrimSpace(raw)
	for _, k := range kinds {
		if strings.EqualFold(string(k), trimmed) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Window is the half-open range [Start, End).
type Window struct {
	Kind  Kind
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s@%d-%d", w.Kind, w.Start.UnixMilli(), w.End.UnixMilli())
}

// Generator resolves windows against a single captured reference instant, so
// every window built from one Generator shares the same notion of "now".
type Generator struct {
	now time.Time
	loc *time.Location
}

func NewGenerator(now time.Time, loc *time.Location) Generator {
	if loc == nil {
		loc = time.UTC
	}
	return Generator{now: now.In(loc), loc: loc}
}

func (g Generator) Now() time.Time {
	return g.now
}

func (g Generator) Location() *time.Location {
	return g.loc
}

// Resolve builds a calendar window. Custom windows go through Custom.
func (g Generator) Resolve(kind Kind) (Window, error) {
	today := g.startOfDay(g.now)
	tomorrow := today.AddDate(0, 0, 1)
	week := today.AddDate(0, 0, -int(today.Weekday()))
	month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, g.loc)

	switch kind {
	case Today:
		return Window{Kind: kind, Start: today, End: tomorrow}, nil
	case Yesterday:
		return Window{Kind: kind, Start: today.AddDate(0, 0, -1), End: today}, nil
	case ThisWeek:
		return Window{Kind: kind, Start: week, End: week.AddDate(0, 0, 7)}, nil
	case LastWeek:
		return Window{Kind: kind, Start: week.AddDate(0, 0, -7), End: week}, nil
	case ThisMonth:
		return Window{Kind: kind, Start: month, End: month.AddDate(0, 1, 0)}, nil
	case LastMonth:
		return Window{Kind: kind, Start: month.AddDate(0, -1, 0), End: month}, nil
	case Last7Days:
		return Window{Kind: kind, Start: today.AddDate(0, 0, -6), End: tomorrow}, nil
	case Last30Days:
		return Window{Kind: kind, Start: today.AddDate(0, 0, -29), End: tomorrow}, nil
	case Custom:
		return g.Custom(time.Time{}, time.Time{})
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Custom builds a window from explicit bounds. A zero end means now and a zero
// start means the start of today.
func (g Generator) Custom(start, end time.Time) (Window, error) {
	if end.IsZero() {
		end = g.now
	}
	if start.IsZero() {
		start = g.startOfDay(g.now)
	}
	if end.Before(start) {
		return Window{}, ErrInvalidWindow
	}
	return Window{Kind: Custom, Start: start.In(g.loc), End: end.In(g.loc)}, nil
}

func (g Generator) startOfDay(t time.Time) time.Time {
	local := t.In(g.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.loc)
}

// Span returns the smallest range covering every window.
func Span(windows []Window) (time.Time, time.Time) {
	var start, end time.Time
	for i, w := range windows {
		if i == 0 || w.Start.Before(start) {
			start = w.Start
		}
		if i == 0 || w.End.After(end) {
			end = w.End
		}
	}
	return start, end
}
