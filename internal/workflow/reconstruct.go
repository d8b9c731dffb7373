package workflow

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"stage-analytics-service/internal/model"
)

// Timestamps are compared at millisecond resolution, which is what the store keeps.
const timeResolution = time.Millisecond

type entry struct {
	event    model.StageEvent
	name     string
	at       time.Time
	stage    Stage
	workType string
	bay      string
}

// Result is the reconstruction of one vehicle.
type Result struct {
	Intervals []Interval
	Issues    []Issue
}

// Closed returns the closed intervals only.
func (r Result) Closed() []Interval {
	closed := make([]Interval, 0, len(r.Intervals))
	for _, iv := range r.Intervals {
		if !iv.Open() {
			closed = append(closed, iv)
		}
	}
	return closed
}

type group struct {
	stage  Stage
	name   string
	starts []int
	// members holds every event of a paused-tracking group.
	members []int
}

// Reconstruct rebuilds every stage occurrence of one vehicle from its events.
// The order of events in the slice is irrelevant: they are sorted by time
// before matching. Malformed events are reported as issues and ignored.
func Reconstruct(vehicleNumber string, events []model.StageEvent) Result {
	var res Result

	entries := make([]entry, 0, len(events))
	for _, ev := range events {
		e := entry{event: ev, name: ev.Name(), at: ev.Timestamp.Truncate(timeResolution)}
		e.stage = Classify(e.name)
		e.workType = workTypeOf(e)
		e.bay = strings.TrimSpace(ev.BayNumber)
		if reason := validate(e); reason != "" {
			res.Issues = append(res.Issues, issueFor(vehicleNumber, e, reason))
			continue
		}
		entries = append(entries, e)
	}
	sortEntries(entries)

	groups := make(map[string]*group)
	var order []string
	for i, e := range entries {
		key, ok := groupKey(e)
		if !ok {
			continue
		}
		g, exists := groups[key]
		if !exists {
			if e.event.EventType != model.EventStart {
				continue
			}
			g = &group{stage: e.stage, name: e.name}
			groups[key] = g
			order = append(order, key)
		}
		if e.event.EventType == model.EventStart {
			g.starts = append(g.starts, i)
		}
		if e.stage.Kind == PausedTracking {
			g.members = append(g.members, i)
		}
	}

	for _, key := range order {
		g := groups[key]
		switch g.stage.Kind {
		case Symmetric, ImplicitClosed:
			candidates := closingCandidates(entries, g)
			closers := claimForward(entries, g.starts, candidates, g.stage.Rule.Needed)
			for i, s := range g.starts {
				res.Intervals = append(res.Intervals, closedOrOpen(vehicleNumber, entries, g, s, closers[i]))
			}
		case PausedTracking:
			claimedEnds := make(map[int]bool)
			for _, s := range g.starts {
				w := walkPaused(entries, s, g.members, claimedEnds)
				res.Intervals = append(res.Intervals, pausedInterval(vehicleNumber, entries, g, s, w))
			}
		case Lookback:
			openers := openingCandidates(entries, g.stage.Rule)
			found := claimBackward(entries, g.starts, openers)
			for i, m := range g.starts {
				if found[i] < 0 {
					res.Issues = append(res.Issues, issueFor(vehicleNumber, entries[m], ReasonNoOpeningEvent))
					continue
				}
				res.Intervals = append(res.Intervals, lookbackInterval(vehicleNumber, entries, g, found[i], m))
			}
		}
	}

	slices.SortStableFunc(res.Intervals, compareIntervals)
	return res
}

func validate(e entry) IssueReason {
	switch {
	case e.name == "":
		return ReasonMissingStageName
	case !e.event.EventType.Valid():
		return ReasonInvalidEventType
	case e.event.Timestamp.IsZero():
		return ReasonMissingTimestamp
	case e.stage.Kind == PausedTracking && (e.workType == "" || e.bay == ""):
		return ReasonMissingAttribution
	}
	return ""
}

// workTypeOf prefers the event's work type and falls back to the stage name
// suffix, as in "Bay Work: Denting".
func workTypeOf(e entry) string {
	if wt := strings.TrimSpace(e.event.WorkType); wt != "" {
		return wt
	}
	if e.stage.Kind != PausedTracking || !e.stage.Match.Prefix {
		return ""
	}
	suffix := strings.TrimPrefix(e.name, e.stage.Match.Name)
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(suffix), ":"))
}

func issueFor(vehicleNumber string, e entry, reason IssueReason) Issue {
	return Issue{
		VehicleNumber: vehicleNumber,
		StageName:     e.name,
		EventType:     e.event.EventType,
		Timestamp:     e.event.Timestamp,
		Reason:        reason,
	}
}

// sortEntries orders by time, then by a fixed tie-break so equal timestamps
// sort the same way whatever the input order.
func sortEntries(entries []entry) {
	slices.SortStableFunc(entries, func(a, b entry) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		if c := cmp.Compare(a.name, b.name); c != 0 {
			return c
		}
		if c := cmp.Compare(a.event.EventType.Rank(), b.event.EventType.Rank()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.workType, b.workType); c != 0 {
			return c
		}
		return cmp.Compare(a.bay, b.bay)
	})
}

// groupKey identifies the occurrence key of an event.
func groupKey(e entry) (string, bool) {
	switch e.stage.Kind {
	case Symmetric:
		return "s\x00" + e.name, true
	case PausedTracking:
		return "p\x00" + e.name + "\x00" + e.workType + "\x00" + e.bay, true
	case ImplicitClosed, Lookback:
		if e.event.EventType != model.EventStart {
			return "", false
		}
		return "i\x00" + e.stage.Name, true
	}
	return "", false
}

func closingCandidates(entries []entry, g *group) []int {
	match := g.stage.Rule.Match
	if match.Name == "" {
		match = Exact(g.name)
	}
	var candidates []int
	for i, e := range entries {
		if e.event.EventType == g.stage.Rule.On && match.Matches(e.name) {
			candidates = append(candidates, i)
		}
	}
	return candidates
}

func openingCandidates(entries []entry, rule Rule) []int {
	var openers []int
	for i, e := range entries {
		if e.event.EventType == rule.On && rule.Match.Matches(e.name) {
			openers = append(openers, i)
		}
	}
	return openers
}

func baseInterval(vehicleNumber string, g *group, start entry) Interval {
	return Interval{
		VehicleNumber: vehicleNumber,
		Stage:         g.stage.Name,
		StageName:     start.name,
		Kind:          g.stage.Kind,
		WorkType:      start.workType,
		BayNumber:     start.bay,
		StartedAt:     start.at,
		PerformedBy:   start.event.PerformedBy,
		LastMarkerAt:  start.at,
	}
}

func closedOrOpen(vehicleNumber string, entries []entry, g *group, start, closer int) Interval {
	iv := baseInterval(vehicleNumber, g, entries[start])
	if closer < 0 {
		return iv
	}
	end := entries[closer].at
	iv.EndedAt = &end
	iv.ActiveMs = iv.DurationMs()
	iv.LastMarkerAt = end
	return iv
}

func pausedInterval(vehicleNumber string, entries []entry, g *group, start int, w pausedWalk) Interval {
	iv := baseInterval(vehicleNumber, g, entries[start])
	iv.ActiveMs = w.activeMs
	iv.PausedMs = w.pausedMs
	iv.Paused = w.paused
	iv.LastMarkerAt = entries[w.last].at
	if w.end >= 0 {
		end := entries[w.end].at
		iv.EndedAt = &end
	}
	return iv
}

func lookbackInterval(vehicleNumber string, entries []entry, g *group, opener, marker int) Interval {
	iv := baseInterval(vehicleNumber, g, entries[marker])
	iv.StartedAt = entries[opener].at
	end := entries[marker].at
	iv.EndedAt = &end
	iv.ActiveMs = iv.DurationMs()
	iv.LastMarkerAt = end
	return iv
}

func compareIntervals(a, b Interval) int {
	if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(DisplayIndex(a.Stage), DisplayIndex(b.Stage)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.StageName, b.StageName); c != 0 {
		return c
	}
	if c := cmp.Compare(a.WorkType, b.WorkType); c != 0 {
		return c
	}
	return cmp.Compare(a.BayNumber, b.BayNumber)
}

// DisplayIndex is the position of a canonical stage name in the process, or
// the number of known stages for anything else.
func DisplayIndex(stage string) int {
	for i, s := range catalog {
		if s.Name == stage {
			return i
		}
	}
	return len(catalog)
}
