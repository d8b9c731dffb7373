package workflow

import (
	"time"

	"stage-analytics-service/internal/model"
)

// Interval is one reconstructed stage occurrence. It is never persisted.
type Interval struct {
	VehicleNumber string
	Stage         string
	StageName     string
	Kind          Kind
	WorkType      string
	BayNumber     string
	StartedAt     time.Time
	EndedAt       *time.Time
	PerformedBy   *model.Performer
	ActiveMs      int64
	PausedMs      int64

	// Paused and LastMarkerAt describe where an open paused-tracking walk stopped.
	Paused       bool
	LastMarkerAt time.Time
}

func (iv Interval) Open() bool {
	return iv.EndedAt == nil
}

// DurationMs is end minus start for closed intervals and zero for open ones.
func (iv Interval) DurationMs() int64 {
	if iv.EndedAt == nil {
		return 0
	}
	return iv.EndedAt.Sub(iv.StartedAt).Milliseconds()
}

// ElapsedMs is the time from start to now, floored at zero.
func (iv Interval) ElapsedMs(now time.Time) int64 {
	end := now
	if iv.EndedAt != nil {
		end = *iv.EndedAt
	}
	if elapsed := end.Sub(iv.StartedAt).Milliseconds(); elapsed > 0 {
		return elapsed
	}
	return 0
}

// SplitAt returns the active/paused split of an open paused-tracking interval
// with the tail since the last marker credited to the current state.
func (iv Interval) SplitAt(now time.Time) (activeMs, pausedMs int64) {
	activeMs, pausedMs = iv.ActiveMs, iv.PausedMs
	if iv.EndedAt != nil || iv.Kind != PausedTracking {
		return activeMs, pausedMs
	}
	tail := now.Sub(iv.LastMarkerAt).Milliseconds()
	if tail < 0 {
		tail = 0
	}
	if iv.Paused {
		return activeMs, pausedMs + tail
	}
	return activeMs + tail, pausedMs
}

type IssueReason string

const (
	ReasonMissingStageName   IssueReason = "missing_stage_name"
	ReasonInvalidEventType   IssueReason = "invalid_event_type"
	ReasonMissingTimestamp   IssueReason = "missing_timestamp"
	ReasonMissingAttribution IssueReason = "missing_work_type_or_bay"
	ReasonNoOpeningEvent     IssueReason = "no_opening_event"
	ReasonVehicleFailed      IssueReason = "vehicle_failed"
)

// Issue is an event the engine could not attribute to any interval, or a
// vehicle it could not process at all.
type Issue struct {
	VehicleNumber string
	StageName     string
	EventType     model.EventType
	Timestamp     time.Time
	Reason        IssueReason
	Detail        string
}

// LoadIssue reports a vehicle whose event log could not be read from the store.
func LoadIssue(v model.Vehicle) (Issue, bool) {
	if v.LoadError == "" {
		return Issue{}, false
	}
	return Issue{
		VehicleNumber: v.VehicleNumber,
		Reason:        ReasonVehicleFailed,
		Detail:        v.LoadError,
	}, true
}
