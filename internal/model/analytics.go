package model

import "time"

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type OccurrenceDetail struct {
	VehicleNumber  string     `json:"vehicle_number"`
	StageName      string     `json:"stage_name"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Duration       string     `json:"duration"`
	DurationMs     int64      `json:"duration_ms"`
	WorkType       string     `json:"work_type,omitempty"`
	BayNumber      string     `json:"bay_number,omitempty"`
	ActiveDuration string     `json:"active_duration,omitempty"`
	PausedDuration string     `json:"paused_duration,omitempty"`
	PerformedBy    *Performer `json:"performed_by,omitempty"`
}

type DurationSummary struct {
	TotalDuration   string             `json:"total_duration"`
	TotalDurationMs int64              `json:"total_duration_ms"`
	Count           int                `json:"count"`
	Average         string             `json:"average"`
	AverageMs       int64              `json:"average_ms"`
	Details         []OccurrenceDetail `json:"details"`
}

type StageMetrics struct {
	DurationSummary
	ActiveDuration string                    `json:"active_duration,omitempty"`
	PausedDuration string                    `json:"paused_duration,omitempty"`
	WorkTypes      *Ordered[DurationSummary] `json:"work_types,omitempty"`
}

type VehicleTotals struct {
	Entered int `json:"entered"`
	Exited  int `json:"exited"`
}

type TurnaroundDetail struct {
	VehicleNumber string    `json:"vehicle_number"`
	EntryTime     time.Time `json:"entry_time"`
	ExitTime      time.Time `json:"exit_time"`
	Duration      string    `json:"duration"`
	DurationMs    int64     `json:"duration_ms"`
}

type TurnaroundSummary struct {
	TotalDuration   string             `json:"total_duration"`
	TotalDurationMs int64              `json:"total_duration_ms"`
	Count           int                `json:"count"`
	Average         string             `json:"average"`
	AverageMs       int64              `json:"average_ms"`
	Details         []TurnaroundDetail `json:"details"`
}

type WindowMetrics struct {
	Range         DateRange              `json:"range"`
	Stages        *Ordered[StageMetrics] `json:"stages"`
	Vehicles      VehicleTotals          `json:"vehicles"`
	Turnaround    TurnaroundSummary      `json:"turnaround"`
	SkippedEvents int                    `json:"skipped_events"`
}

type StageReport struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Timezone    string                  `json:"timezone"`
	Windows     *Ordered[WindowMetrics] `json:"windows"`
}

type VehicleWindowSummary struct {
	Range      DateRange         `json:"range"`
	Vehicles   VehicleTotals     `json:"vehicles"`
	Turnaround TurnaroundSummary `json:"turnaround"`
}

type VehicleReport struct {
	GeneratedAt time.Time                      `json:"generated_at"`
	Timezone    string                         `json:"timezone"`
	Active      int                            `json:"active"`
	Windows     *Ordered[VehicleWindowSummary] `json:"windows"`
}

type LiveOccurrence struct {
	VehicleNumber string     `json:"vehicle_number"`
	StageName     string     `json:"stage_name"`
	StartedAt     time.Time  `json:"started_at"`
	PerformedBy   *Performer `json:"performed_by,omitempty"`
	ElapsedMs     int64      `json:"elapsed_ms"`
	Elapsed       string     `json:"elapsed"`
	WorkType      string     `json:"work_type,omitempty"`
	BayNumber     string     `json:"bay_number,omitempty"`
	State         string     `json:"state,omitempty"`
	ActiveMs      *int64     `json:"active_ms,omitempty"`
	PausedMs      *int64     `json:"paused_ms,omitempty"`
}

type LiveReport struct {
	GeneratedAt    time.Time                   `json:"generated_at"`
	ActiveVehicles int                         `json:"active_vehicles"`
	Stages         *Ordered[[]LiveOccurrence] `json:"stages"`
}

type TimelineInterval struct {
	Stage       string     `json:"stage"`
	StageName   string     `json:"stage_name"`
	Kind        string     `json:"kind"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Open        bool       `json:"open"`
	Duration    string     `json:"duration"`
	DurationMs  int64      `json:"duration_ms"`
	ActiveMs    int64      `json:"active_ms"`
	PausedMs    int64      `json:"paused_ms"`
	WorkType    string     `json:"work_type,omitempty"`
	BayNumber   string     `json:"bay_number,omitempty"`
	PerformedBy *Performer `json:"performed_by,omitempty"`
}

type VehicleTimeline struct {
	VehicleNumber string             `json:"vehicle_number"`
	EntryTime     time.Time          `json:"entry_time"`
	ExitTime      *time.Time         `json:"exit_time"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Intervals     []TimelineInterval `json:"intervals"`
	SkippedEvents int                `json:"skipped_events"`
}
