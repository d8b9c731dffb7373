package model

import (
	"strings"
	"time"
)

type EventType string

const (
	EventStart  EventType = "Start"
	EventPause  EventType = "Pause"
	EventResume EventType = "Resume"
	EventEnd    EventType = "End"
)

// Valid reports whether t is one of the four lifecycle event types.
func (t EventType) Valid() bool {
	switch t {
	case EventStart, EventPause, EventResume, EventEnd:
		return true
	default:
		return false
	}
}

// Rank orders event types sharing a timestamp.
func (t EventType) Rank() int {
	switch t {
	case EventStart:
		return 0
	case EventPause:
		return 1
	case EventResume:
		return 2
	case EventEnd:
		return 3
	default:
		return 4
	}
}

type Performer struct {
	UserID   string `json:"user_id" bson:"userId"`
	UserName string `json:"user_name" bson:"userName"`
}

type StageEvent struct {
	StageName   string     `json:"stage_name" bson:"stageName"`
	EventType   EventType  `json:"event_type" bson:"eventType"`
	Timestamp   time.Time  `json:"timestamp" bson:"timestamp"`
	PerformedBy *Performer `json:"performed_by,omitempty" bson:"performedBy,omitempty"`
	Role        string     `json:"role,omitempty" bson:"role,omitempty"`
	WorkType    string     `json:"work_type,omitempty" bson:"workType,omitempty"`
	BayNumber   string     `json:"bay_number,omitempty" bson:"bayNumber,omitempty"`
}

// Name returns the stage name without surrounding whitespace.
func (e StageEvent) Name() string {
	return strings.TrimSpace(e.StageName)
}

type Vehicle struct {
	VehicleNumber string       `json:"vehicle_number" bson:"vehicleNumber"`
	EntryTime     time.Time    `json:"entry_time" bson:"entryTime"`
	ExitTime      *time.Time   `json:"exit_time" bson:"exitTime"`
	Stages        []StageEvent `json:"stages" bson:"stages"`
	// LoadError is set by the store when the event log could not be decoded.
	LoadError string `json:"-" bson:"-"`
}

// Active reports whether the vehicle is still on the premises.
func (v Vehicle) Active() bool {
	return v.ExitTime == nil
}
