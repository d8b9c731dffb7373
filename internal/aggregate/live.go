package aggregate

import (
	"cmp"
	"slices"
	"time"

	"stage-analytics-service/internal/model"
	"stage-analytics-service/internal/workflow"
)

// Live lists every open occurrence of every vehicle still on the premises,
// grouped by stage, with elapsed time measured against now. Openness is
// judged on the full event history of each vehicle. Unknown stages follow the
// known ones in the order their oldest open occurrence started.
func Live(vehicles []model.Vehicle, now time.Time) (model.LiveReport, []workflow.Issue) {
	var (
		issues []workflow.Issue
		open   []workflow.Interval
		active int
	)
	for _, v := range vehicles {
		if !v.Active() {
			continue
		}
		active++
		if issue, failed := workflow.LoadIssue(v); failed {
			issues = append(issues, issue)
			continue
		}
		intervals, vehicleIssues := workflow.OpenOccurrences(v)
		open = append(open, intervals...)
		issues = append(issues, vehicleIssues...)
	}

	slices.SortStableFunc(open, func(a, b workflow.Interval) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.VehicleNumber, b.VehicleNumber)
	})

	stages := model.NewOrdered[[]model.LiveOccurrence]()
	for _, name := range workflow.DisplayOrder() {
		stages.Set(name, []model.LiveOccurrence{})
	}
	for _, iv := range open {
		list, _ := stages.Get(iv.Stage)
		stages.Set(iv.Stage, append(list, liveOccurrence(iv, now)))
	}

	return model.LiveReport{
		GeneratedAt:    now,
		ActiveVehicles: active,
		Stages:         stages,
	}, issues
}

func liveOccurrence(iv workflow.Interval, now time.Time) model.LiveOccurrence {
	elapsed := iv.ElapsedMs(now)
	occ := model.LiveOccurrence{
		VehicleNumber: iv.VehicleNumber,
		StageName:     iv.StageName,
		StartedAt:     iv.StartedAt,
		PerformedBy:   iv.PerformedBy,
		ElapsedMs:     elapsed,
		Elapsed:       FormatMillis(elapsed),
	}
	if iv.Kind == workflow.PausedTracking {
		activeMs, pausedMs := iv.SplitAt(now)
		occ.WorkType = iv.WorkType
		occ.BayNumber = iv.BayNumber
		occ.ActiveMs = &activeMs
		occ.PausedMs = &pausedMs
		occ.State = "active"
		if iv.Paused {
			occ.State = "paused"
		}
	}
	return occ
}

// Timeline renders every occurrence of one vehicle, open ones included.
func Timeline(v model.Vehicle, now time.Time) model.VehicleTimeline {
	res := workflow.Reconstruct(v.VehicleNumber, v.Stages)
	intervals := make([]model.TimelineInterval, 0, len(res.Intervals))
	for _, iv := range res.Intervals {
		item := model.TimelineInterval{
			Stage:       iv.Stage,
			StageName:   iv.StageName,
			Kind:        iv.Kind.String(),
			StartedAt:   iv.StartedAt,
			EndedAt:     iv.EndedAt,
			Open:        iv.Open(),
			ActiveMs:    iv.ActiveMs,
			PausedMs:    iv.PausedMs,
			WorkType:    iv.WorkType,
			BayNumber:   iv.BayNumber,
			PerformedBy: iv.PerformedBy,
		}
		if iv.Open() {
			item.DurationMs = iv.ElapsedMs(now)
			if iv.Kind == workflow.PausedTracking {
				item.ActiveMs, item.PausedMs = iv.SplitAt(now)
			}
		} else {
			item.DurationMs = iv.DurationMs()
		}
		item.Duration = FormatMillis(item.DurationMs)
		intervals = append(intervals, item)
	}
	return model.VehicleTimeline{
		VehicleNumber: v.VehicleNumber,
		EntryTime:     v.EntryTime,
		ExitTime:      v.ExitTime,
		GeneratedAt:   now,
		Intervals:     intervals,
		SkippedEvents: len(res.Issues),
	}
}
