package aggregate

import (
	"cmp"
	"slices"

	"stage-analytics-service/internal/model"
	"stage-analytics-service/internal/window"
	"stage-analytics-service/internal/workflow"
)

// Bucket holds the closed occurrences of one stage (or work type) in one window.
// Count is always the number of details and TotalMs always their sum.
type Bucket struct {
	TotalMs int64
	Details []model.OccurrenceDetail
}

func (b *Bucket) add(d model.OccurrenceDetail) {
	b.TotalMs += d.DurationMs
	b.Details = append(b.Details, d)
}

func (b *Bucket) merge(other *Bucket) {
	b.TotalMs += other.TotalMs
	b.Details = append(b.Details, other.Details...)
}

func (b *Bucket) Count() int {
	return len(b.Details)
}

func (b *Bucket) Summary() model.DurationSummary {
	details := make([]model.OccurrenceDetail, len(b.Details))
	copy(details, b.Details)
	slices.SortStableFunc(details, compareDetails)

	var average int64
	if len(details) > 0 {
		average = b.TotalMs / int64(len(details))
	}
	return model.DurationSummary{
		TotalDuration:   FormatMillis(b.TotalMs),
		TotalDurationMs: b.TotalMs,
		Count:           len(details),
		Average:         FormatMillis(average),
		AverageMs:       average,
		Details:         details,
	}
}

type stageBucket struct {
	Bucket
	kind      workflow.Kind
	activeMs  int64
	pausedMs  int64
	workTypes map[string]*Bucket
	workOrder []string
}

func newStageBucket(kind workflow.Kind) *stageBucket {
	return &stageBucket{kind: kind, workTypes: make(map[string]*Bucket)}
}

func (s *stageBucket) workType(name string) *Bucket {
	b, ok := s.workTypes[name]
	if !ok {
		b = &Bucket{}
		s.workTypes[name] = b
		s.workOrder = append(s.workOrder, name)
	}
	return b
}

// Accumulator is the per-window fold state. Partials built for different
// vehicles combine with Merge; merging in vehicle order gives the same result
// however the partials were computed.
type Accumulator struct {
	stages       map[string]*stageBucket
	order        []string
	vehicles     model.VehicleTotals
	turnaroundMs int64
	turnaround   []model.TurnaroundDetail
	skipped      int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{stages: make(map[string]*stageBucket)}
}

func (a *Accumulator) stage(name string, kind workflow.Kind) *stageBucket {
	s, ok := a.stages[name]
	if !ok {
		s = newStageBucket(kind)
		a.stages[name] = s
		a.order = append(a.order, name)
	}
	return s
}

// AddInterval folds one closed interval. Open intervals are ignored: they only
// appear in the live view.
func (a *Accumulator) AddInterval(iv workflow.Interval) {
	if iv.Open() || !iv.EndedAt.After(iv.StartedAt) {
		return
	}
	detail := model.OccurrenceDetail{
		VehicleNumber: iv.VehicleNumber,
		StageName:     iv.StageName,
		StartTime:     iv.StartedAt,
		EndTime:       *iv.EndedAt,
		DurationMs:    iv.DurationMs(),
		PerformedBy:   iv.PerformedBy,
	}
	detail.Duration = FormatMillis(detail.DurationMs)

	s := a.stage(iv.Stage, iv.Kind)
	if iv.Kind == workflow.PausedTracking {
		detail.WorkType = iv.WorkType
		detail.BayNumber = iv.BayNumber
		detail.ActiveDuration = FormatMillis(iv.ActiveMs)
		detail.PausedDuration = FormatMillis(iv.PausedMs)
		s.activeMs += iv.ActiveMs
		s.pausedMs += iv.PausedMs
		s.workType(iv.WorkType).add(detail)
	}
	s.add(detail)
}

// AddVehicle counts a vehicle's entry and exit against the window and records
// its turnaround when it left inside the window.
func (a *Accumulator) AddVehicle(v model.Vehicle, w window.Window) {
	if !v.EntryTime.IsZero() && w.Contains(v.EntryTime) {
		a.vehicles.Entered++
	}
	if v.ExitTime == nil || !w.Contains(*v.ExitTime) {
		return
	}
	a.vehicles.Exited++
	if v.EntryTime.IsZero() || !v.ExitTime.After(v.EntryTime) {
		return
	}
	ms := v.ExitTime.Sub(v.EntryTime).Milliseconds()
	a.turnaroundMs += ms
	a.turnaround = append(a.turnaround, model.TurnaroundDetail{
		VehicleNumber: v.VehicleNumber,
		EntryTime:     v.EntryTime,
		ExitTime:      *v.ExitTime,
		Duration:      FormatMillis(ms),
		DurationMs:    ms,
	})
}

func (a *Accumulator) AddSkipped(n int) {
	a.skipped += n
}

// Merge folds other into a and returns a.
func (a *Accumulator) Merge(other *Accumulator) *Accumulator {
	if other == nil {
		return a
	}
	for _, name := range other.order {
		src := other.stages[name]
		dst := a.stage(name, src.kind)
		dst.merge(&src.Bucket)
		dst.activeMs += src.activeMs
		dst.pausedMs += src.pausedMs
		for _, wt := range src.workOrder {
			dst.workType(wt).merge(src.workTypes[wt])
		}
	}
	a.vehicles.Entered += other.vehicles.Entered
	a.vehicles.Exited += other.vehicles.Exited
	a.turnaroundMs += other.turnaroundMs
	a.turnaround = append(a.turnaround, other.turnaround...)
	a.skipped += other.skipped
	return a
}

// Metrics renders the window. Every known stage appears, in process order,
// followed by unknown stages in the order they were first folded.
func (a *Accumulator) Metrics(w window.Window) model.WindowMetrics {
	stages := model.NewOrdered[model.StageMetrics]()
	for _, name := range workflow.DisplayOrder() {
		stages.Set(name, a.stageMetrics(name))
	}
	for _, name := range a.order {
		if _, exists := stages.Get(name); !exists {
			stages.Set(name, a.stageMetrics(name))
		}
	}
	return model.WindowMetrics{
		Range:         model.DateRange{From: w.Start, To: w.End},
		Stages:        stages,
		Vehicles:      a.vehicles,
		Turnaround:    a.Turnaround(),
		SkippedEvents: a.skipped,
	}
}

func (a *Accumulator) Vehicles() model.VehicleTotals {
	return a.vehicles
}

func (a *Accumulator) Turnaround() model.TurnaroundSummary {
	details := make([]model.TurnaroundDetail, len(a.turnaround))
	copy(details, a.turnaround)
	slices.SortStableFunc(details, func(x, y model.TurnaroundDetail) int {
		if c := x.ExitTime.Compare(y.ExitTime); c != 0 {
			return c
		}
		return cmp.Compare(x.VehicleNumber, y.VehicleNumber)
	})

	var average int64
	if len(details) > 0 {
		average = a.turnaroundMs / int64(len(details))
	}
	return model.TurnaroundSummary{
		TotalDuration:   FormatMillis(a.turnaroundMs),
		TotalDurationMs: a.turnaroundMs,
		Count:           len(details),
		Average:         FormatMillis(average),
		AverageMs:       average,
		Details:         details,
	}
}

func (a *Accumulator) stageMetrics(name string) model.StageMetrics {
	s, ok := a.stages[name]
	if !ok {
		s = newStageBucket(workflow.Classify(name).Kind)
	}
	metrics := model.StageMetrics{DurationSummary: s.Summary()}
	if s.kind != workflow.PausedTracking {
		return metrics
	}
	metrics.ActiveDuration = FormatMillis(s.activeMs)
	metrics.PausedDuration = FormatMillis(s.pausedMs)
	metrics.WorkTypes = model.NewOrdered[model.DurationSummary]()
	workOrder := make([]string, len(s.workOrder))
	copy(workOrder, s.workOrder)
	slices.Sort(workOrder)
	for _, wt := range workOrder {
		metrics.WorkTypes.Set(wt, s.workTypes[wt].Summary())
	}
	return metrics
}

func compareDetails(x, y model.OccurrenceDetail) int {
	if c := x.StartTime.Compare(y.StartTime); c != 0 {
		return c
	}
	if c := cmp.Compare(x.VehicleNumber, y.VehicleNumber); c != 0 {
		return c
	}
	if c := cmp.Compare(x.StageName, y.StageName); c != 0 {
		return c
	}
	if c := cmp.Compare(x.WorkType, y.WorkType); c != 0 {
		return c
	}
	return cmp.Compare(x.BayNumber, y.BayNumber)
}
