package aggregate

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"stage-analytics-service/internal/model"
	"stage-analytics-service/internal/window"
	"stage-analytics-service/internal/workflow"
)

// Engine reconstructs vehicles in parallel and folds them per window.
type Engine struct {
	workers int
}

func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{workers: workers}
}

type WindowResult struct {
	Window      window.Window
	Accumulator *Accumulator
}

type Outcome struct {
	Windows []WindowResult
	Issues  []workflow.Issue
}

type vehiclePartial struct {
	windows []*Accumulator
	issues  []workflow.Issue
}

// Fold reconstructs every vehicle once per window and reduces the per-vehicle
// partials in input order. A vehicle whose reconstruction fails contributes an
// issue instead of partial sums.
func (e *Engine) Fold(ctx context.Context, vehicles []model.Vehicle, windows []window.Window) (Outcome, error) {
	partials := make([]vehiclePartial, len(vehicles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range vehicles {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[i] = foldVehicle(vehicles[i], windows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Windows: make([]WindowResult, len(windows))}
	for wi, w := range windows {
		out.Windows[wi] = WindowResult{Window: w, Accumulator: NewAccumulator()}
	}
	for _, p := range partials {
		for wi, acc := range p.windows {
			out.Windows[wi].Accumulator.Merge(acc)
		}
		out.Issues = append(out.Issues, p.issues...)
	}
	return out, nil
}

func foldVehicle(v model.Vehicle, windows []window.Window) (p vehiclePartial) {
	defer func() {
		if r := recover(); r != nil {
			p = vehiclePartial{issues: []workflow.Issue{{
				VehicleNumber: v.VehicleNumber,
				Reason:        workflow.ReasonVehicleFailed,
				Detail:        fmt.Sprint(r),
			}}}
		}
	}()

	seen := make(map[workflow.Issue]struct{})
	report := func(acc *Accumulator, issue workflow.Issue) {
		acc.AddSkipped(1)
		if _, dup := seen[issue]; dup {
			return
		}
		seen[issue] = struct{}{}
		p.issues = append(p.issues, issue)
	}

	p.windows = make([]*Accumulator, len(windows))
	if issue, failed := workflow.LoadIssue(v); failed {
		for wi, w := range windows {
			p.windows[wi] = NewAccumulator()
			p.windows[wi].AddVehicle(v, w)
		}
		p.issues = append(p.issues, issue)
		return p
	}

	// A marker whose opener precedes the window is only an orphan when the
	// full history has no opener for it either.
	orphans := orphanMarkers(v)
	for wi, w := range windows {
		acc := NewAccumulator()
		acc.AddVehicle(v, w)

		res := workflow.Reconstruct(v.VehicleNumber, Within(v.Stages, w))
		for _, iv := range res.Closed() {
			acc.AddInterval(iv)
		}
		for _, issue := range res.Issues {
			if issue.Reason != workflow.ReasonNoOpeningEvent {
				report(acc, issue)
			}
		}
		for _, issue := range orphans {
			if w.Contains(issue.Timestamp) {
				report(acc, issue)
			}
		}
		p.windows[wi] = acc
	}
	return p
}

func orphanMarkers(v model.Vehicle) []workflow.Issue {
	var orphans []workflow.Issue
	for _, issue := range workflow.Reconstruct(v.VehicleNumber, v.Stages).Issues {
		if issue.Reason == workflow.ReasonNoOpeningEvent {
			orphans = append(orphans, issue)
		}
	}
	return orphans
}

// Within keeps the events stamped inside the window. Undated events are kept
// so that reconstruction reports them instead of dropping them silently.
func Within(events []model.StageEvent, w window.Window) []model.StageEvent {
	kept := make([]model.StageEvent, 0, len(events))
	for _, e := range events {
		if e.Timestamp.IsZero() || w.Contains(e.Timestamp) {
			kept = append(kept, e)
		}
	}
	return kept
}
