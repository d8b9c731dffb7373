package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stage-analytics-service/internal/aggregate"
	"stage-analytics-service/internal/cache"
	"stage-analytics-service/internal/metrics"
	"stage-analytics-service/internal/model"
	"stage-analytics-service/internal/repository"
	"stage-analytics-service/internal/window"
	"stage-analytics-service/internal/workflow"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidWindow = errors.New("invalid window")
)

const (
	reportStages   = "stages"
	reportVehicles = "vehicles"
	reportLive     = "live"
	reportTimeline = "timeline"
)

// VehicleSource is the read side of the vehicle store.
type VehicleSource interface {
	VehiclesWithEventsBetween(ctx context.Context, from, to time.Time) ([]model.Vehicle, error)
	VehiclesEnteredBetween(ctx context.Context, from, to time.Time) ([]model.Vehicle, error)
	ActiveVehicles(ctx context.Context) ([]model.Vehicle, error)
	VehiclesTouching(ctx context.Context, from, to time.Time) ([]model.Vehicle, error)
	VehicleByNumber(ctx context.Context, vehicleNumber string) (*model.Vehicle, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

type Options struct {
	Location       *time.Location
	DefaultWindows []string
	MaxRangeDays   int
	Workers        int
	Now            func() time.Time
}

type AnalyticsService struct {
	vehicles       VehicleSource
	cache          Cache
	metrics        *metrics.Recorder
	log            zerolog.Logger
	engine         *aggregate.Engine
	loc            *time.Location
	defaultWindows []string
	maxRangeDays   int
	now            func() time.Time
}

// NewAnalyticsService builds the service. cache and recorder may be nil.
func NewAnalyticsService(vehicles VehicleSource, cache Cache, recorder *metrics.Recorder, log zerolog.Logger, opts Options) *AnalyticsService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if len(opts.DefaultWindows) == 0 {
		opts.DefaultWindows = []string{
			string(window.Today), string(window.ThisWeek), string(window.ThisMonth), string(window.LastMonth),
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AnalyticsService{
		vehicles:       vehicles,
		cache:          cache,
		metrics:        recorder,
		log:            log,
		engine:         aggregate.NewEngine(opts.Workers),
		loc:            opts.Location,
		defaultWindows: opts.DefaultWindows,
		maxRangeDays:   opts.MaxRangeDays,
		now:            opts.Now,
	}
}

func (s *AnalyticsService) GetStageReport(ctx context.Context, req model.WindowRequest) (*model.StageReport, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReport(reportStages, time.Since(started)) }()

	gen := window.NewGenerator(s.now(), s.loc)
	windows, err := s.resolveWindows(gen, req)
	if err != nil {
		return nil, err
	}

	key := cache.Key(reportStages, windows)
	var cached model.StageReport
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	from, to := window.Span(windows)
	vehicles, err := s.vehicles.VehiclesTouching(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}

	outcome, err := s.engine.Fold(ctx, vehicles, windows)
	if err != nil {
		return nil, fmt.Errorf("fold vehicles: %w", err)
	}
	s.reportIssues(reportStages, outcome.Issues)

	report := &model.StageReport{
		GeneratedAt: gen.Now(),
		Timezone:    s.loc.String(),
		Windows:     model.NewOrdered[model.WindowMetrics](),
	}
	for _, res := range outcome.Windows {
		report.Windows.Set(string(res.Window.Kind), res.Accumulator.Metrics(res.Window))
	}

	s.store(ctx, key, report)
	return report, nil
}

func (s *AnalyticsService) GetVehicleReport(ctx context.Context, req model.WindowRequest) (*model.VehicleReport, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReport(reportVehicles, time.Since(started)) }()

	gen := window.NewGenerator(s.now(), s.loc)
	windows, err := s.resolveWindows(gen, req)
	if err != nil {
		return nil, err
	}

	key := cache.Key(reportVehicles, windows)
	var cached model.VehicleReport
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	var touching, active []model.Vehicle
	from, to := window.Span(windows)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		touching, err = s.vehicles.VehiclesTouching(gctx, from, to)
		if err != nil {
			return fmt.Errorf("load vehicles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		active, err = s.vehicles.ActiveVehicles(gctx)
		if err != nil {
			return fmt.Errorf("load active vehicles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &model.VehicleReport{
		GeneratedAt: gen.Now(),
		Timezone:    s.loc.String(),
		Windows:     model.NewOrdered[model.VehicleWindowSummary](),
	}
	for _, v := range active {
		if v.Active() {
			report.Active++
		}
	}
	for _, w := range windows {
		acc := aggregate.NewAccumulator()
		for _, v := range touching {
			acc.AddVehicle(v, w)
		}
		report.Windows.Set(string(w.Kind), model.VehicleWindowSummary{
			Range:      model.DateRange{From: w.Start, To: w.End},
			Vehicles:   acc.Vehicles(),
			Turnaround: acc.Turnaround(),
		})
	}

	s.store(ctx, key, report)
	return report, nil
}

// GetLiveStatus lists what is in progress right now. It is never cached.
func (s *AnalyticsService) GetLiveStatus(ctx context.Context) (*model.LiveReport, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReport(reportLive, time.Since(started)) }()

	vehicles, err := s.vehicles.ActiveVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active vehicles: %w", err)
	}

	report, issues := aggregate.Live(vehicles, s.now().In(s.loc))
	s.reportIssues(reportLive, issues)
	return &report, nil
}

func (s *AnalyticsService) GetVehicleTimeline(ctx context.Context, vehicleNumber string) (*model.VehicleTimeline, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReport(reportTimeline, time.Since(started)) }()

	vehicleNumber = strings.TrimSpace(vehicleNumber)
	if vehicleNumber == "" {
		return nil, ErrNotFound
	}

	vehicle, err := s.vehicles.VehicleByNumber(ctx, vehicleNumber)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load vehicle: %w", err)
	}

	if issue, failed := workflow.LoadIssue(*vehicle); failed {
		s.reportIssues(reportTimeline, []workflow.Issue{issue})
	}

	timeline := aggregate.Timeline(*vehicle, s.now().In(s.loc))
	return &timeline, nil
}

// resolveWindows turns the request into distinct windows sharing one
// reference instant. Explicit bounds imply a custom window.
func (s *AnalyticsService) resolveWindows(gen window.Generator, req model.WindowRequest) ([]window.Window, error) {
	names := req.Kinds
	if len(names) == 0 && !req.HasCustomRange() {
		names = s.defaultWindows
	}
	if req.HasCustomRange() {
		names = append(append([]string(nil), names...), string(window.Custom))
	}

	seen := make(map[window.Kind]struct{}, len(names))
	windows := make([]window.Window, 0, len(names))
	for _, name := range names {
		kind, err := window.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
		if _, dup := seen[kind]; dup {
			continue
		}
		seen[kind] = struct{}{}

		var w window.Window
		if kind == window.Custom {
			w, err = gen.Custom(req.Custom.From, req.Custom.To)
			if err == nil {
				clamped := model.DateRange{From: w.Start, To: w.End}.ClampRange(s.maxRangeDays)
				w.Start = clamped.From
			}
		} else {
			w, err = gen.Resolve(kind)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func (s *AnalyticsService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	switch {
	case err != nil:
		s.metrics.CacheResult("error")
		s.log.Warn().Err(err).Str("key", key).Msg("report cache lookup failed")
		return false
	case found:
		s.metrics.CacheResult("hit")
		return true
	default:
		s.metrics.CacheResult("miss")
		return false
	}
}

func (s *AnalyticsService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache store failed")
	}
}

func (s *AnalyticsService) reportIssues(report string, issues []workflow.Issue) {
	for _, issue := range issues {
		s.metrics.SkippedEvent(string(issue.Reason))

		event := s.log.Warn().
			Str("report", report).
			Str("vehicle_number", issue.VehicleNumber).
			Str("stage_name", issue.StageName).
			Str("event_type", string(issue.EventType)).
			Str("reason", string(issue.Reason))
		if issue.Detail != "" {
			event = event.Str("detail", issue.Detail)
		}
		if !issue.Timestamp.IsZero() {
			event = event.Time("timestamp", issue.Timestamp)
		}
		event.Msg("stage event skipped")
	}
}
