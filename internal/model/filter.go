package model

import "time"

// WindowRequest names the windows a report covers. Custom carries the explicit
// bounds of a "custom" window; zero values mean "use the default".
type WindowRequest struct {
	Kinds  []string
	Custom DateRange
}

// HasCustomRange reports whether the caller passed any explicit bound.
func (r WindowRequest) HasCustomRange() bool {
	return !r.Custom.From.IsZero() || !r.Custom.To.IsZero()
}

// ClampRange shortens an overlong range so it spans at most maxRangeDays, keeping To fixed.
func (r DateRange) ClampRange(maxRangeDays int) DateRange {
	if maxRangeDays <= 0 {
		return r
	}
	maxDuration := time.Duration(maxRangeDays) * 24 * time.Hour
	if r.To.Sub(r.From) > maxDuration {
		r.From = r.To.Add(-maxDuration)
	}
	return r
}
