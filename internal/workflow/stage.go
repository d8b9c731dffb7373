// Package workflow reconstructs stage intervals from a vehicle's lifecycle events.
package workflow

import (
	"strings"

	"stage-analytics-service/internal/model"
)

// Kind is the interval shape of a stage.
type Kind int

const (
	// Symmetric stages are closed by an End of the same stage name.
	Symmetric Kind = iota
	// ImplicitClosed stages are closed by the Start of a downstream stage.
	ImplicitClosed
	// PausedTracking stages split their time into active and paused buckets.
	PausedTracking
	// Lookback stages are transition markers: the interval is opened by an
	// earlier event of another stage and closed by the marker's own Start.
	Lookback
)

func (k Kind) String() string {
	switch k {
	case Symmetric:
		return "symmetric"
	case ImplicitClosed:
		return "implicit_closed"
	case PausedTracking:
		return "paused_tracking"
	case Lookback:
		return "lookback"
	default:
		return "unknown"
	}
}

const (
	InteractiveBay         = "Interactive Bay"
	JobCardCreation        = "Job Card Creation + Customer Approval"
	BayAllocation          = "Job Card Received + Bay Allocation"
	TechnicianReceipt      = "Job Card Received (by Technician)"
	BayWork                = "Bay Work"
	AdditionalWorkApproval = "Additional Work Job Approval"
	FinalInspectionReceipt = "Job Card Received (by FI)"
	FinalInspection        = "Final Inspection"
	ReadyForWashing        = "Ready for Washing"
	Washing                = "Washing"
)

// Matcher selects events by stage name.
type Matcher struct {
	Name   string
	Prefix bool
}

func Exact(name string) Matcher  { return Matcher{Name: name} }
func Prefix(name string) Matcher { return Matcher{Name: name, Prefix: true} }

func (m Matcher) Matches(stageName string) bool {
	if m.Prefix {
		return strings.HasPrefix(stageName, m.Name)
	}
	return stageName == m.Name
}

// Rule describes how an occurrence is closed (or, for Lookback stages, opened).
// A zero Match means "the same stage name as the occurrence".
type Rule struct {
	Match  Matcher
	On     model.EventType
	Needed int
}

// Stage is one row of the classification table.
type Stage struct {
	Name  string
	Match Matcher
	Kind  Kind
	Rule  Rule
}

var symmetricRule = Rule{On: model.EventEnd, Needed: 1}

// catalog lists the workshop process in display order.
var catalog = []Stage{
	{Name: InteractiveBay, Match: Exact(InteractiveBay), Kind: Symmetric, Rule: symmetricRule},
	{Name: JobCardCreation, Match: Exact(JobCardCreation), Kind: ImplicitClosed,
		Rule: Rule{Match: Prefix(BayAllocation), On: model.EventStart, Needed: 1}},
	{Name: BayAllocation, Match: Prefix(BayAllocation), Kind: ImplicitClosed,
		Rule: Rule{Match: Prefix(BayWork), On: model.EventStart, Needed: 1}},
	{Name: TechnicianReceipt, Match: Exact(TechnicianReceipt), Kind: Lookback,
		Rule: Rule{Match: Prefix(BayAllocation), On: model.EventStart, Needed: 1}},
	{Name: BayWork, Match: Prefix(BayWork), Kind: PausedTracking, Rule: symmetricRule},
	// Additional work is approved once the vehicle has been re-allocated twice.
	{Name: AdditionalWorkApproval, Match: Exact(AdditionalWorkApproval), Kind: ImplicitClosed,
		Rule: Rule{Match: Prefix(BayAllocation), On: model.EventStart, Needed: 2}},
	{Name: FinalInspectionReceipt, Match: Exact(FinalInspectionReceipt), Kind: Lookback,
		Rule: Rule{Match: Prefix(BayWork), On: model.EventEnd, Needed: 1}},
	{Name: FinalInspection, Match: Exact(FinalInspection), Kind: Symmetric, Rule: symmetricRule},
	{Name: ReadyForWashing, Match: Exact(ReadyForWashing), Kind: ImplicitClosed,
		Rule: Rule{Match: Exact(Washing), On: model.EventStart, Needed: 1}},
	{Name: Washing, Match: Exact(Washing), Kind: Symmetric, Rule: symmetricRule},
}

// DisplayOrder returns the canonical stage names in process order.
func DisplayOrder() []string {
	names := make([]string, 0, len(catalog))
	for _, s := range catalog {
		names = append(names, s.Name)
	}
	return names
}

// Classify resolves a raw stage name. Exact entries win over prefix entries;
// unknown names become Symmetric stages keyed by their own name.
func Classify(stageName string) Stage {
	name := strings.TrimSpace(stageName)
	for _, s := range catalog {
		if !s.Match.Prefix && s.Match.Matches(name) {
			return s
		}
	}
	for _, s := range catalog {
		if s.Match.Prefix && s.Match.Matches(name) {
			return s
		}
	}
	return Stage{Name: name, Match: Exact(name), Kind: Symmetric, Rule: symmetricRule}
}

// Known reports whether the name belongs to the documented process.
func Known(stageName string) bool {
	name := strings.TrimSpace(stageName)
	for _, s := range catalog {
		if s.Match.Matches(name) {
			return true
		}
	}
	return false
}
