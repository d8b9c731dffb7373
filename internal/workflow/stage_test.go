package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stage-analytics-service/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		stageName string
		wantStage string
		wantKind  Kind
		wantRule  Rule
	}{
		{"interactive bay", "Interactive Bay", InteractiveBay, Symmetric, symmetricRule},
		{"job card creation", "Job Card Creation + Customer Approval", JobCardCreation, ImplicitClosed,
			Rule{Match: Prefix(BayAllocation), On: model.EventStart, Needed: 1}},
		{"bay allocation with suffix", "Job Card Received + Bay Allocation (B3)", BayAllocation, ImplicitClosed,
			Rule{Match: Prefix(BayWork), On: model.EventStart, Needed: 1}},
		{"technician receipt", "Job Card Received (by Technician)", TechnicianReceipt, Lookback,
			Rule{Match: Prefix(BayAllocation), On: model.EventStart, Needed: 1}},
		{"bay work with work type", "Bay Work: Denting", BayWork, PausedTracking, symmetricRule},
		{"additional work needs two allocations", "Additional Work Job Approval", AdditionalWorkApproval, ImplicitClosed,
			Rule{Match: Prefix(BayAllocation), On: model.EventStart, Needed: 2}},
		{"final inspection receipt", "Job Card Received (by FI)", FinalInspectionReceipt, Lookback,
			Rule{Match: Prefix(BayWork), On: model.EventEnd, Needed: 1}},
		{"ready for washing", "Ready for Washing", ReadyForWashing, ImplicitClosed,
			Rule{Match: Exact(Washing), On: model.EventStart, Needed: 1}},
		{"washing is exact", "Washing", Washing, Symmetric, symmetricRule},
		{"surrounding whitespace", "  Washing ", Washing, Symmetric, symmetricRule},
		{"unknown stage", "Road Test", "Road Test", Symmetric, symmetricRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.stageName)
			assert.Equal(t, tt.wantStage, got.Name)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantRule, got.Rule)
		})
	}
}

func TestClassifyExactBeatsPrefix(t *testing.T) {
	// "Washing" must not be swallowed by "Ready for Washing" or the reverse.
	assert.Equal(t, ReadyForWashing, Classify("Ready for Washing").Name)
	assert.Equal(t, Washing, Classify("Washing").Name)
	assert.Equal(t, "Washing Bay 2", Classify("Washing Bay 2").Name)
}

func TestDisplayOrder(t *testing.T) {
	order := DisplayOrder()

	assert.Equal(t, InteractiveBay, order[0])
	assert.Equal(t, Washing, order[len(order)-1])
	assert.Less(t, DisplayIndex(JobCardCreation), DisplayIndex(BayAllocation))
	assert.Less(t, DisplayIndex(BayWork), DisplayIndex(ReadyForWashing))
	assert.Equal(t, len(order), DisplayIndex("Road Test"))
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("Bay Work: Painting"))
	assert.True(t, Known("Job Card Received + Bay Allocation"))
	assert.False(t, Known("Road Test"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "paused_tracking", PausedTracking.String())
	assert.Equal(t, "implicit_closed", ImplicitClosed.String())
}
