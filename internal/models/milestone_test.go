package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsValidMilestoneTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{MilestoneStatusPending, MilestoneStatusInProgress, true},
		{MilestoneStatusInProgress, MilestoneStatusCompleted, true},
		{MilestoneStatusCompleted, MilestoneStatusPaid, true},

		// Rejection loop
		{MilestoneStatusCompleted, MilestoneStatusInProgress, true},

		// Zero-amount completion pays from in_progress directly
		{MilestoneStatusInProgress, MilestoneStatusPaid, true},

		// Cancellation paths
		{MilestoneStatusPending, MilestoneStatusCancelled, true},
		{MilestoneStatusInProgress, MilestoneStatusCancelled, true},
		{MilestoneStatusCompleted, MilestoneStatusCancelled, true},

		// Invalid transitions
		{MilestoneStatusPending, MilestoneStatusCompleted, false},
		{MilestoneStatusPending, MilestoneStatusPaid, false},
		{MilestoneStatusPaid, MilestoneStatusInProgress, false},
		{MilestoneStatusPaid, MilestoneStatusCancelled, false},
		{MilestoneStatusCancelled, MilestoneStatusInProgress, false},
		{MilestoneStatusCancelled, MilestoneStatusPaid, false},
		{"nonexistent", MilestoneStatusPaid, false},
		{MilestoneStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidMilestoneTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidMilestoneTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{MilestoneStatusPaid, MilestoneStatusCancelled}
	for _, status := range terminal {
		transitions := ValidMilestoneTransitions[status]
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}

func TestMilestonePayable(t *testing.T) {
	tests := []struct {
		name     string
		m        Milestone
		expected bool
	}{
		{"completed unpaid", Milestone{Status: MilestoneStatusCompleted, Amount: decimal.NewFromInt(500)}, true},
		{"already paid", Milestone{Status: MilestoneStatusCompleted, IsPaid: true, Amount: decimal.NewFromInt(500)}, false},
		{"zero amount", Milestone{Status: MilestoneStatusCompleted, Amount: decimal.Zero}, false},
		{"still in progress", Milestone{Status: MilestoneStatusInProgress, Amount: decimal.NewFromInt(500)}, false},
		{"cancelled", Milestone{Status: MilestoneStatusCancelled, Amount: decimal.NewFromInt(500)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Payable(); got != tt.expected {
				t.Errorf("Payable() = %v, want %v", got, tt.expected)
			}
		})
	}
}
