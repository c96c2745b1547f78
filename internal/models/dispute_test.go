package models

import "testing"

func TestIsValidDisputeResolution(t *testing.T) {
	tests := []struct {
		resolution string
		want       bool
	}{
		{DisputeResolutionRefundClient, true},
		{DisputeResolutionReleaseVendor, true},
		{DisputeResolutionSplitCustom, true},
		{"coin_flip", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidDisputeResolution(tt.resolution); got != tt.want {
			t.Errorf("IsValidDisputeResolution(%q) = %v, want %v", tt.resolution, got, tt.want)
		}
	}
}

func TestDisputeOpen(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{DisputeStatusOpen, true},
		{DisputeStatusInvestigating, true},
		{DisputeStatusResolved, false},
	}

	for _, tt := range tests {
		d := Dispute{Status: tt.status}
		if got := d.Open(); got != tt.want {
			t.Errorf("Open() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}
