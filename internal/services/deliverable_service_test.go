package services

import (
	"testing"

	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/shopspring/decimal"
)

func TestBornFolderStatus(t *testing.T) {
	tests := []struct {
		name            string
		milestoneStatus string
		isPaid          bool
		want            string
	}{
		{"pending milestone", models.MilestoneStatusPending, false, models.FolderStatusPending},
		{"in progress milestone", models.MilestoneStatusInProgress, false, models.FolderStatusInProgress},
		{"completed milestone", models.MilestoneStatusCompleted, false, models.FolderStatusUnlocked},
		{"paid milestone", models.MilestoneStatusPaid, true, models.FolderStatusUnlocked},
		{"paid flag wins", models.MilestoneStatusInProgress, true, models.FolderStatusUnlocked},
		{"cancelled milestone", models.MilestoneStatusCancelled, false, models.FolderStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BornFolderStatus(tt.milestoneStatus, tt.isPaid); got != tt.want {
				t.Errorf("BornFolderStatus(%q, %v) = %q, want %q", tt.milestoneStatus, tt.isPaid, got, tt.want)
			}
		})
	}
}

func TestAccessLevel(t *testing.T) {
	unpaid := &models.Milestone{Status: models.MilestoneStatusInProgress, Amount: decimal.NewFromInt(100)}
	paid := &models.Milestone{Status: models.MilestoneStatusPaid, IsPaid: true, Amount: decimal.NewFromInt(100)}

	tests := []struct {
		name         string
		role         string
		isParty      bool
		milestone    *models.Milestone
		folderStatus string
		want         string
	}{
		{"admin always full", models.RoleAdmin, false, unpaid, models.FolderStatusPending, models.AccessFull},
		{"vendor on own project", models.RoleVendor, true, unpaid, models.FolderStatusInProgress, models.AccessFull},
		{"vendor elsewhere", models.RoleVendor, false, unpaid, models.FolderStatusUnlocked, models.AccessNone},
		{"client before payment", models.RoleClient, true, unpaid, models.FolderStatusInProgress, models.AccessPreview},
		{"client after payment", models.RoleClient, true, paid, models.FolderStatusUnlocked, models.AccessFull},
		{"client paid but folder still locked", models.RoleClient, true, paid, models.FolderStatusPending, models.AccessPreview},
		{"client folder unlocked but milestone unpaid", models.RoleClient, true, unpaid, models.FolderStatusUnlocked, models.AccessPreview},
		{"client elsewhere", models.RoleClient, false, paid, models.FolderStatusUnlocked, models.AccessNone},
		{"unknown role", "auditor", true, paid, models.FolderStatusUnlocked, models.AccessNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AccessLevel(tt.role, tt.isParty, tt.milestone, tt.folderStatus); got != tt.want {
				t.Errorf("AccessLevel(%q, %v, %q) = %q, want %q", tt.role, tt.isParty, tt.folderStatus, got, tt.want)
			}
		})
	}
}
