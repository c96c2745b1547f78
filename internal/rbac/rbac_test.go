package rbac

import (
	"testing"

	"github.com/aiwork-marketplace/backend/internal/models"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		expected   bool
	}{
		{RoleClient, PermApprovePayment, true},
		{RoleClient, PermRejectDeliverable, true},
		{RoleClient, PermOpenDispute, true},
		{RoleClient, PermRequestPayment, false},
		{RoleClient, PermAdjustBalance, false},

		{RoleVendor, PermRequestPayment, true},
		{RoleVendor, PermOpenDispute, true},
		{RoleVendor, PermManageFolders, true},
		{RoleVendor, PermApprovePayment, false},
		{RoleVendor, PermResolveDispute, false},

		{RoleAdmin, PermResolveDispute, true},
		{RoleAdmin, PermAdjustBalance, true},
		{RoleAdmin, PermRequestPayment, false},

		{"unknown", PermApprovePayment, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.permission, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.permission); got != tt.expected {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.expected)
			}
		})
	}
}

func TestRoleConstantsMatchModels(t *testing.T) {
	if RoleClient != models.RoleClient || RoleVendor != models.RoleVendor || RoleAdmin != models.RoleAdmin {
		t.Error("rbac role constants diverged from the model role constants")
	}
}

func TestIsFinancialOperation(t *testing.T) {
	if !IsFinancialOperation(PermApprovePayment) {
		t.Error("approve_payment should be financial")
	}
	if !IsFinancialOperation(PermAdjustBalance) {
		t.Error("adjust_balance should be financial")
	}
	if IsFinancialOperation(PermStartMilestone) {
		t.Error("start_milestone should not be financial")
	}
}
