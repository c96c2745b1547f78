package rbac

import "github.com/aiwork-marketplace/backend/internal/models"

// Role constants alias the model-level ones so there is a single source
// of truth for role strings.
const (
	RoleClient = models.RoleClient
	RoleVendor = models.RoleVendor
	RoleAdmin  = models.RoleAdmin
)

// Permission constants
const (
	PermCreateProject     = "create_project"
	PermSetupMilestones   = "setup_milestones"
	PermStartMilestone    = "start_milestone"
	PermCompleteMilestone = "complete_milestone"
	PermRejectDeliverable = "reject_deliverable"
	PermRequestPayment    = "request_payment"
	PermApprovePayment    = "approve_payment"
	PermRejectPayment     = "reject_payment"
	PermOpenDispute       = "open_dispute"
	PermResolveDispute    = "resolve_dispute"
	PermAdjustBalance     = "adjust_balance"
	PermManageFolders     = "manage_folders"
	PermViewAudit         = "view_audit"
)

// RolePermissions defines what each role can do. Ownership of the concrete
// project/milestone is checked separately in the services.
var RolePermissions = map[string][]string{
	RoleClient: {
		PermCreateProject, PermSetupMilestones, PermRejectDeliverable,
		PermApprovePayment, PermRejectPayment, PermOpenDispute,
	},
	RoleVendor: {
		PermStartMilestone, PermCompleteMilestone, PermRequestPayment,
		PermOpenDispute, PermManageFolders,
	},
	RoleAdmin: {
		PermResolveDispute, PermAdjustBalance, PermViewAudit,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsFinancialOperation checks if a permission moves money (extra audit).
func IsFinancialOperation(permission string) bool {
	switch permission {
	case PermApprovePayment, PermResolveDispute, PermAdjustBalance:
		return true
	}
	return false
}
