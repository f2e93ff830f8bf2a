package auth

import "context"

const (
	PermDirectoryRead     = "directory.read"
	PermDirectoryList     = "directory.list"
	PermDirectoryWrite    = "directory.write"
	PermCatalogRead       = "catalog.read"
	PermCatalogWrite      = "catalog.write"
	PermCyclesRead        = "cycles.read"
	PermCyclesWrite       = "cycles.write"
	PermAssignmentsRead   = "assignments.read"
	PermAssignmentsList   = "assignments.list"
	PermAssignmentsWrite  = "assignments.write"
	PermFeedbackSubmit    = "feedback.submit"
	PermFeedbackManage    = "feedback.manage"
	PermReportsRead       = "reports.read"
	PermAuditRead         = "audit.read"
	PermNotificationsRead = "notifications.read"
	PermSystemReset       = "system.reset"
	PermSystemMetrics     = "system.metrics"
)

var DefaultPermissions = []string{
	PermDirectoryRead,
	PermDirectoryList,
	PermDirectoryWrite,
	PermCatalogRead,
	PermCatalogWrite,
	PermCyclesRead,
	PermCyclesWrite,
	PermAssignmentsRead,
	PermAssignmentsList,
	PermAssignmentsWrite,
	PermFeedbackSubmit,
	PermFeedbackManage,
	PermReportsRead,
	PermAuditRead,
	PermNotificationsRead,
	PermSystemReset,
	PermSystemMetrics,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermDirectoryRead,
		PermCatalogRead,
		PermCyclesRead,
		PermAssignmentsRead,
		PermFeedbackSubmit,
		PermNotificationsRead,
	},
	RoleAdmin: DefaultPermissions,
}

// RolePermissionStore answers permission checks from the static role table.
type RolePermissionStore struct {
	grants map[string]map[string]struct{}
}

func NewRolePermissionStore() *RolePermissionStore {
	grants := make(map[string]map[string]struct{}, len(RolePermissions))
	for role, perms := range RolePermissions {
		set := make(map[string]struct{}, len(perms))
		for _, perm := range perms {
			set[perm] = struct{}{}
		}
		grants[role] = set
	}
	return &RolePermissionStore{grants: grants}
}

func (s *RolePermissionStore) HasPermission(_ context.Context, role, permission string) (bool, error) {
	perms, ok := s.grants[role]
	if !ok {
		return false, nil
	}
	_, allowed := perms[permission]
	return allowed, nil
}
