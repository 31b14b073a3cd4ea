package domain

// Permissions describes the capability flags derived from a role. They are
// returned by the /me endpoint so the console can hide controls the caller
// cannot use; the server still evaluates every guard independently.
type Permissions struct {
	ManageUsers     bool `json:"manage_users"`
	ViewAuditLogs   bool `json:"view_audit_logs"`
	ManageRoles     bool `json:"manage_roles"`
	ViewAllUsers    bool `json:"view_all_users"`
	DeactivateUsers bool `json:"deactivate_users"`
}

// PermissionsForRole derives capability flags for a role.
func PermissionsForRole(role Role) Permissions {
	switch role {
	case RoleSuperadmin:
		return Permissions{
			ManageUsers:     true,
			ViewAuditLogs:   true,
			ManageRoles:     true,
			ViewAllUsers:    true,
			DeactivateUsers: true,
		}
	case RoleAdmin:
		return Permissions{
			ViewAuditLogs: true,
			ViewAllUsers:  true,
		}
	default:
		return Permissions{}
	}
}

// Authorization guards. Each is a pure predicate over the actor and the
// requested change; callers short-circuit with Forbidden before any mutation.

// CanListUsers gates the user directory and system-wide listings.
func CanListUsers(actor Role) bool {
	return actor == RoleSuperadmin || actor == RoleAdmin
}

// CanViewAuditLogs gates the audit trail read path.
func CanViewAuditLogs(actor Role) bool {
	return actor == RoleSuperadmin || actor == RoleAdmin
}

// CanManageAccounts gates role/status mutation, deactivation, reactivation,
// and the system stats endpoint.
func CanManageAccounts(actor Role) bool {
	return actor == RoleSuperadmin
}

// CanViewUser implements the self-or-superadmin rule.
func CanViewUser(actorID string, actor Role, targetID string) bool {
	return actor == RoleSuperadmin || actorID == targetID
}

// CanChangePassword allows a user to change their own password; changing
// anyone else's requires superadmin.
func CanChangePassword(actorID string, actor Role, targetID string) bool {
	return actorID == targetID || actor == RoleSuperadmin
}

// CanInviteWithRole checks whether the actor may create an invitation carrying
// the given role. Only a superadmin may mint another superadmin.
func CanInviteWithRole(actor Role, invited Role) bool {
	if invited == RoleSuperadmin {
		return actor == RoleSuperadmin
	}
	return true
}

// CanAssignRole enforces the self-escalation guard: nobody may set their own
// role to superadmin, and only an existing superadmin may grant it at all.
func CanAssignRole(actorID string, actor Role, targetID string, newRole Role) bool {
	if newRole == RoleSuperadmin {
		if actorID == targetID {
			return false
		}
		return actor == RoleSuperadmin
	}
	return actor == RoleSuperadmin
}
