package domain

import "testing"

func TestCanAssignRoleSelfEscalation(t *testing.T) {
	cases := []struct {
		name     string
		actorID  string
		actor    Role
		targetID string
		newRole  Role
		want     bool
	}{
		{"superadmin grants superadmin to other", "a", RoleSuperadmin, "b", RoleSuperadmin, true},
		{"superadmin self-assigns superadmin", "a", RoleSuperadmin, "a", RoleSuperadmin, false},
		{"admin self-assigns superadmin", "a", RoleAdmin, "a", RoleSuperadmin, false},
		{"admin grants superadmin to other", "a", RoleAdmin, "b", RoleSuperadmin, false},
		{"superadmin demotes other", "a", RoleSuperadmin, "b", RoleAdmin, true},
		{"admin changes role", "a", RoleAdmin, "b", RoleOperator, false},
		{"superadmin changes own role downward", "a", RoleSuperadmin, "a", RoleAdmin, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanAssignRole(tc.actorID, tc.actor, tc.targetID, tc.newRole); got != tc.want {
				t.Errorf("CanAssignRole() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestListAndAuditGuards(t *testing.T) {
	for _, role := range []Role{RoleSuperadmin, RoleAdmin} {
		if !CanListUsers(role) {
			t.Errorf("CanListUsers(%s) = false, want true", role)
		}
		if !CanViewAuditLogs(role) {
			t.Errorf("CanViewAuditLogs(%s) = false, want true", role)
		}
	}
	for _, role := range []Role{RoleOperator, RoleSupport} {
		if CanListUsers(role) {
			t.Errorf("CanListUsers(%s) = true, want false", role)
		}
		if CanViewAuditLogs(role) {
			t.Errorf("CanViewAuditLogs(%s) = true, want false", role)
		}
	}
}

func TestCanManageAccounts(t *testing.T) {
	if !CanManageAccounts(RoleSuperadmin) {
		t.Error("superadmin must manage accounts")
	}
	for _, role := range []Role{RoleAdmin, RoleOperator, RoleSupport} {
		if CanManageAccounts(role) {
			t.Errorf("CanManageAccounts(%s) = true, want false", role)
		}
	}
}

func TestCanViewUser(t *testing.T) {
	if !CanViewUser("u1", RoleSupport, "u1") {
		t.Error("users must see their own account")
	}
	if CanViewUser("u1", RoleAdmin, "u2") {
		t.Error("admin must not see other accounts directly")
	}
	if !CanViewUser("u1", RoleSuperadmin, "u2") {
		t.Error("superadmin must see any account")
	}
}

func TestPermissionsForRole(t *testing.T) {
	root := PermissionsForRole(RoleSuperadmin)
	if !root.ManageUsers || !root.ManageRoles || !root.ViewAuditLogs {
		t.Errorf("superadmin permissions incomplete: %+v", root)
	}
	admin := PermissionsForRole(RoleAdmin)
	if admin.ManageUsers || !admin.ViewAuditLogs || !admin.ViewAllUsers {
		t.Errorf("admin permissions wrong: %+v", admin)
	}
	op := PermissionsForRole(RoleOperator)
	if op != (Permissions{}) {
		t.Errorf("operator permissions = %+v, want none", op)
	}
}

func TestValidRoleAndStatus(t *testing.T) {
	for _, role := range AllRoles {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%s) = false", role)
		}
	}
	if ValidRole("root") {
		t.Error(`ValidRole("root") = true, want false`)
	}
	for _, status := range AllStatuses {
		if !ValidStatus(status) {
			t.Errorf("ValidStatus(%s) = false", status)
		}
	}
	if ValidStatus("suspended") {
		t.Error(`ValidStatus("suspended") = true, want false`)
	}
}
