package domain

import "time"

// Role enumerates the assignable account roles.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleOperator   Role = "operator"
	RoleSupport    Role = "support"
)

// AllRoles lists every assignable role.
var AllRoles = []Role{RoleSuperadmin, RoleAdmin, RoleOperator, RoleSupport}

// ValidRole reports whether the provided value is a known role.
func ValidRole(role Role) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// AccountStatus enumerates possible account states.
type AccountStatus string

const (
	StatusPending     AccountStatus = "pending"
	StatusActive      AccountStatus = "active"
	StatusBlocked     AccountStatus = "blocked"
	StatusDeactivated AccountStatus = "deactivated"
)

// AllStatuses lists every account state.
var AllStatuses = []AccountStatus{StatusPending, StatusActive, StatusBlocked, StatusDeactivated}

// ValidStatus reports whether the provided value is a known account state.
func ValidStatus(status AccountStatus) bool {
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// User mirrors the persisted representation in the users table.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Role              Role
	Status            AccountStatus
	ActivationToken   *string
	ActivationExpires *time.Time
	ResetToken        *string
	ResetExpires      *time.Time
	LoginAttempts     int
	BlockedUntil      *time.Time
	LastLogin         *time.Time
	InvitedBy         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LockedUntil reports whether the account carries an unexpired temporary block.
func (u User) LockedUntil(now time.Time) (time.Time, bool) {
	if u.BlockedUntil != nil && u.BlockedUntil.After(now) {
		return *u.BlockedUntil, true
	}
	return time.Time{}, false
}

// SystemStats aggregates user counts by status and role.
type SystemStats struct {
	TotalUsers       int
	ActiveUsers      int
	PendingUsers     int
	BlockedUsers     int
	DeactivatedUsers int
	Superadmins      int
	Admins           int
	Operators        int
	Support          int
	GeneratedAt      time.Time
}
