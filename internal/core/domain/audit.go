package domain

import "time"

// AuditAction is the closed taxonomy of recorded security-relevant actions.
type AuditAction string

const (
	AuditUserCreated            AuditAction = "user_created"
	AuditUserInvited            AuditAction = "user_invited"
	AuditUserActivated          AuditAction = "user_activated"
	AuditUserDeactivated        AuditAction = "user_deactivated"
	AuditUserReactivated        AuditAction = "user_reactivated"
	AuditUserBlocked            AuditAction = "user_blocked"
	AuditUserUpdated            AuditAction = "user_updated"
	AuditRoleChanged            AuditAction = "role_changed"
	AuditPasswordChanged        AuditAction = "password_changed"
	AuditPasswordResetRequested AuditAction = "password_reset_requested"
	AuditLoginSuccessful        AuditAction = "login_successful"
	AuditLoginFailed            AuditAction = "login_failed"
	AuditLogout                 AuditAction = "logout"
)

// RequestMeta carries the request context captured alongside an audit entry.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditLogEntry is an immutable record of a security-relevant action. Actor is
// nil for system actions (bootstrap, automatic lockout without a session).
type AuditLogEntry struct {
	ID          string
	ActorID     *string
	ActorEmail  *string
	Action      AuditAction
	TargetID    *string
	TargetEmail *string
	Details     map[string]any
	IP          *string
	UserAgent   *string
	CreatedAt   time.Time
}

// AuditFilter narrows the audit read path.
type AuditFilter struct {
	ActorID  string
	TargetID string
	Action   AuditAction
	DateFrom *time.Time
	DateTo   *time.Time
}

// AuditPage is a page of audit entries ordered newest first.
type AuditPage struct {
	Entries    []AuditLogEntry
	Total      int
	Page       int
	Limit      int
	TotalPages int
}
