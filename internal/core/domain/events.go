package domain

import "time"

// Account lifecycle events published to Kafka for downstream consumers. The
// database audit trail remains the source of truth; events are best-effort.

// UserInvitedEvent is emitted when an invitation is created.
type UserInvitedEvent struct {
	EventID   string
	UserID    string
	Email     string
	Role      Role
	InvitedBy string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserActivatedEvent is emitted when a pending account redeems its token.
type UserActivatedEvent struct {
	EventID     string
	UserID      string
	Email       string
	ActivatedAt time.Time
}

// UserBlockedEvent is emitted when lockout blocks an account.
type UserBlockedEvent struct {
	EventID      string
	UserID       string
	Email        string
	Attempts     int
	BlockedUntil time.Time
	BlockedAt    time.Time
}

// UserStatusChangedEvent is emitted on manual status transitions.
type UserStatusChangedEvent struct {
	EventID   string
	UserID    string
	Email     string
	From      AccountStatus
	To        AccountStatus
	ChangedBy string
	ChangedAt time.Time
}

// PasswordChangedEvent is emitted when a password is set through any flow.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	Email     string
	Method    string
	ChangedBy string
	ChangedAt time.Time
}

// LoginEvent is emitted for both successful and failed authentication.
type LoginEvent struct {
	EventID    string
	UserID     string
	Email      string
	Succeeded  bool
	Reason     string
	Attempts   int
	IP         string
	OccurredAt time.Time
}
