package port

import (
	"context"
	"time"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Status domain.AccountStatus
	Role   domain.Role
	Search string
	Limit  int
	Offset int
}

// LockoutUpdate is applied atomically when a password check fails. The store
// increments the attempt counter in a single statement and, when the returned
// count reaches Threshold, transitions the row to blocked with BlockUntil set.
type LockoutUpdate struct {
	Threshold  int
	BlockUntil time.Time
}

// FailedLoginResult reports the outcome of an atomic failed-login update.
type FailedLoginResult struct {
	Attempts int
	Blocked  bool
}

// UserRepository exposes persistence behavior for user accounts.
//
// Mutations are single-statement: one logical change (password + lockout
// fields, role + status) is never split across writes.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByActivationToken(ctx context.Context, token string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, user domain.User) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	Count(ctx context.Context, filter UserFilter) (int, error)
	Stats(ctx context.Context) (domain.SystemStats, error)

	// RecordFailedLogin atomically increments the attempt counter and applies
	// the lockout transition when the threshold is reached.
	RecordFailedLogin(ctx context.Context, id string, update LockoutUpdate) (FailedLoginResult, error)

	// RecordSuccessfulLogin atomically resets lockout state and stamps the
	// last-login timestamp.
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error

	// ConsumeActivationToken clears the token, activates the account and
	// resets lockout state in a single conditional update; it returns
	// repository.ErrNotFound when the token no longer matches (already
	// consumed or never issued).
	ConsumeActivationToken(ctx context.Context, id, token, passwordHash string, at time.Time) error

	// ConsumeResetToken clears the reset token, stores the new password hash,
	// resets lockout state, and restores blocked accounts to active, all in a
	// single conditional update.
	ConsumeResetToken(ctx context.Context, id, token, passwordHash string, reactivate bool, at time.Time) error
}
