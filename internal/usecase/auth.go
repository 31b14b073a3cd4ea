package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/core/port"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/security"
	"github.com/bastianbaeza/JackdawSoft/internal/repository"
)

// LoginResult carries the signed session token and the authenticated account.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService implements login, logout and session introspection with
// account lockout.
type AuthService struct {
	users  port.UserRepository
	hasher *security.Hasher
	tokens *security.TokenManager
	audit  *AuditService
	events port.EventPublisher
	policy config.SecuritySettings
	now    func() time.Time
}

func NewAuthService(
	users port.UserRepository,
	hasher *security.Hasher,
	tokens *security.TokenManager,
	audit *AuditService,
	events port.EventPublisher,
	policy config.SecuritySettings,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		audit:  audit,
		events: events,
		policy: policy,
		now:    time.Now,
	}
}

// Login verifies credentials and issues a session token. Failed attempts
// count toward the lockout threshold; the counter update is a single atomic
// statement so concurrent attempts cannot bypass the limit.
func (s *AuthService) Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*LoginResult, error) {
	now := s.now().UTC()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.audit.Record(ctx, nil, domain.AuditLoginFailed, nil,
				map[string]any{"email": email, "reason": "unknown_email"}, meta)
			return nil, &AuthenticationError{Err: ErrInvalidCredentials}
		}
		return nil, fmt.Errorf("load user by email: %w", err)
	}

	if until, locked := user.LockedUntil(now); locked {
		s.audit.Record(ctx, nil, domain.AuditLoginFailed, user,
			map[string]any{"reason": "locked"}, meta)
		return nil, &AuthenticationError{
			Err:               ErrAccountLocked,
			RetryAfterMinutes: minutesUntil(now, until),
		}
	}

	// A lapsed lock does not reopen the account: blocked rows return to
	// active only through a password reset or an explicit reactivation.
	if user.Status != domain.StatusActive {
		s.audit.Record(ctx, nil, domain.AuditLoginFailed, user,
			map[string]any{"reason": "status_" + string(user.Status)}, meta)
		return nil, &AuthenticationError{Err: ErrAccountNotActive, Status: string(user.Status)}
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.handleFailedPassword(ctx, user, now, meta)
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("record successful login: %w", err)
	}
	user.LoginAttempts = 0
	user.BlockedUntil = nil
	user.LastLogin = &now

	token, err := s.tokens.Issue(*user, now)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, user, domain.AuditLoginSuccessful, user, nil, meta)
	s.publishLogin(ctx, *user, true, "", 0, meta)

	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.tokens.TTL()),
		User:      *user,
	}, nil
}

func (s *AuthService) handleFailedPassword(ctx context.Context, user *domain.User, now time.Time, meta domain.RequestMeta) error {
	blockUntil := now.Add(s.policy.LockDuration)
	result, err := s.users.RecordFailedLogin(ctx, user.ID, port.LockoutUpdate{
		Threshold:  s.policy.MaxLoginAttempts,
		BlockUntil: blockUntil,
	})
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}

	s.audit.Record(ctx, nil, domain.AuditLoginFailed, user,
		map[string]any{"reason": "wrong_password", "attempts": result.Attempts}, meta)
	s.publishLogin(ctx, *user, false, "wrong_password", result.Attempts, meta)

	if result.Blocked {
		s.audit.Record(ctx, nil, domain.AuditUserBlocked, user,
			map[string]any{"attempts": result.Attempts, "blocked_until": blockUntil}, meta)
		if err := s.events.PublishUserBlocked(ctx, domain.UserBlockedEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Email:        user.Email,
			Attempts:     result.Attempts,
			BlockedUntil: blockUntil,
			BlockedAt:    now,
		}); err != nil {
			logger.FromContext(ctx).Warn("publish user blocked event", zap.Error(err))
		}
		return &AuthenticationError{
			Err:               ErrAccountLocked,
			RetryAfterMinutes: minutesUntil(now, blockUntil),
		}
	}

	return &AuthenticationError{
		Err:               ErrInvalidCredentials,
		RemainingAttempts: s.policy.MaxLoginAttempts - result.Attempts,
	}
}

// Logout records the logout action. Session invalidation happens client-side
// by clearing the cookie; tokens are short-lived by policy.
func (s *AuthService) Logout(ctx context.Context, actor domain.User, meta domain.RequestMeta) {
	s.audit.Record(ctx, &actor, domain.AuditLogout, &actor, nil, meta)
}

// CurrentUser reloads the account behind a set of session claims so role and
// status changes apply immediately, not at token expiry.
func (s *AuthService) CurrentUser(ctx context.Context, claims *security.SessionClaims) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load current user: %w", err)
	}
	return user, nil
}

func (s *AuthService) publishLogin(ctx context.Context, user domain.User, succeeded bool, reason string, attempts int, meta domain.RequestMeta) {
	if err := s.events.PublishLogin(ctx, domain.LoginEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		Email:      user.Email,
		Succeeded:  succeeded,
		Reason:     reason,
		Attempts:   attempts,
		IP:         meta.IP,
		OccurredAt: s.now().UTC(),
	}); err != nil {
		logger.FromContext(ctx).Warn("publish login event", zap.Error(err))
	}
}

func minutesUntil(now, until time.Time) int {
	mins := int(math.Ceil(until.Sub(now).Minutes()))
	if mins < 1 {
		mins = 1
	}
	return mins
}
