package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// PasswordResetService implements the forgotten-password flow. Requesting a
// reset never reveals whether the address is registered.
type PasswordResetService struct {
	users     port.UserRepository
	hasher    *security.Hasher
	passwords *security.PasswordPolicy
	mailer    port.Mailer
	audit     *AuditService
	events    port.EventPublisher
	policy    config.SecuritySettings
	now       func() time.Time
}

func NewPasswordResetService(
	users port.UserRepository,
	hasher *security.Hasher,
	passwords *security.PasswordPolicy,
	mailer port.Mailer,
	audit *AuditService,
	events port.EventPublisher,
	policy config.SecuritySettings,
) *PasswordResetService {
	return &PasswordResetService{
		users:     users,
		hasher:    hasher,
		passwords: passwords,
		mailer:    mailer,
		audit:     audit,
		events:    events,
		policy:    policy,
		now:       time.Now,
	}
}

// RequestReset issues a reset token and emails the link. It returns nil for
// unknown addresses and for deactivated accounts alike, so the endpoint's
// behavior is identical whether or not the email exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string, meta domain.RequestMeta) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load user by email: %w", err)
	}

	// Pending accounts activate through their invitation; deactivated
	// accounts require a superadmin to reactivate first.
	if user.Status != domain.StatusActive && user.Status != domain.StatusBlocked {
		return nil
	}

	token, err := security.GenerateToken()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	expires := now.Add(s.policy.ResetTTL)

	user.ResetToken = &token
	user.ResetExpires = &expires
	user.UpdatedAt = now
	if err := s.users.Update(ctx, *user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, email, token); err != nil {
		logger.FromContext(ctx).Warn("reset email failed",
			zap.String("email", logger.MaskEmail(email)), zap.Error(err))
	}

	s.audit.Record(ctx, nil, domain.AuditPasswordResetRequested, user, nil, meta)
	return nil
}

// ValidateToken reports whether a reset token is usable, for the form's
// pre-flight check.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) error {
	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("load user by reset token: %w", err)
	}
	if user.ResetExpires == nil || user.ResetExpires.Before(s.now().UTC()) {
		return ErrExpiredToken
	}
	return nil
}

// Reset consumes the token and stores the new password. A blocked account
// returns to active: proving control of the mailbox ends the lockout.
func (s *PasswordResetService) Reset(ctx context.Context, token, password string, meta domain.RequestMeta) error {
	if token == "" {
		return ErrInvalidToken
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("load user by reset token: %w", err)
	}

	now := s.now().UTC()
	if user.ResetExpires == nil || user.ResetExpires.Before(now) {
		return ErrExpiredToken
	}

	if errs := s.passwords.Validate(password); len(errs) > 0 {
		return weakPassword(errs)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	reactivate := user.Status == domain.StatusBlocked
	if err := s.users.ConsumeResetToken(ctx, user.ID, token, hash, reactivate, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.audit.Record(ctx, user, domain.AuditPasswordChanged, user,
		map[string]any{"method": "reset"}, meta)

	if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Method:    "reset",
		ChangedBy: user.ID,
		ChangedAt: now,
	}); err != nil {
		logger.FromContext(ctx).Warn("publish password changed event", zap.Error(err))
	}

	return nil
}
