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

// InvitationService creates pending accounts and activates them when the
// invitee redeems the emailed token.
type InvitationService struct {
	users     port.UserRepository
	hasher    *security.Hasher
	passwords *security.PasswordPolicy
	mailer    port.Mailer
	audit     *AuditService
	events    port.EventPublisher
	policy    config.SecuritySettings
	now       func() time.Time
}

func NewInvitationService(
	users port.UserRepository,
	hasher *security.Hasher,
	passwords *security.PasswordPolicy,
	mailer port.Mailer,
	audit *AuditService,
	events port.EventPublisher,
	policy config.SecuritySettings,
) *InvitationService {
	return &InvitationService{
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

// Invite creates a pending account and emails the activation link. The
// invitee has no password until activation.
func (s *InvitationService) Invite(ctx context.Context, actor domain.User, email string, role domain.Role, meta domain.RequestMeta) (*domain.User, error) {
	if !domain.CanManageAccounts(actor.Role) {
		return nil, ErrForbidden
	}
	if !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if !domain.CanInviteWithRole(actor.Role, role) {
		return nil, ErrForbidden
	}

	email = strings.ToLower(strings.TrimSpace(email))
	now := s.now().UTC()

	token, err := security.GenerateToken()
	if err != nil {
		return nil, err
	}
	expires := now.Add(s.policy.ActivationTTL)

	user := domain.User{
		ID:                uuid.NewString(),
		Email:             email,
		Role:              role,
		Status:            domain.StatusPending,
		ActivationToken:   &token,
		ActivationExpires: &expires,
		InvitedBy:         &actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create invited user: %w", err)
	}

	if err := s.mailer.SendActivation(ctx, email, token); err != nil {
		// The invitation stands; a superadmin can re-invite to resend.
		logger.FromContext(ctx).Warn("activation email failed",
			zap.String("email", logger.MaskEmail(email)), zap.Error(err))
	}

	s.audit.Record(ctx, &actor, domain.AuditUserInvited, &user,
		map[string]any{"role": role}, meta)

	if err := s.events.PublishUserInvited(ctx, domain.UserInvitedEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Email:     email,
		Role:      role,
		InvitedBy: actor.ID,
		ExpiresAt: expires,
		CreatedAt: now,
	}); err != nil {
		logger.FromContext(ctx).Warn("publish user invited event", zap.Error(err))
	}

	return &user, nil
}

// Activate redeems an activation token and sets the account's first password.
// The token is consumed by a conditional update, so two concurrent redeems
// cannot both succeed.
func (s *InvitationService) Activate(ctx context.Context, token, password string, meta domain.RequestMeta) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByActivationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load user by activation token: %w", err)
	}

	now := s.now().UTC()
	if user.ActivationExpires == nil || user.ActivationExpires.Before(now) {
		return nil, ErrExpiredToken
	}
	if user.Status != domain.StatusPending {
		return nil, ErrInvalidToken
	}

	if errs := s.passwords.Validate(password); len(errs) > 0 {
		return nil, weakPassword(errs)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	if err := s.users.ConsumeActivationToken(ctx, user.ID, token, hash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("consume activation token: %w", err)
	}

	user.Status = domain.StatusActive
	user.PasswordHash = hash
	user.ActivationToken = nil
	user.ActivationExpires = nil
	user.UpdatedAt = now

	s.audit.Record(ctx, user, domain.AuditUserActivated, user, nil, meta)

	if err := s.events.PublishUserActivated(ctx, domain.UserActivatedEvent{
		EventID:     uuid.NewString(),
		UserID:      user.ID,
		Email:       user.Email,
		ActivatedAt: now,
	}); err != nil {
		logger.FromContext(ctx).Warn("publish user activated event", zap.Error(err))
	}

	return user, nil
}
