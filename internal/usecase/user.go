package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/core/port"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/security"
	"github.com/bastianbaeza/JackdawSoft/internal/repository"
)

// UserService implements the administrative user directory: listing, role
// and status changes, and password changes by superadmins or account owners.
type UserService struct {
	users     port.UserRepository
	hasher    *security.Hasher
	passwords *security.PasswordPolicy
	audit     *AuditService
	events    port.EventPublisher
	now       func() time.Time
}

func NewUserService(
	users port.UserRepository,
	hasher *security.Hasher,
	passwords *security.PasswordPolicy,
	audit *AuditService,
	events port.EventPublisher,
) *UserService {
	return &UserService{
		users:     users,
		hasher:    hasher,
		passwords: passwords,
		audit:     audit,
		events:    events,
		now:       time.Now,
	}
}

// List returns a filtered page of users plus the unpaged total.
func (s *UserService) List(ctx context.Context, actor domain.User, filter port.UserFilter) ([]domain.User, int, error) {
	if !domain.CanListUsers(actor.Role) {
		return nil, 0, ErrForbidden
	}
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	if filter.Role != "" && !domain.ValidRole(filter.Role) {
		return nil, 0, ErrInvalidRole
	}
	return s.users.List(ctx, filter)
}

// Get returns one account, visible to its owner or a superadmin.
func (s *UserService) Get(ctx context.Context, actor domain.User, id string) (*domain.User, error) {
	if !domain.CanViewUser(actor.ID, actor.Role, id) {
		return nil, ErrForbidden
	}
	return s.load(ctx, id)
}

// ChangeRole assigns a new role. Nobody can promote themselves to
// superadmin, and demoting the last active superadmin is refused.
func (s *UserService) ChangeRole(ctx context.Context, actor domain.User, targetID string, newRole domain.Role, meta domain.RequestMeta) (*domain.User, error) {
	if !domain.ValidRole(newRole) {
		return nil, ErrInvalidRole
	}
	if !domain.CanAssignRole(actor.ID, actor.Role, targetID, newRole) {
		return nil, ErrForbidden
	}

	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == newRole {
		return target, nil
	}

	if target.Role == domain.RoleSuperadmin && newRole != domain.RoleSuperadmin {
		if err := s.requireAnotherActiveSuperadmin(ctx, target); err != nil {
			return nil, err
		}
	}

	oldRole := target.Role
	now := s.now().UTC()
	target.Role = newRole
	target.UpdatedAt = now
	if err := s.users.Update(ctx, *target); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}

	s.audit.Record(ctx, &actor, domain.AuditRoleChanged, target,
		map[string]any{"from": oldRole, "to": newRole}, meta)
	return target, nil
}

// ChangeStatus applies a manual status transition. Pending accounts only
// leave that state through activation, and the quorum guard protects the
// last active superadmin.
func (s *UserService) ChangeStatus(ctx context.Context, actor domain.User, targetID string, newStatus domain.AccountStatus, meta domain.RequestMeta) (*domain.User, error) {
	if !domain.ValidStatus(newStatus) || newStatus == domain.StatusPending {
		return nil, ErrInvalidStatus
	}
	if !domain.CanManageAccounts(actor.Role) {
		return nil, ErrForbidden
	}

	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Status == newStatus {
		return target, nil
	}
	if target.Status == domain.StatusPending {
		return nil, ErrInvalidStatus
	}

	if target.Role == domain.RoleSuperadmin && newStatus != domain.StatusActive {
		if err := s.requireAnotherActiveSuperadmin(ctx, target); err != nil {
			return nil, err
		}
	}

	action := domain.AuditUserUpdated
	switch newStatus {
	case domain.StatusDeactivated:
		action = domain.AuditUserDeactivated
	case domain.StatusBlocked:
		action = domain.AuditUserBlocked
	case domain.StatusActive:
		action = domain.AuditUserReactivated
		target.LoginAttempts = 0
		target.BlockedUntil = nil
	}
	return s.transition(ctx, actor, target, newStatus, action, meta)
}

// Deactivate disables an account. The last active superadmin cannot be
// deactivated.
func (s *UserService) Deactivate(ctx context.Context, actor domain.User, targetID string, meta domain.RequestMeta) (*domain.User, error) {
	if !domain.CanManageAccounts(actor.Role) {
		return nil, ErrForbidden
	}

	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Status == domain.StatusDeactivated {
		return target, nil
	}

	if target.Role == domain.RoleSuperadmin {
		if err := s.requireAnotherActiveSuperadmin(ctx, target); err != nil {
			return nil, err
		}
	}

	return s.transition(ctx, actor, target, domain.StatusDeactivated, domain.AuditUserDeactivated, meta)
}

// Reactivate restores a deactivated or blocked account to active and clears
// any lockout state.
func (s *UserService) Reactivate(ctx context.Context, actor domain.User, targetID string, meta domain.RequestMeta) (*domain.User, error) {
	if !domain.CanManageAccounts(actor.Role) {
		return nil, ErrForbidden
	}

	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Status == domain.StatusActive {
		return target, nil
	}
	if target.Status == domain.StatusPending {
		// Pending accounts activate through their invitation token.
		return nil, ErrInvalidStatus
	}

	target.LoginAttempts = 0
	target.BlockedUntil = nil
	return s.transition(ctx, actor, target, domain.StatusActive, domain.AuditUserReactivated, meta)
}

// ChangePassword sets a new password for the target account. Owners must
// prove the current password; superadmins changing another account skip that
// check.
func (s *UserService) ChangePassword(ctx context.Context, actor domain.User, targetID, currentPassword, newPassword string, meta domain.RequestMeta) error {
	if !domain.CanChangePassword(actor.ID, actor.Role, targetID) {
		return ErrForbidden
	}

	target, err := s.load(ctx, targetID)
	if err != nil {
		return err
	}

	if actor.ID == target.ID {
		ok, err := s.hasher.Verify(currentPassword, target.PasswordHash)
		if err != nil {
			return fmt.Errorf("verify current password: %w", err)
		}
		if !ok {
			return ErrInvalidCredentials
		}
	}

	if errs := s.passwords.Validate(newPassword); len(errs) > 0 {
		return weakPassword(errs)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	target.PasswordHash = hash
	target.UpdatedAt = now
	if err := s.users.Update(ctx, *target); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.audit.Record(ctx, &actor, domain.AuditPasswordChanged, target,
		map[string]any{"method": "change"}, meta)

	if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    target.ID,
		Email:     target.Email,
		Method:    "change",
		ChangedBy: actor.ID,
		ChangedAt: now,
	}); err != nil {
		logger.FromContext(ctx).Warn("publish password changed event", zap.Error(err))
	}
	return nil
}

// Stats returns system-wide account counts, superadmin only.
func (s *UserService) Stats(ctx context.Context, actor domain.User) (domain.SystemStats, error) {
	if !domain.CanManageAccounts(actor.Role) {
		return domain.SystemStats{}, ErrForbidden
	}
	return s.users.Stats(ctx)
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// requireAnotherActiveSuperadmin refuses operations that would leave the
// system without any active superadmin.
func (s *UserService) requireAnotherActiveSuperadmin(ctx context.Context, target *domain.User) error {
	count, err := s.users.Count(ctx, port.UserFilter{
		Role:   domain.RoleSuperadmin,
		Status: domain.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("count active superadmins: %w", err)
	}
	if target.Status == domain.StatusActive {
		count--
	}
	if count < 1 {
		return ErrLastSuperadmin
	}
	return nil
}

func (s *UserService) transition(ctx context.Context, actor domain.User, target *domain.User, to domain.AccountStatus, action domain.AuditAction, meta domain.RequestMeta) (*domain.User, error) {
	from := target.Status
	now := s.now().UTC()
	target.Status = to
	target.UpdatedAt = now
	if err := s.users.Update(ctx, *target); err != nil {
		return nil, fmt.Errorf("update user status: %w", err)
	}

	s.audit.Record(ctx, &actor, action, target,
		map[string]any{"from": from, "to": to}, meta)

	if err := s.events.PublishUserStatusChanged(ctx, domain.UserStatusChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    target.ID,
		Email:     target.Email,
		From:      from,
		To:        to,
		ChangedBy: actor.ID,
		ChangedAt: now,
	}); err != nil {
		logger.FromContext(ctx).Warn("publish status changed event", zap.Error(err))
	}
	return target, nil
}
