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
	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/security"
	"github.com/bastianbaeza/JackdawSoft/internal/repository"
)

// EnsureDefaultSuperadmin creates the bootstrap superadmin at startup when no
// account with the configured email exists. Without it a fresh deployment has
// no way to sign in.
func EnsureDefaultSuperadmin(ctx context.Context, users port.UserRepository, hasher *security.Hasher, audit *AuditService, cfg config.BootstrapSettings) error {
	_, err := users.GetByEmail(ctx, cfg.SuperadminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check bootstrap superadmin: %w", err)
	}

	hash, err := hasher.Hash(cfg.SuperadminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        cfg.SuperadminEmail,
		PasswordHash: hash,
		Role:         domain.RoleSuperadmin,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, user); err != nil {
		// Another replica may have won the race.
		if errors.Is(err, repository.ErrConflict) {
			return nil
		}
		return fmt.Errorf("create bootstrap superadmin: %w", err)
	}

	audit.Record(ctx, nil, domain.AuditUserCreated, &user,
		map[string]any{"bootstrap": true}, domain.RequestMeta{})

	logger.L().Info("bootstrap superadmin created",
		zap.String("email", logger.MaskEmail(cfg.SuperadminEmail)))
	return nil
}
