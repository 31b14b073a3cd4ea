package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/core/port"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
)

// AuditService records and serves the audit trail. Writes are best-effort:
// an audit insert failure is logged but never fails the business operation
// it annotates.
type AuditService struct {
	audits port.AuditRepository
	now    func() time.Time
}

func NewAuditService(audits port.AuditRepository) *AuditService {
	return &AuditService{audits: audits, now: time.Now}
}

// Record appends an audit entry. Actor and target may be nil for system
// actions such as bootstrap or automatic lockout.
func (s *AuditService) Record(ctx context.Context, actor *domain.User, action domain.AuditAction, target *domain.User, details map[string]any, meta domain.RequestMeta) {
	entry := domain.AuditLogEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Details:   details,
		CreatedAt: s.now().UTC(),
	}
	if actor != nil {
		entry.ActorID = &actor.ID
		entry.ActorEmail = &actor.Email
	}
	if target != nil {
		entry.TargetID = &target.ID
		entry.TargetEmail = &target.Email
	}
	if meta.IP != "" {
		entry.IP = &meta.IP
	}
	if meta.UserAgent != "" {
		entry.UserAgent = &meta.UserAgent
	}

	if err := s.audits.Create(ctx, entry); err != nil {
		logger.FromContext(ctx).Warn("audit write failed",
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

// List returns a page of audit entries, newest first. Restricted to
// superadmin and admin.
func (s *AuditService) List(ctx context.Context, actor domain.User, filter domain.AuditFilter, page, limit int) (*domain.AuditPage, error) {
	if !domain.CanViewAuditLogs(actor.Role) {
		return nil, ErrForbidden
	}
	return s.audits.List(ctx, filter, page, limit)
}
