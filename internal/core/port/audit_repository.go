package port

import (
	"context"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
)

// AuditRepository exposes the append-only audit trail. Entries are never
// mutated or deleted by the service.
type AuditRepository interface {
	Create(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter domain.AuditFilter, page, limit int) (*domain.AuditPage, error)
}
