package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
)

const auditTable = "audit_logs"

var auditColumns = []string{
	"id", "actor_id", "actor_email", "action",
	"target_id", "target_email", "details",
	"ip_address", "user_agent", "created_at",
}

// AuditRepo persists the append-only audit trail.
type AuditRepo struct {
	db pgExecutor
}

func NewAuditRepo(db pgExecutor) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Create(ctx context.Context, entry domain.AuditLogEntry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	query, args, err := psql.Insert(auditTable).
		Columns(auditColumns...).
		Values(
			entry.ID, entry.ActorID, entry.ActorEmail, entry.Action,
			entry.TargetID, entry.TargetEmail, details,
			entry.IP, entry.UserAgent, entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit entry: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter, page, limit int) (*domain.AuditPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	conj := auditConjunction(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From(auditTable).
		Where(conj).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count audit entries: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	query, args, err := psql.Select(auditColumns...).
		From(auditTable).
		Where(conj).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit entries: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditLogEntry, 0, limit)
	for rows.Next() {
		var (
			entry   domain.AuditLogEntry
			details []byte
		)
		err := rows.Scan(
			&entry.ID, &entry.ActorID, &entry.ActorEmail, &entry.Action,
			&entry.TargetID, &entry.TargetEmail, &details,
			&entry.IP, &entry.UserAgent, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	totalPages := (total + limit - 1) / limit
	return &domain.AuditPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func auditConjunction(filter domain.AuditFilter) sq.And {
	conj := sq.And{}
	if filter.ActorID != "" {
		conj = append(conj, sq.Eq{"actor_id": filter.ActorID})
	}
	if filter.TargetID != "" {
		conj = append(conj, sq.Eq{"target_id": filter.TargetID})
	}
	if filter.Action != "" {
		conj = append(conj, sq.Eq{"action": filter.Action})
	}
	if filter.DateFrom != nil {
		conj = append(conj, sq.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		conj = append(conj, sq.LtOrEq{"created_at": *filter.DateTo})
	}
	if len(conj) == 0 {
		conj = append(conj, sq.Expr("TRUE"))
	}
	return conj
}
