package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/core/port"
	"github.com/bastianbaeza/JackdawSoft/internal/repository"
)

const usersTable = "users"

var userColumns = []string{
	"id", "email", "password_hash", "role", "status",
	"activation_token", "activation_expires",
	"reset_token", "reset_expires",
	"login_attempts", "blocked_until", "last_login", "invited_by",
	"created_at", "updated_at",
}

// UserRepo persists user accounts in Postgres.
type UserRepo struct {
	db pgExecutor
}

func NewUserRepo(db pgExecutor) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user domain.User) error {
	query, args, err := psql.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID, user.Email, user.PasswordHash, user.Role, user.Status,
			user.ActivationToken, user.ActivationExpires,
			user.ResetToken, user.ResetExpires,
			user.LoginAttempts, user.BlockedUntil, user.LastLogin, user.InvitedBy,
			user.CreatedAt, user.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, sq.Eq{"id": id})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, sq.Eq{"email": email})
}

func (r *UserRepo) GetByActivationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getBy(ctx, sq.Eq{"activation_token": token})
}

func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getBy(ctx, sq.Eq{"reset_token": token})
}

func (r *UserRepo) getBy(ctx context.Context, pred sq.Eq) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).
		From(usersTable).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user: %w", err)
	}

	row := r.db.QueryRow(ctx, query, args...)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) Update(ctx context.Context, user domain.User) error {
	query, args, err := psql.Update(usersTable).
		Set("email", user.Email).
		Set("password_hash", user.PasswordHash).
		Set("role", user.Role).
		Set("status", user.Status).
		Set("activation_token", user.ActivationToken).
		Set("activation_expires", user.ActivationExpires).
		Set("reset_token", user.ResetToken).
		Set("reset_expires", user.ResetExpires).
		Set("login_attempts", user.LoginAttempts).
		Set("blocked_until", user.BlockedUntil).
		Set("last_login", user.LastLogin).
		Set("updated_at", user.UpdatedAt).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, filter port.UserFilter) ([]domain.User, int, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	builder := psql.Select(userColumns...).
		From(usersTable).
		Where(filterConjunction(filter)).
		OrderBy("created_at DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepo) Count(ctx context.Context, filter port.UserFilter) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From(usersTable).
		Where(filterConjunction(filter)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count users: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func (r *UserRepo) Stats(ctx context.Context) (domain.SystemStats, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'active'),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'blocked'),
		COUNT(*) FILTER (WHERE status = 'deactivated'),
		COUNT(*) FILTER (WHERE role = 'superadmin'),
		COUNT(*) FILTER (WHERE role = 'admin'),
		COUNT(*) FILTER (WHERE role = 'operator'),
		COUNT(*) FILTER (WHERE role = 'support')
	FROM users`

	var stats domain.SystemStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.PendingUsers,
		&stats.BlockedUsers,
		&stats.DeactivatedUsers,
		&stats.Superadmins,
		&stats.Admins,
		&stats.Operators,
		&stats.Support,
	)
	if err != nil {
		return domain.SystemStats{}, fmt.Errorf("select stats: %w", err)
	}
	stats.GeneratedAt = time.Now().UTC()
	return stats, nil
}

// RecordFailedLogin increments the attempt counter and applies the lockout
// transition in one statement, so concurrent failures cannot lose updates.
func (r *UserRepo) RecordFailedLogin(ctx context.Context, id string, update port.LockoutUpdate) (port.FailedLoginResult, error) {
	query := `UPDATE users SET
		login_attempts = login_attempts + 1,
		status = CASE WHEN login_attempts + 1 >= $2 THEN 'blocked' ELSE status END,
		blocked_until = CASE WHEN login_attempts + 1 >= $2 THEN $3 ELSE blocked_until END,
		updated_at = NOW()
	WHERE id = $1
	RETURNING login_attempts, status`

	var (
		attempts int
		status   string
	)
	err := r.db.QueryRow(ctx, query, id, update.Threshold, update.BlockUntil).
		Scan(&attempts, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return port.FailedLoginResult{}, repository.ErrNotFound
		}
		return port.FailedLoginResult{}, fmt.Errorf("record failed login: %w", err)
	}
	return port.FailedLoginResult{
		Attempts: attempts,
		Blocked:  status == string(domain.StatusBlocked),
	}, nil
}

// RecordSuccessfulLogin clears lockout state and stamps the login timestamp.
func (r *UserRepo) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET
		login_attempts = 0,
		blocked_until = NULL,
		last_login = $2,
		updated_at = $2
	WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ConsumeActivationToken conditions the update on the token still matching,
// so a second concurrent activation affects zero rows.
func (r *UserRepo) ConsumeActivationToken(ctx context.Context, id, token, passwordHash string, at time.Time) error {
	query, args, err := psql.Update(usersTable).
		Set("password_hash", passwordHash).
		Set("status", domain.StatusActive).
		Set("activation_token", nil).
		Set("activation_expires", nil).
		Set("login_attempts", 0).
		Set("blocked_until", nil).
		Set("updated_at", at).
		Where(sq.Eq{"id": id, "activation_token": token}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume activation token: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("consume activation token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ConsumeResetToken stores the new hash and clears lockout state in one
// conditional statement. When reactivate is set, a blocked account returns to
// active as part of the same update.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, id, token, passwordHash string, reactivate bool, at time.Time) error {
	builder := psql.Update(usersTable).
		Set("password_hash", passwordHash).
		Set("reset_token", nil).
		Set("reset_expires", nil).
		Set("login_attempts", 0).
		Set("blocked_until", nil).
		Set("updated_at", at).
		Where(sq.Eq{"id": id, "reset_token": token})
	if reactivate {
		builder = builder.Set("status", domain.StatusActive)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build consume reset token: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func filterConjunction(filter port.UserFilter) sq.And {
	conj := sq.And{}
	if filter.Status != "" {
		conj = append(conj, sq.Eq{"status": filter.Status})
	}
	if filter.Role != "" {
		conj = append(conj, sq.Eq{"role": filter.Role})
	}
	if filter.Search != "" {
		conj = append(conj, sq.ILike{"email": "%" + filter.Search + "%"})
	}
	if len(conj) == 0 {
		conj = append(conj, sq.Expr("TRUE"))
	}
	return conj
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&u.ActivationToken, &u.ActivationExpires,
		&u.ResetToken, &u.ResetExpires,
		&u.LoginAttempts, &u.BlockedUntil, &u.LastLogin, &u.InvitedBy,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
