package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/core/port"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/security"
	"github.com/bastianbaeza/JackdawSoft/internal/repository"
)

// stubUserRepo is an in-memory port.UserRepository with the same atomic
// semantics as the Postgres implementation.
type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo(users ...domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrConflict
		}
	}
	r.users[user.ID] = &user
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByActivationToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ActivationToken != nil && *u.ActivationToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = &user
	return nil
}

func (r *stubUserRepo) List(_ context.Context, filter port.UserFilter) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if matches(u, filter) {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (r *stubUserRepo) Count(_ context.Context, filter port.UserFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, u := range r.users {
		if matches(u, filter) {
			count++
		}
	}
	return count, nil
}

func matches(u *domain.User, filter port.UserFilter) bool {
	if filter.Status != "" && u.Status != filter.Status {
		return false
	}
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.Search != "" && !strings.Contains(u.Email, filter.Search) {
		return false
	}
	return true
}

func (r *stubUserRepo) Stats(_ context.Context) (domain.SystemStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := domain.SystemStats{GeneratedAt: time.Now()}
	for _, u := range r.users {
		stats.TotalUsers++
		switch u.Status {
		case domain.StatusActive:
			stats.ActiveUsers++
		case domain.StatusPending:
			stats.PendingUsers++
		case domain.StatusBlocked:
			stats.BlockedUsers++
		case domain.StatusDeactivated:
			stats.DeactivatedUsers++
		}
		switch u.Role {
		case domain.RoleSuperadmin:
			stats.Superadmins++
		case domain.RoleAdmin:
			stats.Admins++
		case domain.RoleOperator:
			stats.Operators++
		case domain.RoleSupport:
			stats.Support++
		}
	}
	return stats, nil
}

func (r *stubUserRepo) RecordFailedLogin(_ context.Context, id string, update port.LockoutUpdate) (port.FailedLoginResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return port.FailedLoginResult{}, repository.ErrNotFound
	}
	u.LoginAttempts++
	if u.LoginAttempts >= update.Threshold {
		u.Status = domain.StatusBlocked
		until := update.BlockUntil
		u.BlockedUntil = &until
	}
	return port.FailedLoginResult{
		Attempts: u.LoginAttempts,
		Blocked:  u.Status == domain.StatusBlocked,
	}, nil
}

func (r *stubUserRepo) RecordSuccessfulLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LoginAttempts = 0
	u.BlockedUntil = nil
	u.LastLogin = &at
	u.UpdatedAt = at
	return nil
}

func (r *stubUserRepo) ConsumeActivationToken(_ context.Context, id, token, passwordHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.ActivationToken == nil || *u.ActivationToken != token {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.Status = domain.StatusActive
	u.ActivationToken = nil
	u.ActivationExpires = nil
	u.LoginAttempts = 0
	u.BlockedUntil = nil
	u.UpdatedAt = at
	return nil
}

func (r *stubUserRepo) ConsumeResetToken(_ context.Context, id, token, passwordHash string, reactivate bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != token {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetExpires = nil
	u.LoginAttempts = 0
	u.BlockedUntil = nil
	if reactivate {
		u.Status = domain.StatusActive
	}
	u.UpdatedAt = at
	return nil
}

// stubAuditRepo collects audit entries for assertions.
type stubAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
}

func (r *stubAuditRepo) Create(_ context.Context, entry domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, filter domain.AuditFilter, page, limit int) (*domain.AuditPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.AuditPage{
		Entries: append([]domain.AuditLogEntry(nil), r.entries...),
		Total:   len(r.entries),
		Page:    page,
		Limit:   limit,
	}, nil
}

func (r *stubAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// stubMailer records outgoing mail.
type stubMailer struct {
	mu          sync.Mutex
	activations []string
	resets      []string
	lastToken   string
}

func (m *stubMailer) SendActivation(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activations = append(m.activations, email)
	m.lastToken = token
	return nil
}

func (m *stubMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, email)
	m.lastToken = token
	return nil
}

// stubPublisher counts published events.
type stubPublisher struct {
	mu      sync.Mutex
	blocked int
	logins  int
}

func (p *stubPublisher) PublishUserInvited(context.Context, domain.UserInvitedEvent) error {
	return nil
}
func (p *stubPublisher) PublishUserActivated(context.Context, domain.UserActivatedEvent) error {
	return nil
}
func (p *stubPublisher) PublishUserBlocked(context.Context, domain.UserBlockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked++
	return nil
}
func (p *stubPublisher) PublishUserStatusChanged(context.Context, domain.UserStatusChangedEvent) error {
	return nil
}
func (p *stubPublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	return nil
}
func (p *stubPublisher) PublishLogin(context.Context, domain.LoginEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins++
	return nil
}

func testHasher() *security.Hasher {
	return security.NewHasher(config.Argon2Settings{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func testPolicy() config.SecuritySettings {
	return config.SecuritySettings{
		MaxLoginAttempts: 5,
		LockDuration:     30 * time.Minute,
		ActivationTTL:    48 * time.Hour,
		ResetTTL:         time.Hour,
		Password: config.PasswordSettings{
			MinLength:      8,
			RequireUpper:   true,
			RequireLower:   true,
			RequireDigit:   true,
			RequireSpecial: true,
		},
	}
}

func testPasswords() *security.PasswordPolicy {
	return security.PolicyFromConfig(testPolicy().Password)
}

func mustHash(h *security.Hasher, password string) string {
	hash, err := h.Hash(password)
	if err != nil {
		panic(err)
	}
	return hash
}
