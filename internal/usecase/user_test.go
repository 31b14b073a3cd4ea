package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/core/port"
)

func newUserService(repo *stubUserRepo) (*UserService, *stubAuditRepo) {
	audits := &stubAuditRepo{}
	audit := NewAuditService(audits)
	return NewUserService(repo, testHasher(), testPasswords(), audit, &stubPublisher{}), audits
}

func seedUsers() (*stubUserRepo, domain.User, domain.User) {
	root := domain.User{ID: "root-1", Email: "root@example.com", Role: domain.RoleSuperadmin, Status: domain.StatusActive}
	op := domain.User{ID: "op-1", Email: "op@example.com", Role: domain.RoleOperator, Status: domain.StatusActive}
	return newStubUserRepo(root, op), root, op
}

func TestListRequiresAdminRole(t *testing.T) {
	repo, root, op := seedUsers()
	svc, _ := newUserService(repo)

	if _, _, err := svc.List(context.Background(), root, port.UserFilter{}); err != nil {
		t.Errorf("superadmin List() error = %v", err)
	}
	if _, _, err := svc.List(context.Background(), op, port.UserFilter{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("operator List() error = %v, want ErrForbidden", err)
	}
}

func TestGetSelfOrSuperadmin(t *testing.T) {
	repo, root, op := seedUsers()
	svc, _ := newUserService(repo)

	if _, err := svc.Get(context.Background(), op, op.ID); err != nil {
		t.Errorf("self Get() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), root, op.ID); err != nil {
		t.Errorf("superadmin Get() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), op, root.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("operator Get(other) error = %v, want ErrForbidden", err)
	}
}

func TestChangeRoleSelfEscalationRefused(t *testing.T) {
	repo, root, op := seedUsers()
	svc, _ := newUserService(repo)

	// Even a superadmin cannot re-grant themselves the role.
	if _, err := svc.ChangeRole(context.Background(), root, root.ID, domain.RoleSuperadmin, domain.RequestMeta{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("superadmin self-assign error = %v, want ErrForbidden", err)
	}
	if _, err := svc.ChangeRole(context.Background(), op, op.ID, domain.RoleSuperadmin, domain.RequestMeta{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("operator self-assign error = %v, want ErrForbidden", err)
	}
}

func TestChangeRolePromotesOther(t *testing.T) {
	repo, root, op := seedUsers()
	svc, audits := newUserService(repo)

	user, err := svc.ChangeRole(context.Background(), root, op.ID, domain.RoleAdmin, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("ChangeRole() error = %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want admin", user.Role)
	}

	actions := audits.actions()
	if len(actions) != 1 || actions[0] != domain.AuditRoleChanged {
		t.Errorf("audit actions = %v, want [role_changed]", actions)
	}
}

func TestDemoteLastSuperadminRefused(t *testing.T) {
	repo, root, _ := seedUsers()
	svc, _ := newUserService(repo)

	second := domain.User{ID: "root-2", Email: "root2@example.com", Role: domain.RoleSuperadmin, Status: domain.StatusActive}
	if err := repo.Create(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	// With two active superadmins the demotion goes through.
	if _, err := svc.ChangeRole(context.Background(), root, second.ID, domain.RoleAdmin, domain.RequestMeta{}); err != nil {
		t.Fatalf("demote with quorum error = %v", err)
	}

	// Now root is the last one; demoting them must be refused.
	if _, err := svc.ChangeRole(context.Background(), second, root.ID, domain.RoleAdmin, domain.RequestMeta{}); !errors.Is(err, ErrLastSuperadmin) {
		t.Fatalf("demote last superadmin error = %v, want ErrLastSuperadmin", err)
	}

	if _, err := svc.Deactivate(context.Background(), root, root.ID, domain.RequestMeta{}); !errors.Is(err, ErrLastSuperadmin) {
		t.Errorf("deactivate last superadmin error = %v, want ErrLastSuperadmin", err)
	}
}

func TestDeactivateAndReactivate(t *testing.T) {
	repo, root, op := seedUsers()
	svc, audits := newUserService(repo)

	ctx := context.Background()
	user, err := svc.Deactivate(ctx, root, op.ID, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if user.Status != domain.StatusDeactivated {
		t.Errorf("status = %s, want deactivated", user.Status)
	}

	user, err = svc.Reactivate(ctx, root, op.ID, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("Reactivate() error = %v", err)
	}
	if user.Status != domain.StatusActive {
		t.Errorf("status = %s, want active", user.Status)
	}

	actions := audits.actions()
	want := []domain.AuditAction{domain.AuditUserDeactivated, domain.AuditUserReactivated}
	if len(actions) != len(want) {
		t.Fatalf("audit actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("audit action %d = %s, want %s", i, actions[i], want[i])
		}
	}
}

func TestReactivatePendingRefused(t *testing.T) {
	repo, root, _ := seedUsers()
	svc, _ := newUserService(repo)

	pending := domain.User{ID: "p-1", Email: "p@example.com", Role: domain.RoleSupport, Status: domain.StatusPending}
	if err := repo.Create(context.Background(), pending); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Reactivate(context.Background(), root, pending.ID, domain.RequestMeta{}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Reactivate(pending) error = %v, want ErrInvalidStatus", err)
	}
}

func TestDeactivateRequiresSuperadmin(t *testing.T) {
	repo, _, op := seedUsers()
	svc, _ := newUserService(repo)

	admin := domain.User{ID: "a-1", Email: "a@example.com", Role: domain.RoleAdmin, Status: domain.StatusActive}
	if err := repo.Create(context.Background(), admin); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Deactivate(context.Background(), admin, op.ID, domain.RequestMeta{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("admin Deactivate() error = %v, want ErrForbidden", err)
	}
}

func TestChangePasswordSelfRequiresCurrent(t *testing.T) {
	hasher := testHasher()
	root := domain.User{ID: "root-1", Email: "root@example.com", Role: domain.RoleSuperadmin, Status: domain.StatusActive}
	op := domain.User{
		ID: "op-1", Email: "op@example.com", Role: domain.RoleOperator,
		Status: domain.StatusActive, PasswordHash: mustHash(hasher, "Valid123!"),
	}
	repo := newStubUserRepo(root, op)
	svc, _ := newUserService(repo)
	svc.hasher = hasher

	ctx := context.Background()
	if err := svc.ChangePassword(ctx, op, op.ID, "wrong", "Fresh456!", domain.RequestMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong current password error = %v, want ErrInvalidCredentials", err)
	}
	if err := svc.ChangePassword(ctx, op, op.ID, "Valid123!", "Fresh456!", domain.RequestMeta{}); err != nil {
		t.Errorf("self ChangePassword() error = %v", err)
	}

	// A superadmin changing another account skips the current-password check.
	if err := svc.ChangePassword(ctx, root, op.ID, "", "Other789!", domain.RequestMeta{}); err != nil {
		t.Errorf("superadmin ChangePassword() error = %v", err)
	}

	// Everyone else is refused.
	if err := svc.ChangePassword(ctx, op, root.ID, "", "Other789!", domain.RequestMeta{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("operator ChangePassword(other) error = %v, want ErrForbidden", err)
	}
}

func TestStatsRequiresSuperadmin(t *testing.T) {
	repo, root, op := seedUsers()
	svc, _ := newUserService(repo)

	stats, err := svc.Stats(context.Background(), root)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalUsers != 2 || stats.ActiveUsers != 2 || stats.Superadmins != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if _, err := svc.Stats(context.Background(), op); !errors.Is(err, ErrForbidden) {
		t.Errorf("operator Stats() error = %v, want ErrForbidden", err)
	}
}
