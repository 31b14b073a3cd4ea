package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
)

func newInvitationService(repo *stubUserRepo, mailer *stubMailer) (*InvitationService, *stubAuditRepo) {
	audits := &stubAuditRepo{}
	audit := NewAuditService(audits)
	return NewInvitationService(repo, testHasher(), testPasswords(), mailer, audit, &stubPublisher{}, testPolicy()), audits
}

func superadmin() domain.User {
	return domain.User{
		ID:     "admin-1",
		Email:  "root@example.com",
		Role:   domain.RoleSuperadmin,
		Status: domain.StatusActive,
	}
}

func TestInviteCreatesPendingAccount(t *testing.T) {
	repo := newStubUserRepo(superadmin())
	mailer := &stubMailer{}
	svc, audits := newInvitationService(repo, mailer)

	user, err := svc.Invite(context.Background(), superadmin(), "New@Example.com", domain.RoleOperator, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("Invite() error = %v", err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("email = %s, want lowercased", user.Email)
	}
	if user.Status != domain.StatusPending {
		t.Errorf("status = %s, want pending", user.Status)
	}
	if user.ActivationToken == nil || *user.ActivationToken == "" {
		t.Fatal("expected an activation token")
	}
	if user.PasswordHash != "" {
		t.Error("pending account must not carry a password")
	}
	if len(mailer.activations) != 1 {
		t.Errorf("activation mails = %d, want 1", len(mailer.activations))
	}

	actions := audits.actions()
	if len(actions) != 1 || actions[0] != domain.AuditUserInvited {
		t.Errorf("audit actions = %v, want [user_invited]", actions)
	}
}

func TestInviteDuplicateEmail(t *testing.T) {
	actor := superadmin()
	existing := domain.User{ID: "u2", Email: "taken@example.com", Role: domain.RoleSupport, Status: domain.StatusActive}
	repo := newStubUserRepo(actor, existing)
	svc, _ := newInvitationService(repo, &stubMailer{})

	_, err := svc.Invite(context.Background(), actor, "taken@example.com", domain.RoleOperator, domain.RequestMeta{})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Invite() error = %v, want ErrEmailTaken", err)
	}
}

func TestInviteRequiresSuperadmin(t *testing.T) {
	actor := superadmin()
	actor.Role = domain.RoleAdmin
	repo := newStubUserRepo(actor)
	svc, _ := newInvitationService(repo, &stubMailer{})

	_, err := svc.Invite(context.Background(), actor, "new@example.com", domain.RoleOperator, domain.RequestMeta{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Invite() error = %v, want ErrForbidden", err)
	}
}

func TestInviteRejectsUnknownRole(t *testing.T) {
	repo := newStubUserRepo(superadmin())
	svc, _ := newInvitationService(repo, &stubMailer{})

	_, err := svc.Invite(context.Background(), superadmin(), "new@example.com", "root", domain.RequestMeta{})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("Invite() error = %v, want ErrInvalidRole", err)
	}
}

func TestActivateSetsPasswordAndActivates(t *testing.T) {
	repo := newStubUserRepo(superadmin())
	mailer := &stubMailer{}
	svc, _ := newInvitationService(repo, mailer)

	invited, err := svc.Invite(context.Background(), superadmin(), "new@example.com", domain.RoleOperator, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("Invite() error = %v", err)
	}

	user, err := svc.Activate(context.Background(), mailer.lastToken, "Valid123!", domain.RequestMeta{})
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if user.Status != domain.StatusActive {
		t.Errorf("status = %s, want active", user.Status)
	}
	if user.ActivationToken != nil {
		t.Error("activation token must be cleared")
	}

	stored, _ := repo.GetByID(context.Background(), invited.ID)
	if stored.PasswordHash == "" {
		t.Error("expected a stored password hash")
	}
}

func TestActivateTokenIsSingleUse(t *testing.T) {
	repo := newStubUserRepo(superadmin())
	mailer := &stubMailer{}
	svc, _ := newInvitationService(repo, mailer)

	if _, err := svc.Invite(context.Background(), superadmin(), "new@example.com", domain.RoleOperator, domain.RequestMeta{}); err != nil {
		t.Fatalf("Invite() error = %v", err)
	}
	token := mailer.lastToken

	if _, err := svc.Activate(context.Background(), token, "Valid123!", domain.RequestMeta{}); err != nil {
		t.Fatalf("first Activate() error = %v", err)
	}
	if _, err := svc.Activate(context.Background(), token, "Other456!", domain.RequestMeta{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second Activate() error = %v, want ErrInvalidToken", err)
	}
}

func TestActivateExpiredToken(t *testing.T) {
	token := "expired-token"
	past := time.Now().Add(-time.Hour)
	pending := domain.User{
		ID:                "u1",
		Email:             "new@example.com",
		Role:              domain.RoleOperator,
		Status:            domain.StatusPending,
		ActivationToken:   &token,
		ActivationExpires: &past,
	}
	repo := newStubUserRepo(pending)
	svc, _ := newInvitationService(repo, &stubMailer{})

	_, err := svc.Activate(context.Background(), token, "Valid123!", domain.RequestMeta{})
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("Activate() error = %v, want ErrExpiredToken", err)
	}
}

func TestActivateEnforcesPasswordPolicy(t *testing.T) {
	repo := newStubUserRepo(superadmin())
	mailer := &stubMailer{}
	svc, _ := newInvitationService(repo, mailer)

	if _, err := svc.Invite(context.Background(), superadmin(), "new@example.com", domain.RoleOperator, domain.RequestMeta{}); err != nil {
		t.Fatalf("Invite() error = %v", err)
	}

	_, err := svc.Activate(context.Background(), mailer.lastToken, "short1!", domain.RequestMeta{})
	var weak *WeakPasswordError
	if !errors.As(err, &weak) {
		t.Fatalf("Activate() error = %v, want WeakPasswordError", err)
	}
	if len(weak.Reasons) == 0 {
		t.Error("expected at least one policy violation")
	}
}
