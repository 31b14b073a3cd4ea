package handlers

import (
	"time"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ActivateRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// UpdateUserRequest carries any subset of the mutable account fields; the
// handler applies each present field through its own guarded operation.
type UpdateUserRequest struct {
	Role            string `json:"role"`
	Status          string `json:"status"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserResponse is the public projection of an account. Password hashes and
// tokens never leave the service.
type UserResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	LoginAttempts int        `json:"login_attempts"`
	BlockedUntil  *time.Time `json:"blocked_until,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	InvitedBy     *string    `json:"invited_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          string(u.Role),
		Status:        string(u.Status),
		LoginAttempts: u.LoginAttempts,
		BlockedUntil:  u.BlockedUntil,
		LastLogin:     u.LastLogin,
		InvitedBy:     u.InvitedBy,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type LoginResponse struct {
	Token     string       `json:"token"`
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type MeResponse struct {
	User        UserResponse       `json:"user"`
	Permissions domain.Permissions `json:"permissions"`
}

type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

type StatsResponse struct {
	TotalUsers       int       `json:"total_users"`
	ActiveUsers      int       `json:"active_users"`
	PendingUsers     int       `json:"pending_users"`
	BlockedUsers     int       `json:"blocked_users"`
	DeactivatedUsers int       `json:"deactivated_users"`
	Superadmins      int       `json:"superadmins"`
	Admins           int       `json:"admins"`
	Operators        int       `json:"operators"`
	Support          int       `json:"support"`
	GeneratedAt      time.Time `json:"generated_at"`
}

type AuditEntryResponse struct {
	ID          string         `json:"id"`
	ActorID     *string        `json:"actor_id,omitempty"`
	ActorEmail  *string        `json:"actor_email,omitempty"`
	Action      string         `json:"action"`
	TargetID    *string        `json:"target_id,omitempty"`
	TargetEmail *string        `json:"target_email,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	IP          *string        `json:"ip,omitempty"`
	UserAgent   *string        `json:"user_agent,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type AuditListResponse struct {
	Entries    []AuditEntryResponse `json:"entries"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}

func toAuditListResponse(page *domain.AuditPage) AuditListResponse {
	entries := make([]AuditEntryResponse, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, AuditEntryResponse{
			ID:          e.ID,
			ActorID:     e.ActorID,
			ActorEmail:  e.ActorEmail,
			Action:      string(e.Action),
			TargetID:    e.TargetID,
			TargetEmail: e.TargetEmail,
			Details:     e.Details,
			IP:          e.IP,
			UserAgent:   e.UserAgent,
			CreatedAt:   e.CreatedAt,
		})
	}
	return AuditListResponse{
		Entries:    entries,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}
