package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/transport/http/middleware"
	"github.com/bastianbaeza/JackdawSoft/internal/usecase"
)

// AuthHandler serves login, activation, invitations and session endpoints.
type AuthHandler struct {
	auth          *usecase.AuthService
	invitations   *usecase.InvitationService
	cookieName    string
	cookieTTL     time.Duration
	secureCookies bool
	serviceName   string
}

func NewAuthHandler(
	auth *usecase.AuthService,
	invitations *usecase.InvitationService,
	cookieName string,
	cookieTTL time.Duration,
	secureCookies bool,
	serviceName string,
) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		invitations:   invitations,
		cookieName:    cookieName,
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
		serviceName:   serviceName,
	}
}

func requestMeta(c *gin.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// Login verifies credentials, sets the session cookie and returns the token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		h.respondLoginError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		User:      toUserResponse(result.User),
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *AuthHandler) respondLoginError(c *gin.Context, err error) {
	var authErr *usecase.AuthenticationError
	if errors.As(err, &authErr) {
		switch {
		case errors.Is(authErr.Err, usecase.ErrAccountLocked):
			c.JSON(http.StatusLocked, gin.H{
				"error":               "account temporarily locked due to failed login attempts",
				"retry_after_minutes": authErr.RetryAfterMinutes,
			})
		case errors.Is(authErr.Err, usecase.ErrAccountNotActive):
			msg := "account is not active"
			switch authErr.Status {
			case "pending":
				msg = "account is pending activation, check your invitation email"
			case "deactivated":
				msg = "account has been deactivated, contact an administrator"
			case "blocked":
				msg = "account is blocked, reset your password or contact an administrator"
			}
			c.JSON(http.StatusForbidden, gin.H{"error": msg})
		default:
			body := gin.H{"error": "invalid email or password"}
			if authErr.RemainingAttempts > 0 {
				body["remaining_attempts"] = authErr.RemainingAttempts
			}
			c.JSON(http.StatusBadRequest, body)
		}
		return
	}
	RespondWithMappedError(c, err)
}

// Activate redeems an invitation token and sets the first password.
func (h *AuthHandler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password and confirmation are required"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	user, err := h.invitations.Activate(c.Request.Context(), c.Param("token"), req.Password, requestMeta(c))
	if err != nil {
		RespondWithMappedError(c, err, caseInvalidToken, caseExpiredToken)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "account activated, you can now sign in",
		"user":    toUserResponse(*user),
	})
}

// Invite creates a pending account and emails the activation link.
func (h *AuthHandler) Invite(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}
	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleOperator
	}

	user, err := h.invitations.Invite(c.Request.Context(), *actor, req.Email, role, requestMeta(c))
	if err != nil {
		RespondWithMappedError(c, err, caseForbidden, caseInvalidRole, caseEmailTaken)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "invitation sent",
		"user":    toUserResponse(*user),
	})
}

// Logout clears the session cookie and records the action.
func (h *AuthHandler) Logout(c *gin.Context) {
	if actor, ok := middleware.CurrentUser(c); ok {
		h.auth.Logout(c.Request.Context(), *actor, requestMeta(c))
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated account with its derived permission flags.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, MeResponse{
		User:        toUserResponse(*actor),
		Permissions: domain.PermissionsForRole(actor.Role),
	})
}

// Status is the public service status endpoint.
func (h *AuthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   h.serviceName,
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, token, int(h.cookieTTL.Seconds()), "/", "", h.secureCookies, true)
}
