package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/core/port"
	"github.com/bastianbaeza/JackdawSoft/internal/transport/http/middleware"
	"github.com/bastianbaeza/JackdawSoft/internal/usecase"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// UserHandler serves the administrative user directory and the audit trail.
type UserHandler struct {
	users *usecase.UserService
	audit *usecase.AuditService
}

func NewUserHandler(users *usecase.UserService, audit *usecase.AuditService) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

// List returns a filtered, paged slice of the user directory.
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	page, limit := pagination(c)
	filter := port.UserFilter{
		Status: domain.AccountStatus(c.Query("status")),
		Role:   domain.Role(c.Query("role")),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	users, total, err := h.users.List(c.Request.Context(), *actor, filter)
	if err != nil {
		RespondWithMappedError(c, err, caseForbidden, caseInvalidRole, caseInvalidStatus)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, UserListResponse{
		Users:      out,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	})
}

// Get returns one account, visible to its owner or a superadmin.
func (h *UserHandler) Get(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := h.users.Get(c.Request.Context(), *actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, caseForbidden, caseUserNotFound)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*user))
}

// Update applies role, status and password changes, each through its own
// guarded operation.
func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Role == "" && req.Status == "" && req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	ctx := c.Request.Context()
	targetID := c.Param("id")
	meta := requestMeta(c)

	var (
		user *domain.User
		err  error
	)

	if req.Role != "" {
		user, err = h.users.ChangeRole(ctx, *actor, targetID, domain.Role(req.Role), meta)
		if err != nil {
			RespondWithMappedError(c, err,
				caseForbidden, caseUserNotFound, caseInvalidRole, caseLastSuperadmin)
			return
		}
	}

	if req.Status != "" {
		user, err = h.users.ChangeStatus(ctx, *actor, targetID, domain.AccountStatus(req.Status), meta)
		if err != nil {
			RespondWithMappedError(c, err,
				caseForbidden, caseUserNotFound, caseInvalidStatus, caseLastSuperadmin)
			return
		}
	}

	if req.NewPassword != "" {
		err = h.users.ChangePassword(ctx, *actor, targetID, req.CurrentPassword, req.NewPassword, meta)
		if err != nil {
			RespondWithMappedError(c, err,
				caseForbidden, caseUserNotFound,
				ErrorCase{Err: usecase.ErrInvalidCredentials, Status: http.StatusBadRequest,
					Message: "current password is incorrect"})
			return
		}
		if user == nil {
			user, err = h.users.Get(ctx, *actor, targetID)
			if err != nil {
				RespondWithMappedError(c, err, caseForbidden, caseUserNotFound)
				return
			}
		}
	}

	c.JSON(http.StatusOK, toUserResponse(*user))
}

// Deactivate performs the logical delete behind DELETE /users/:id.
func (h *UserHandler) Deactivate(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := h.users.Deactivate(c.Request.Context(), *actor, c.Param("id"), requestMeta(c))
	if err != nil {
		RespondWithMappedError(c, err, caseForbidden, caseUserNotFound, caseLastSuperadmin)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "user deactivated",
		"user":    toUserResponse(*user),
	})
}

// Reactivate restores a deactivated or blocked account.
func (h *UserHandler) Reactivate(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := h.users.Reactivate(c.Request.Context(), *actor, c.Param("id"), requestMeta(c))
	if err != nil {
		RespondWithMappedError(c, err, caseForbidden, caseUserNotFound, caseInvalidStatus)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "user reactivated",
		"user":    toUserResponse(*user),
	})
}

// AuditLogs returns a filtered page of the audit trail.
func (h *UserHandler) AuditLogs(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	filter := domain.AuditFilter{
		ActorID:  c.Query("actor_id"),
		TargetID: c.Query("target_id"),
		Action:   domain.AuditAction(c.Query("action")),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("date_from")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("date_to")); err == nil {
		filter.DateTo = &to
	}

	page, limit := pagination(c)
	result, err := h.audit.List(c.Request.Context(), *actor, filter, page, limit)
	if err != nil {
		RespondWithMappedError(c, err, caseForbidden)
		return
	}
	c.JSON(http.StatusOK, toAuditListResponse(result))
}

// Stats returns system-wide account counts.
func (h *UserHandler) Stats(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	stats, err := h.users.Stats(c.Request.Context(), *actor)
	if err != nil {
		RespondWithMappedError(c, err, caseForbidden)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{
		TotalUsers:       stats.TotalUsers,
		ActiveUsers:      stats.ActiveUsers,
		PendingUsers:     stats.PendingUsers,
		BlockedUsers:     stats.BlockedUsers,
		DeactivatedUsers: stats.DeactivatedUsers,
		Superadmins:      stats.Superadmins,
		Admins:           stats.Admins,
		Operators:        stats.Operators,
		Support:          stats.Support,
		GeneratedAt:      stats.GeneratedAt,
	})
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return page, limit
}
