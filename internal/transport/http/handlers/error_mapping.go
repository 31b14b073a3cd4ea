package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
	"github.com/bastianbaeza/JackdawSoft/internal/usecase"
)

// ErrorCase pairs a sentinel error with the HTTP status and message the
// client should see.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError writes the first matching case; unmatched errors
// become an opaque 500 and get logged with their cause.
func RespondWithMappedError(c *gin.Context, err error, cases ...ErrorCase) {
	var weak *usecase.WeakPasswordError
	if errors.As(err, &weak) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "password does not meet the security policy",
			"details": weak.Reasons,
		})
		return
	}

	for _, ec := range cases {
		if errors.Is(err, ec.Err) {
			c.JSON(ec.Status, gin.H{"error": ec.Message})
			return
		}
	}

	logger.FromContext(c.Request.Context()).Error("unhandled request error",
		zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// common cases shared across handlers
var (
	caseForbidden = ErrorCase{
		Err: usecase.ErrForbidden, Status: http.StatusForbidden,
		Message: "insufficient permissions",
	}
	caseUserNotFound = ErrorCase{
		Err: usecase.ErrUserNotFound, Status: http.StatusNotFound,
		Message: "user not found",
	}
	caseInvalidRole = ErrorCase{
		Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest,
		Message: "invalid role",
	}
	caseInvalidStatus = ErrorCase{
		Err: usecase.ErrInvalidStatus, Status: http.StatusBadRequest,
		Message: "invalid status",
	}
	caseLastSuperadmin = ErrorCase{
		Err: usecase.ErrLastSuperadmin, Status: http.StatusConflict,
		Message: "cannot remove the last active superadmin",
	}
	caseInvalidToken = ErrorCase{
		Err: usecase.ErrInvalidToken, Status: http.StatusBadRequest,
		Message: "invalid or already used token",
	}
	caseExpiredToken = ErrorCase{
		Err: usecase.ErrExpiredToken, Status: http.StatusBadRequest,
		Message: "token has expired",
	}
	caseEmailTaken = ErrorCase{
		Err: usecase.ErrEmailTaken, Status: http.StatusConflict,
		Message: "email already registered",
	}
)
