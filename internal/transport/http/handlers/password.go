package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bastianbaeza/JackdawSoft/internal/usecase"
)

// PasswordHandler serves the forgotten-password flow.
type PasswordHandler struct {
	resets *usecase.PasswordResetService
}

func NewPasswordHandler(resets *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{resets: resets}
}

// RequestReset always answers with the same message so the endpoint cannot
// be used to probe for registered addresses.
func (h *PasswordHandler) RequestReset(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	if err := h.resets.RequestReset(c.Request.Context(), req.Email, requestMeta(c)); err != nil {
		RespondWithMappedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "if the address is registered, a reset link has been sent",
	})
}

// ValidateToken lets the reset form check a token before showing the
// password fields.
func (h *PasswordHandler) ValidateToken(c *gin.Context) {
	if err := h.resets.ValidateToken(c.Request.Context(), c.Param("token")); err != nil {
		RespondWithMappedError(c, err, caseInvalidToken, caseExpiredToken)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// Reset consumes the token and stores the new password.
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password and confirmation are required"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	if err := h.resets.Reset(c.Request.Context(), c.Param("token"), req.Password, requestMeta(c)); err != nil {
		RespondWithMappedError(c, err, caseInvalidToken, caseExpiredToken)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated, you can now sign in"})
}
