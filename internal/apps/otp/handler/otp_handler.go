package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"inventory-backend/internal/apps/otp/models"
	"inventory-backend/internal/apps/otp/service"
	"inventory-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// EmailOTPHandler handles HTTP endpoints for Email OTP
type EmailOTPHandler struct {
	verifier service.Verifier
	log      *slog.Logger
}

// NewEmailOTPHandler creates a new instance of EmailOTPHandler
func NewEmailOTPHandler(verifier service.Verifier, log *slog.Logger) *EmailOTPHandler {
	return &EmailOTPHandler{verifier: verifier, log: log}
}

// CreateOrUpdateOTP handles POST /api/v1/otp/email
func (h *EmailOTPHandler) CreateOrUpdateOTP(c *gin.Context) {
	var req models.CreateEmailOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.verifier.Issue(c.Request.Context(), utils.NormalizeEmail(req.Email))
	if err != nil {
		h.log.Error("otp_issue_failed", slog.String("reason", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue otp"})
		return
	}

	resp := models.EmailOTPResponse{ExpiresAt: entry.ExpiresAt(h.verifier.Window()).UTC()}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// VerifyOTP handles POST /api/v1/otp/email/verify. A matching code is
// consumed, so it can no longer be used to register; clients that register
// should send the code to /users/register directly. Unknown, expired and
// mismatched codes all answer 200 with valid=false and a reason message.
func (h *EmailOTPHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyEmailOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.verifier.Check(c.Request.Context(), utils.NormalizeEmail(req.Email), strings.TrimSpace(req.Value))
	if err != nil {
		h.log.Error("otp_verify_failed", slog.String("reason", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify otp"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": models.VerifyEmailOTPResponse{
		Valid:   outcome == models.OutcomeSuccess,
		Message: outcome.Message(),
	}})
}
