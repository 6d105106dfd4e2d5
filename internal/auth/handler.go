package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/metrics"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/queue"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/storage"
	"github.com/campus-clubs/backend/pkg/utils"
)

const (
	resetTTL          = time.Hour
	minPasswordLength = 6

	msgBadCredentials = "Invalid email or password"
	msgResetSent      = "If email exists, reset link sent"
)

// Store is the credential persistence used by Handler.
type Store interface {
	GetMemberForLogin(ctx context.Context, email string, clubID int64) (*models.Member, error)
	GetAuthorityByEmail(ctx context.Context, email string) (*models.Authority, error)
	TouchAuthorityLogin(ctx context.Context, id int64) error
	GetMemberPassword(ctx context.Context, memberID int64) (string, error)
	SetMemberPassword(ctx context.Context, memberID int64, hash string) error
	FindMemberName(ctx context.Context, email string) (string, error)
	SaveResetToken(ctx context.Context, email, digest string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, digest, passwordHash string) (string, error)
}

// MemberLoginRequest is the body for POST /login.
type MemberLoginRequest struct {
	Email    string      `json:"email" binding:"omitempty,email"`
	Password string      `json:"password"`
	ClubID   json.Number `json:"clubId"`
}

// AuthorityLoginRequest is the body for POST /authority/login.
type AuthorityLoginRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

// ResetRequest is the body for POST /auth/request-reset.
type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// UpdatePasswordRequest is the body for POST /users/update-password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// Handler handles login and password HTTP endpoints.
type Handler struct {
	store    Store
	jwt      *JWTService
	files    storage.URLResolver
	jobs     queue.Enqueuer
	resetURL string
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates an auth handler. files and jobs may be nil.
func NewHandler(store Store, jwt *JWTService, files storage.URLResolver, jobs queue.Enqueuer, resetURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, jwt: jwt, files: files, jobs: jobs, resetURL: resetURL, logger: logger, now: time.Now}
}

func (h *Handler) photoURL(key string) string {
	if h.files == nil || key == "" {
		return ""
	}
	return h.files.URL(key)
}

// MemberLogin handles POST /login and POST /club_members/login.
func (h *Handler) MemberLogin(c *gin.Context) {
	var req MemberLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Please provide a valid email address.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		response.BadRequest(c, "Email and password are required.")
		return
	}
	clubID, ok := utils.NumberID(req.ClubID)
	if !ok {
		response.BadRequest(c, "Please select a club.")
		return
	}

	ctx := c.Request.Context()
	m, err := h.store.GetMemberForLogin(ctx, req.Email, clubID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("member login lookup", zap.Error(err), zap.Int64("club_id", clubID))
			response.Internal(c)
			return
		}
		utils.CheckPassword(req.Password, utils.AbsentAccountHash)
		metrics.LoginAttempts.WithLabelValues(string(access.KindMember), "rejected").Inc()
		response.Unauthorized(c, msgBadCredentials)
		return
	}
	if !utils.CheckPassword(req.Password, m.Password) {
		metrics.LoginAttempts.WithLabelValues(string(access.KindMember), "rejected").Inc()
		response.Unauthorized(c, msgBadCredentials)
		return
	}

	token, err := h.jwt.Generate(access.Principal{ID: m.ID, Email: m.Email, Role: m.Role, ClubID: m.ClubID, Kind: access.KindMember})
	if err != nil {
		h.logger.Error("sign token", zap.Error(err))
		response.Internal(c)
		return
	}
	metrics.LoginAttempts.WithLabelValues(string(access.KindMember), "ok").Inc()
	m.Photo = h.photoURL(m.PhotoKey)
	response.OKWithMessage(c, "Login successful", gin.H{"user": m, "token": token})
}

// AuthorityLogin handles POST /authority/login.
func (h *Handler) AuthorityLogin(c *gin.Context) {
	var req AuthorityLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Please provide a valid email address.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		response.BadRequest(c, "Email and password are required.")
		return
	}

	ctx := c.Request.Context()
	a, err := h.store.GetAuthorityByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("authority login lookup", zap.Error(err))
			response.Internal(c)
			return
		}
		utils.CheckPassword(req.Password, utils.AbsentAccountHash)
		metrics.LoginAttempts.WithLabelValues(string(access.KindAuthority), "rejected").Inc()
		response.Unauthorized(c, msgBadCredentials)
		return
	}
	if !utils.CheckPassword(req.Password, a.Password) {
		metrics.LoginAttempts.WithLabelValues(string(access.KindAuthority), "rejected").Inc()
		response.Unauthorized(c, msgBadCredentials)
		return
	}
	if err := h.store.TouchAuthorityLogin(ctx, a.ID); err != nil {
		h.logger.Warn("update last_login", zap.Error(err), zap.Int64("authority_id", a.ID))
	}

	token, err := h.jwt.Generate(access.Principal{ID: a.ID, Email: a.Email, Role: models.RoleAuthority, Kind: access.KindAuthority})
	if err != nil {
		h.logger.Error("sign token", zap.Error(err))
		response.Internal(c)
		return
	}
	metrics.LoginAttempts.WithLabelValues(string(access.KindAuthority), "ok").Inc()
	a.Photo = h.photoURL(a.PhotoKey)
	response.OKWithMessage(c, "Login successful", gin.H{"user": a, "token": token})
}

// RequestReset handles POST /auth/request-reset. The reply never reveals whether the email exists.
func (h *Handler) RequestReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "A valid email is required")
		return
	}
	ctx := c.Request.Context()
	email := strings.TrimSpace(req.Email)

	name, err := h.store.FindMemberName(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("reset lookup", zap.Error(err))
		}
		response.Message(c, msgResetSent)
		return
	}

	token, digest, err := utils.NewResetToken()
	if err != nil {
		h.logger.Error("generate reset token", zap.Error(err))
		response.Internal(c)
		return
	}
	if err := h.store.SaveResetToken(ctx, email, digest, h.now().Add(resetTTL)); err != nil {
		h.logger.Error("save reset token", zap.Error(err))
		response.Internal(c)
		return
	}
	if h.jobs != nil {
		payload := queue.EmailPayload{
			Kind:           "password_reset",
			RecipientEmail: email,
			RecipientName:  name,
			Subject:        "Reset your club portal password",
			BodyHTML:       resetEmailBody(name, h.resetLink(token)),
		}
		if err := h.jobs.EnqueueEmail(ctx, payload); err != nil {
			h.logger.Error("enqueue reset email", zap.Error(err))
		}
	}
	response.Message(c, msgResetSent)
}

func (h *Handler) resetLink(token string) string {
	sep := "?"
	if strings.Contains(h.resetURL, "?") {
		sep = "&"
	}
	return h.resetURL + sep + "token=" + url.QueryEscape(token)
}

func resetEmailBody(name, link string) string {
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`, html.EscapeString(name), link)
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Token and new password are required")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		response.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c)
		return
	}
	email, err := h.store.ConsumeResetToken(c.Request.Context(), utils.DigestToken(req.Token), hash)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			response.BadRequest(c, "Invalid or expired token")
			return
		}
		h.logger.Error("consume reset token", zap.Error(err))
		response.Internal(c)
		return
	}
	h.logger.Info("password reset", zap.String("email", email))
	response.Message(c, "Password has been reset successfully")
}

// UpdatePassword handles POST /users/update-password for the calling member.
func (h *Handler) UpdatePassword(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	if !p.IsMember() {
		response.Forbidden(c, "Only club members can change their password here")
		return
	}
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Current and new password are required")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		response.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
		return
	}

	ctx := c.Request.Context()
	current, err := h.store.GetMemberPassword(ctx, p.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		h.logger.Error("load password", zap.Error(err), zap.Int64("member_id", p.ID))
		response.Internal(c)
		return
	}
	if !utils.CheckPassword(req.CurrentPassword, current) {
		response.BadRequest(c, "Current password is incorrect")
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c)
		return
	}
	if err := h.store.SetMemberPassword(ctx, p.ID, hash); err != nil {
		h.logger.Error("set password", zap.Error(err), zap.Int64("member_id", p.ID))
		response.Internal(c)
		return
	}
	response.Message(c, "Password updated successfully")
}
