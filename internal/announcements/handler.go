package announcements

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/utils"
)

// Store is the persistence for both boards.
type Store interface {
	ListClub(ctx context.Context, clubID int64) ([]models.Announcement, error)
	GetClub(ctx context.Context, id int64) (*models.Announcement, error)
	CreateClub(ctx context.Context, a *models.Announcement) error
	UpdateClub(ctx context.Context, id int64, message string) error
	DeleteClub(ctx context.Context, id int64) error

	CreateAdmin(ctx context.Context, a *models.AdminAnnouncement) error
	ListAdmin(ctx context.Context) ([]models.AdminAnnouncement, error)
	VisibleAdmin(ctx context.Context, clubID int64) ([]models.AdminAnnouncement, error)
	ActiveAdmin(ctx context.Context) ([]models.AdminAnnouncement, error)
	GetAdmin(ctx context.Context, id int64) (*models.AdminAnnouncement, error)
	UpdateAdmin(ctx context.Context, id int64, u AdminUpdate) error
	DeleteAdmin(ctx context.Context, id int64) error
}

// Handler serves the club board and the authority board.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an announcement handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// ClubPostRequest is the body for POST /announcements.
type ClubPostRequest struct {
	Message string      `json:"message"`
	ClubID  json.Number `json:"clubId"`
}

// ClubEditRequest is the body for PUT /announcements/:id.
type ClubEditRequest struct {
	Message string `json:"message"`
}

// ListClub handles GET /announcements?clubId=. Without clubId a member sees their own club
// and an authority sees every club.
func (h *Handler) ListClub(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	var clubID int64
	if raw := c.Query("clubId"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			response.BadRequest(c, "Invalid club id")
			return
		}
		clubID = id
	} else if p.IsMember() {
		clubID = p.ClubID
	}
	list, err := h.store.ListClub(c.Request.Context(), clubID)
	if err != nil {
		h.logger.Error("list announcements", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	response.OK(c, gin.H{"announcements": list})
}

// CreateClub handles POST /announcements. Only members may post, and only to their own club.
func (h *Handler) CreateClub(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	var req ClubPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		response.BadRequest(c, "Message is required")
		return
	}
	clubID, ok := utils.NumberID(req.ClubID)
	if !ok {
		if !p.IsMember() {
			response.BadRequest(c, "Club id is required")
			return
		}
		clubID = p.ClubID
	}
	if !access.CanPostToClub(p, clubID) {
		response.Forbidden(c, "You can only post announcements to your own club")
		return
	}
	author := p.ID
	a := &models.Announcement{ClubID: clubID, Message: req.Message, CreatedBy: &author}
	if err := h.store.CreateClub(c.Request.Context(), a); err != nil {
		if errors.Is(err, ErrClubNotFound) {
			response.NotFound(c, "Club not found")
			return
		}
		h.logger.Error("create announcement", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	response.Created(c, "Announcement created successfully", gin.H{"announcement": a, "announcementId": a.ID})
}

// loadClubPost fetches a post and checks the caller may moderate it.
func (h *Handler) loadClubPost(c *gin.Context) (*models.Announcement, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "Invalid announcement id")
		return nil, false
	}
	a, err := h.store.GetClub(c.Request.Context(), id)
	if err != nil {
		h.notFoundOr500(c, err, "get announcement", id)
		return nil, false
	}
	if !access.CanModerate(middleware.MustPrincipal(c), a.ClubID, a.CreatedBy) {
		response.Forbidden(c, "You do not have permission to modify this announcement")
		return nil, false
	}
	return a, true
}

// UpdateClub handles PUT /announcements/:id.
func (h *Handler) UpdateClub(c *gin.Context) {
	a, ok := h.loadClubPost(c)
	if !ok {
		return
	}
	var req ClubEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		response.BadRequest(c, "Message is required")
		return
	}
	if err := h.store.UpdateClub(c.Request.Context(), a.ID, req.Message); err != nil {
		h.notFoundOr500(c, err, "update announcement", a.ID)
		return
	}
	response.Message(c, "Announcement updated successfully")
}

// DeleteClub handles DELETE /announcements/:id.
func (h *Handler) DeleteClub(c *gin.Context) {
	a, ok := h.loadClubPost(c)
	if !ok {
		return
	}
	if err := h.store.DeleteClub(c.Request.Context(), a.ID); err != nil {
		h.notFoundOr500(c, err, "delete announcement", a.ID)
		return
	}
	response.Message(c, "Announcement deleted successfully")
}

func (h *Handler) notFoundOr500(c *gin.Context, err error, op string, id int64) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Announcement not found")
		return
	}
	h.logger.Error(op, zap.Error(err), zap.Int64("announcement_id", id))
	response.Internal(c)
}
