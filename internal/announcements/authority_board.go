package announcements

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/utils"
)

// AdminPostRequest is the body for POST /authority/announcements.
type AdminPostRequest struct {
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	Type           string  `json:"type"`
	TargetAudience string  `json:"target_audience"`
	SpecificClubs  []int64 `json:"specific_clubs"`
}

// AdminEditRequest is the body for PUT /authority/announcements/:id.
type AdminEditRequest struct {
	Title    *string `json:"title"`
	Message  *string `json:"message"`
	Type     *string `json:"type"`
	IsActive *bool   `json:"is_active"`
}

func orEmpty(list []models.AdminAnnouncement) []models.AdminAnnouncement {
	if list == nil {
		return []models.AdminAnnouncement{}
	}
	return list
}

// CreateAdmin handles POST /authority/announcements.
func (h *Handler) CreateAdmin(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	var req AdminPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if req.Title == "" || req.Message == "" {
		response.BadRequest(c, "Title and message are required")
		return
	}
	a := &models.AdminAnnouncement{
		Title:          req.Title,
		Message:        req.Message,
		Type:           strings.TrimSpace(req.Type),
		TargetAudience: models.Audience(strings.TrimSpace(req.TargetAudience)),
		CreatedBy:      p.ID,
	}
	if a.Type == "" {
		a.Type = "general"
	}
	if a.TargetAudience == "" {
		a.TargetAudience = models.AudienceAllClubs
	}
	if !a.TargetAudience.Valid() {
		response.BadRequest(c, "Invalid target audience")
		return
	}
	if a.TargetAudience == models.AudienceSpecificClubs {
		for _, id := range req.SpecificClubs {
			if id <= 0 {
				response.BadRequest(c, "Invalid club id in specific_clubs")
				return
			}
		}
		if len(req.SpecificClubs) == 0 {
			response.BadRequest(c, "Select at least one club for a club-specific announcement")
			return
		}
		a.ClubIDs = req.SpecificClubs
	}
	if err := h.store.CreateAdmin(c.Request.Context(), a); err != nil {
		if errors.Is(err, ErrClubNotFound) {
			response.BadRequest(c, "One or more selected clubs do not exist")
			return
		}
		h.logger.Error("create authority announcement", zap.Error(err))
		response.Internal(c)
		return
	}
	response.Created(c, "Announcement created successfully", gin.H{"announcement": a, "announcementId": a.ID})
}

// ListAdmin handles GET /authority/announcements.
func (h *Handler) ListAdmin(c *gin.Context) {
	list, err := h.store.ListAdmin(c.Request.Context())
	if err != nil {
		h.logger.Error("list authority announcements", zap.Error(err))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"announcements": orEmpty(list)})
}

// UpdateAdmin handles PUT /authority/announcements/:id.
func (h *Handler) UpdateAdmin(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "Invalid announcement id")
		return
	}
	var req AdminEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	u := AdminUpdate{Title: req.Title, Message: req.Message, Type: req.Type, IsActive: req.IsActive}
	if u.Empty() {
		response.BadRequest(c, "No fields to update")
		return
	}
	if err := h.store.UpdateAdmin(c.Request.Context(), id, u); err != nil {
		h.notFoundOr500(c, err, "update authority announcement", id)
		return
	}
	a, err := h.store.GetAdmin(c.Request.Context(), id)
	if err != nil {
		h.notFoundOr500(c, err, "get authority announcement", id)
		return
	}
	response.OKWithMessage(c, "Announcement updated successfully", gin.H{"announcement": a})
}

// DeleteAdmin handles DELETE /authority/announcements/:id.
func (h *Handler) DeleteAdmin(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "Invalid announcement id")
		return
	}
	if err := h.store.DeleteAdmin(c.Request.Context(), id); err != nil {
		h.notFoundOr500(c, err, "delete authority announcement", id)
		return
	}
	response.Message(c, "Announcement deleted successfully")
}

// Public handles GET /authority/announcements/public?clubId=.
func (h *Handler) Public(c *gin.Context) {
	var clubID int64
	if raw := c.Query("clubId"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			response.BadRequest(c, "Invalid club id")
			return
		}
		clubID = id
	}
	list, err := h.store.VisibleAdmin(c.Request.Context(), clubID)
	if err != nil {
		h.logger.Error("public announcements", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"announcements": orEmpty(list)})
}

// Feed handles GET /announcements/feed: authority posts addressed to the caller's club.
// Authorities see every active post.
func (h *Handler) Feed(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	var (
		list []models.AdminAnnouncement
		err  error
	)
	if p.IsAuthority() {
		list, err = h.store.ActiveAdmin(c.Request.Context())
	} else {
		list, err = h.store.VisibleAdmin(c.Request.Context(), p.ClubID)
	}
	if err != nil {
		h.logger.Error("announcement feed", zap.Error(err), zap.Int64("club_id", p.ClubID))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"announcements": orEmpty(list)})
}
