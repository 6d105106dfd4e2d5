package console

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/storage"
)

// Store is the console persistence used by Handler.
type Store interface {
	Stats(ctx context.Context) (Stats, error)
	ClubsOverview(ctx context.Context) ([]models.ClubOverview, error)
	MemberCount(ctx context.Context) (int, error)
	Authority(ctx context.Context, id int64) (*models.Authority, error)
}

// Handler serves the authority console. Routes are mounted behind RequireAuthority.
type Handler struct {
	store  Store
	files  storage.URLResolver
	logger *zap.Logger
}

// NewHandler creates a console handler.
func NewHandler(store Store, files storage.URLResolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, files: files, logger: logger}
}

// Stats handles GET /authority/dashboard/stats.
func (h *Handler) Stats(c *gin.Context) {
	s, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("dashboard stats", zap.Error(err))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"stats": s})
}

// Clubs handles GET /authority/clubs.
func (h *Handler) Clubs(c *gin.Context) {
	list, err := h.store.ClubsOverview(c.Request.Context())
	if err != nil {
		h.logger.Error("clubs overview", zap.Error(err))
		response.Internal(c)
		return
	}
	if list == nil {
		list = []models.ClubOverview{}
	}
	response.OK(c, gin.H{"clubs": list})
}

// MemberCount handles GET /members/count.
func (h *Handler) MemberCount(c *gin.Context) {
	n, err := h.store.MemberCount(c.Request.Context())
	if err != nil {
		h.logger.Error("member count", zap.Error(err))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"count": n})
}

// Profile handles GET /authority/profile for the calling authority.
func (h *Handler) Profile(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	a, err := h.store.Authority(c.Request.Context(), p.ID)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Authority not found")
		return
	}
	if err != nil {
		h.logger.Error("authority profile", zap.Error(err), zap.Int64("authority_id", p.ID))
		response.Internal(c)
		return
	}
	if h.files != nil {
		a.Photo = h.files.URL(a.PhotoKey)
	}
	response.OK(c, gin.H{"user": a})
}
