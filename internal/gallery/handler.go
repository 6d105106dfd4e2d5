package gallery

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/queue"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/storage"
	"github.com/campus-clubs/backend/pkg/utils"
)

const maxListLimit = 100

// Store is the gallery persistence used by Handler.
type Store interface {
	Create(ctx context.Context, g *models.GalleryImage) error
	List(ctx context.Context, clubID int64, limit int) ([]models.GalleryImage, error)
	Get(ctx context.Context, id int64) (*models.GalleryImage, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// Handler handles gallery uploads, listing and deletion.
type Handler struct {
	store  Store
	files  storage.Bucket
	jobs   queue.Enqueuer
	logger *zap.Logger
}

// NewHandler creates a gallery handler. files may be nil when storage is not configured;
// uploads then fail with 503 and listings carry empty urls.
func NewHandler(store Store, files storage.Bucket, jobs queue.Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, files: files, jobs: jobs, logger: logger}
}

func (h *Handler) withURLs(list []models.GalleryImage) []models.GalleryImage {
	if list == nil {
		return []models.GalleryImage{}
	}
	if h.files != nil {
		for i := range list {
			list[i].URL = h.files.URL(list[i].ObjectKey)
		}
	}
	return list
}

func (h *Handler) dropObject(ctx context.Context, key string) {
	if h.jobs == nil || key == "" {
		return
	}
	if err := h.jobs.EnqueueObjectDelete(ctx, key); err != nil {
		h.logger.Warn("enqueue object delete", zap.Error(err), zap.String("key", key))
	}
}

// Upload handles POST /gallery (multipart: image, clubId, caption).
func (h *Handler) Upload(c *gin.Context) {
	if h.files == nil {
		response.ServiceUnavailable(c, "File storage is not configured")
		return
	}
	fh, err := c.FormFile("image")
	clubID, ok := utils.ParseID(c.PostForm("clubId"))
	if err != nil || !ok {
		response.BadRequest(c, "Image and club ID required")
		return
	}
	p := middleware.MustPrincipal(c)
	if !access.CanUploadToClub(p, clubID) {
		response.Forbidden(c, "You can only upload images to your own club")
		return
	}
	if fh.Size > storage.MaxImageSize {
		response.BadRequest(c, "Image must be 10MB or smaller")
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !storage.ValidateImageType(contentType, fh.Filename) {
		response.BadRequest(c, "Only JPEG, PNG, WebP and GIF images are allowed")
		return
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = storage.ContentTypeForFilename(fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "Could not read image")
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	key := storage.GalleryKey(clubID, fh.Filename)
	if err := h.files.Upload(ctx, key, contentType, f, fh.Size); err != nil {
		h.logger.Error("upload gallery image", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	img := &models.GalleryImage{ClubID: clubID, ObjectKey: key, Caption: strings.TrimSpace(c.PostForm("caption"))}
	if p.IsMember() {
		uploader := p.ID
		img.UploadedBy = &uploader
	}
	if err := h.store.Create(ctx, img); err != nil {
		h.dropObject(ctx, key)
		if errors.Is(err, ErrClubNotFound) {
			response.NotFound(c, "Club not found")
			return
		}
		h.logger.Error("create gallery image", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	img.URL = h.files.URL(key)
	response.Created(c, "Image uploaded successfully", gin.H{"image": img})
}

// List handles GET /gallery?clubId=&limit=.
func (h *Handler) List(c *gin.Context) {
	var clubID int64
	if s := c.Query("clubId"); s != "" {
		id, ok := utils.ParseID(s)
		if !ok {
			response.BadRequest(c, "Invalid club id")
			return
		}
		clubID = id
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			response.BadRequest(c, "Invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}
	list, err := h.store.List(c.Request.Context(), clubID, limit)
	if err != nil {
		h.logger.Error("list gallery", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"images": h.withURLs(list)})
}

// Delete handles DELETE /gallery/:id: uploader, admin of the club, or authority.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "Invalid image id")
		return
	}
	ctx := c.Request.Context()
	img, err := h.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Image not found")
		return
	}
	if err != nil {
		h.logger.Error("get gallery image", zap.Error(err), zap.Int64("image_id", id))
		response.Internal(c)
		return
	}
	if !access.CanModerate(middleware.MustPrincipal(c), img.ClubID, img.UploadedBy) {
		response.Forbidden(c, "Not authorized to delete this image")
		return
	}
	key, err := h.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Image not found")
		return
	}
	if err != nil {
		h.logger.Error("delete gallery image", zap.Error(err), zap.Int64("image_id", id))
		response.Internal(c)
		return
	}
	h.dropObject(ctx, key)
	response.Message(c, "Image deleted")
}
