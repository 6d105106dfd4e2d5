package clubs

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/members"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/queue"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/storage"
	"github.com/campus-clubs/backend/pkg/utils"
)

const (
	detailEventLimit   = 5
	detailGalleryLimit = 6
)

// Store is the club persistence used by Handler.
type Store interface {
	Create(ctx context.Context, p CreateParams) (*models.Club, error)
	List(ctx context.Context) ([]models.Club, error)
	GetByID(ctx context.Context, id int64) (*models.Club, error)
	Update(ctx context.Context, id int64, name, description string) (*models.Club, error)
	Delete(ctx context.Context, id int64) ([]string, error)
	Officers(ctx context.Context, clubID int64) ([]models.Member, error)
	UpcomingEvents(ctx context.Context, clubID int64, limit int) ([]models.Event, error)
	RecentImages(ctx context.Context, clubID int64, limit int) ([]models.GalleryImage, error)
}

// CreateRequest is the body for POST /authority/clubs/create.
type CreateRequest struct {
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	PresidentName     string `json:"president_name" binding:"required"`
	PresidentEmail    string `json:"president_email" binding:"required,email"`
	PresidentPassword string `json:"president_password" binding:"required,min=6"`
	SecretaryName     string `json:"secretary_name" binding:"required_with=SecretaryEmail SecretaryPassword"`
	SecretaryEmail    string `json:"secretary_email" binding:"required_with=SecretaryName SecretaryPassword,omitempty,email"`
	SecretaryPassword string `json:"secretary_password" binding:"required_with=SecretaryName SecretaryEmail,omitempty,min=6"`
}

// UpdateRequest is the body for PUT /clubs/:clubId.
type UpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Handler handles club HTTP endpoints.
type Handler struct {
	store  Store
	files  storage.URLResolver
	jobs   queue.Enqueuer
	logger *zap.Logger
}

// NewHandler creates a club handler. files and jobs may be nil.
func NewHandler(store Store, files storage.URLResolver, jobs queue.Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, files: files, jobs: jobs, logger: logger}
}

func (h *Handler) url(key string) string {
	if h.files == nil || key == "" {
		return ""
	}
	return h.files.URL(key)
}

// Trim strips whitespace from every field except the passwords.
func (req *CreateRequest) Trim() {
	for _, f := range []*string{&req.Name, &req.Description, &req.PresidentName, &req.PresidentEmail,
		&req.SecretaryName, &req.SecretaryEmail} {
		*f = strings.TrimSpace(*f)
	}
}

// createMessage maps the first failed binding rule to a client message.
func createMessage(err error) string {
	field, tag, ok := utils.FirstInvalid(err)
	switch {
	case !ok:
		return "Invalid request body"
	case tag == "email" && field == "PresidentEmail":
		return "Invalid president email"
	case tag == "email":
		return "Invalid secretary email"
	case tag == "min":
		return "Password must be at least 6 characters"
	case strings.HasPrefix(field, "Secretary"):
		return "Secretary name, email and password must be provided together"
	default:
		return "Club name and president name, email and password are required"
	}
}

func (req *CreateRequest) hasSecretary() bool {
	return req.SecretaryName != ""
}

// Create handles POST /authority/clubs/create (authority only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := utils.BindTrimmedJSON(c, &req); err != nil {
		response.BadRequest(c, createMessage(err))
		return
	}
	if req.hasSecretary() && strings.EqualFold(req.SecretaryEmail, req.PresidentEmail) {
		response.BadRequest(c, "President and secretary must use different emails")
		return
	}

	params := CreateParams{Name: req.Name, Description: req.Description}
	var err error
	params.President = Founder{Name: req.PresidentName, Email: req.PresidentEmail, Position: "President"}
	if params.President.PasswordHash, err = utils.HashPassword(req.PresidentPassword); err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c)
		return
	}
	if req.hasSecretary() {
		sec := Founder{Name: req.SecretaryName, Email: req.SecretaryEmail, Position: "Secretary"}
		if sec.PasswordHash, err = utils.HashPassword(req.SecretaryPassword); err != nil {
			h.logger.Error("hash password", zap.Error(err))
			response.Internal(c)
			return
		}
		params.Secretary = &sec
	}

	club, err := h.store.Create(c.Request.Context(), params)
	switch {
	case errors.Is(err, ErrDuplicateName):
		response.BadRequest(c, "A club with this name already exists")
		return
	case errors.Is(err, ErrDuplicateEmail):
		response.BadRequest(c, "Email already exists in the system")
		return
	case err != nil:
		h.logger.Error("create club", zap.Error(err), zap.String("name", req.Name))
		response.Internal(c)
		return
	}
	h.logger.Info("club created", zap.Int64("club_id", club.ID), zap.String("name", club.Name))
	response.Created(c, "Club created successfully", gin.H{"clubId": club.ID, "clubName": club.Name})
}

// List handles GET /clubs.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list clubs", zap.Error(err))
		response.Internal(c)
		return
	}
	if list == nil {
		list = []models.Club{}
	}
	response.OK(c, gin.H{"clubs": list})
}

// Get handles GET /clubs/:clubId.
func (h *Handler) Get(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	club, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.notFoundOr500(c, err, "get club", id)
		return
	}
	response.OK(c, gin.H{"club": club})
}

// Details handles GET /clubs/:clubId/details: the club page in one call.
func (h *Handler) Details(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	ctx := c.Request.Context()
	club, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.notFoundOr500(c, err, "get club", id)
		return
	}
	officers, err := h.store.Officers(ctx, id)
	if err != nil {
		h.logger.Error("club officers", zap.Error(err), zap.Int64("club_id", id))
		response.Internal(c)
		return
	}
	events, err := h.store.UpcomingEvents(ctx, id, detailEventLimit)
	if err != nil {
		h.logger.Error("club events", zap.Error(err), zap.Int64("club_id", id))
		response.Internal(c)
		return
	}
	images, err := h.store.RecentImages(ctx, id, detailGalleryLimit)
	if err != nil {
		h.logger.Error("club gallery", zap.Error(err), zap.Int64("club_id", id))
		response.Internal(c)
		return
	}

	executives := members.RankExecutives(officers)
	for i := range executives {
		executives[i].Photo = h.url(executives[i].PhotoKey)
	}
	for i := range images {
		images[i].URL = h.url(images[i].ObjectKey)
	}
	if events == nil {
		events = []models.Event{}
	}
	if images == nil {
		images = []models.GalleryImage{}
	}
	response.OK(c, gin.H{"club": club, "executives": executives, "upcomingEvents": events, "gallery": images})
}

// Update handles PUT /clubs/:clubId (authority or admin of the club).
func (h *Handler) Update(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	p := middleware.MustPrincipal(c)
	if !access.CanManageClub(p, id) {
		response.Forbidden(c, "You do not have permission to update this club")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		response.BadRequest(c, "Name and description are required")
		return
	}
	club, err := h.store.Update(c.Request.Context(), id, req.Name, req.Description)
	if errors.Is(err, ErrDuplicateName) {
		response.BadRequest(c, "A club with this name already exists")
		return
	}
	if err != nil {
		h.notFoundOr500(c, err, "update club", id)
		return
	}
	response.OKWithMessage(c, "Club updated successfully", gin.H{"club": club})
}

// Delete handles DELETE /authority/clubs/:clubId (authority only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	if !access.CanDeleteClub(middleware.MustPrincipal(c)) {
		response.Forbidden(c, "Only authorities can delete clubs")
		return
	}
	ctx := c.Request.Context()
	keys, err := h.store.Delete(ctx, id)
	if err != nil {
		h.notFoundOr500(c, err, "delete club", id)
		return
	}
	if h.jobs != nil {
		for _, k := range keys {
			if err := h.jobs.EnqueueObjectDelete(ctx, k); err != nil {
				h.logger.Warn("enqueue object delete", zap.Error(err), zap.String("key", k))
			}
		}
	}
	h.logger.Info("club deleted", zap.Int64("club_id", id), zap.Int("objects", len(keys)))
	response.Message(c, "Club deleted successfully")
}

func (h *Handler) notFoundOr500(c *gin.Context, err error, op string, id int64) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Club not found")
		return
	}
	h.logger.Error(op, zap.Error(err), zap.Int64("club_id", id))
	response.Internal(c)
}
