package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/metrics"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/export"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/utils"
)

const upcomingLimit = 10

// Store is the event persistence used by Handler.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	ListByClub(ctx context.Context, clubID int64) ([]models.Event, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	Upcoming(ctx context.Context, limit int) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Register(ctx context.Context, eventID, userID int64) error
	Unregister(ctx context.Context, eventID, userID int64) error
	Registrations(ctx context.Context, eventID int64) ([]models.Registration, error)
	MyRegistrations(ctx context.Context, userID int64) ([]models.MyRegistration, error)
}

// CreateRequest is the body for POST /clubs/:clubId/events.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	EventDate   string `json:"event_date"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

func orEmpty(list []models.Event) []models.Event {
	if list == nil {
		return []models.Event{}
	}
	return list
}

// Create handles POST /clubs/:clubId/events (authority or admin of the club).
func (h *Handler) Create(c *gin.Context) {
	clubID, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	if !access.CanManageClub(middleware.MustPrincipal(c), clubID) {
		response.Forbidden(c, "You do not have permission to create events for this club")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.EventDate) == "" {
		response.BadRequest(c, "Title and event date are required")
		return
	}
	date, err := models.ParseDate(strings.TrimSpace(req.EventDate))
	if err != nil {
		response.BadRequest(c, "Event date must be in YYYY-MM-DD format")
		return
	}
	e := &models.Event{ClubID: clubID, Title: req.Title, Description: strings.TrimSpace(req.Description), EventDate: date}
	if err := h.store.Create(c.Request.Context(), e); err != nil {
		if errors.Is(err, ErrClubNotFound) {
			response.NotFound(c, "Club not found")
			return
		}
		h.logger.Error("create event", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	response.Created(c, "Event created successfully", gin.H{"event": e, "eventId": e.ID})
}

// ListByClub handles GET /clubs/:clubId/events.
func (h *Handler) ListByClub(c *gin.Context) {
	clubID, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	list, err := h.store.ListByClub(c.Request.Context(), clubID)
	if err != nil {
		h.logger.Error("list club events", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"events": orEmpty(list)})
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list events", zap.Error(err))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"events": orEmpty(list)})
}

// Upcoming handles GET /events/upcoming.
func (h *Handler) Upcoming(c *gin.Context) {
	list, err := h.store.Upcoming(c.Request.Context(), upcomingLimit)
	if err != nil {
		h.logger.Error("list upcoming events", zap.Error(err))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"events": orEmpty(list)})
}

// Get handles GET /events/:eventId.
func (h *Handler) Get(c *gin.Context) {
	e, ok := h.loadEvent(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{"event": e})
}

func (h *Handler) loadEvent(c *gin.Context) (*models.Event, bool) {
	id, ok := utils.ParseID(c.Param("eventId"))
	if !ok {
		response.BadRequest(c, "Invalid event id")
		return nil, false
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "Event not found")
			return nil, false
		}
		h.logger.Error("get event", zap.Error(err), zap.Int64("event_id", id))
		response.Internal(c)
		return nil, false
	}
	return e, true
}

// Register handles POST /events/:eventId/register for the calling member.
func (h *Handler) Register(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	if !p.IsMember() {
		response.Forbidden(c, "Only club members can register for events")
		return
	}
	e, ok := h.loadEvent(c)
	if !ok {
		return
	}
	err := h.store.Register(c.Request.Context(), e.ID, p.ID)
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
		metrics.EventRegistrations.WithLabelValues("duplicate").Inc()
		response.BadRequest(c, "Already registered for this event")
		return
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "Event not found")
		return
	case err != nil:
		metrics.EventRegistrations.WithLabelValues("error").Inc()
		h.logger.Error("register for event", zap.Error(err), zap.Int64("event_id", e.ID), zap.Int64("member_id", p.ID))
		response.Internal(c)
		return
	}
	metrics.EventRegistrations.WithLabelValues("ok").Inc()
	response.Created(c, "Registered successfully", nil)
}

// Unregister handles DELETE /events/:eventId/register.
func (h *Handler) Unregister(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	if !p.IsMember() {
		response.Forbidden(c, "Only club members can register for events")
		return
	}
	id, ok := utils.ParseID(c.Param("eventId"))
	if !ok {
		response.BadRequest(c, "Invalid event id")
		return
	}
	if err := h.store.Unregister(c.Request.Context(), id, p.ID); err != nil {
		h.logger.Error("unregister from event", zap.Error(err), zap.Int64("event_id", id))
		response.Internal(c)
		return
	}
	response.Message(c, "Unregistered successfully")
}

// Registrations handles GET /events/:eventId/registrations.
func (h *Handler) Registrations(c *gin.Context) {
	e, list, ok := h.registrations(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{"event": e, "registrations": list, "attendees": list})
}

// ExportRegistrations handles GET /events/:eventId/registrations/export as an xlsx download.
func (h *Handler) ExportRegistrations(c *gin.Context) {
	e, list, ok := h.registrations(c)
	if !ok {
		return
	}
	table := export.Table{Sheet: "Registrations", Headers: []string{"Member ID", "Name", "Email", "Registered At"}}
	for _, r := range list {
		table.Rows = append(table.Rows, []any{r.UserID, r.Name, r.Email, r.RegisteredAt.Format("2006-01-02 15:04")})
	}
	buf, err := export.XLSX(table)
	if err != nil {
		h.logger.Error("render registrations", zap.Error(err), zap.Int64("event_id", e.ID))
		response.Internal(c)
		return
	}
	response.Attachment(c, fmt.Sprintf("event-%d-registrations.xlsx", e.ID), export.ContentTypeXLSX, buf.Bytes())
}

func (h *Handler) registrations(c *gin.Context) (*models.Event, []models.Registration, bool) {
	e, ok := h.loadEvent(c)
	if !ok {
		return nil, nil, false
	}
	if !access.CanManageClub(middleware.MustPrincipal(c), e.ClubID) {
		response.Forbidden(c, "You do not have permission to view registrations for this event")
		return nil, nil, false
	}
	list, err := h.store.Registrations(c.Request.Context(), e.ID)
	if err != nil {
		h.logger.Error("list registrations", zap.Error(err), zap.Int64("event_id", e.ID))
		response.Internal(c)
		return nil, nil, false
	}
	if list == nil {
		list = []models.Registration{}
	}
	return e, list, true
}

// MyRegistrations handles GET /registrations/my.
func (h *Handler) MyRegistrations(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	if !p.IsMember() {
		response.Forbidden(c, "Only club members have event registrations")
		return
	}
	list, err := h.store.MyRegistrations(c.Request.Context(), p.ID)
	if err != nil {
		h.logger.Error("my registrations", zap.Error(err), zap.Int64("member_id", p.ID))
		response.Internal(c)
		return
	}
	ids := make([]int64, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.EventID)
	}
	if list == nil {
		list = []models.MyRegistration{}
	}
	response.OK(c, gin.H{"registrations": list, "eventIds": ids})
}
