package members

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/export"
	"github.com/campus-clubs/backend/pkg/queue"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/storage"
	"github.com/campus-clubs/backend/pkg/utils"
)

const minPasswordLength = 6

// Store is the member persistence used by Handler.
type Store interface {
	ListByClub(ctx context.Context, clubID int64) ([]models.Member, error)
	GetByID(ctx context.Context, id int64) (*models.Member, error)
	SetPositions(ctx context.Context, clubID int64, updates []PositionUpdate) error
	SetRole(ctx context.Context, id int64, role models.Role) error
	Delete(ctx context.Context, id int64) (string, error)
	Update(ctx context.Context, id int64, u ProfileUpdate) (*models.Member, error)
	SetPhoto(ctx context.Context, id int64, key string) (string, error)
	CreateRequest(ctx context.Context, p *models.Profile) error
	ListRequests(ctx context.Context, clubID int64, status models.ProfileStatus) ([]models.Profile, error)
	GetRequest(ctx context.Context, id int64) (*models.Profile, error)
	ApproveRequest(ctx context.Context, id int64) (*models.Member, error)
	RejectRequest(ctx context.Context, id int64) error
}

// PositionEntry is one row of PUT /clubs/:clubId/members/positions.
type PositionEntry struct {
	ID       json.Number `json:"id"`
	Position string      `json:"position"`
}

// PositionsRequest is the body for PUT /clubs/:clubId/members/positions.
type PositionsRequest struct {
	Positions []PositionEntry `json:"positions"`
}

// RoleRequest is the body for PUT /members/:memberId/role.
type RoleRequest struct {
	Role string `json:"role"`
}

// UpdateRequest is the body for PUT /users/:id. Absent fields are unchanged.
type UpdateRequest struct {
	Name        *string `json:"name"`
	ContactNo   *string `json:"contact_no"`
	Gender      *string `json:"gender"`
	Dept        *string `json:"dept"`
	Session     *string `json:"session"`
	Description *string `json:"description"`
	Position    *string `json:"position"`
	Password    *string `json:"password"`
}

// JoinRequest is the body for POST /users/register.
type JoinRequest struct {
	Name      string      `json:"name" binding:"required"`
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=6"`
	ClubID    json.Number `json:"clubId"`
	ContactNo string      `json:"contact_no"`
}

// Trim strips whitespace from the identity fields.
func (req *JoinRequest) Trim() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.ContactNo = strings.TrimSpace(req.ContactNo)
}

func joinMessage(err error) string {
	_, tag, ok := utils.FirstInvalid(err)
	switch {
	case !ok:
		return "Invalid request body"
	case tag == "email":
		return "Please provide a valid email address."
	case tag == "min":
		return fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	default:
		return "Name, email and password are required"
	}
}

// Handler handles roster, profile and join request endpoints.
type Handler struct {
	store  Store
	files  storage.Bucket
	jobs   queue.Enqueuer
	logger *zap.Logger
}

// NewHandler creates a member handler. files and jobs may be nil.
func NewHandler(store Store, files storage.Bucket, jobs queue.Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, files: files, jobs: jobs, logger: logger}
}

func (h *Handler) withPhoto(m *models.Member) {
	if h.files != nil && m.PhotoKey != "" {
		m.Photo = h.files.URL(m.PhotoKey)
	}
}

func (h *Handler) dropObject(ctx context.Context, key string) {
	if h.jobs == nil || key == "" {
		return
	}
	if err := h.jobs.EnqueueObjectDelete(ctx, key); err != nil {
		h.logger.Warn("enqueue object delete", zap.Error(err), zap.String("key", key))
	}
}

func (h *Handler) memberError(c *gin.Context, err error, op string, id int64) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Member not found")
		return
	}
	h.logger.Error(op, zap.Error(err), zap.Int64("member_id", id))
	response.Internal(c)
}

// Roster handles GET /clubs/:clubId/members.
func (h *Handler) Roster(c *gin.Context) {
	clubID, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	list, err := h.store.ListByClub(c.Request.Context(), clubID)
	if err != nil {
		h.logger.Error("list members", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	if list == nil {
		list = []models.Member{}
	}
	for i := range list {
		h.withPhoto(&list[i])
	}
	response.OK(c, gin.H{"members": list})
}

// ExecutiveView handles GET /clubs/:clubId/executive-committee/view.
func (h *Handler) ExecutiveView(c *gin.Context) {
	clubID, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	list, err := h.store.ListByClub(c.Request.Context(), clubID)
	if err != nil {
		h.logger.Error("executive view", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	ranked := RankExecutives(list)
	for i := range ranked {
		h.withPhoto(&ranked[i])
	}
	response.OK(c, gin.H{"executives": ranked, "committee": ranked})
}

// UpdatePositions handles PUT /clubs/:clubId/members/positions.
func (h *Handler) UpdatePositions(c *gin.Context) {
	clubID, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	if !access.CanManageClub(middleware.MustPrincipal(c), clubID) {
		response.Forbidden(c, "You do not have permission to manage this club")
		return
	}
	var req PositionsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Positions) == 0 {
		response.BadRequest(c, "Positions array is required")
		return
	}
	updates := make([]PositionUpdate, 0, len(req.Positions))
	for _, e := range req.Positions {
		id, ok := utils.NumberID(e.ID)
		if !ok {
			response.BadRequest(c, "Each position entry needs a valid member id")
			return
		}
		updates = append(updates, PositionUpdate{MemberID: id, Position: e.Position})
	}
	if err := h.store.SetPositions(c.Request.Context(), clubID, updates); err != nil {
		if errors.Is(err, ErrNotInClub) {
			response.BadRequest(c, "All members must belong to this club")
			return
		}
		h.logger.Error("set positions", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	response.Message(c, "Positions updated successfully")
}

// ChangeRole handles PUT /members/:memberId/role.
func (h *Handler) ChangeRole(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("memberId"))
	if !ok {
		response.BadRequest(c, "Invalid member id")
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid role")
		return
	}
	role := models.Role(strings.TrimSpace(req.Role))
	if !role.Valid() {
		response.BadRequest(c, "Invalid role")
		return
	}
	ctx := c.Request.Context()
	target, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.memberError(c, err, "load member", id)
		return
	}
	if !access.CanManageMember(middleware.MustPrincipal(c), target.ClubID) {
		response.Forbidden(c, "You do not have permission to change this member's role")
		return
	}
	if err := h.store.SetRole(ctx, id, role); err != nil {
		h.memberError(c, err, "set role", id)
		return
	}
	response.Message(c, "Role updated successfully")
}

// Remove handles DELETE /members/:memberId.
func (h *Handler) Remove(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("memberId"))
	if !ok {
		response.BadRequest(c, "Invalid member id")
		return
	}
	p := middleware.MustPrincipal(c)
	if p.IsSelf(id) {
		response.BadRequest(c, "You cannot remove yourself")
		return
	}
	ctx := c.Request.Context()
	target, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.memberError(c, err, "load member", id)
		return
	}
	if !access.CanManageMember(p, target.ClubID) {
		response.Forbidden(c, "You do not have permission to remove this member")
		return
	}
	key, err := h.store.Delete(ctx, id)
	if err != nil {
		h.memberError(c, err, "delete member", id)
		return
	}
	h.dropObject(ctx, key)
	h.logger.Info("member removed", zap.Int64("member_id", id), zap.Int64("club_id", target.ClubID), zap.Int64("by", p.ID))
	response.Message(c, "Member removed successfully")
}

// GetUser handles GET /users/:id and GET /profile/:id.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "Invalid user id")
		return
	}
	m, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.memberError(c, err, "get member", id)
		return
	}
	h.withPhoto(m)
	response.OK(c, gin.H{"user": m})
}

// Me handles GET /me for member tokens.
func (h *Handler) Me(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	m, err := h.store.GetByID(c.Request.Context(), p.ID)
	if err != nil {
		h.memberError(c, err, "get current member", p.ID)
		return
	}
	h.withPhoto(m)
	response.OK(c, gin.H{"user": m})
}

// UpdateUser handles PUT /users/:id: self, an admin of the member's club, or an authority.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "Invalid user id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	ctx := c.Request.Context()
	target, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.memberError(c, err, "load member", id)
		return
	}
	p := middleware.MustPrincipal(c)
	if !access.CanEditProfile(p, id, target.ClubID) {
		response.Forbidden(c, "You can only update your own profile")
		return
	}
	if req.Position != nil && !access.CanManageMember(p, target.ClubID) {
		response.Forbidden(c, "Only club admins can change positions")
		return
	}

	u := ProfileUpdate{
		ContactNo:   req.ContactNo,
		Gender:      req.Gender,
		Dept:        req.Dept,
		Session:     req.Session,
		Description: req.Description,
		Position:    req.Position,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			response.BadRequest(c, "Name cannot be empty")
			return
		}
		u.Name = &name
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < minPasswordLength {
			response.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
			return
		}
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			h.logger.Error("hash password", zap.Error(err))
			response.Internal(c)
			return
		}
		u.PasswordHash = &hash
	}

	m, err := h.store.Update(ctx, id, u)
	if err != nil {
		h.memberError(c, err, "update member", id)
		return
	}
	h.withPhoto(m)
	response.OKWithMessage(c, "Profile updated successfully", gin.H{"user": m})
}

// UploadPhoto handles POST /users/:id/photo (multipart field "photo").
func (h *Handler) UploadPhoto(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "Invalid user id")
		return
	}
	if h.files == nil {
		response.ServiceUnavailable(c, "File storage is not configured")
		return
	}
	ctx := c.Request.Context()
	target, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.memberError(c, err, "load member", id)
		return
	}
	if !access.CanEditProfile(middleware.MustPrincipal(c), id, target.ClubID) {
		response.Forbidden(c, "You can only update your own photo")
		return
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		response.BadRequest(c, "Photo file is required")
		return
	}
	if fh.Size > storage.MaxImageSize {
		response.BadRequest(c, "Photo must be 10MB or smaller")
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
		response.BadRequest(c, "Could not read photo")
		return
	}
	defer f.Close()

	key := storage.PhotoKey(target.ClubID, id, fh.Filename)
	if err := h.files.Upload(ctx, key, contentType, f, fh.Size); err != nil {
		h.logger.Error("upload photo", zap.Error(err), zap.Int64("member_id", id))
		response.Internal(c)
		return
	}
	old, err := h.store.SetPhoto(ctx, id, key)
	if err != nil {
		h.dropObject(ctx, key)
		h.memberError(c, err, "set photo", id)
		return
	}
	h.dropObject(ctx, old)
	response.OKWithMessage(c, "Photo updated successfully", gin.H{"photo": h.files.URL(key)})
}

// Register handles POST /users/register: a public join request for a club.
func (h *Handler) Register(c *gin.Context) {
	var req JoinRequest
	if err := utils.BindTrimmedJSON(c, &req); err != nil {
		response.BadRequest(c, joinMessage(err))
		return
	}
	clubID, ok := utils.NumberID(req.ClubID)
	if !ok {
		response.BadRequest(c, "Please select a club.")
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c)
		return
	}
	p := &models.Profile{ClubID: clubID, Name: req.Name, Email: req.Email, Password: hash, ContactNo: req.ContactNo}
	switch err := h.store.CreateRequest(c.Request.Context(), p); {
	case errors.Is(err, ErrDuplicate):
		response.BadRequest(c, "Email already registered.")
		return
	case errors.Is(err, ErrClubNotFound):
		response.NotFound(c, "Club not found")
		return
	case err != nil:
		h.logger.Error("create join request", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	response.Created(c, "Registration submitted. Await approval from the club admin.", gin.H{"requestId": p.ID})
}

// ListRequests handles GET /clubs/:clubId/requests (pending only).
func (h *Handler) ListRequests(c *gin.Context) {
	clubID, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	if !access.CanManageClub(middleware.MustPrincipal(c), clubID) {
		response.Forbidden(c, "You do not have permission to view join requests")
		return
	}
	list, err := h.store.ListRequests(c.Request.Context(), clubID, models.ProfilePending)
	if err != nil {
		h.logger.Error("list join requests", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	if list == nil {
		list = []models.Profile{}
	}
	response.OK(c, gin.H{"requests": list})
}

// loadRequest fetches a join request and checks the caller may decide it.
func (h *Handler) loadRequest(c *gin.Context) (*models.Profile, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.BadRequest(c, "Invalid request id")
		return nil, false
	}
	req, err := h.store.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.requestError(c, err, id)
		return nil, false
	}
	if !access.CanManageClub(middleware.MustPrincipal(c), req.ClubID) {
		response.Forbidden(c, "You do not have permission to decide this request")
		return nil, false
	}
	return req, true
}

func (h *Handler) requestError(c *gin.Context, err error, id int64) {
	switch {
	case errors.Is(err, ErrRequestNotFound):
		response.NotFound(c, "Request not found")
	case errors.Is(err, ErrNotPending):
		response.BadRequest(c, "Request has already been processed")
	case errors.Is(err, ErrDuplicate):
		response.BadRequest(c, "Email already registered.")
	default:
		h.logger.Error("join request", zap.Error(err), zap.Int64("request_id", id))
		response.Internal(c)
	}
}

// Approve handles POST /requests/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	req, ok := h.loadRequest(c)
	if !ok {
		return
	}
	m, err := h.store.ApproveRequest(c.Request.Context(), req.ID)
	if err != nil {
		h.requestError(c, err, req.ID)
		return
	}
	response.OKWithMessage(c, "Request approved", gin.H{"member": m})
}

// Reject handles POST /requests/:id/reject.
func (h *Handler) Reject(c *gin.Context) {
	req, ok := h.loadRequest(c)
	if !ok {
		return
	}
	if err := h.store.RejectRequest(c.Request.Context(), req.ID); err != nil {
		h.requestError(c, err, req.ID)
		return
	}
	response.Message(c, "Request rejected")
}

// ExportRoster handles GET /clubs/:clubId/members/export as an xlsx download.
func (h *Handler) ExportRoster(c *gin.Context) {
	clubID, ok := utils.ParseID(c.Param("clubId"))
	if !ok {
		response.BadRequest(c, "Invalid club id")
		return
	}
	if !access.CanManageClub(middleware.MustPrincipal(c), clubID) {
		response.Forbidden(c, "You do not have permission to export this roster")
		return
	}
	list, err := h.store.ListByClub(c.Request.Context(), clubID)
	if err != nil {
		h.logger.Error("export members", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	table := export.Table{
		Sheet:   "Members",
		Headers: []string{"ID", "Name", "Email", "Role", "Position", "Department", "Session", "Contact", "Joined"},
	}
	for _, m := range list {
		table.Rows = append(table.Rows, []any{m.ID, m.Name, m.Email, string(m.Role), m.Position, m.Dept, m.Session, m.ContactNo,
			m.JoinedAt.Format(models.DateLayout)})
	}
	buf, err := export.XLSX(table)
	if err != nil {
		h.logger.Error("render roster", zap.Error(err), zap.Int64("club_id", clubID))
		response.Internal(c)
		return
	}
	response.Attachment(c, fmt.Sprintf("club-%d-members.xlsx", clubID), export.ContentTypeXLSX, buf.Bytes())
}
