package messages

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/metrics"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/internal/realtime"
	"github.com/campus-clubs/backend/pkg/response"
	"github.com/campus-clubs/backend/pkg/storage"
	"github.com/campus-clubs/backend/pkg/utils"
)

const msgOwnInbox = "You can only access your own messages"

// Store is the message persistence used by Handler.
type Store interface {
	Conversations(ctx context.Context, userID int64) ([]models.Conversation, error)
	History(ctx context.Context, userID, partnerID, afterID int64) ([]models.Message, error)
	Send(ctx context.Context, senderID, receiverID int64, text string) (*models.Message, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	Partner(ctx context.Context, id int64) (*models.Partner, error)
}

// Notifier pushes events to a connected member.
type Notifier interface {
	PublishToMember(memberID int64, event string, payload interface{})
}

// SendRequest is the body for POST /messages.
type SendRequest struct {
	ReceiverID json.Number `json:"receiverId"`
	Message    string      `json:"message"`
}

// Handler handles inbox HTTP endpoints. Clients poll the conversation view every
// pollInterval, passing the last seen message id as ?after=.
type Handler struct {
	store        Store
	files        storage.URLResolver
	notify       Notifier
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewHandler creates an inbox handler. files and notify may be nil.
func NewHandler(store Store, files storage.URLResolver, notify Notifier, pollInterval time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Handler{store: store, files: files, notify: notify, pollInterval: pollInterval, logger: logger}
}

func (h *Handler) url(key string) string {
	if h.files == nil {
		return ""
	}
	return h.files.URL(key)
}

// owner resolves :userId and checks that it is the caller.
func (h *Handler) owner(c *gin.Context) (access.Principal, int64, bool) {
	userID, ok := utils.ParseID(c.Param("userId"))
	if !ok {
		response.BadRequest(c, "Invalid user id")
		return access.Principal{}, 0, false
	}
	p := middleware.MustPrincipal(c)
	if !p.IsSelf(userID) {
		response.Forbidden(c, msgOwnInbox)
		return access.Principal{}, 0, false
	}
	return p, userID, true
}

// Conversations handles GET /messages/conversations/:userId.
func (h *Handler) Conversations(c *gin.Context) {
	_, userID, ok := h.owner(c)
	if !ok {
		return
	}
	list, err := h.store.Conversations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list conversations", zap.Error(err), zap.Int64("user_id", userID))
		response.Internal(c)
		return
	}
	if list == nil {
		list = []models.Conversation{}
	}
	for i := range list {
		list[i].PartnerPhoto = h.url(list[i].PhotoKey)
	}
	response.OK(c, gin.H{"conversations": list})
}

// Conversation handles GET /messages/conversation/:userId/:partnerId[?after=id].
// Incoming messages from the partner are marked read.
func (h *Handler) Conversation(c *gin.Context) {
	_, userID, ok := h.owner(c)
	if !ok {
		return
	}
	partnerID, ok := utils.ParseID(c.Param("partnerId"))
	if !ok {
		response.BadRequest(c, "Invalid partner id")
		return
	}
	var after int64
	if s := c.Query("after"); s != "" {
		if after, ok = utils.ParseID(s); !ok {
			response.BadRequest(c, "Invalid after id")
			return
		}
	}
	ctx := c.Request.Context()
	partner, err := h.store.Partner(ctx, partnerID)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("get partner", zap.Error(err), zap.Int64("partner_id", partnerID))
		response.Internal(c)
		return
	}
	partner.Photo = h.url(partner.PhotoKey)

	list, err := h.store.History(ctx, userID, partnerID, after)
	if err != nil {
		h.logger.Error("conversation history", zap.Error(err), zap.Int64("user_id", userID), zap.Int64("partner_id", partnerID))
		response.Internal(c)
		return
	}
	if list == nil {
		list = []models.Message{}
	}
	response.OK(c, gin.H{
		"messages":       list,
		"partner":        partner,
		"pollIntervalMs": h.pollInterval.Milliseconds(),
	})
}

// Send handles POST /messages. The sender is always the calling member.
func (h *Handler) Send(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	if !p.IsMember() {
		response.Forbidden(c, "Club member access required")
		return
	}
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	receiverID, ok := utils.NumberID(req.ReceiverID)
	text := strings.TrimSpace(req.Message)
	if !ok || text == "" {
		response.BadRequest(c, "All fields required")
		return
	}
	if receiverID == p.ID {
		response.BadRequest(c, "You cannot message yourself")
		return
	}
	msg, err := h.store.Send(c.Request.Context(), p.ID, receiverID, text)
	if errors.Is(err, ErrReceiverNotInClub) {
		response.BadRequest(c, "Receiver must be a member of your club")
		return
	}
	if err != nil {
		h.logger.Error("send message", zap.Error(err), zap.Int64("sender_id", p.ID), zap.Int64("receiver_id", receiverID))
		response.Internal(c)
		return
	}
	metrics.MessagesSent.Inc()
	if h.notify != nil {
		h.notify.PublishToMember(receiverID, realtime.EventMessage, msg)
	}
	response.Created(c, "", gin.H{"messageId": msg.ID})
}

// UnreadCount handles GET /messages/unread-count/:userId.
func (h *Handler) UnreadCount(c *gin.Context) {
	_, userID, ok := h.owner(c)
	if !ok {
		return
	}
	n, err := h.store.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("unread count", zap.Error(err), zap.Int64("user_id", userID))
		response.Internal(c)
		return
	}
	response.OK(c, gin.H{"count": n})
}
