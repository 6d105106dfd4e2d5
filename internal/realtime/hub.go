package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/metrics"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Push events sent to clients.
const (
	EventMessage = "message"
	EventTyping  = "typing"
)

// Hub maintains member_id -> set of connections. A member may be connected from several tabs.
// With Redis configured, delivery goes through pub/sub so every instance reaches its own clients.
type Hub struct {
	members  map[int64]map[string]*Client
	subs     map[int64]func()
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    Publisher
	redisSub Subscriber
}

// Publisher publishes member events for cross-instance delivery.
type Publisher interface {
	PublishMemberEvent(memberID int64, event string, payload []byte) error
}

// Subscriber subscribes to a member channel and invokes handler for incoming events.
type Subscriber interface {
	SubscribeMember(memberID int64, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a websocket hub. pub and sub may be nil for single-instance delivery.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		members:  make(map[int64]map[string]*Client),
		subs:     make(map[int64]func()),
		logger:   logger,
		redis:    pub,
		redisSub: sub,
	}
}

// Register adds a client. The first connection of a member opens its Redis subscription.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.members[c.MemberID] == nil {
		h.members[c.MemberID] = make(map[string]*Client)
		if h.redisSub != nil {
			memberID := c.MemberID
			cancel, err := h.redisSub.SubscribeMember(memberID, func(event string, payload []byte) {
				h.deliver(memberID, event, payload)
			})
			if err != nil {
				h.logger.Warn("member subscription failed", zap.Error(err), zap.Int64("member_id", memberID))
			} else {
				h.subs[memberID] = cancel
			}
		}
	}
	h.members[c.MemberID][c.ID] = c
	h.mu.Unlock()
	metrics.WSConnections.Inc()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.Int64("member_id", c.MemberID))
}

// Unregister removes a client. The last connection of a member cancels its subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.members[c.MemberID]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			metrics.WSConnections.Dec()
		}
		if len(m) == 0 {
			delete(h.members, c.MemberID)
			if cancel, ok := h.subs[c.MemberID]; ok {
				cancel()
				delete(h.subs, c.MemberID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.Int64("member_id", c.MemberID))
}

// Connected reports whether memberID has at least one local connection.
func (h *Hub) Connected(memberID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[memberID]) > 0
}

// deliver sends a message to the member's local clients.
func (h *Hub) deliver(memberID int64, event string, data []byte) {
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.members[memberID] {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("client buffer full", zap.String("client_id", c.ID))
		}
	}
}

// PublishToMember delivers an event to every connection of memberID on every instance.
// Without Redis only local connections are reached.
func (h *Hub) PublishToMember(memberID int64, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal push payload", zap.Error(err))
		return
	}
	if h.redis != nil {
		err = h.redis.PublishMemberEvent(memberID, event, data)
		if err == nil {
			return
		}
		h.logger.Warn("publish member event, delivering locally", zap.Error(err), zap.Int64("member_id", memberID))
	}
	h.deliver(memberID, event, data)
}
