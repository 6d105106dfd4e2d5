package messages

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/internal/realtime"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	alice     = access.Principal{ID: 1, ClubID: 1, Role: models.RoleMember, Kind: access.KindMember}
	bob       = access.Principal{ID: 2, ClubID: 1, Role: models.RoleMember, Kind: access.KindMember}
	authority = access.Principal{ID: 1, Role: models.RoleAuthority, Kind: access.KindAuthority}
)

// fakeStore keeps messages in memory; clubs maps member id to club id.
type fakeStore struct {
	clubs map[int64]int64
	msgs  []models.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{clubs: map[int64]int64{1: 1, 2: 1, 3: 2}}
}

func (f *fakeStore) Conversations(_ context.Context, userID int64) ([]models.Conversation, error) {
	latest := map[int64]models.Conversation{}
	var order []int64
	for _, m := range f.msgs {
		var partner int64
		switch userID {
		case m.SenderID:
			partner = m.ReceiverID
		case m.ReceiverID:
			partner = m.SenderID
		default:
			continue
		}
		conv, seen := latest[partner]
		if !seen {
			order = append(order, partner)
		}
		conv.PartnerID, conv.MessageID, conv.Message, conv.Status = partner, m.ID, m.Message, m.Status
		if m.ReceiverID == userID && m.Status == models.MessageUnread {
			conv.Unread++
		}
		latest[partner] = conv
	}
	var out []models.Conversation
	for _, p := range order {
		out = append(out, latest[p])
	}
	return out, nil
}

func (f *fakeStore) History(_ context.Context, userID, partnerID, afterID int64) ([]models.Message, error) {
	var out []models.Message
	for i, m := range f.msgs {
		pair := (m.SenderID == userID && m.ReceiverID == partnerID) || (m.SenderID == partnerID && m.ReceiverID == userID)
		if pair && m.ID > afterID {
			out = append(out, m)
		}
		if m.SenderID == partnerID && m.ReceiverID == userID {
			f.msgs[i].Status = models.MessageRead
		}
	}
	return out, nil
}

func (f *fakeStore) Send(_ context.Context, senderID, receiverID int64, text string) (*models.Message, error) {
	rc, ok := f.clubs[receiverID]
	if !ok || rc != f.clubs[senderID] {
		return nil, ErrReceiverNotInClub
	}
	m := models.Message{ID: int64(len(f.msgs) + 1), SenderID: senderID, ReceiverID: receiverID, Message: text,
		Status: models.MessageUnread, CreatedAt: time.Now()}
	f.msgs = append(f.msgs, m)
	return &m, nil
}

func (f *fakeStore) UnreadCount(_ context.Context, userID int64) (int, error) {
	n := 0
	for _, m := range f.msgs {
		if m.ReceiverID == userID && m.Status == models.MessageUnread {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Partner(_ context.Context, id int64) (*models.Partner, error) {
	club, ok := f.clubs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &models.Partner{ID: id, ClubID: club, Name: "member", PhotoKey: "photos/1/x.png"}, nil
}

type push struct {
	member int64
	event  string
}

type fakeNotifier struct{ pushes []push }

func (n *fakeNotifier) PublishToMember(memberID int64, event string, _ interface{}) {
	n.pushes = append(n.pushes, push{memberID, event})
}

type fakeFiles struct{}

func (fakeFiles) URL(key string) string { return "https://cdn.test/" + key }

func newRouter(h *Handler, p access.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextPrincipal, p) })
	r.GET("/messages/conversations/:userId", h.Conversations)
	r.GET("/messages/conversation/:userId/:partnerId", h.Conversation)
	r.POST("/messages", h.Send)
	r.GET("/messages/unread-count/:userId", h.UnreadCount)
	return r
}

func serve(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestSendAndReadMarksMessages(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	h := NewHandler(store, fakeFiles{}, notifier, 0, nil)

	asBob := newRouter(h, bob)
	for _, text := range []string{"hi", "are you coming?"} {
		w, body := serve(t, asBob, http.MethodPost, "/messages", `{"receiverId":1,"message":"`+text+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, true, body["success"])
		assert.NotNil(t, body["messageId"])
	}
	assert.Equal(t, []push{{1, realtime.EventMessage}, {1, realtime.EventMessage}}, notifier.pushes)

	asAlice := newRouter(h, alice)
	_, body := serve(t, asAlice, http.MethodGet, "/messages/unread-count/1", "")
	assert.Equal(t, float64(2), body["count"])

	_, body = serve(t, asAlice, http.MethodGet, "/messages/conversations/1", "")
	convs := body["conversations"].([]interface{})
	require.Len(t, convs, 1)
	assert.Equal(t, float64(2), convs[0].(map[string]interface{})["unread"])

	// Opening the conversation is a read with a write side effect.
	w, body := serve(t, asAlice, http.MethodGet, "/messages/conversation/1/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["messages"], 2)
	assert.Equal(t, float64(2000), body["pollIntervalMs"])
	partner := body["partner"].(map[string]interface{})
	assert.Equal(t, "https://cdn.test/photos/1/x.png", partner["photo"])

	_, body = serve(t, asAlice, http.MethodGet, "/messages/unread-count/1", "")
	assert.Equal(t, float64(0), body["count"])
	_, body = serve(t, asAlice, http.MethodGet, "/messages/conversations/1", "")
	conv := body["conversations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(0), conv["unread"])
	assert.Equal(t, "read", conv["status"])

	// Bob's own view does not mark his outgoing messages.
	serve(t, asBob, http.MethodGet, "/messages/conversation/2/1", "")
	_, body = serve(t, asBob, http.MethodGet, "/messages/unread-count/2", "")
	assert.Equal(t, float64(0), body["count"])
}

func TestConversationAfter(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, nil, nil, 500*time.Millisecond, nil)
	asBob := newRouter(h, bob)
	serve(t, asBob, http.MethodPost, "/messages", `{"receiverId":"1","message":"one"}`)
	serve(t, asBob, http.MethodPost, "/messages", `{"receiverId":"1","message":"two"}`)

	_, body := serve(t, newRouter(h, alice), http.MethodGet, "/messages/conversation/1/2?after=1", "")
	list := body["messages"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].(map[string]interface{})["message"])
	assert.Equal(t, float64(500), body["pollIntervalMs"])

	w, _ := serve(t, newRouter(h, alice), http.MethodGet, "/messages/conversation/1/2?after=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInboxIsOwnerOnly(t *testing.T) {
	h := NewHandler(newFakeStore(), nil, nil, 0, nil)
	for _, path := range []string{"/messages/conversations/2", "/messages/conversation/2/1", "/messages/unread-count/2"} {
		w, body := serve(t, newRouter(h, alice), http.MethodGet, path, "")
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Equal(t, msgOwnInbox, body["message"])

		w, _ = serve(t, newRouter(h, authority), http.MethodGet, path, "")
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestSendValidation(t *testing.T) {
	h := NewHandler(newFakeStore(), nil, nil, 0, nil)
	r := newRouter(h, alice)
	cases := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"missing receiver", `{"message":"hi"}`, http.StatusBadRequest, "All fields required"},
		{"blank message", `{"receiverId":2,"message":"  "}`, http.StatusBadRequest, "All fields required"},
		{"self", `{"receiverId":1,"message":"hi"}`, http.StatusBadRequest, "You cannot message yourself"},
		{"other club", `{"receiverId":3,"message":"hi"}`, http.StatusBadRequest, "Receiver must be a member of your club"},
		{"unknown receiver", `{"receiverId":99,"message":"hi"}`, http.StatusBadRequest, "Receiver must be a member of your club"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := serve(t, r, http.MethodPost, "/messages", tc.body)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.msg, body["message"])
		})
	}

	w, _ := serve(t, newRouter(h, authority), http.MethodPost, "/messages", `{"receiverId":2,"message":"hi"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConversationUnknownPartner(t *testing.T) {
	h := NewHandler(newFakeStore(), nil, nil, 0, nil)
	w, body := serve(t, newRouter(h, alice), http.MethodGet, "/messages/conversation/1/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", body["message"])
}
