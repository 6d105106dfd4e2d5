package events

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
	"github.com/campus-clubs/backend/pkg/export"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type regKey struct{ event, user int64 }

type fakeStore struct {
	events map[int64]*models.Event
	regs   map[regKey]time.Time
}

func newFakeStore() *fakeStore {
	d, _ := models.ParseDate("2030-05-01")
	return &fakeStore{
		events: map[int64]*models.Event{1: {ID: 1, ClubID: 1, Title: "Open day", EventDate: d}},
		regs:   map[regKey]time.Time{},
	}
}

func (f *fakeStore) Create(_ context.Context, e *models.Event) error {
	e.ID = int64(len(f.events) + 1)
	f.events[e.ID] = e
	return nil
}

func (f *fakeStore) ListByClub(_ context.Context, clubID int64) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		if e.ClubID == clubID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(context.Context) ([]models.Event, error) { return nil, nil }

func (f *fakeStore) Upcoming(context.Context, int) ([]models.Event, error) { return nil, nil }

func (f *fakeStore) GetByID(_ context.Context, id int64) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) Register(_ context.Context, eventID, userID int64) error {
	k := regKey{eventID, userID}
	if _, ok := f.regs[k]; ok {
		return ErrAlreadyRegistered
	}
	f.regs[k] = time.Now()
	return nil
}

func (f *fakeStore) Unregister(_ context.Context, eventID, userID int64) error {
	delete(f.regs, regKey{eventID, userID})
	return nil
}

func (f *fakeStore) Registrations(_ context.Context, eventID int64) ([]models.Registration, error) {
	var out []models.Registration
	for k, at := range f.regs {
		if k.event == eventID {
			out = append(out, models.Registration{EventID: k.event, UserID: k.user, RegisteredAt: at})
		}
	}
	return out, nil
}

func (f *fakeStore) MyRegistrations(_ context.Context, userID int64) ([]models.MyRegistration, error) {
	var out []models.MyRegistration
	for k := range f.regs {
		if k.user == userID {
			out = append(out, models.MyRegistration{EventID: k.event})
		}
	}
	return out, nil
}

var (
	authority   = access.Principal{ID: 100, Role: models.RoleAuthority, Kind: access.KindAuthority}
	adminOfOne  = access.Principal{ID: 1, ClubID: 1, Role: models.RoleAdmin, Kind: access.KindMember}
	adminOfTwo  = access.Principal{ID: 3, ClubID: 2, Role: models.RoleAdmin, Kind: access.KindMember}
	memberOfOne = access.Principal{ID: 4, ClubID: 1, Role: models.RoleMember, Kind: access.KindMember}
)

func newRouter(h *Handler, p *access.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.ContextPrincipal, *p)
		}
	})
	r.POST("/clubs/:clubId/events", h.Create)
	r.GET("/clubs/:clubId/events", h.ListByClub)
	r.GET("/events", h.List)
	r.GET("/events/:eventId", h.Get)
	r.POST("/events/:eventId/register", h.Register)
	r.DELETE("/events/:eventId/register", h.Unregister)
	r.GET("/events/:eventId/registrations", h.Registrations)
	r.GET("/events/:eventId/registrations/export", h.ExportRegistrations)
	r.GET("/registrations/my", h.MyRegistrations)
	return r
}

func serve(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	if w.Header().Get("Content-Type") != export.ContentTypeXLSX {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestCreateEvent(t *testing.T) {
	cases := []struct {
		name string
		p    access.Principal
		code int
	}{
		{"authority", authority, http.StatusCreated},
		{"admin of same club", adminOfOne, http.StatusCreated},
		{"admin of other club", adminOfTwo, http.StatusForbidden},
		{"member of same club", memberOfOne, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.p
			w, _ := serve(t, newRouter(NewHandler(newFakeStore(), nil), &p), http.MethodPost, "/clubs/1/events",
				`{"title":"Hack night","event_date":"2031-01-15"}`)
			assert.Equal(t, tc.code, w.Code)
		})
	}

	w, body := serve(t, newRouter(NewHandler(newFakeStore(), nil), &authority), http.MethodPost, "/clubs/1/events",
		`{"title":"Hack night","event_date":"15/01/2031"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Event date must be in YYYY-MM-DD format", body["message"])

	w, body = serve(t, newRouter(NewHandler(newFakeStore(), nil), &authority), http.MethodPost, "/clubs/1/events", `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title and event date are required", body["message"])
}

func TestCreateEventAcceptsPastDate(t *testing.T) {
	store := newFakeStore()
	w, body := serve(t, newRouter(NewHandler(store, nil), &adminOfOne), http.MethodPost, "/clubs/1/events",
		`{"title":"Retro","event_date":"2001-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2001-01-01", body["event"].(map[string]interface{})["event_date"])
}

func TestRegisterForEvent(t *testing.T) {
	store := newFakeStore()
	r := newRouter(NewHandler(store, nil), &memberOfOne)

	w, _ := serve(t, r, http.MethodPost, "/events/1/register", "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w, body := serve(t, r, http.MethodPost, "/events/1/register", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Already registered for this event", body["message"])

	w, body = serve(t, r, http.MethodPost, "/events/9/register", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Event not found", body["message"])

	w, body = serve(t, r, http.MethodGet, "/registrations/my", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(1)}, body["eventIds"])

	w, _ = serve(t, r, http.MethodDelete, "/events/1/register", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = serve(t, r, http.MethodDelete, "/events/1/register", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.regs)

	w, _ = serve(t, newRouter(NewHandler(store, nil), &authority), http.MethodPost, "/events/1/register", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegistrationsVisibility(t *testing.T) {
	store := newFakeStore()
	store.regs[regKey{1, 4}] = time.Now()

	cases := []struct {
		name string
		p    access.Principal
		code int
	}{
		{"authority", authority, http.StatusOK},
		{"admin of same club", adminOfOne, http.StatusOK},
		{"admin of other club", adminOfTwo, http.StatusForbidden},
		{"member of same club", memberOfOne, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.p
			w, body := serve(t, newRouter(NewHandler(store, nil), &p), http.MethodGet, "/events/1/registrations", "")
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				assert.Len(t, body["registrations"], 1)
				assert.Equal(t, body["registrations"], body["attendees"])
			}
		})
	}

	w, _ := serve(t, newRouter(NewHandler(store, nil), &adminOfOne), http.MethodGet, "/events/1/registrations/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
}
