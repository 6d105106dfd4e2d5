package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	stats Stats
	clubs []models.ClubOverview
	err   error
}

func (f *fakeStore) Stats(context.Context) (Stats, error) { return f.stats, f.err }

func (f *fakeStore) ClubsOverview(context.Context) ([]models.ClubOverview, error) {
	return f.clubs, f.err
}

func (f *fakeStore) MemberCount(context.Context) (int, error) { return f.stats.TotalMembers, f.err }

func (f *fakeStore) Authority(_ context.Context, id int64) (*models.Authority, error) {
	if id != 1 {
		return nil, ErrNotFound
	}
	return &models.Authority{ID: 1, Name: "Dean", PhotoKey: "photos/dean.png", Role: models.RoleAuthority}, nil
}

type fakeFiles struct{}

func (fakeFiles) URL(key string) string { return "https://cdn.test/" + key }

func get(t *testing.T, h *Handler, p access.Principal, path string, fn gin.HandlerFunc) (int, map[string]interface{}) {
	t.Helper()
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextPrincipal, p) })
	r.GET(path, fn)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

var authority = access.Principal{ID: 1, Role: models.RoleAuthority, Kind: access.KindAuthority}

func TestStats(t *testing.T) {
	store := &fakeStore{stats: Stats{TotalClubs: 3, TotalMembers: 40, TotalEvents: 7, ActiveAnnouncements: 2}}
	h := NewHandler(store, nil, nil)
	code, body := get(t, h, authority, "/authority/dashboard/stats", h.Stats)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{
		"totalClubs": float64(3), "totalMembers": float64(40), "totalEvents": float64(7), "activeAnnouncements": float64(2),
	}, body["stats"])

	code, body = get(t, h, authority, "/members/count", h.MemberCount)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(40), body["count"])
}

func TestClubsOverview(t *testing.T) {
	store := &fakeStore{clubs: []models.ClubOverview{{Club: models.Club{ID: 1, Name: "Chess"}, MemberCount: 12, EventCount: 2}}}
	h := NewHandler(store, nil, nil)
	_, body := get(t, h, authority, "/authority/clubs", h.Clubs)
	club := body["clubs"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Chess", club["name"])
	assert.Equal(t, float64(12), club["member_count"])
	assert.Equal(t, float64(2), club["event_count"])

	_, body = get(t, NewHandler(&fakeStore{}, nil, nil), authority, "/authority/clubs", h.Clubs)
	assert.Equal(t, []interface{}{}, body["clubs"])
}

func TestProfile(t *testing.T) {
	h := NewHandler(&fakeStore{}, fakeFiles{}, nil)
	code, body := get(t, h, authority, "/authority/profile", h.Profile)
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "https://cdn.test/photos/dean.png", user["photo"])
	_, hasPassword := user["password"]
	assert.False(t, hasPassword)

	stale := authority
	stale.ID = 9
	code, _ = get(t, h, stale, "/authority/profile", h.Profile)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStoreErrorIsGeneric(t *testing.T) {
	h := NewHandler(&fakeStore{err: errors.New("connection reset")}, nil, nil)
	code, body := get(t, h, authority, "/authority/dashboard/stats", h.Stats)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body["message"])
}
