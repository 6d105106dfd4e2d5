package clubs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	clubs   map[int64]*models.Club
	created []CreateParams
	deleted []int64
	keys    []string
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{clubs: map[int64]*models.Club{
		1: {ID: 1, Name: "Chess", Description: "Moves"},
		2: {ID: 2, Name: "Drama", Description: "Stage"},
	}}
}

func (f *fakeStore) Create(_ context.Context, p CreateParams) (*models.Club, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	return &models.Club{ID: 3, Name: p.Name, Description: p.Description}, nil
}

func (f *fakeStore) List(context.Context) ([]models.Club, error) {
	var out []models.Club
	for _, c := range f.clubs {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*models.Club, error) {
	c, ok := f.clubs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, name, desc string) (*models.Club, error) {
	c, ok := f.clubs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Name, c.Description = name, desc
	return c, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) ([]string, error) {
	if _, ok := f.clubs[id]; !ok {
		return nil, ErrNotFound
	}
	delete(f.clubs, id)
	f.deleted = append(f.deleted, id)
	return f.keys, nil
}

func (f *fakeStore) Officers(_ context.Context, clubID int64) ([]models.Member, error) {
	return []models.Member{
		{ID: 11, ClubID: clubID, Name: "Sam", Position: "Secretary"},
		{ID: 10, ClubID: clubID, Name: "Pat", Position: "President", PhotoKey: "photos/p.png"},
		{ID: 12, ClubID: clubID, Name: "Tia", Position: "Treasurer"},
	}, nil
}

func (f *fakeStore) UpcomingEvents(context.Context, int64, int) ([]models.Event, error) { return nil, nil }

func (f *fakeStore) RecentImages(_ context.Context, clubID int64, _ int) ([]models.GalleryImage, error) {
	return []models.GalleryImage{{ID: 1, ClubID: clubID, ObjectKey: "gallery/a.png"}}, nil
}

type fakeFiles struct{}

func (fakeFiles) URL(key string) string { return "https://cdn.example/" + key }

type fakeJobs struct{ deleted []string }

func (*fakeJobs) EnqueueEmail(context.Context, queue.EmailPayload) error { return nil }

func (j *fakeJobs) EnqueueObjectDelete(_ context.Context, key string) error {
	j.deleted = append(j.deleted, key)
	return nil
}

var (
	authority   = access.Principal{ID: 100, Role: models.RoleAuthority, Kind: access.KindAuthority}
	adminOfOne  = access.Principal{ID: 1, ClubID: 1, Role: models.RoleAdmin, Kind: access.KindMember}
	adminOfTwo  = access.Principal{ID: 2, ClubID: 2, Role: models.RoleAdmin, Kind: access.KindMember}
	memberOfOne = access.Principal{ID: 3, ClubID: 1, Role: models.RoleMember, Kind: access.KindMember}
)

func newRouter(h *Handler, p *access.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.ContextPrincipal, *p)
		}
	})
	r.POST("/authority/clubs/create", h.Create)
	r.GET("/clubs", h.List)
	r.GET("/clubs/:clubId", h.Get)
	r.GET("/clubs/:clubId/details", h.Details)
	r.PUT("/clubs/:clubId", h.Update)
	r.DELETE("/authority/clubs/:clubId", h.Delete)
	return r
}

func serve(t *testing.T, r http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestCreateClub(t *testing.T) {
	store := newFakeStore()
	r := newRouter(NewHandler(store, nil, nil, nil), &authority)

	code, body := serve(t, r, http.MethodPost, "/authority/clubs/create", `{
		"name":"Robotics","description":"Bots",
		"president_name":"Pat","president_email":"pat@uni.edu","president_password":"secret1",
		"secretary_name":"Sam","secretary_email":"sam@uni.edu","secretary_password":"secret2"}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, float64(3), body["clubId"])
	assert.Equal(t, "Robotics", body["clubName"])

	require.Len(t, store.created, 1)
	p := store.created[0]
	assert.Equal(t, "President", p.President.Position)
	assert.NotEqual(t, "secret1", p.President.PasswordHash)
	require.NotNil(t, p.Secretary)
	assert.Equal(t, "Secretary", p.Secretary.Position)
}

func TestCreateClubValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"missing president", `{"name":"X"}`, "Club name and president name, email and password are required"},
		{"bad email", `{"name":"X","president_name":"P","president_email":"nope","president_password":"secret1"}`, "Invalid president email"},
		{"partial secretary", `{"name":"X","president_name":"P","president_email":"p@uni.edu","president_password":"secret1","secretary_name":"S"}`,
			"Secretary name, email and password must be provided together"},
		{"blank club name", `{"name":"   ","president_name":"P","president_email":"p@uni.edu","president_password":"secret1"}`,
			"Club name and president name, email and password are required"},
		{"short password", `{"name":"X","president_name":"P","president_email":"p@uni.edu","president_password":"123"}`,
			"Password must be at least 6 characters"},
		{"bad secretary email", `{"name":"X","president_name":"P","president_email":"p@uni.edu","president_password":"secret1","secretary_name":"S","secretary_email":"nope","secretary_password":"secret2"}`,
			"Invalid secretary email"},
		{"shared email", `{"name":"X","president_name":"P","president_email":"p@uni.edu","president_password":"secret1","secretary_name":"S","secretary_email":"P@uni.edu","secretary_password":"secret2"}`,
			"President and secretary must use different emails"},
		{"malformed", `{"name":`, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			r := newRouter(NewHandler(store, nil, nil, nil), &authority)
			code, body := serve(t, r, http.MethodPost, "/authority/clubs/create", tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tc.msg, body["message"])
			assert.Empty(t, store.created)
		})
	}
}

func TestCreateClubDuplicates(t *testing.T) {
	body := `{"name":"Chess","president_name":"P","president_email":"p@uni.edu","president_password":"secret1"}`
	for err, msg := range map[error]string{
		ErrDuplicateName:  "A club with this name already exists",
		ErrDuplicateEmail: "Email already exists in the system",
	} {
		store := newFakeStore()
		store.err = err
		code, out := serve(t, newRouter(NewHandler(store, nil, nil, nil), &authority), http.MethodPost, "/authority/clubs/create", body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, msg, out["message"])
	}
}

func TestUpdateClubAuthorization(t *testing.T) {
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
			store := newFakeStore()
			p := tc.p
			code, _ := serve(t, newRouter(NewHandler(store, nil, nil, nil), &p), http.MethodPut, "/clubs/1", `{"name":"Chess+","description":"More moves"}`)
			assert.Equal(t, tc.code, code)
			if tc.code == http.StatusOK {
				assert.Equal(t, "Chess+", store.clubs[1].Name)
			} else {
				assert.Equal(t, "Chess", store.clubs[1].Name)
			}
		})
	}
}

func TestUpdateClubRequiresFields(t *testing.T) {
	code, body := serve(t, newRouter(NewHandler(newFakeStore(), nil, nil, nil), &authority), http.MethodPut, "/clubs/1", `{"name":"Only"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Name and description are required", body["message"])
}

func TestDeleteClubAuthorization(t *testing.T) {
	cases := []struct {
		name string
		p    access.Principal
		code int
	}{
		{"authority", authority, http.StatusOK},
		{"admin of same club", adminOfOne, http.StatusForbidden},
		{"admin of other club", adminOfTwo, http.StatusForbidden},
		{"member of same club", memberOfOne, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			store.keys = []string{"gallery/1/a.png", "photos/1/b.png"}
			jobs := &fakeJobs{}
			p := tc.p
			code, _ := serve(t, newRouter(NewHandler(store, nil, jobs, nil), &p), http.MethodDelete, "/authority/clubs/1", "")
			assert.Equal(t, tc.code, code)
			if tc.code == http.StatusOK {
				assert.Equal(t, []int64{1}, store.deleted)
				assert.Equal(t, store.keys, jobs.deleted)
			} else {
				assert.Empty(t, store.deleted)
				assert.Empty(t, jobs.deleted)
			}
		})
	}
}

func TestDeleteMissingClub(t *testing.T) {
	code, body := serve(t, newRouter(NewHandler(newFakeStore(), nil, nil, nil), &authority), http.MethodDelete, "/authority/clubs/99", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Club not found", body["message"])
}

func TestDetailsRanksExecutives(t *testing.T) {
	r := newRouter(NewHandler(newFakeStore(), fakeFiles{}, nil, nil), nil)
	code, body := serve(t, r, http.MethodGet, "/clubs/1/details", "")
	require.Equal(t, http.StatusOK, code)

	execs := body["executives"].([]interface{})
	require.Len(t, execs, 2)
	first := execs[0].(map[string]interface{})
	assert.Equal(t, "Pat", first["name"])
	assert.Equal(t, "https://cdn.example/photos/p.png", first["photo"])
	assert.Equal(t, "Tia", execs[1].(map[string]interface{})["name"])

	gallery := body["gallery"].([]interface{})
	assert.Equal(t, "https://cdn.example/gallery/a.png", gallery[0].(map[string]interface{})["url"])
	assert.Equal(t, []interface{}{}, body["upcomingEvents"])
}

func TestGetClubNotFound(t *testing.T) {
	code, _ := serve(t, newRouter(NewHandler(newFakeStore(), nil, nil, nil), nil), http.MethodGet, "/clubs/42", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = serve(t, newRouter(NewHandler(newFakeStore(), nil, nil, nil), nil), http.MethodGet, "/clubs/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
