package members

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database/dbtest"
)

func seedClub(t *testing.T, repo *Repository) {
	t.Helper()
	pool := repo.pool
	dbtest.Exec(t, pool, `INSERT INTO clubs (id, name) VALUES (1, 'Chess'), (2, 'Drama')`)
	dbtest.Exec(t, pool, `INSERT INTO club_members (id, club_id, name, email, password_hash, role, position) VALUES
		(1, 1, 'Pat', 'pat@uni.edu', 'h', 'admin', 'President'),
		(2, 1, 'Max', 'max@uni.edu', 'h', 'member', NULL),
		(3, 2, 'Oli', 'oli@uni.edu', 'h', 'admin', 'President')`)
	dbtest.Exec(t, pool, `SELECT setval('clubs_id_seq', 100), setval('club_members_id_seq', 100)`)
}

func TestSetPositionsDerivesRoleAndIsAtomic(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	seedClub(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.SetPositions(ctx, 1, []PositionUpdate{
		{MemberID: 1, Position: ""},
		{MemberID: 2, Position: " secretary "},
	}))
	pat, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, pat.Role)
	assert.Equal(t, "", pat.Position)
	maxm, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, maxm.Role)

	err = repo.SetPositions(ctx, 1, []PositionUpdate{
		{MemberID: 1, Position: "President"},
		{MemberID: 3, Position: "Treasurer"},
	})
	assert.ErrorIs(t, err, ErrNotInClub)
	pat, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "", pat.Position, "first write must roll back")
}

func TestUpdateRoutesPositionThroughRole(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	seedClub(t, repo)
	ctx := context.Background()

	pos, name := "General Secretary", "Maxine"
	m, err := repo.Update(ctx, 2, ProfileUpdate{Position: &pos, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, m.Role)
	assert.Equal(t, "Maxine", m.Name)

	_, err = repo.Update(ctx, 404, ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveRequest(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	seedClub(t, repo)
	ctx := context.Background()

	p := &models.Profile{ClubID: 1, Name: "Ann", Email: "ann@uni.edu", Password: "h"}
	require.NoError(t, repo.CreateRequest(ctx, p))
	assert.ErrorIs(t, repo.CreateRequest(ctx, &models.Profile{ClubID: 1, Name: "Max", Email: "max@uni.edu", Password: "h"}), ErrDuplicate)
	assert.ErrorIs(t, repo.CreateRequest(ctx, &models.Profile{ClubID: 9, Name: "X", Email: "x@uni.edu", Password: "h"}), ErrClubNotFound)

	m, err := repo.ApproveRequest(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)
	assert.Equal(t, int64(1), m.ClubID)

	_, err = repo.ApproveRequest(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.ErrorIs(t, repo.RejectRequest(ctx, p.ID), ErrNotPending)
	assert.ErrorIs(t, repo.RejectRequest(ctx, 9999), ErrRequestNotFound)
}

func TestDeleteFreesEmailForNewRequest(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	seedClub(t, repo)
	ctx := context.Background()

	p := &models.Profile{ClubID: 1, Name: "Ann", Email: "ann@uni.edu", Password: "h"}
	require.NoError(t, repo.CreateRequest(ctx, p))
	m, err := repo.ApproveRequest(ctx, p.ID)
	require.NoError(t, err)

	_, err = repo.Delete(ctx, m.ID)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	again := &models.Profile{ClubID: 1, Name: "Ann", Email: "ann@uni.edu", Password: "h2"}
	require.NoError(t, repo.CreateRequest(ctx, again))
	assert.Equal(t, models.ProfilePending, again.ApprovalStatus)

	_, err = repo.Delete(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
