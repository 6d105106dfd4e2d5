package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database/dbtest"
)

func TestRegisterDuplicateAndCascade(t *testing.T) {
	pool := dbtest.Open(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	dbtest.Exec(t, pool, `INSERT INTO clubs (id, name) VALUES (1, 'Chess')`)
	dbtest.Exec(t, pool, `INSERT INTO club_members (id, club_id, name, email, password_hash) VALUES (1, 1, 'Max', 'max@uni.edu', 'h')`)

	d, err := models.ParseDate("2030-05-01")
	require.NoError(t, err)
	e := &models.Event{ClubID: 1, Title: "Open day", EventDate: d}
	require.NoError(t, repo.Create(ctx, e))

	require.NoError(t, repo.Register(ctx, e.ID, 1))
	assert.ErrorIs(t, repo.Register(ctx, e.ID, 1), ErrAlreadyRegistered)
	assert.ErrorIs(t, repo.Register(ctx, e.ID+100, 1), ErrNotFound)

	regs, err := repo.Registrations(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "max@uni.edu", regs[0].Email)

	mine, err := repo.MyRegistrations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "2030-05-01", mine[0].EventDate.String())

	require.NoError(t, repo.Unregister(ctx, e.ID, 1))
	require.NoError(t, repo.Unregister(ctx, e.ID, 1))

	assert.ErrorIs(t, repo.Create(ctx, &models.Event{ClubID: 42, Title: "x", EventDate: d}), ErrClubNotFound)

	onDay, err := repo.OnDate(ctx, d)
	require.NoError(t, err)
	assert.Len(t, onDay, 1)
}
