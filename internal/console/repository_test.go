package console

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clubs/backend/pkg/database/dbtest"
)

func TestStatsAndOverview(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	dbtest.Exec(t, pool, `INSERT INTO clubs (id, name) VALUES (1, 'Chess'), (2, 'Drama')`)
	dbtest.Exec(t, pool, `INSERT INTO club_members (club_id, name, email, password_hash) VALUES
		(1, 'A', 'a@x.edu', 'h'), (1, 'B', 'b@x.edu', 'h'), (2, 'C', 'c@x.edu', 'h')`)
	dbtest.Exec(t, pool, `INSERT INTO events (club_id, title, event_date) VALUES (1, 'Open day', '2030-01-01')`)
	dbtest.Exec(t, pool, `INSERT INTO authority_users (id, name, email, password_hash) VALUES (1, 'Dean', 'dean@x.edu', 'h')`)
	dbtest.Exec(t, pool, `INSERT INTO administrative_announcements (title, message, created_by, is_active)
		VALUES ('a', 'm', 1, TRUE), ('b', 'm', 1, FALSE)`)
	dbtest.Exec(t, pool, `SELECT setval('clubs_id_seq', 100), setval('authority_users_id_seq', 100)`)
	repo := NewRepository(pool)

	s, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalClubs: 2, TotalMembers: 3, TotalEvents: 1, ActiveAnnouncements: 1}, s)

	list, err := repo.ClubsOverview(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	counts := map[string][2]int{}
	for _, o := range list {
		counts[o.Name] = [2]int{o.MemberCount, o.EventCount}
	}
	assert.Equal(t, [2]int{2, 1}, counts["Chess"])
	assert.Equal(t, [2]int{1, 0}, counts["Drama"])

	a, err := repo.Authority(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dean", a.Name)
	_, err = repo.Authority(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}
