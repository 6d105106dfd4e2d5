// Package dbtest opens a migrated Postgres pool for repository tests.
// Tests using it are skipped unless TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/pkg/database"
)

const truncateAll = `TRUNCATE clubs, club_members, profiles, authority_users, events, event_registrations,
	announcements, administrative_announcements, admin_announcement_clubs, messages, gallery_images,
	password_resets RESTART IDENTITY CASCADE`

// Open returns a pool on TEST_DATABASE_URL with migrations applied and all tables emptied.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, database.PoolOptions{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool, zap.NewNop()))
	_, err = pool.Exec(ctx, truncateAll)
	require.NoError(t, err)
	return pool
}

// Exec runs a statement and fails the test on error.
func Exec(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()
	_, err := pool.Exec(context.Background(), sql, args...)
	require.NoError(t, err)
}

// Count returns SELECT COUNT(*) for the given query.
func Count(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), sql, args...).Scan(&n))
	return n
}
