package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database"
)

var ErrNotFound = errors.New("authority not found")

// Stats is the authority dashboard summary.
type Stats struct {
	TotalClubs          int `json:"totalClubs"`
	TotalMembers        int `json:"totalMembers"`
	TotalEvents         int `json:"totalEvents"`
	ActiveAnnouncements int `json:"activeAnnouncements"`
}

// Repository runs the console's aggregate queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a console repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Stats counts clubs, members, events and active authority announcements in one round trip.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM clubs),
		(SELECT COUNT(*) FROM club_members),
		(SELECT COUNT(*) FROM events),
		(SELECT COUNT(*) FROM administrative_announcements WHERE is_active)`,
	).Scan(&s.TotalClubs, &s.TotalMembers, &s.TotalEvents, &s.ActiveAnnouncements)
	if err != nil {
		return Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return s, nil
}

// ClubsOverview returns every club with its member and event counts, newest first.
func (r *Repository) ClubsOverview(ctx context.Context) ([]models.ClubOverview, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.description, c.created_at,
			(SELECT COUNT(*) FROM club_members cm WHERE cm.club_id = c.id),
			(SELECT COUNT(*) FROM events e WHERE e.club_id = c.id)
		FROM clubs c
		ORDER BY c.created_at DESC, c.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("clubs overview: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ClubOverview, error) {
		var o models.ClubOverview
		err := row.Scan(&o.ID, &o.Name, &o.Description, &o.CreatedAt, &o.MemberCount, &o.EventCount)
		return o, err
	})
}

// MemberCount returns the number of member accounts across all clubs.
func (r *Repository) MemberCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM club_members`).Scan(&n)
	return n, err
}

// Authority returns the authority profile for id.
func (r *Repository) Authority(ctx context.Context, id int64) (*models.Authority, error) {
	var a models.Authority
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, COALESCE(designation,''), COALESCE(photo_key,''),
		COALESCE(contact_no,''), created_at, last_login FROM authority_users WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Designation, &a.PhotoKey, &a.ContactNo, &a.CreatedAt, &a.LastLogin)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Role = models.RoleAuthority
	return &a, nil
}
