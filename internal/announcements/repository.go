package announcements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database"
)

var (
	ErrNotFound     = errors.New("announcement not found")
	ErrClubNotFound = errors.New("club not found")
)

// AdminUpdate is a partial authority announcement update. Nil fields are unchanged.
type AdminUpdate struct {
	Title    *string
	Message  *string
	Type     *string
	IsActive *bool
}

// Empty reports whether u changes nothing.
func (u AdminUpdate) Empty() bool {
	return u.Title == nil && u.Message == nil && u.Type == nil && u.IsActive == nil
}

// Repository handles both announcement boards.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an announcement repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clubSelect = `SELECT a.id, a.club_id, COALESCE(c.name,''), a.message, a.created_by, COALESCE(m.name,''), a.created_at, a.updated_at
	FROM announcements a
	LEFT JOIN clubs c ON c.id = a.club_id
	LEFT JOIN club_members m ON m.id = a.created_by`

func scanClub(row pgx.Row) (*models.Announcement, error) {
	var a models.Announcement
	err := row.Scan(&a.ID, &a.ClubID, &a.ClubName, &a.Message, &a.CreatedBy, &a.AuthorName, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListClub returns club board posts, newest first. clubID 0 lists every club.
func (r *Repository) ListClub(ctx context.Context, clubID int64) ([]models.Announcement, error) {
	q := clubSelect + ` WHERE ($1 = 0 OR a.club_id = $1) ORDER BY a.created_at DESC, a.id DESC`
	rows, err := r.pool.Query(ctx, q, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Announcement
	for rows.Next() {
		a, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// GetClub returns a club board post.
func (r *Repository) GetClub(ctx context.Context, id int64) (*models.Announcement, error) {
	return scanClub(r.pool.QueryRow(ctx, clubSelect+` WHERE a.id = $1`, id))
}

// CreateClub inserts a club board post.
func (r *Repository) CreateClub(ctx context.Context, a *models.Announcement) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO announcements (club_id, message, created_by) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		a.ClubID, a.Message, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if database.IsForeignKeyViolation(err) {
		return ErrClubNotFound
	}
	return err
}

// UpdateClub replaces a post's message.
func (r *Repository) UpdateClub(ctx context.Context, id int64, message string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE announcements SET message = $2, updated_at = NOW() WHERE id = $1`, id, message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteClub removes a club board post.
func (r *Repository) DeleteClub(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const adminSelect = `SELECT a.id, a.title, a.message, a.type, a.target_audience, a.created_by, COALESCE(u.name,''), a.is_active,
	ARRAY(SELECT ac.club_id FROM admin_announcement_clubs ac WHERE ac.announcement_id = a.id ORDER BY ac.club_id), a.created_at
	FROM administrative_announcements a
	LEFT JOIN authority_users u ON u.id = a.created_by`

func scanAdmin(row pgx.Row) (*models.AdminAnnouncement, error) {
	var a models.AdminAnnouncement
	var audience string
	err := row.Scan(&a.ID, &a.Title, &a.Message, &a.Type, &audience, &a.CreatedBy, &a.CreatorName, &a.IsActive, &a.ClubIDs, &a.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.TargetAudience = models.Audience(audience)
	return &a, nil
}

func (r *Repository) listAdmin(ctx context.Context, q string, args ...any) ([]models.AdminAnnouncement, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AdminAnnouncement
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// CreateAdmin inserts an authority announcement and its club targets in one transaction.
func (r *Repository) CreateAdmin(ctx context.Context, a *models.AdminAnnouncement) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO administrative_announcements (title, message, type, target_audience, created_by)
			VALUES ($1, $2, $3, $4, $5) RETURNING id, is_active, created_at`,
			a.Title, a.Message, a.Type, string(a.TargetAudience), a.CreatedBy,
		).Scan(&a.ID, &a.IsActive, &a.CreatedAt)
		if err != nil {
			return err
		}
		for _, clubID := range a.ClubIDs {
			_, err := tx.Exec(ctx, `INSERT INTO admin_announcement_clubs (announcement_id, club_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				a.ID, clubID)
			if database.IsForeignKeyViolation(err) {
				return fmt.Errorf("club %d: %w", clubID, ErrClubNotFound)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListAdmin returns every authority announcement, newest first.
func (r *Repository) ListAdmin(ctx context.Context) ([]models.AdminAnnouncement, error) {
	return r.listAdmin(ctx, adminSelect+` ORDER BY a.created_at DESC, a.id DESC`)
}

// VisibleAdmin returns active announcements addressed to clubID (0 = readers without a club).
func (r *Repository) VisibleAdmin(ctx context.Context, clubID int64) ([]models.AdminAnnouncement, error) {
	return r.listAdmin(ctx, adminSelect+` WHERE a.is_active AND (
			a.target_audience IN ('all_clubs', 'all_students')
			OR ($1 > 0 AND EXISTS (SELECT 1 FROM admin_announcement_clubs ac WHERE ac.announcement_id = a.id AND ac.club_id = $1)))
		ORDER BY a.created_at DESC, a.id DESC`, clubID)
}

// ActiveAdmin returns every active announcement regardless of audience.
func (r *Repository) ActiveAdmin(ctx context.Context) ([]models.AdminAnnouncement, error) {
	return r.listAdmin(ctx, adminSelect+` WHERE a.is_active ORDER BY a.created_at DESC, a.id DESC`)
}

// GetAdmin returns an authority announcement.
func (r *Repository) GetAdmin(ctx context.Context, id int64) (*models.AdminAnnouncement, error) {
	return scanAdmin(r.pool.QueryRow(ctx, adminSelect+` WHERE a.id = $1`, id))
}

// UpdateAdmin applies a partial update from a fixed column list.
func (r *Repository) UpdateAdmin(ctx context.Context, id int64, u AdminUpdate) error {
	var sets []string
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Message != nil {
		add("message", *u.Message)
	}
	if u.Type != nil {
		add("type", *u.Type)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	tag, err := r.pool.Exec(ctx, `UPDATE administrative_announcements SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAdmin removes an authority announcement; club targets cascade.
func (r *Repository) DeleteAdmin(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM administrative_announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
