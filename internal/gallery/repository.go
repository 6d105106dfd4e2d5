package gallery

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database"
)

var (
	ErrNotFound     = errors.New("image not found")
	ErrClubNotFound = errors.New("club not found")
)

// Repository handles gallery_images persistence. Objects themselves live in the media bucket.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a gallery repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const imageColumns = `id, club_id, object_key, caption, uploaded_by, created_at`

func scanImage(row pgx.Row) (models.GalleryImage, error) {
	var g models.GalleryImage
	err := row.Scan(&g.ID, &g.ClubID, &g.ObjectKey, &g.Caption, &g.UploadedBy, &g.CreatedAt)
	return g, err
}

// Create inserts an image row and fills id and created_at.
func (r *Repository) Create(ctx context.Context, g *models.GalleryImage) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO gallery_images (club_id, object_key, caption, uploaded_by) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		g.ClubID, g.ObjectKey, g.Caption, g.UploadedBy,
	).Scan(&g.ID, &g.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return ErrClubNotFound
	}
	return err
}

// List returns images newest first, for one club when clubID > 0. limit <= 0 means no limit.
func (r *Repository) List(ctx context.Context, clubID int64, limit int) ([]models.GalleryImage, error) {
	q := `SELECT ` + imageColumns + ` FROM gallery_images WHERE ($1 = 0 OR club_id = $1)
		ORDER BY created_at DESC, id DESC`
	args := []any{clubID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GalleryImage, error) {
		return scanImage(row)
	})
}

// Get returns one image.
func (r *Repository) Get(ctx context.Context, id int64) (*models.GalleryImage, error) {
	g, err := scanImage(r.pool.QueryRow(ctx, `SELECT `+imageColumns+` FROM gallery_images WHERE id = $1`, id))
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Delete removes an image row and returns its object key.
func (r *Repository) Delete(ctx context.Context, id int64) (string, error) {
	var key string
	err := r.pool.QueryRow(ctx, `DELETE FROM gallery_images WHERE id = $1 RETURNING object_key`, id).Scan(&key)
	if database.IsNoRows(err) {
		return "", ErrNotFound
	}
	return key, err
}
