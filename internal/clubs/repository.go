package clubs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database"
)

var (
	ErrNotFound       = errors.New("club not found")
	ErrDuplicateName  = errors.New("club name already exists")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Founder is a member account created together with its club.
type Founder struct {
	Name         string
	Email        string
	PasswordHash string
	Position     string
}

// CreateParams holds a new club and its founding officers. Secretary may be nil.
type CreateParams struct {
	Name        string
	Description string
	President   Founder
	Secretary   *Founder
}

// Repository handles club persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a club repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func classify(err error) error {
	if !database.IsUniqueViolation(err) {
		return err
	}
	if database.ConstraintName(err) == "clubs_name_key" {
		return ErrDuplicateName
	}
	return ErrDuplicateEmail
}

// Create inserts the club, its president and optional secretary, and mirrors both
// into profiles as approved. Everything happens in one transaction.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.Club, error) {
	var club models.Club
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO clubs (name, description) VALUES ($1, $2) RETURNING id, name, description, created_at`,
			p.Name, p.Description,
		).Scan(&club.ID, &club.Name, &club.Description, &club.CreatedAt)
		if err != nil {
			return classify(err)
		}
		founders := []Founder{p.President}
		if p.Secretary != nil {
			founders = append(founders, *p.Secretary)
		}
		for _, f := range founders {
			if err := insertFounder(ctx, tx, club.ID, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func insertFounder(ctx context.Context, tx pgx.Tx, clubID int64, f Founder) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO club_members (club_id, name, email, password_hash, role, position) VALUES ($1, $2, $3, $4, $5, $6)`,
		clubID, f.Name, f.Email, f.PasswordHash, string(models.DeriveRole(f.Position)), f.Position,
	)
	if err != nil {
		return classify(err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (club_id, name, email, password_hash, approval_status, decided_at) VALUES ($1, $2, $3, $4, $5, NOW())`,
		clubID, f.Name, f.Email, f.PasswordHash, string(models.ProfileApproved),
	)
	if err != nil {
		return classify(err)
	}
	return nil
}

// List returns all clubs ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Club, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM clubs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Club
	for rows.Next() {
		var c models.Club
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetByID returns a club by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Club, error) {
	var c models.Club
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at FROM clubs WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update replaces the club's name and description.
func (r *Repository) Update(ctx context.Context, id int64, name, description string) (*models.Club, error) {
	var c models.Club
	err := r.pool.QueryRow(ctx,
		`UPDATE clubs SET name = $2, description = $3 WHERE id = $1 RETURNING id, name, description, created_at`,
		id, name, description,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

// Delete removes a club and everything it owns in one transaction and returns the
// storage keys (member photos, gallery images) that are now orphaned.
func (r *Repository) Delete(ctx context.Context, id int64) ([]string, error) {
	var keys []string
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM clubs WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if database.IsNoRows(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `SELECT object_key FROM gallery_images WHERE club_id = $1
			UNION ALL SELECT photo_key FROM club_members WHERE club_id = $1 AND photo_key IS NOT NULL AND photo_key <> ''`, id)
		if err != nil {
			return err
		}
		keys, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}
		// Children first; registrations and messages cascade from members and events.
		stmts := []string{
			`DELETE FROM gallery_images WHERE club_id = $1`,
			`DELETE FROM announcements WHERE club_id = $1`,
			`DELETE FROM admin_announcement_clubs WHERE club_id = $1`,
			`DELETE FROM events WHERE club_id = $1`,
			`DELETE FROM profiles WHERE club_id = $1`,
			`DELETE FROM club_members WHERE club_id = $1`,
			`DELETE FROM clubs WHERE id = $1`,
		}
		for _, q := range stmts {
			if _, err := tx.Exec(ctx, q, id); err != nil {
				return fmt.Errorf("delete club %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Officers returns the members of a club that hold a position.
func (r *Repository) Officers(ctx context.Context, clubID int64) ([]models.Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, club_id, name, email, role, position, COALESCE(photo_key,''), COALESCE(description,'')
		FROM club_members WHERE club_id = $1 AND position IS NOT NULL AND TRIM(position) <> ''`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Member
	for rows.Next() {
		var m models.Member
		var role string
		if err := rows.Scan(&m.ID, &m.ClubID, &m.Name, &m.Email, &role, &m.Position, &m.PhotoKey, &m.Description); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		list = append(list, m)
	}
	return list, rows.Err()
}

// UpcomingEvents returns the club's next events from today on.
func (r *Repository) UpcomingEvents(ctx context.Context, clubID int64, limit int) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, club_id, title, description, event_date, created_at FROM events
		WHERE club_id = $1 AND event_date >= CURRENT_DATE ORDER BY event_date, id LIMIT $2`, clubID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.ClubID, &e.Title, &e.Description, &e.EventDate.Time, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// RecentImages returns the club's newest gallery images.
func (r *Repository) RecentImages(ctx context.Context, clubID int64, limit int) ([]models.GalleryImage, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, club_id, object_key, caption, uploaded_by, created_at FROM gallery_images
		WHERE club_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, clubID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.GalleryImage
	for rows.Next() {
		var g models.GalleryImage
		if err := rows.Scan(&g.ID, &g.ClubID, &g.ObjectKey, &g.Caption, &g.UploadedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}
