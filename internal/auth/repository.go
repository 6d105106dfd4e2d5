package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database"
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// Repository is the credential store for members and authorities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `cm.id, cm.club_id, COALESCE(c.name,''), cm.name, cm.email, cm.password_hash, cm.role,
	COALESCE(cm.position,''), COALESCE(cm.description,''), COALESCE(cm.photo_key,''), COALESCE(cm.contact_no,''),
	COALESCE(cm.gender,''), COALESCE(cm.dept,''), COALESCE(cm.session,''), cm.joined_at`

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	var role string
	err := row.Scan(&m.ID, &m.ClubID, &m.ClubName, &m.Name, &m.Email, &m.Password, &role,
		&m.Position, &m.Description, &m.PhotoKey, &m.ContactNo, &m.Gender, &m.Dept, &m.Session, &m.JoinedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Role = models.Role(role)
	return &m, nil
}

// GetMemberForLogin returns the member account for (email, club).
func (r *Repository) GetMemberForLogin(ctx context.Context, email string, clubID int64) (*models.Member, error) {
	q := `SELECT ` + memberColumns + ` FROM club_members cm
		LEFT JOIN clubs c ON c.id = cm.club_id
		WHERE cm.email = $1 AND cm.club_id = $2`
	return scanMember(r.pool.QueryRow(ctx, q, email, clubID))
}

// GetMemberPassword returns a member's password hash.
func (r *Repository) GetMemberPassword(ctx context.Context, memberID int64) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `SELECT password_hash FROM club_members WHERE id = $1`, memberID).Scan(&hash)
	if database.IsNoRows(err) {
		return "", ErrNotFound
	}
	return hash, err
}

// SetMemberPassword replaces a member's password hash.
func (r *Repository) SetMemberPassword(ctx context.Context, memberID int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE club_members SET password_hash = $2 WHERE id = $1`, memberID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const authorityColumns = `id, name, email, password_hash, COALESCE(designation,''), COALESCE(photo_key,''),
	COALESCE(contact_no,''), created_at, last_login`

func scanAuthority(row pgx.Row) (*models.Authority, error) {
	var a models.Authority
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.Designation, &a.PhotoKey, &a.ContactNo, &a.CreatedAt, &a.LastLogin)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Role = models.RoleAuthority
	return &a, nil
}

// GetAuthorityByEmail returns an authority by email.
func (r *Repository) GetAuthorityByEmail(ctx context.Context, email string) (*models.Authority, error) {
	return scanAuthority(r.pool.QueryRow(ctx, `SELECT `+authorityColumns+` FROM authority_users WHERE email = $1`, email))
}

// GetAuthorityByID returns an authority by id.
func (r *Repository) GetAuthorityByID(ctx context.Context, id int64) (*models.Authority, error) {
	return scanAuthority(r.pool.QueryRow(ctx, `SELECT `+authorityColumns+` FROM authority_users WHERE id = $1`, id))
}

// TouchAuthorityLogin records a successful authority login.
func (r *Repository) TouchAuthorityLogin(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE authority_users SET last_login = NOW() WHERE id = $1`, id)
	return err
}

// CreateAuthority inserts an authority account (used by the provisioning command).
func (r *Repository) CreateAuthority(ctx context.Context, a *models.Authority) error {
	const q = `INSERT INTO authority_users (name, email, password_hash, designation, contact_no)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''))
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, a.Name, a.Email, a.Password, a.Designation, a.ContactNo).Scan(&a.ID, &a.CreatedAt)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("authority %s already exists: %w", a.Email, err)
	}
	return err
}

// FindMemberName returns the name of any member account using email.
func (r *Repository) FindMemberName(ctx context.Context, email string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM club_members WHERE email = $1 ORDER BY id LIMIT 1`, email).Scan(&name)
	if database.IsNoRows(err) {
		return "", ErrNotFound
	}
	return name, err
}

// SaveResetToken stores (or replaces) the reset token digest for email.
func (r *Repository) SaveResetToken(ctx context.Context, email, digest string, expiresAt time.Time) error {
	const q = `INSERT INTO password_resets (email, token_hash, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at`
	_, err := r.pool.Exec(ctx, q, email, digest, expiresAt)
	return err
}

// ConsumeResetToken sets passwordHash on every member account of the token's email and deletes the token.
func (r *Repository) ConsumeResetToken(ctx context.Context, digest, passwordHash string) (string, error) {
	var email string
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT email FROM password_resets WHERE token_hash = $1 AND expires_at > NOW() FOR UPDATE`, digest).Scan(&email)
		if database.IsNoRows(err) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE club_members SET password_hash = $2 WHERE email = $1`, email, passwordHash); err != nil {
			return fmt.Errorf("update passwords: %w", err)
		}
		_, err = tx.Exec(ctx, `DELETE FROM password_resets WHERE email = $1`, email)
		return err
	})
	return email, err
}

// PurgeExpiredResets deletes expired reset tokens and returns how many were removed.
func (r *Repository) PurgeExpiredResets(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM password_resets WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
