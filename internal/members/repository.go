package members

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
	ErrNotFound        = errors.New("member not found")
	ErrClubNotFound    = errors.New("club not found")
	ErrNotInClub       = errors.New("member does not belong to club")
	ErrDuplicate       = errors.New("email already registered")
	ErrRequestNotFound = errors.New("join request not found")
	ErrNotPending      = errors.New("join request already decided")
)

// PositionUpdate assigns a position (empty clears it) to a member.
type PositionUpdate struct {
	MemberID int64
	Position string
}

// ProfileUpdate is a partial member update. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name         *string
	ContactNo    *string
	Gender       *string
	Dept         *string
	Session      *string
	Description  *string
	Position     *string
	PasswordHash *string
}

// Repository handles club member and join request persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a member repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `cm.id, cm.club_id, COALESCE(c.name,''), cm.name, cm.email, cm.role,
	COALESCE(cm.position,''), COALESCE(cm.description,''), COALESCE(cm.photo_key,''), COALESCE(cm.contact_no,''),
	COALESCE(cm.gender,''), COALESCE(cm.dept,''), COALESCE(cm.session,''), cm.joined_at`

const memberFrom = ` FROM club_members cm LEFT JOIN clubs c ON c.id = cm.club_id`

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	var role string
	err := row.Scan(&m.ID, &m.ClubID, &m.ClubName, &m.Name, &m.Email, &role,
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

// ListByClub returns a club's roster ordered by name.
func (r *Repository) ListByClub(ctx context.Context, clubID int64) ([]models.Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memberColumns+memberFrom+` WHERE cm.club_id = $1 ORDER BY LOWER(cm.name), cm.id`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// GetByID returns a member by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	return scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+memberFrom+` WHERE cm.id = $1`, id))
}

// SetPositions applies all updates in one transaction. Each write also sets the
// role derived from the new position. Any member outside clubID aborts the batch.
func (r *Repository) SetPositions(ctx context.Context, clubID int64, updates []PositionUpdate) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, u := range updates {
			pos := strings.TrimSpace(u.Position)
			tag, err := tx.Exec(ctx,
				`UPDATE club_members SET position = NULLIF($3, ''), role = $4 WHERE id = $1 AND club_id = $2`,
				u.MemberID, clubID, pos, string(models.DeriveRole(pos)),
			)
			if err != nil {
				return fmt.Errorf("set position for %d: %w", u.MemberID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("member %d: %w", u.MemberID, ErrNotInClub)
			}
		}
		return nil
	})
}

// SetRole sets a member's role.
func (r *Repository) SetRole(ctx context.Context, id int64, role models.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE club_members SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a member and their profiles row, leaving the email free to
// request membership again. It returns the member's photo key.
func (r *Repository) Delete(ctx context.Context, id int64) (string, error) {
	var key string
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var clubID int64
		var email string
		err := tx.QueryRow(ctx,
			`DELETE FROM club_members WHERE id = $1 RETURNING club_id, email, COALESCE(photo_key,'')`, id,
		).Scan(&clubID, &email, &key)
		if database.IsNoRows(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE club_id = $1 AND email = $2`, clubID, email); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Update applies a partial update. Columns come from a fixed list; values are bound.
func (r *Repository) Update(ctx context.Context, id int64, u ProfileUpdate) (*models.Member, error) {
	var sets []string
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	for _, f := range []struct {
		col string
		val *string
	}{
		{"name", u.Name},
		{"contact_no", u.ContactNo},
		{"gender", u.Gender},
		{"dept", u.Dept},
		{"session", u.Session},
		{"description", u.Description},
		{"password_hash", u.PasswordHash},
	} {
		if f.val != nil {
			add(f.col, *f.val)
		}
	}
	if u.Position != nil {
		pos := strings.TrimSpace(*u.Position)
		args = append(args, pos)
		sets = append(sets, fmt.Sprintf("position = NULLIF($%d, '')", len(args)))
		add("role", string(models.DeriveRole(pos)))
	}
	if len(sets) > 0 {
		tag, err := r.pool.Exec(ctx, `UPDATE club_members SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrNotFound
		}
	}
	return r.GetByID(ctx, id)
}

// SetPhoto stores a new photo key and returns the previous one.
func (r *Repository) SetPhoto(ctx context.Context, id int64, key string) (string, error) {
	var old string
	err := r.pool.QueryRow(ctx, `UPDATE club_members m SET photo_key = $2
		FROM (SELECT id, COALESCE(photo_key,'') AS old FROM club_members WHERE id = $1 FOR UPDATE) prev
		WHERE m.id = prev.id RETURNING prev.old`, id, key).Scan(&old)
	if database.IsNoRows(err) {
		return "", ErrNotFound
	}
	return old, err
}

const profileColumns = `id, club_id, name, email, COALESCE(password_hash,''), COALESCE(contact_no,''), approval_status, created_at, decided_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	var status string
	err := row.Scan(&p.ID, &p.ClubID, &p.Name, &p.Email, &p.Password, &p.ContactNo, &status, &p.CreatedAt, &p.DecidedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	p.ApprovalStatus = models.ProfileStatus(status)
	return &p, nil
}

// CreateRequest stores a pending join request. Emails already used in the club are rejected.
func (r *Repository) CreateRequest(ctx context.Context, p *models.Profile) error {
	const q = `INSERT INTO profiles (club_id, name, email, password_hash, contact_no, approval_status)
		SELECT $1, $2, $3, $4, NULLIF($5,''), 'pending'
		WHERE NOT EXISTS (SELECT 1 FROM club_members WHERE club_id = $1 AND email = $3)
		RETURNING id, approval_status, created_at`
	var status string
	err := r.pool.QueryRow(ctx, q, p.ClubID, p.Name, p.Email, p.Password, p.ContactNo).Scan(&p.ID, &status, &p.CreatedAt)
	switch {
	case database.IsNoRows(err), database.IsUniqueViolation(err):
		return ErrDuplicate
	case database.IsForeignKeyViolation(err):
		return ErrClubNotFound
	case err != nil:
		return err
	}
	p.ApprovalStatus = models.ProfileStatus(status)
	return nil
}

// ListRequests returns a club's join requests in the given state, oldest first.
func (r *Repository) ListRequests(ctx context.Context, clubID int64, status models.ProfileStatus) ([]models.Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE club_id = $1 AND approval_status = $2 ORDER BY created_at, id`,
		clubID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// GetRequest returns a join request by id.
func (r *Repository) GetRequest(ctx context.Context, id int64) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

// ApproveRequest copies a pending request into club_members and marks it approved, atomically.
func (r *Repository) ApproveRequest(ctx context.Context, id int64) (*models.Member, error) {
	var memberID int64
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanProfile(tx.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.ApprovalStatus != models.ProfilePending {
			return ErrNotPending
		}
		err = tx.QueryRow(ctx, `INSERT INTO club_members (club_id, name, email, password_hash, role, contact_no)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6,'')) RETURNING id`,
			p.ClubID, p.Name, p.Email, p.Password, string(models.RoleMember), p.ContactNo,
		).Scan(&memberID)
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		_, err = tx.Exec(ctx, `UPDATE profiles SET approval_status = 'approved', decided_at = NOW() WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, memberID)
}

// RejectRequest marks a pending request rejected.
func (r *Repository) RejectRequest(ctx context.Context, id int64) error {
	var status string
	err := r.pool.QueryRow(ctx, `UPDATE profiles p SET approval_status = CASE WHEN prev.approval_status = 'pending' THEN 'rejected' ELSE p.approval_status END,
			decided_at = CASE WHEN prev.approval_status = 'pending' THEN NOW() ELSE p.decided_at END
		FROM (SELECT id, approval_status FROM profiles WHERE id = $1 FOR UPDATE) prev
		WHERE p.id = prev.id RETURNING prev.approval_status`, id).Scan(&status)
	if database.IsNoRows(err) {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}
	if models.ProfileStatus(status) != models.ProfilePending {
		return ErrNotPending
	}
	return nil
}
