package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database"
)

var (
	ErrNotFound          = errors.New("event not found")
	ErrClubNotFound      = errors.New("club not found")
	ErrAlreadyRegistered = errors.New("already registered")
)

// Repository handles event and registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventSelect = `SELECT e.id, e.club_id, COALESCE(c.name,''), e.title, e.description, e.event_date, e.created_at
	FROM events e LEFT JOIN clubs c ON c.id = e.club_id`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.ClubID, &e.ClubName, &e.Title, &e.Description, &e.EventDate.Time, &e.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// Create inserts an event and fills its id and created_at.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO events (club_id, title, description, event_date) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		e.ClubID, e.Title, e.Description, e.EventDate.Time,
	).Scan(&e.ID, &e.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return ErrClubNotFound
	}
	return err
}

// ListByClub returns a club's events, soonest first.
func (r *Repository) ListByClub(ctx context.Context, clubID int64) ([]models.Event, error) {
	return r.list(ctx, eventSelect+` WHERE e.club_id = $1 ORDER BY e.event_date, e.id`, clubID)
}

// ListAll returns every event, newest date first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, eventSelect+` ORDER BY e.event_date DESC, e.id DESC`)
}

// Upcoming returns events from today on, soonest first.
func (r *Repository) Upcoming(ctx context.Context, limit int) ([]models.Event, error) {
	return r.list(ctx, eventSelect+` WHERE e.event_date >= CURRENT_DATE ORDER BY e.event_date, e.id LIMIT $1`, limit)
}

// OnDate returns the events held on day (reminder job).
func (r *Repository) OnDate(ctx context.Context, day models.Date) ([]models.Event, error) {
	return r.list(ctx, eventSelect+` WHERE e.event_date = $1 ORDER BY e.id`, day.Time)
}

// GetByID returns an event by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
}

// Register records userID as attending eventID.
func (r *Repository) Register(ctx context.Context, eventID, userID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO event_registrations (event_id, user_id) VALUES ($1, $2)`, eventID, userID)
	switch {
	case database.IsUniqueViolation(err):
		return ErrAlreadyRegistered
	case database.IsForeignKeyViolation(err):
		return ErrNotFound
	}
	return err
}

// Unregister removes a registration. Missing rows are not an error.
func (r *Repository) Unregister(ctx context.Context, eventID, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	return err
}

// Registrations returns an event's registrants in sign-up order.
func (r *Repository) Registrations(ctx context.Context, eventID int64) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT er.event_id, er.user_id, cm.name, cm.email, er.registered_at
		FROM event_registrations er JOIN club_members cm ON cm.id = er.user_id
		WHERE er.event_id = $1 ORDER BY er.registered_at, er.user_id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.EventID, &reg.UserID, &reg.Name, &reg.Email, &reg.RegisteredAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// MyRegistrations returns a member's registrations joined with their events.
func (r *Repository) MyRegistrations(ctx context.Context, userID int64) ([]models.MyRegistration, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.id, e.title, e.description, e.event_date, e.club_id, er.registered_at
		FROM event_registrations er JOIN events e ON e.id = er.event_id
		WHERE er.user_id = $1 ORDER BY e.event_date, e.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.MyRegistration
	for rows.Next() {
		var m models.MyRegistration
		if err := rows.Scan(&m.EventID, &m.Title, &m.Description, &m.EventDate.Time, &m.ClubID, &m.RegisteredAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
