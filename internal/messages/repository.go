package messages

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
	ErrNotFound          = errors.New("member not found")
	ErrReceiverNotInClub = errors.New("receiver is not in the sender's club")
)

// Repository handles direct message persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a message repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Conversations returns the latest message per partner of userID, newest first,
// with the number of unread messages from that partner.
func (r *Repository) Conversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		WITH thread AS (
			SELECT m.*, CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END AS partner_id
			FROM messages m
			WHERE m.sender_id = $1 OR m.receiver_id = $1
		), latest AS (
			SELECT DISTINCT ON (partner_id) * FROM thread ORDER BY partner_id, id DESC
		)
		SELECT l.partner_id, COALESCE(cm.name, ''), COALESCE(cm.photo_key, ''),
			l.id, l.message, l.sender_id, l.receiver_id, l.status, l.created_at,
			(SELECT COUNT(*) FROM messages u WHERE u.sender_id = l.partner_id AND u.receiver_id = $1 AND u.status = 'unread')
		FROM latest l
		LEFT JOIN club_members cm ON cm.id = l.partner_id
		ORDER BY l.created_at DESC, l.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()
	var list []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.PartnerID, &c.PartnerName, &c.PhotoKey, &c.MessageID, &c.Message,
			&c.SenderID, &c.ReceiverID, &c.Status, &c.CreatedAt, &c.Unread); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// History returns the messages between userID and partnerID in send order, only those with
// id > afterID when afterID is positive. Messages from partnerID to userID are marked read
// in the same transaction; the returned rows carry their status from before the update.
func (r *Repository) History(ctx context.Context, userID, partnerID, afterID int64) ([]models.Message, error) {
	var list []models.Message
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, sender_id, receiver_id, message, status, created_at FROM messages
			WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)) AND id > $3
			ORDER BY created_at, id`, userID, partnerID, afterID)
		if err != nil {
			return fmt.Errorf("select history: %w", err)
		}
		list, err = pgx.CollectRows(rows, pgx.RowToStructByPos[models.Message])
		if err != nil {
			return fmt.Errorf("scan history: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE messages SET status = 'read' WHERE sender_id = $1 AND receiver_id = $2 AND status = 'unread'`,
			partnerID, userID)
		if err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		return nil
	})
	return list, err
}

// Send stores a message from senderID to receiverID. The receiver must belong to the sender's club.
func (r *Repository) Send(ctx context.Context, senderID, receiverID int64, text string) (*models.Message, error) {
	m := models.Message{SenderID: senderID, ReceiverID: receiverID, Message: text}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, message)
		SELECT $1, $2, $3
		WHERE EXISTS (
			SELECT 1 FROM club_members s JOIN club_members rc ON rc.club_id = s.club_id
			WHERE s.id = $1 AND rc.id = $2
		)
		RETURNING id, status, created_at`, senderID, receiverID, text,
	).Scan(&m.ID, &m.Status, &m.CreatedAt)
	if database.IsNoRows(err) || database.IsForeignKeyViolation(err) {
		return nil, ErrReceiverNotInClub
	}
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

// UnreadCount counts unread messages addressed to userID.
func (r *Repository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND status = 'unread'`, userID).Scan(&n)
	return n, err
}

// Partner returns the public identity of a member.
func (r *Repository) Partner(ctx context.Context, id int64) (*models.Partner, error) {
	var p models.Partner
	err := r.pool.QueryRow(ctx,
		`SELECT id, club_id, name, email, COALESCE(photo_key, '') FROM club_members WHERE id = $1`, id,
	).Scan(&p.ID, &p.ClubID, &p.Name, &p.Email, &p.PhotoKey)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
