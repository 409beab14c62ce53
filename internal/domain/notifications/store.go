package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateNotification(ctx context.Context, recipientEmail, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (id, recipient_email, ntype, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, uuid.NewString(), recipientEmail, ntype, title, body)
	return err
}

func (s *Store) ListNotifications(ctx context.Context, recipientEmail string, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, recipient_email, ntype, title, body, read, created_at
    FROM notifications
    WHERE lower(recipient_email) = lower($1)
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, recipientEmail, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientEmail, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, recipientEmail, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read = TRUE
    WHERE id = $1 AND lower(recipient_email) = lower($2)
  `, notificationID, recipientEmail)
	return err
}
