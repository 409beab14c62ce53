package notifications

import (
	"context"
	"time"
)

type Notification struct {
	ID             string    `json:"id"`
	RecipientEmail string    `json:"recipientEmail"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

type StoreAPI interface {
	CreateNotification(ctx context.Context, recipientEmail, ntype, title, body string) error
	ListNotifications(ctx context.Context, recipientEmail string, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, recipientEmail, notificationID string) error
}
