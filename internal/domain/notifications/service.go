package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, defaultFrom string) *Service {
	if defaultFrom == "" {
		defaultFrom = "no-reply@example.com"
	}
	return &Service{store: store, Mailer: mailer, DefaultFrom: defaultFrom}
}

// Notify stores the notification and, when a mailer is configured, sends it
// by email as well. Email failures are logged, never surfaced: notifying is
// best-effort and must not fail the workflow action that triggered it.
func (s *Service) Notify(ctx context.Context, recipientEmail, ntype, title, body string) error {
	if recipientEmail == "" {
		return nil
	}
	if err := s.store.CreateNotification(ctx, recipientEmail, ntype, title, body); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, recipientEmail, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, recipientEmail string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, recipientEmail, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, recipientEmail, notificationID string) error {
	return s.store.MarkRead(ctx, recipientEmail, notificationID)
}
