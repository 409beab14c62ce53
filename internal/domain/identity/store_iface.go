package identity

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type StoreAPI interface {
	CreateSession(ctx context.Context, id string, snapshot Snapshot, expiresAt time.Time) error
	GetSession(ctx context.Context, id string) (Snapshot, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
