package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "dialogue/internal/platform/crypto"
)

type Store struct {
	DB     *pgxpool.Pool
	crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, crypto: crypto}
}

func (s *Store) CreateSession(ctx context.Context, id string, snapshot Snapshot, expiresAt time.Time) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	sealed, err := s.crypto.Encrypt(payload)
	if err != nil {
		return fmt.Errorf("seal session snapshot: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO sessions (id, snapshot, expires_at)
    VALUES ($1, $2, $3)
  `, id, sealed, expiresAt)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (Snapshot, error) {
	var sealed []byte
	err := s.DB.QueryRow(ctx, `
    SELECT snapshot FROM sessions WHERE id = $1 AND expires_at > now()
  `, id).Scan(&sealed)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	payload, err := s.crypto.Decrypt(sealed)
	if err != nil {
		return Snapshot{}, fmt.Errorf("unseal session snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return err
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= now()")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
