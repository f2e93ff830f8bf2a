package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"feedback360/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const authUserColumns = `id, name, email, role, password_hash, mfa_enabled, mfa_secret_enc`

func scanAuthUser(row pgx.Row) (AuthUser, error) {
	var out AuthUser
	err := row.Scan(&out.ID, &out.Name, &out.Email, &out.RoleName, &out.Password, &out.MFAEnabled, &out.MFASecretEn)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrInvalidCredentials
	}
	return out, err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, "SELECT "+authUserColumns+" FROM users WHERE lower(email) = lower($1)", email))
}

func (s *Store) FindUserByID(ctx context.Context, userID int64) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, "SELECT "+authUserColumns+" FROM users WHERE id = $1", userID))
}

func (s *Store) CreateSession(ctx context.Context, userID int64, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID int64, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND token_hash = $2 AND revoked_at IS NULL", userID, tokenHash)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID int64, tokenHash string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE user_id = $1 AND token_hash = $2 AND expires_at > now() AND revoked_at IS NULL
  `, userID, tokenHash).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID int64, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2", secretEnc, userID)
	return err
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID int64, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}
