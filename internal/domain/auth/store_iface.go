package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	FindUserByEmail(ctx context.Context, email string) (AuthUser, error)
	FindUserByID(ctx context.Context, userID int64) (AuthUser, error)
	CreateSession(ctx context.Context, userID int64, tokenHash string, expires time.Time) error
	RevokeSession(ctx context.Context, userID int64, tokenHash string) error
	SessionValid(ctx context.Context, userID int64, tokenHash string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	UpdateMFASecret(ctx context.Context, userID int64, secretEnc []byte) error
	SetMFAEnabled(ctx context.Context, userID int64, enabled bool) error
}
