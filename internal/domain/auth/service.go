package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// SecretSealer encrypts MFA secrets at rest.
type SecretSealer interface {
	Configured() bool
	EncryptString(value string) ([]byte, error)
	DecryptString(value []byte) (string, error)
}

type Service struct {
	store    StoreAPI
	sealer   SecretSealer
	secret   string
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(store StoreAPI, sealer SecretSealer, secret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, sealer: sealer, secret: secret, tokenTTL: tokenTTL, now: time.Now}
}

func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (LoginResult, error) {
	user, err := s.store.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.openSecret(user.MFASecretEn)
		if err != nil || secret == "" || !totp.Validate(mfaCode, secret) {
			return LoginResult{}, ErrMFAInvalid
		}
	}

	sessionID := NewSessionID()
	expires := s.now().Add(s.tokenTTL)
	if err := s.store.CreateSession(ctx, user.ID, HashToken(sessionID), expires); err != nil {
		return LoginResult{}, err
	}
	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, RoleName: user.RoleName, SessionID: sessionID}, s.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: expires,
		User:      SessionUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.RoleName},
	}, nil
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, user.UserID, HashToken(user.SessionID))
}

// SessionActive is consulted by the auth middleware on every request.
func (s *Service) SessionActive(ctx context.Context, userID int64, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	return s.store.SessionValid(ctx, userID, HashToken(sessionID))
}

func (s *Service) SetupMFA(ctx context.Context, userID int64) (MFASetup, error) {
	if s.sealer == nil || !s.sealer.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return MFASetup{}, err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, err
	}
	encrypted, err := s.sealer.EncryptString(key.Secret())
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.store.UpdateMFASecret(ctx, userID, encrypted); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// SetMFA verifies code against the stored secret before toggling MFA.
func (s *Service) SetMFA(ctx context.Context, userID int64, code string, enabled bool) error {
	if s.sealer == nil || !s.sealer.Configured() {
		return ErrMFAUnavailable
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if len(user.MFASecretEn) == 0 {
		return ErrMFANotConfigured
	}
	secret, err := s.openSecret(user.MFASecretEn)
	if err != nil || !totp.Validate(code, secret) {
		return ErrMFAInvalid
	}
	return s.store.SetMFAEnabled(ctx, userID, enabled)
}

func (s *Service) openSecret(sealed []byte) (string, error) {
	if s.sealer != nil && s.sealer.Configured() {
		return s.sealer.DecryptString(sealed)
	}
	return string(sealed), nil
}
