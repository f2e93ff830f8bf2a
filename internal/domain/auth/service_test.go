package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	users    map[string]AuthUser
	sessions map[string]bool
	lastSeen int64
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	hash, err := HashPassword("employee123")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	return &fakeStore{
		users: map[string]AuthUser{
			"jane@company.com": {ID: 7, Name: "Jane", Email: "jane@company.com", RoleName: RoleEmployee, Password: hash},
		},
		sessions: map[string]bool{},
	}
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (AuthUser, error) {
	user, ok := f.users[email]
	if !ok {
		return AuthUser{}, ErrInvalidCredentials
	}
	return user, nil
}

func (f *fakeStore) FindUserByID(_ context.Context, userID int64) (AuthUser, error) {
	for _, user := range f.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return AuthUser{}, ErrInvalidCredentials
}

func (f *fakeStore) CreateSession(_ context.Context, _ int64, tokenHash string, _ time.Time) error {
	f.sessions[tokenHash] = true
	return nil
}

func (f *fakeStore) RevokeSession(_ context.Context, _ int64, tokenHash string) error {
	f.sessions[tokenHash] = false
	return nil
}

func (f *fakeStore) SessionValid(_ context.Context, _ int64, tokenHash string) (bool, error) {
	return f.sessions[tokenHash], nil
}

func (f *fakeStore) UpdateLastLogin(_ context.Context, userID int64) error {
	f.lastSeen = userID
	return nil
}

func (f *fakeStore) UpdateMFASecret(context.Context, int64, []byte) error { return nil }

func (f *fakeStore) SetMFAEnabled(context.Context, int64, bool) error { return nil }

func TestLoginIssuesSessionToken(t *testing.T) {
	store := newFakeStore(t)
	svc := NewService(store, nil, "secret", time.Hour)

	result, err := svc.Login(context.Background(), " Jane@Company.com ", "employee123", "")
	if err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if result.User.ID != 7 || result.User.Role != RoleEmployee {
		t.Fatalf("unexpected user: %+v", result.User)
	}
	claims, err := ParseToken("secret", result.Token)
	if err != nil {
		t.Fatalf("token parse error: %v", err)
	}
	active, err := svc.SessionActive(context.Background(), claims.UserID, claims.SessionID)
	if err != nil || !active {
		t.Fatalf("expected active session, got %v %v", active, err)
	}
	if store.lastSeen != 7 {
		t.Fatal("expected last login to be updated")
	}

	if err := svc.Logout(context.Background(), UserContext{UserID: 7, SessionID: claims.SessionID}); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	active, _ = svc.SessionActive(context.Background(), claims.UserID, claims.SessionID)
	if active {
		t.Fatal("expected session to be revoked")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(newFakeStore(t), nil, "secret", time.Hour)

	if _, err := svc.Login(context.Background(), "jane@company.com", "nope", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@company.com", "employee123", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestLoginRequiresMFACode(t *testing.T) {
	store := newFakeStore(t)
	user := store.users["jane@company.com"]
	user.MFAEnabled = true
	user.MFASecretEn = []byte("JBSWY3DPEHPK3PXP")
	store.users["jane@company.com"] = user
	svc := NewService(store, nil, "secret", time.Hour)

	if _, err := svc.Login(context.Background(), "jane@company.com", "employee123", ""); !errors.Is(err, ErrMFARequired) {
		t.Fatalf("expected mfa required, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "jane@company.com", "employee123", "000000x"); !errors.Is(err, ErrMFAInvalid) {
		t.Fatalf("expected mfa invalid, got %v", err)
	}
}

func TestSetupMFARequiresSealer(t *testing.T) {
	svc := NewService(newFakeStore(t), nil, "secret", time.Hour)
	if _, err := svc.SetupMFA(context.Background(), 7); !errors.Is(err, ErrMFAUnavailable) {
		t.Fatalf("expected mfa unavailable, got %v", err)
	}
}
