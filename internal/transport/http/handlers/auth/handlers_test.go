package authhandler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/directory"
	"feedback360/internal/transport/http/handlers/testkit"
)

type fakeAuth struct {
	loginErr  error
	mfaErr    error
	loggedOut []auth.UserContext
	mfaState  map[int64]bool
}

func (f *fakeAuth) Login(_ context.Context, email, password, _ string) (auth.LoginResult, error) {
	if f.loginErr != nil {
		return auth.LoginResult{}, f.loginErr
	}
	return auth.LoginResult{Token: "tok", User: auth.SessionUser{ID: 1, Email: email, Role: auth.RoleAdmin}}, nil
}

func (f *fakeAuth) Logout(_ context.Context, user auth.UserContext) error {
	f.loggedOut = append(f.loggedOut, user)
	return nil
}

func (f *fakeAuth) SetupMFA(context.Context, int64) (auth.MFASetup, error) {
	if f.mfaErr != nil {
		return auth.MFASetup{}, f.mfaErr
	}
	return auth.MFASetup{Secret: "SECRET", OTPAuthURL: "otpauth://totp/x"}, nil
}

func (f *fakeAuth) SetMFA(_ context.Context, userID int64, _ string, enabled bool) error {
	if f.mfaErr != nil {
		return f.mfaErr
	}
	if f.mfaState == nil {
		f.mfaState = map[int64]bool{}
	}
	f.mfaState[userID] = enabled
	return nil
}

type fakeAccounts struct {
	users     map[int64]directory.Employee
	createErr error
}

func (f *fakeAccounts) GetEmployee(_ context.Context, id int64) (directory.Employee, error) {
	e, ok := f.users[id]
	if !ok {
		return directory.Employee{}, directory.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeAccounts) CreateUser(_ context.Context, input directory.CreateUserInput) (directory.Employee, error) {
	if f.createErr != nil {
		return directory.Employee{}, f.createErr
	}
	e := directory.Employee{ID: int64(len(f.users) + 10), Name: input.Name, Email: input.Email, Role: auth.RoleEmployee, ManagerID: input.ManagerID}
	f.users[e.ID] = e
	return e, nil
}

type recordingAuditor struct {
	actions []string
}

func (a *recordingAuditor) Record(_ context.Context, _ int64, action, _, _, _, _ string, _, _ any) error {
	a.actions = append(a.actions, action)
	return nil
}

func newHandler(a *fakeAuth, accts *fakeAccounts) (*Handler, *recordingAuditor) {
	auditor := &recordingAuditor{}
	return NewHandler(a, accts, auditor, auth.NewRolePermissionStore()), auditor
}

func TestLoginErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     any
		wantCode int
		wantErr  string
	}{
		{name: "ok", body: map[string]string{"email": "a@x.io", "password": "secret1"}, wantCode: http.StatusOK},
		{name: "bad credentials", err: auth.ErrInvalidCredentials, body: map[string]string{"email": "a@x.io", "password": "nope"}, wantCode: http.StatusUnauthorized, wantErr: "invalid_credentials"},
		{name: "mfa required", err: auth.ErrMFARequired, body: map[string]string{"email": "a@x.io", "password": "secret1"}, wantCode: http.StatusUnauthorized, wantErr: "mfa_required"},
		{name: "missing fields", body: map[string]string{}, wantCode: http.StatusBadRequest, wantErr: "validation_error"},
		{name: "malformed", body: "{", wantCode: http.StatusBadRequest, wantErr: "invalid_payload"},
		{name: "store failure", err: errors.New("db down"), body: map[string]string{"email": "a@x.io", "password": "secret1"}, wantCode: http.StatusInternalServerError, wantErr: "login_failed"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newHandler(&fakeAuth{loginErr: tc.err}, &fakeAccounts{users: map[int64]directory.Employee{}})
			rec := testkit.Do(t, testkit.Router(h, nil), http.MethodPost, "/auth/login", tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d (%s)", tc.wantCode, rec.Code, rec.Body.String())
			}
			if got := testkit.ErrorCode(t, rec); got != tc.wantErr {
				t.Fatalf("expected error code %q, got %q", tc.wantErr, got)
			}
		})
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	h, _ := newHandler(&fakeAuth{}, &fakeAccounts{users: map[int64]directory.Employee{}})
	rec := testkit.Do(t, testkit.Router(h, nil), http.MethodGet, "/auth/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMeReturnsProfile(t *testing.T) {
	accts := &fakeAccounts{users: map[int64]directory.Employee{
		2: {ID: 2, Name: "Eve", Email: "eve@x.io", Subordinates: []directory.UserRef{{ID: 3, Name: "Sam"}}},
	}}
	h, _ := newHandler(&fakeAuth{}, accts)
	rec := testkit.Do(t, testkit.Router(h, &testkit.Employee), http.MethodGet, "/auth/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var me directory.Employee
	testkit.DataInto(t, rec, &me)
	if me.Name != "Eve" || len(me.Subordinates) != 1 {
		t.Fatalf("unexpected profile: %+v", me)
	}
}

func TestRegister(t *testing.T) {
	t.Run("employee forbidden", func(t *testing.T) {
		h, _ := newHandler(&fakeAuth{}, &fakeAccounts{users: map[int64]directory.Employee{}})
		rec := testkit.Do(t, testkit.Router(h, &testkit.Employee), http.MethodPost, "/auth/register", map[string]string{"name": "N", "email": "n@x.io", "password": "secret1"})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin creates and audits", func(t *testing.T) {
		h, auditor := newHandler(&fakeAuth{}, &fakeAccounts{users: map[int64]directory.Employee{}})
		rec := testkit.Do(t, testkit.Router(h, &testkit.Admin), http.MethodPost, "/auth/register", map[string]any{"name": "N", "email": "n@x.io", "password": "secret1", "managerId": ""})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if len(auditor.actions) != 1 {
			t.Fatalf("expected one audit event, got %v", auditor.actions)
		}
	})

	t.Run("short password", func(t *testing.T) {
		h, _ := newHandler(&fakeAuth{}, &fakeAccounts{users: map[int64]directory.Employee{}})
		rec := testkit.Do(t, testkit.Router(h, &testkit.Admin), http.MethodPost, "/auth/register", map[string]string{"name": "N", "email": "n@x.io", "password": "123"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("email taken", func(t *testing.T) {
		h, _ := newHandler(&fakeAuth{}, &fakeAccounts{users: map[int64]directory.Employee{}, createErr: directory.ErrEmailTaken})
		rec := testkit.Do(t, testkit.Router(h, &testkit.Admin), http.MethodPost, "/auth/register", map[string]string{"name": "N", "email": "n@x.io", "password": "secret1"})
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestMFAToggle(t *testing.T) {
	fa := &fakeAuth{}
	h, _ := newHandler(fa, &fakeAccounts{users: map[int64]directory.Employee{}})
	router := testkit.Router(h, &testkit.Employee)

	rec := testkit.Do(t, router, http.MethodPost, "/auth/mfa/enable", map[string]string{"code": "123456"})
	if rec.Code != http.StatusOK || !fa.mfaState[testkit.Employee.UserID] {
		t.Fatalf("expected mfa enabled, got %d", rec.Code)
	}

	fa.mfaErr = auth.ErrMFAInvalid
	rec = testkit.Do(t, router, http.MethodPost, "/auth/mfa/disable", map[string]string{"code": "000000"})
	if rec.Code != http.StatusBadRequest || testkit.ErrorCode(t, rec) != "mfa_invalid" {
		t.Fatalf("expected mfa_invalid, got %d", rec.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	fa := &fakeAuth{}
	h, _ := newHandler(fa, &fakeAccounts{users: map[int64]directory.Employee{}})
	rec := testkit.Do(t, testkit.Router(h, &testkit.Employee), http.MethodPost, "/auth/logout", nil)
	if rec.Code != http.StatusOK || len(fa.loggedOut) != 1 {
		t.Fatalf("expected logout, got %d", rec.Code)
	}
}
