// Package testkit holds helpers shared by the handler tests.
package testkit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/transport/http/middleware"
)

var (
	Admin    = auth.UserContext{UserID: 1, RoleName: auth.RoleAdmin}
	Employee = auth.UserContext{UserID: 2, RoleName: auth.RoleEmployee}
)

type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type Registrar interface {
	RegisterRoutes(r chi.Router)
}

// Router mounts h and, when user is non-nil, authenticates every request as user.
func Router(h Registrar, user *auth.UserContext) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if user != nil {
		u := *user
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), u)))
			})
		})
	}
	h.RegisterRoutes(r)
	return r
}

// Do sends body (marshalled to JSON when non-nil) and returns the recorder.
func Do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func Decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

// ErrorCode returns the envelope error code or "".
func ErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := Decode(t, rec)
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func DataInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := Decode(t, rec)
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func Ptr[T any](v T) *T {
	return &v
}
