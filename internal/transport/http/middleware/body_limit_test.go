package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		method string
		body   string
		strip  bool
		want   int
	}{
		{name: "small post", method: http.MethodPost, body: `{"a":1}`, want: http.StatusNoContent},
		{name: "declared too large", method: http.MethodPost, body: strings.Repeat("x", 32), want: http.StatusRequestEntityTooLarge},
		{name: "undeclared too large", method: http.MethodPut, body: strings.Repeat("x", 32), strip: true, want: http.StatusRequestEntityTooLarge},
		{name: "get ignored", method: http.MethodGet, body: strings.Repeat("x", 32), want: http.StatusNoContent},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/v1/review-cycles", strings.NewReader(tc.body))
			if tc.strip {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestSecureHeadersNoStoreOnAPI(t *testing.T) {
	handler := SecureHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary", nil))
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store on api responses, got %q", rec.Header().Get("Cache-Control"))
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS in production")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	if rec.Header().Get("Cache-Control") != "" {
		t.Fatalf("expected static assets to stay cacheable, got %q", rec.Header().Get("Cache-Control"))
	}
}
