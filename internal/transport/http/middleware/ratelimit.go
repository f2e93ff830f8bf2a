package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"feedback360/internal/transport/http/api"
)

type sensitiveScope string

const (
	scopeNone     sensitiveScope = ""
	scopeAuth     sensitiveScope = "auth"
	scopeMutation sensitiveScope = "mutation"
)

const loginPeekBytes = 64 * 1024

// SensitiveMutationRateLimit throttles the routes that are expensive or worth
// brute forcing. Auth routes get a quarter of baseLimit, counted per client IP
// and per submitted email. Cycle creation and the resets get half, counted per
// actor. Every other request passes untouched.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	authLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)
	authByIP := newWindowLimiter(authLimit, window, clientIPKey)
	authByEmail := newWindowLimiter(authLimit, window, emailOrIPKey)
	byActor := newWindowLimiter(mutationLimit, window, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case scopeAuth:
				if !authByIP.allow(w, r) || !authByEmail.allow(w, r) {
					return
				}
			case scopeMutation:
				if !byActor.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sensitiveRateScope(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return scopeNone
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch path {
	case "/auth/login", "/auth/mfa/setup", "/auth/mfa/enable", "/auth/mfa/disable":
		return scopeAuth
	case "/employees/reset", "/feedbacks/reset":
		return scopeMutation
	case "/review-cycles", "/review-cycles/":
		if r.Method == http.MethodPost {
			return scopeMutation
		}
	}
	return scopeNone
}

type windowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	keyFn   func(*http.Request) string
	buckets map[string]*windowBucket
}

type windowBucket struct {
	count int
	reset time.Time
}

func newWindowLimiter(limit int, window time.Duration, keyFn func(*http.Request) string) *windowLimiter {
	return &windowLimiter{
		limit:   limit,
		window:  window,
		keyFn:   keyFn,
		buckets: map[string]*windowBucket{},
	}
}

// allow counts the request against its key and writes a 429 once the window
// is exhausted. Expired buckets are replaced lazily on the next hit.
func (l *windowLimiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.keyFn(r)
	now := time.Now()

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok || now.After(bucket.reset) {
		bucket = &windowBucket{reset: now.Add(l.window)}
		l.buckets[key] = bucket
	}
	bucket.count++
	count := bucket.count
	resetIn := bucket.reset.Sub(now)
	l.mu.Unlock()

	resetSeconds := int(resetIn.Round(time.Second) / time.Second)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSeconds))
	if count <= l.limit {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(resetSeconds, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != 0 {
		return "user:" + strconv.FormatInt(user.UserID, 10)
	}
	return clientIPKey(r)
}

// emailOrIPKey buckets login attempts by the submitted email, so one address
// cannot be sprayed from many IPs. The body is restored for the handler.
func emailOrIPKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return clientIPKey(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, loginPeekBytes))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if err != nil {
		return clientIPKey(r)
	}
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &payload) != nil || strings.TrimSpace(payload.Email) == "" {
		return clientIPKey(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(payload.Email))
}

// clientIPKey prefers the first X-Forwarded-For hop over RemoteAddr.
func clientIPKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
