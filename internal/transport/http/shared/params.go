package shared

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// PathID parses a positive integer chi URL parameter.
func PathID(r *http.Request, name string) (int64, bool) {
	return parseID(chi.URLParam(r, name))
}

// QueryID parses an optional positive integer query parameter. An absent
// parameter returns (0, true).
func QueryID(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	return parseID(raw)
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
