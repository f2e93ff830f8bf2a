package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestValidatorRejectSortsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("name", " ", "is required")
	start, _ := v.Date("startDate", "2024-02-01")
	end, _ := v.Date("endDate", "2024-01-01")
	v.DateOrder("startDate", start, "endDate", end)
	v.Enum("relationType", "BOSS", []string{"SELF", "PEER"}, "is not supported")

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") {
		t.Fatal("expected validator to reject")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", body.Error.Code)
	}
	fields := body.Error.Details.Fields
	if len(fields) != 4 || fields[0].Field != "endDate" || fields[3].Field != "startDate" {
		t.Fatalf("unexpected issues: %+v", fields)
	}
}

func TestValidatorDate(t *testing.T) {
	v := NewValidator()
	got, ok := v.Date("startDate", "2024-03-01T10:00:00Z")
	if !ok || !got.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected RFC3339 date, got %v", got)
	}
	if _, ok := v.Date("endDate", "03/01/2024"); ok {
		t.Fatal("expected invalid date")
	}
	if v.Issues()[0].Field != "endDate" {
		t.Fatalf("unexpected issues: %+v", v.Issues())
	}
}

func TestPathAndQueryID(t *testing.T) {
	router := chi.NewRouter()
	var pathID, queryID int64
	var pathOK, queryOK bool
	router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		pathID, pathOK = PathID(r, "id")
		queryID, queryOK = QueryID(r, "cycle")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/12?cycle=3", nil))
	if !pathOK || pathID != 12 || !queryOK || queryID != 3 {
		t.Fatalf("unexpected ids: %d %v %d %v", pathID, pathOK, queryID, queryOK)
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/abc?cycle=-1", nil))
	if pathOK || queryOK {
		t.Fatal("expected invalid ids to be rejected")
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/5", nil))
	if !queryOK || queryID != 0 {
		t.Fatal("expected absent query id to be accepted as zero")
	}
}

func TestValidatorRequiredID(t *testing.T) {
	v := NewValidator()
	v.RequiredID("reviewerId", 7)
	if v.HasIssues() {
		t.Fatalf("expected positive id to pass, got %+v", v.Issues())
	}
	v.RequiredID("revieweeId", 0)
	v.RequiredID("reviewCycleId", -3)
	issues := v.Issues()
	if len(issues) != 2 || issues[0].Field != "reviewCycleId" || issues[1].Field != "revieweeId" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestEndOfDay(t *testing.T) {
	day, _ := ParseDate("2024-03-01")
	if got := EndOfDay("2024-03-01", day); got.Day() != 1 || got.Hour() != 23 || got.Minute() != 59 {
		t.Fatalf("expected end of day, got %v", got)
	}
	stamp, _ := ParseDate("2024-03-01T10:00:00Z")
	if got := EndOfDay("2024-03-01T10:00:00Z", stamp); !got.Equal(stamp) {
		t.Fatalf("expected timestamp unchanged, got %v", got)
	}
}
