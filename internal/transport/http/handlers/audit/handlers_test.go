package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"feedback360/internal/domain/audit"
	"feedback360/internal/domain/auth"
	"feedback360/internal/transport/http/handlers/testkit"
)

type fakeEvents struct {
	filter  audit.Filter
	details bool
	events  []audit.Event
}

func (f *fakeEvents) Count(_ context.Context, filter audit.Filter) (int, error) {
	f.filter = filter
	return len(f.events), nil
}

func (f *fakeEvents) List(_ context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	f.filter = filter
	f.details = includeDetails
	return f.events, nil
}

func (f *fakeEvents) ListExport(_ context.Context, filter audit.Filter) ([]audit.Event, error) {
	f.filter = filter
	return f.events, nil
}

func sampleEvents() []audit.Event {
	actor := int64(1)
	created := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	return []audit.Event{
		{ID: 2, ActorID: &actor, Action: audit.ActionCycleCreate, EntityType: "review_cycle", EntityID: "7", CreatedAt: created},
		{ID: 1, Action: audit.ActionFeedbackReset, EntityType: "feedback", EntityID: "*", CreatedAt: created},
	}
}

func TestListEventsFilters(t *testing.T) {
	svc := &fakeEvents{events: sampleEvents()}
	router := testkit.Router(NewHandler(svc, auth.NewRolePermissionStore()), &testkit.Admin)

	rec := testkit.Do(t, router, http.MethodGet, "/audit/events?action=review_cycle.create&entityType=review_cycle&actorId=1&includeDetails=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "2" {
		t.Fatalf("expected total 2, got %q", rec.Header().Get("X-Total-Count"))
	}
	if svc.filter.Action != audit.ActionCycleCreate || svc.filter.ActorID != 1 || !svc.details {
		t.Fatalf("unexpected filter %+v details=%v", svc.filter, svc.details)
	}

	if rec := testkit.Do(t, router, http.MethodGet, "/audit/events?actorId=-4", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad actor, got %d", rec.Code)
	}
}

func TestExportEventsCSV(t *testing.T) {
	router := testkit.Router(NewHandler(&fakeEvents{events: sampleEvents()}, auth.NewRolePermissionStore()), &testkit.Admin)

	rec := testkit.Do(t, router, http.MethodGet, "/audit/events/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(records))
	}
	if records[1][1] != "1" || records[2][1] != "" {
		t.Fatalf("unexpected actor columns %q %q", records[1][1], records[2][1])
	}
	if records[1][7] != "2024-02-01T09:30:00Z" {
		t.Fatalf("unexpected timestamp %q", records[1][7])
	}
}

func TestAuditRequiresAdmin(t *testing.T) {
	router := testkit.Router(NewHandler(&fakeEvents{}, auth.NewRolePermissionStore()), &testkit.Employee)
	if rec := testkit.Do(t, router, http.MethodGet, "/audit/events", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
