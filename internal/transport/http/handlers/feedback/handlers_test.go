package feedbackhandler

import (
	"context"
	"net/http"
	"testing"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/feedback"
	"feedback360/internal/transport/http/handlers/testkit"
)

type fakeFeedbacks struct {
	items      map[int64]feedback.Feedback
	reviewers  map[int64]int64
	closed     map[int64]bool
	nextID     int64
	lastFilter feedback.ListFilter
}

func newFakeFeedbacks() *fakeFeedbacks {
	return &fakeFeedbacks{
		items:     map[int64]feedback.Feedback{},
		reviewers: map[int64]int64{1: testkit.Employee.UserID, 2: 99, 3: testkit.Employee.UserID},
		closed:    map[int64]bool{3: true},
		nextID:    100,
	}
}

func (f *fakeFeedbacks) Submit(_ context.Context, viewer auth.UserContext, input feedback.SubmitInput) (feedback.Feedback, bool, error) {
	if err := feedback.ValidateScore(input.Score); err != nil {
		return feedback.Feedback{}, false, err
	}
	reviewer, ok := f.reviewers[input.AssignmentID]
	if !ok {
		return feedback.Feedback{}, false, feedback.ErrAssignmentNotFound
	}
	if reviewer != viewer.UserID {
		return feedback.Feedback{}, false, feedback.ErrForbidden
	}
	if input.QuestionID == 404 {
		return feedback.Feedback{}, false, feedback.ErrUnknownQuestion
	}
	if f.closed[input.AssignmentID] {
		return feedback.Feedback{}, false, feedback.ErrCycleNotActive
	}
	for id, existing := range f.items {
		if existing.ReviewAssignmentID == input.AssignmentID && existing.QuestionID == input.QuestionID {
			existing.Score = input.Score
			f.items[id] = existing
			return existing, false, nil
		}
	}
	f.nextID++
	item := feedback.Feedback{ID: f.nextID, ReviewAssignmentID: input.AssignmentID, QuestionID: input.QuestionID, Score: input.Score}
	item.Reviewer.ID = viewer.UserID
	f.items[item.ID] = item
	return item, true, nil
}

func (f *fakeFeedbacks) List(_ context.Context, filter feedback.ListFilter) ([]feedback.Feedback, int, error) {
	f.lastFilter = filter
	return nil, 42, nil
}

func (f *fakeFeedbacks) ForAssignment(_ context.Context, viewer auth.UserContext, assignmentID int64) ([]feedback.Feedback, error) {
	reviewer, ok := f.reviewers[assignmentID]
	if !ok {
		return nil, feedback.ErrAssignmentNotFound
	}
	if !viewer.IsAdmin() && reviewer != viewer.UserID {
		return nil, feedback.ErrForbidden
	}
	return nil, nil
}

func (f *fakeFeedbacks) Get(_ context.Context, viewer auth.UserContext, id int64) (feedback.Feedback, error) {
	item, ok := f.items[id]
	if !ok {
		return feedback.Feedback{}, feedback.ErrFeedbackNotFound
	}
	if !viewer.IsAdmin() && item.Reviewer.ID != viewer.UserID {
		return feedback.Feedback{}, feedback.ErrForbidden
	}
	return item, nil
}

func (f *fakeFeedbacks) Update(ctx context.Context, viewer auth.UserContext, id int64, patch feedback.Patch) (feedback.Feedback, error) {
	item, err := f.Get(ctx, viewer, id)
	if err != nil {
		return feedback.Feedback{}, err
	}
	if patch.Score != nil {
		if err := feedback.ValidateScore(*patch.Score); err != nil {
			return feedback.Feedback{}, err
		}
		item.Score = *patch.Score
	}
	f.items[id] = item
	return item, nil
}

func (f *fakeFeedbacks) Delete(ctx context.Context, viewer auth.UserContext, id int64) error {
	if _, err := f.Get(ctx, viewer, id); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

func (f *fakeFeedbacks) Reset(context.Context) (int64, error) {
	n := int64(len(f.items))
	f.items = map[int64]feedback.Feedback{}
	return n, nil
}

type submitCounter struct{ n int }

func (c *submitCounter) RecordFeedback() { c.n++ }

func TestSubmitCreatesThenUpdates(t *testing.T) {
	svc := newFakeFeedbacks()
	counter := &submitCounter{}
	h := NewHandler(svc, nil, auth.NewRolePermissionStore())
	h.Metrics = counter
	router := testkit.Router(h, &testkit.Employee)

	body := map[string]any{"reviewAssignmentId": 1, "questionId": 10, "score": 4, "comment": "solid"}
	rec := testkit.Do(t, router, http.MethodPost, "/feedbacks", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body["score"] = 5
	rec = testkit.Do(t, router, http.MethodPost, "/feedbacks", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on resubmit, got %d", rec.Code)
	}
	var saved feedback.Feedback
	testkit.DataInto(t, rec, &saved)
	if saved.Score != 5 || len(svc.items) != 1 {
		t.Fatalf("expected single row with score 5, got %+v (%d rows)", saved, len(svc.items))
	}
	if counter.n != 2 {
		t.Fatalf("expected 2 recorded submissions, got %d", counter.n)
	}
}

func TestSubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{name: "score too high", body: map[string]any{"reviewAssignmentId": 1, "questionId": 10, "score": 6}, wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
		{name: "score zero", body: map[string]any{"reviewAssignmentId": 1, "questionId": 10, "score": 0}, wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
		{name: "missing score", body: map[string]any{"reviewAssignmentId": 1, "questionId": 10}, wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
		{name: "fractional score", body: `{"reviewAssignmentId":1,"questionId":10,"score":4.5}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_payload"},
		{name: "unknown assignment", body: map[string]any{"reviewAssignmentId": 77, "questionId": 10, "score": 3}, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "not reviewer", body: map[string]any{"reviewAssignmentId": 2, "questionId": 10, "score": 3}, wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{name: "unknown question", body: map[string]any{"reviewAssignmentId": 1, "questionId": 404, "score": 3}, wantStatus: http.StatusBadRequest, wantCode: "invalid_reference"},
		{name: "cycle closed", body: map[string]any{"reviewAssignmentId": 3, "questionId": 10, "score": 3}, wantStatus: http.StatusConflict, wantCode: "cycle_not_active"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			router := testkit.Router(NewHandler(newFakeFeedbacks(), nil, auth.NewRolePermissionStore()), &testkit.Employee)
			rec := testkit.Do(t, router, http.MethodPost, "/feedbacks", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if code := testkit.ErrorCode(t, rec); code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, code)
			}
		})
	}
}

func TestListIsAdminOnlyAndPaginated(t *testing.T) {
	svc := newFakeFeedbacks()
	employee := testkit.Router(NewHandler(svc, nil, auth.NewRolePermissionStore()), &testkit.Employee)
	if rec := testkit.Do(t, employee, http.MethodGet, "/feedbacks", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee, got %d", rec.Code)
	}

	admin := testkit.Router(NewHandler(svc, nil, auth.NewRolePermissionStore()), &testkit.Admin)
	rec := testkit.Do(t, admin, http.MethodGet, "/feedbacks?limit=10&offset=20&reviewCycleId=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "42" {
		t.Fatalf("expected total header 42, got %q", rec.Header().Get("X-Total-Count"))
	}
	if svc.lastFilter.Limit != 10 || svc.lastFilter.Offset != 20 || svc.lastFilter.CycleID != 3 {
		t.Fatalf("unexpected filter %+v", svc.lastFilter)
	}
}

func TestFeedbackOwnership(t *testing.T) {
	svc := newFakeFeedbacks()
	foreign := feedback.Feedback{ID: 5, ReviewAssignmentID: 2, Score: 3}
	foreign.Reviewer.ID = 99
	svc.items[5] = foreign
	employee := testkit.Router(NewHandler(svc, nil, auth.NewRolePermissionStore()), &testkit.Employee)
	admin := testkit.Router(NewHandler(svc, nil, auth.NewRolePermissionStore()), &testkit.Admin)

	if rec := testkit.Do(t, employee, http.MethodGet, "/feedbacks/5", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := testkit.Do(t, employee, http.MethodGet, "/feedbacks/assignment/2", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign assignment, got %d", rec.Code)
	}
	rec := testkit.Do(t, admin, http.MethodPut, "/feedbacks/5", map[string]any{"score": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin update 200, got %d", rec.Code)
	}
	if rec := testkit.Do(t, admin, http.MethodPut, "/feedbacks/5", map[string]any{"score": 9}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad score, got %d", rec.Code)
	}
	if rec := testkit.Do(t, admin, http.MethodDelete, "/feedbacks/5", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected delete 200, got %d", rec.Code)
	}
	if rec := testkit.Do(t, admin, http.MethodGet, "/feedbacks/5", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := testkit.Do(t, admin, http.MethodGet, "/feedbacks/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestResetRequiresAdmin(t *testing.T) {
	svc := newFakeFeedbacks()
	svc.items[1] = feedback.Feedback{ID: 1}
	svc.items[2] = feedback.Feedback{ID: 2}

	employee := testkit.Router(NewHandler(svc, nil, auth.NewRolePermissionStore()), &testkit.Employee)
	if rec := testkit.Do(t, employee, http.MethodPost, "/feedbacks/reset", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	admin := testkit.Router(NewHandler(svc, nil, auth.NewRolePermissionStore()), &testkit.Admin)
	rec := testkit.Do(t, admin, http.MethodPost, "/feedbacks/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out map[string]int64
	testkit.DataInto(t, rec, &out)
	if out["feedbacksDeleted"] != 2 {
		t.Fatalf("expected 2 deleted, got %v", out)
	}
}
