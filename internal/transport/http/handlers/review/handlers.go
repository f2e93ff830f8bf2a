package reviewhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/audit"
	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/review"
	"feedback360/internal/platform/jobs"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
	"feedback360/internal/transport/http/shared"
)

const createCycleEndpoint = "review_cycles.create"

type Reviews interface {
	Preview(ctx context.Context, start, end time.Time, cfg review.Config) ([]review.PreviewItem, error)
	CreateCycle(ctx context.Context, input review.CycleInput, selected []review.Pair) (review.CreateCycleResult, error)
	ListCycles(ctx context.Context) ([]review.ReviewCycle, error)
	GetCycle(ctx context.Context, id int64) (review.ReviewCycle, error)
	UpdateCycle(ctx context.Context, id int64, patch review.CyclePatch) (review.ReviewCycle, error)
	DeleteCycle(ctx context.Context, id int64) error
	CycleReviewerIDs(ctx context.Context, cycleID int64) ([]int64, error)

	ListAssignments(ctx context.Context, filter review.AssignmentFilter) ([]review.Assignment, error)
	MyAssignments(ctx context.Context, reviewerID int64) ([]review.Assignment, error)
	GetAssignment(ctx context.Context, id int64, viewer auth.UserContext) (review.Assignment, error)
	CreateAssignment(ctx context.Context, cycleID int64, pair review.Pair) (review.Assignment, error)
	UpdateAssignmentRelation(ctx context.Context, id int64, relation string) (review.Assignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
}

type IdempotencyStore interface {
	Check(ctx context.Context, userID int64, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, userID int64, endpoint, key, requestHash string, response json.RawMessage) error
}

type JobQueue interface {
	Enqueue(jobType string, run jobs.RunFunc)
}

type Notifier interface {
	NotifyReviewAssigned(ctx context.Context, cycleName string, reviewerIDs []int64) (int, error)
}

type CommitRecorder interface {
	RecordCommit(created, skipped int)
}

type Handler struct {
	Service     Reviews
	Audit       shared.Auditor
	Perms       middleware.PermissionStore
	Idempotency IdempotencyStore
	Jobs        JobQueue
	Notifier    Notifier
	Metrics     CommitRecorder
}

func NewHandler(service Reviews, auditor shared.Auditor, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditor, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/review-cycles", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCyclesRead, h.Perms)).Get("/", h.handleListCycles)
		r.With(middleware.RequirePermission(auth.PermCyclesWrite, h.Perms)).Post("/", h.handleCreateCycle)
		r.With(middleware.RequirePermission(auth.PermCyclesWrite, h.Perms)).Post("/preview", h.handlePreview)
		r.With(middleware.RequirePermission(auth.PermCyclesRead, h.Perms)).Get("/{id}", h.handleGetCycle)
		r.With(middleware.RequirePermission(auth.PermCyclesWrite, h.Perms)).Put("/{id}", h.handleUpdateCycle)
		r.With(middleware.RequirePermission(auth.PermCyclesWrite, h.Perms)).Delete("/{id}", h.handleDeleteCycle)
	})
	r.Route("/assignments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAssignmentsList, h.Perms)).Get("/", h.handleListAssignments)
		r.With(middleware.RequirePermission(auth.PermAssignmentsWrite, h.Perms)).Post("/", h.handleCreateAssignment)
		r.With(middleware.RequirePermission(auth.PermAssignmentsRead, h.Perms)).Get("/my-assignments", h.handleMyAssignments)
		r.With(middleware.RequirePermission(auth.PermAssignmentsRead, h.Perms)).Get("/{id}", h.handleGetAssignment)
		r.With(middleware.RequirePermission(auth.PermAssignmentsWrite, h.Perms)).Put("/{id}", h.handleUpdateAssignment)
		r.With(middleware.RequirePermission(auth.PermAssignmentsWrite, h.Perms)).Delete("/{id}", h.handleDeleteAssignment)
	})
}

type previewRequest struct {
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Config    *review.Config `json:"config"`
}

type previewResponse struct {
	Config      review.Config        `json:"config"`
	Assignments []review.PreviewItem `json:"assignments"`
	Total       int                  `json:"total"`
}

type selectionItem struct {
	ReviewerID   int64  `json:"reviewerId"`
	RevieweeID   int64  `json:"revieweeId"`
	RelationType string `json:"relationType"`
	Enabled      *bool  `json:"enabled"`
}

type createCycleRequest struct {
	Name        string          `json:"name"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Config      *review.Config  `json:"config"`
	Assignments []selectionItem `json:"assignments"`
}

type updateCycleRequest struct {
	Name      *string        `json:"name"`
	StartDate *string        `json:"startDate"`
	EndDate   *string        `json:"endDate"`
	Config    *review.Config `json:"config"`
}

type assignmentRequest struct {
	ReviewCycleID int64  `json:"reviewCycleId"`
	ReviewerID    int64  `json:"reviewerId"`
	RevieweeID    int64  `json:"revieweeId"`
	RelationType  string `json:"relationType"`
}

type relationRequest struct {
	RelationType string `json:"relationType"`
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var payload previewRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	start, end := validateRange(v, payload.StartDate, payload.EndDate)
	validateConfig(v, payload.Config)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	items, err := h.Service.Preview(r.Context(), start, end, *payload.Config)
	if err != nil {
		writeError(w, r, err, "cycle_preview_failed")
		return
	}
	api.Success(w, previewResponse{Config: *payload.Config, Assignments: items, Total: len(items)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request payload too large", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	var payload createCycleRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	start, end := validateRange(v, payload.StartDate, payload.EndDate)
	validateConfig(v, payload.Config)
	for i, item := range payload.Assignments {
		field := "assignments[" + strconv.Itoa(i) + "]"
		if item.ReviewerID <= 0 || item.RevieweeID <= 0 {
			v.Add(field, "reviewerId and revieweeId are required")
		}
		if !review.ValidRelation(item.RelationType) {
			v.Add(field+".relationType", "must be one of SELF, MANAGER, PEER, SUBORDINATE")
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, createCycleEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Created(w, stored, middleware.GetRequestID(r.Context()))
			return
		}
	}

	input := review.CycleInput{Name: payload.Name, StartDate: start, EndDate: end, Config: *payload.Config}
	result, err := h.Service.CreateCycle(r.Context(), input, selectedPairs(payload.Assignments))
	if err != nil {
		writeError(w, r, err, "cycle_create_failed")
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordCommit(result.AssignmentsCreated, result.AssignmentsSkipped)
	}
	if result.AssignmentsCreated > 0 {
		h.enqueueNotifications(result.CycleID, input.Name)
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionCycleCreate, "review_cycle", strconv.FormatInt(result.CycleID, 10), nil, result)

	if idempotencyKey != "" && h.Idempotency != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			slog.Warn("cycle response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.UserID, createCycleEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}

// selectedPairs keeps the enabled entries of a client selection. A missing
// selection stays nil so the service regenerates from the directory.
func selectedPairs(items []selectionItem) []review.Pair {
	if items == nil {
		return nil
	}
	pairs := make([]review.Pair, 0, len(items))
	for _, item := range items {
		if item.Enabled != nil && !*item.Enabled {
			continue
		}
		pairs = append(pairs, review.Pair{ReviewerID: item.ReviewerID, RevieweeID: item.RevieweeID, RelationType: item.RelationType})
	}
	return pairs
}

func (h *Handler) enqueueNotifications(cycleID int64, cycleName string) {
	if h.Jobs == nil || h.Notifier == nil {
		return
	}
	h.Jobs.Enqueue(jobs.JobAssignmentNotifications, func(ctx context.Context) (any, error) {
		reviewers, err := h.Service.CycleReviewerIDs(ctx, cycleID)
		if err != nil {
			return map[string]any{"cycleId": cycleID}, err
		}
		sent, err := h.Notifier.NotifyReviewAssigned(ctx, cycleName, reviewers)
		return map[string]any{"cycleId": cycleID, "reviewers": len(reviewers), "notified": sent}, err
	})
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Service.ListCycles(r.Context())
	if err != nil {
		writeError(w, r, err, "cycle_list_failed")
		return
	}
	if cycles == nil {
		cycles = []review.ReviewCycle{}
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid review cycle id", middleware.GetRequestID(r.Context()))
		return
	}
	cycle, err := h.Service.GetCycle(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "cycle_get_failed")
		return
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCycle(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid review cycle id", middleware.GetRequestID(r.Context()))
		return
	}
	var payload updateCycleRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}

	v := shared.NewValidator()
	patch := review.CyclePatch{Name: payload.Name, Config: payload.Config}
	if payload.Name != nil {
		v.Required("name", *payload.Name, "must not be empty")
	}
	if payload.StartDate != nil {
		if start, ok := v.Date("startDate", *payload.StartDate); ok {
			patch.StartDate = &start
		}
	}
	if payload.EndDate != nil {
		if end, ok := v.Date("endDate", *payload.EndDate); ok {
			patch.EndDate = &end
		}
	}
	if payload.Config != nil && !payload.Config.Any() {
		v.Add("config", "must enable at least one relation type")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Service.UpdateCycle(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, "cycle_update_failed")
		return
	}
	updated.Assignments = nil
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionCycleUpdate, "review_cycle", strconv.FormatInt(id, 10), nil, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCycle(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid review cycle id", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.DeleteCycle(r.Context(), id); err != nil {
		writeError(w, r, err, "cycle_delete_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionCycleDelete, "review_cycle", strconv.FormatInt(id, 10), nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	filter := review.AssignmentFilter{RelationType: r.URL.Query().Get("relationType")}
	var ok bool
	if filter.CycleID, ok = shared.QueryID(r, "reviewCycleId"); !ok {
		v.Add("reviewCycleId", "must be a positive id")
	}
	if filter.ReviewerID, ok = shared.QueryID(r, "reviewerId"); !ok {
		v.Add("reviewerId", "must be a positive id")
	}
	if filter.RevieweeID, ok = shared.QueryID(r, "revieweeId"); !ok {
		v.Add("revieweeId", "must be a positive id")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	assignments, err := h.Service.ListAssignments(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "assignment_list_failed")
		return
	}
	if assignments == nil {
		assignments = []review.Assignment{}
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyAssignments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	assignments, err := h.Service.MyAssignments(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err, "assignment_list_failed")
		return
	}
	if assignments == nil {
		assignments = []review.Assignment{}
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid assignment id", middleware.GetRequestID(r.Context()))
		return
	}
	assignment, err := h.Service.GetAssignment(r.Context(), id, user)
	if err != nil {
		writeError(w, r, err, "assignment_get_failed")
		return
	}
	api.Success(w, assignment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload assignmentRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.RequiredID("reviewCycleId", payload.ReviewCycleID)
	v.RequiredID("reviewerId", payload.ReviewerID)
	v.RequiredID("revieweeId", payload.RevieweeID)
	if !review.ValidRelation(payload.RelationType) {
		v.Add("relationType", "must be one of SELF, MANAGER, PEER, SUBORDINATE")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.CreateAssignment(r.Context(), payload.ReviewCycleID, review.Pair{
		ReviewerID:   payload.ReviewerID,
		RevieweeID:   payload.RevieweeID,
		RelationType: payload.RelationType,
	})
	if err != nil {
		writeError(w, r, err, "assignment_create_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionAssignmentCreate, "assignment", strconv.FormatInt(created.ID, 10), nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid assignment id", middleware.GetRequestID(r.Context()))
		return
	}
	var payload relationRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if !review.ValidRelation(payload.RelationType) {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "relationType", Reason: "must be one of SELF, MANAGER, PEER, SUBORDINATE"}})
		return
	}
	updated, err := h.Service.UpdateAssignmentRelation(r.Context(), id, payload.RelationType)
	if err != nil {
		writeError(w, r, err, "assignment_update_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionAssignmentUpdate, "assignment", strconv.FormatInt(id, 10), nil, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid assignment id", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.DeleteAssignment(r.Context(), id); err != nil {
		writeError(w, r, err, "assignment_delete_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionAssignmentDelete, "assignment", strconv.FormatInt(id, 10), nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

// validateRange parses both dates and requires end to fall strictly after start.
func validateRange(v *shared.Validator, rawStart, rawEnd string) (time.Time, time.Time) {
	start, startOK := v.Date("startDate", rawStart)
	end, endOK := v.Date("endDate", rawEnd)
	if startOK && endOK && !end.After(start) {
		v.Add("endDate", "must be after startDate")
	}
	return start, end
}

func validateConfig(v *shared.Validator, cfg *review.Config) {
	if cfg == nil {
		v.Add("config", "is required")
		return
	}
	if !cfg.Any() {
		v.Add("config", "must enable at least one relation type")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, review.ErrCycleNotFound), errors.Is(err, review.ErrAssignmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, review.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, review.ErrAssignmentExists):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, review.ErrUnknownCycle), errors.Is(err, review.ErrUnknownUser):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), reqID)
	case errors.Is(err, review.ErrInvalidDateRange), errors.Is(err, review.ErrEmptyConfig), errors.Is(err, review.ErrInvalidRelation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("review request failed", "code", fallback, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallback, "review cycle operation failed", reqID)
	}
}
