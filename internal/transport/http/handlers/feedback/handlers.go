package feedbackhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/audit"
	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/feedback"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
	"feedback360/internal/transport/http/shared"
)

type Feedbacks interface {
	Submit(ctx context.Context, viewer auth.UserContext, input feedback.SubmitInput) (feedback.Feedback, bool, error)
	List(ctx context.Context, filter feedback.ListFilter) ([]feedback.Feedback, int, error)
	ForAssignment(ctx context.Context, viewer auth.UserContext, assignmentID int64) ([]feedback.Feedback, error)
	Get(ctx context.Context, viewer auth.UserContext, id int64) (feedback.Feedback, error)
	Update(ctx context.Context, viewer auth.UserContext, id int64, patch feedback.Patch) (feedback.Feedback, error)
	Delete(ctx context.Context, viewer auth.UserContext, id int64) error
	Reset(ctx context.Context) (int64, error)
}

type SubmissionRecorder interface {
	RecordFeedback()
}

type Handler struct {
	Service Feedbacks
	Audit   shared.Auditor
	Perms   middleware.PermissionStore
	Metrics SubmissionRecorder
}

func NewHandler(service Feedbacks, auditor shared.Auditor, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditor, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/feedbacks", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFeedbackManage, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermFeedbackSubmit, h.Perms)).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermSystemReset, h.Perms)).Post("/reset", h.handleReset)
		r.With(middleware.RequirePermission(auth.PermFeedbackSubmit, h.Perms)).Get("/assignment/{assignmentId}", h.handleForAssignment)
		r.With(middleware.RequirePermission(auth.PermFeedbackSubmit, h.Perms)).Get("/{id}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermFeedbackSubmit, h.Perms)).Put("/{id}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermFeedbackSubmit, h.Perms)).Delete("/{id}", h.handleDelete)
	})
}

type submitRequest struct {
	ReviewAssignmentID int64  `json:"reviewAssignmentId"`
	QuestionID         int64  `json:"questionId"`
	Score              *int   `json:"score"`
	Comment            string `json:"comment"`
}

type updateRequest struct {
	Score   *int    `json:"score"`
	Comment *string `json:"comment"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload submitRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.RequiredID("reviewAssignmentId", payload.ReviewAssignmentID)
	v.RequiredID("questionId", payload.QuestionID)
	if payload.Score == nil {
		v.Add("score", "is required")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	saved, created, err := h.Service.Submit(r.Context(), user, feedback.SubmitInput{
		AssignmentID: payload.ReviewAssignmentID,
		QuestionID:   payload.QuestionID,
		Score:        *payload.Score,
		Comment:      payload.Comment,
	})
	if err != nil {
		writeError(w, r, err, "feedback_submit_failed")
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordFeedback()
	}
	if created {
		api.Created(w, saved, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	cycleID, ok := shared.QueryID(r, "reviewCycleId")
	if !ok {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "reviewCycleId", Reason: "must be a positive id"}})
		return
	}
	items, total, err := h.Service.List(r.Context(), feedback.ListFilter{CycleID: cycleID, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		writeError(w, r, err, "feedback_list_failed")
		return
	}
	if items == nil {
		items = []feedback.Feedback{}
	}
	shared.WriteTotal(w, total)
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleForAssignment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	assignmentID, ok := shared.PathID(r, "assignmentId")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid assignment id", middleware.GetRequestID(r.Context()))
		return
	}
	items, err := h.Service.ForAssignment(r.Context(), user, assignmentID)
	if err != nil {
		writeError(w, r, err, "feedback_list_failed")
		return
	}
	if items == nil {
		items = []feedback.Feedback{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid feedback id", middleware.GetRequestID(r.Context()))
		return
	}
	item, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err, "feedback_get_failed")
		return
	}
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid feedback id", middleware.GetRequestID(r.Context()))
		return
	}
	var payload updateRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	updated, err := h.Service.Update(r.Context(), user, id, feedback.Patch{Score: payload.Score, Comment: payload.Comment})
	if err != nil {
		writeError(w, r, err, "feedback_update_failed")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid feedback id", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		writeError(w, r, err, "feedback_delete_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionFeedbackDelete, "feedback", strconv.FormatInt(id, 10), nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	deleted, err := h.Service.Reset(r.Context())
	if err != nil {
		writeError(w, r, err, "feedback_reset_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionFeedbackReset, "feedback", "*", nil, map[string]int64{"feedbacksDeleted": deleted})
	api.Success(w, map[string]int64{"feedbacksDeleted": deleted}, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, feedback.ErrFeedbackNotFound), errors.Is(err, feedback.ErrAssignmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, feedback.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, feedback.ErrCycleNotActive):
		api.Fail(w, http.StatusConflict, "cycle_not_active", err.Error(), reqID)
	case errors.Is(err, feedback.ErrUnknownQuestion):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), reqID)
	case errors.Is(err, feedback.ErrInvalidScore):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("feedback request failed", "code", fallback, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallback, "feedback operation failed", reqID)
	}
}
