package reportshandler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/reports"
	"feedback360/internal/domain/review"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
	"feedback360/internal/transport/http/shared"
)

type Reports interface {
	ScoresByCategory(ctx context.Context, filter reports.ScoreFilter) ([]reports.CategoryScore, error)
	PairCategories(ctx context.Context, reviewerID, revieweeID, cycleID int64) ([]reports.CategoryScore, error)
	Detailed(ctx context.Context, revieweeID, cycleID int64) (reports.DetailedReport, error)
	Summary(ctx context.Context, cycleID int64) (reports.Summary, error)
	Pairs(ctx context.Context, cycleID int64) ([]reports.PairScore, error)
	Export(ctx context.Context) (reports.Snapshot, error)
	FeedbackExport(ctx context.Context) ([]reports.FeedbackExportRow, error)
	JobRuns(ctx context.Context, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, int, error)
}

type Handler struct {
	Service Reports
	Perms   middleware.PermissionStore
}

func NewHandler(service Reports, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/scores-by-category", h.handleScoresByCategory)
		r.Get("/detailed", h.handleDetailed)
		r.Get("/detailed.pdf", h.handleDetailedPDF)
		r.Get("/summary", h.handleSummary)
		r.Get("/pairs", h.handlePairs)
		r.Get("/pair-categories", h.handlePairCategories)
		r.Get("/export", h.handleExport)
		r.Get("/export/feedback.csv", h.handleFeedbackCSV)
		r.Get("/jobs", h.handleJobRuns)
	})
}

// queryIDs parses the named optional id parameters, recording bad values on v.
func queryIDs(r *http.Request, v *shared.Validator, names ...string) []int64 {
	out := make([]int64, len(names))
	for i, name := range names {
		id, ok := shared.QueryID(r, name)
		if !ok {
			v.Add(name, "must be a positive id")
		}
		out[i] = id
	}
	return out
}

func (h *Handler) handleScoresByCategory(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	ids := queryIDs(r, v, "revieweeId", "reviewCycleId")
	relation := strings.TrimSpace(r.URL.Query().Get("relationType"))
	if relation != "" && !review.ValidRelation(relation) {
		v.Add("relationType", "must be one of SELF, MANAGER, PEER, SUBORDINATE")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	scores, err := h.Service.ScoresByCategory(r.Context(), reports.ScoreFilter{RevieweeID: ids[0], CycleID: ids[1], RelationType: relation})
	if err != nil {
		writeError(w, r, err, "report_scores_failed")
		return
	}
	if scores == nil {
		scores = []reports.CategoryScore{}
	}
	api.Success(w, scores, middleware.GetRequestID(r.Context()))
}

func (h *Handler) detailedParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	v := shared.NewValidator()
	ids := queryIDs(r, v, "revieweeId", "reviewCycleId")
	if r.URL.Query().Get("revieweeId") == "" {
		v.Add("revieweeId", "is required")
	}
	if r.URL.Query().Get("reviewCycleId") == "" {
		v.Add("reviewCycleId", "is required")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return 0, 0, false
	}
	return ids[0], ids[1], true
}

func (h *Handler) handleDetailed(w http.ResponseWriter, r *http.Request) {
	revieweeID, cycleID, ok := h.detailedParams(w, r)
	if !ok {
		return
	}
	report, err := h.Service.Detailed(r.Context(), revieweeID, cycleID)
	if err != nil {
		writeError(w, r, err, "report_detailed_failed")
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDetailedPDF(w http.ResponseWriter, r *http.Request) {
	revieweeID, cycleID, ok := h.detailedParams(w, r)
	if !ok {
		return
	}
	report, err := h.Service.Detailed(r.Context(), revieweeID, cycleID)
	if err != nil {
		writeError(w, r, err, "report_pdf_failed")
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteDetailedPDF(&buf, report); err != nil {
		writeError(w, r, err, "report_pdf_failed")
		return
	}
	filename := "feedback-" + strconv.FormatInt(revieweeID, 10) + "-" + strconv.FormatInt(cycleID, 10) + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("report pdf write failed", "err", err)
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	ids := queryIDs(r, v, "reviewCycleId")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	summary, err := h.Service.Summary(r.Context(), ids[0])
	if err != nil {
		writeError(w, r, err, "report_summary_failed")
		return
	}
	if summary.RelationTypeStats == nil {
		summary.RelationTypeStats = []reports.RelationStat{}
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePairs(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	ids := queryIDs(r, v, "reviewCycleId")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	pairs, err := h.Service.Pairs(r.Context(), ids[0])
	if err != nil {
		writeError(w, r, err, "report_pairs_failed")
		return
	}
	if pairs == nil {
		pairs = []reports.PairScore{}
	}
	api.Success(w, pairs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePairCategories(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	ids := queryIDs(r, v, "reviewerId", "revieweeId", "reviewCycleId")
	if ids[0] == 0 {
		v.Add("reviewerId", "is required")
	}
	if ids[1] == 0 {
		v.Add("revieweeId", "is required")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	scores, err := h.Service.PairCategories(r.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		writeError(w, r, err, "report_pair_failed")
		return
	}
	if scores == nil {
		scores = []reports.CategoryScore{}
	}
	api.Success(w, scores, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Service.Export(r.Context())
	if err != nil {
		writeError(w, r, err, "report_export_failed")
		return
	}
	api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFeedbackCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.FeedbackExport(r.Context())
	if err != nil {
		writeError(w, r, err, "report_export_failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=feedback.csv")
	if err := reports.WriteFeedbackCSV(w, rows); err != nil {
		slog.Warn("feedback export write failed", "err", err)
	}
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	query := r.URL.Query()
	filter := reports.JobRunFilter{JobType: query.Get("jobType"), Status: query.Get("status")}

	v := shared.NewValidator()
	if raw := strings.TrimSpace(query.Get("startedFrom")); raw != "" {
		if from, ok := v.Date("startedFrom", raw); ok {
			filter.StartedFrom = &from
		}
	}
	if raw := strings.TrimSpace(query.Get("startedTo")); raw != "" {
		if to, ok := v.Date("startedTo", raw); ok {
			to = shared.EndOfDay(raw, to)
			filter.StartedTo = &to
		}
	}
	if filter.StartedFrom != nil && filter.StartedTo != nil {
		v.DateOrder("startedFrom", *filter.StartedFrom, "startedTo", *filter.StartedTo)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	runs, total, err := h.Service.JobRuns(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err, "report_jobs_failed")
		return
	}
	if runs == nil {
		runs = []reports.JobRun{}
	}
	shared.WriteTotal(w, total)
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, reports.ErrRevieweeNotFound), errors.Is(err, reports.ErrCycleNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	default:
		slog.Error("report request failed", "code", fallback, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallback, "report generation failed", reqID)
	}
}
