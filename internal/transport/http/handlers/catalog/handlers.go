package cataloghandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/catalog"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
	"feedback360/internal/transport/http/shared"
)

type Catalog interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	GetCategory(ctx context.Context, id int64) (catalog.Category, error)
	CreateCategory(ctx context.Context, input catalog.CategoryInput) (catalog.Category, error)
	UpdateCategory(ctx context.Context, id int64, patch catalog.CategoryPatch) (catalog.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListQuestions(ctx context.Context) ([]catalog.Question, error)
	ListQuestionsByCategory(ctx context.Context, categoryID int64) ([]catalog.Question, error)
	GetQuestion(ctx context.Context, id int64) (catalog.Question, error)
	CreateQuestion(ctx context.Context, input catalog.QuestionInput) (catalog.Question, error)
	UpdateQuestion(ctx context.Context, id int64, patch catalog.QuestionPatch) (catalog.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

type Handler struct {
	Service Catalog
	Perms   middleware.PermissionStore
}

func NewHandler(service Catalog, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermCatalogRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)

	r.Route("/categories", func(r chi.Router) {
		r.With(read).Get("/", h.handleListCategories)
		r.With(write).Post("/", h.handleCreateCategory)
		r.With(read).Get("/{id}", h.handleGetCategory)
		r.With(write).Put("/{id}", h.handleUpdateCategory)
		r.With(write).Delete("/{id}", h.handleDeleteCategory)
	})
	r.Route("/questions", func(r chi.Router) {
		r.With(read).Get("/", h.handleListQuestions)
		r.With(write).Post("/", h.handleCreateQuestion)
		r.With(read).Get("/category/{categoryId}", h.handleListQuestionsByCategory)
		r.With(read).Get("/{id}", h.handleGetQuestion)
		r.With(write).Put("/{id}", h.handleUpdateQuestion)
		r.With(write).Delete("/{id}", h.handleDeleteQuestion)
	})
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type questionRequest struct {
	Text       *string `json:"text"`
	CategoryID *int64  `json:"categoryId"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err, "category_list_failed")
		return
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	api.Success(w, categories, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid category id", middleware.GetRequestID(r.Context()))
		return
	}
	category, err := h.Service.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "category_get_failed")
		return
	}
	api.Success(w, category, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", deref(payload.Name), "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	created, err := h.Service.CreateCategory(r.Context(), catalog.CategoryInput{Name: deref(payload.Name), Description: deref(payload.Description)})
	if err != nil {
		writeError(w, r, err, "category_create_failed")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid category id", middleware.GetRequestID(r.Context()))
		return
	}
	var payload categoryRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Name != nil {
		v.Required("name", *payload.Name, "must not be empty")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	updated, err := h.Service.UpdateCategory(r.Context(), id, catalog.CategoryPatch{Name: payload.Name, Description: payload.Description})
	if err != nil {
		writeError(w, r, err, "category_update_failed")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid category id", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err, "category_delete_failed")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.Service.ListQuestions(r.Context())
	if err != nil {
		writeError(w, r, err, "question_list_failed")
		return
	}
	if questions == nil {
		questions = []catalog.Question{}
	}
	api.Success(w, questions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListQuestionsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := shared.PathID(r, "categoryId")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid category id", middleware.GetRequestID(r.Context()))
		return
	}
	questions, err := h.Service.ListQuestionsByCategory(r.Context(), categoryID)
	if err != nil {
		writeError(w, r, err, "question_list_failed")
		return
	}
	if questions == nil {
		questions = []catalog.Question{}
	}
	api.Success(w, questions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid question id", middleware.GetRequestID(r.Context()))
		return
	}
	question, err := h.Service.GetQuestion(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "question_get_failed")
		return
	}
	api.Success(w, question, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var payload questionRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("text", deref(payload.Text), "is required")
	if payload.CategoryID == nil || *payload.CategoryID <= 0 {
		v.Add("categoryId", "is required")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	created, err := h.Service.CreateQuestion(r.Context(), catalog.QuestionInput{Text: *payload.Text, CategoryID: *payload.CategoryID})
	if err != nil {
		writeError(w, r, err, "question_create_failed")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid question id", middleware.GetRequestID(r.Context()))
		return
	}
	var payload questionRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Text != nil {
		v.Required("text", *payload.Text, "must not be empty")
	}
	if payload.CategoryID != nil && *payload.CategoryID <= 0 {
		v.Add("categoryId", "must be a positive id")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	updated, err := h.Service.UpdateQuestion(r.Context(), id, catalog.QuestionPatch{Text: payload.Text, CategoryID: payload.CategoryID})
	if err != nil {
		writeError(w, r, err, "question_update_failed")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid question id", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.DeleteQuestion(r.Context(), id); err != nil {
		writeError(w, r, err, "question_delete_failed")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound), errors.Is(err, catalog.ErrQuestionNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, catalog.ErrCategoryNameTaken):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, catalog.ErrCategoryHasQuestions):
		api.Fail(w, http.StatusConflict, "has_dependents", "cannot delete category with existing questions", reqID)
	case errors.Is(err, catalog.ErrUnknownCategory):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), reqID)
	default:
		slog.Error("catalog request failed", "code", fallback, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallback, "catalog operation failed", reqID)
	}
}
