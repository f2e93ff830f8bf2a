package directoryhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/audit"
	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/directory"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
	"feedback360/internal/transport/http/shared"
)

type Directory interface {
	ListEmployees(ctx context.Context) ([]directory.Employee, error)
	GetEmployee(ctx context.Context, id int64) (directory.Employee, error)
	CreateUser(ctx context.Context, input directory.CreateUserInput) (directory.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, input directory.UpdateEmployeeInput) (directory.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
	ResetEmployees(ctx context.Context) (int, error)

	ListDepartments(ctx context.Context) ([]directory.Department, error)
	GetDepartment(ctx context.Context, id int64) (directory.Department, error)
	CreateDepartment(ctx context.Context, input directory.DepartmentInput) (directory.Department, error)
	UpdateDepartment(ctx context.Context, id int64, input directory.DepartmentInput) (directory.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
}

type Handler struct {
	Service Directory
	Audit   shared.Auditor
	Perms   middleware.PermissionStore
}

func NewHandler(service Directory, auditor shared.Auditor, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditor, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDirectoryList, h.Perms)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Post("/", h.handleCreateEmployee)
		r.With(middleware.RequirePermission(auth.PermSystemReset, h.Perms)).Post("/reset", h.handleResetEmployees)
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/{id}", h.handleGetEmployee)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Put("/{id}", h.handleUpdateEmployee)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Delete("/{id}", h.handleDeleteEmployee)
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/", h.handleListDepartments)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Post("/", h.handleCreateDepartment)
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/{id}", h.handleGetDepartment)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Put("/{id}", h.handleUpdateDepartment)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Delete("/{id}", h.handleDeleteDepartment)
	})
}

type employeeCreateRequest struct {
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Password     string               `json:"password"`
	ManagerID    directory.OptionalID `json:"managerId"`
	DepartmentID directory.OptionalID `json:"departmentId"`
}

type employeeUpdateRequest struct {
	Name         *string              `json:"name"`
	Email        *string              `json:"email"`
	ManagerID    directory.OptionalID `json:"managerId"`
	DepartmentID directory.OptionalID `json:"departmentId"`
}

type departmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		slog.Error("list employees failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	if employees == nil {
		employees = []directory.Employee{}
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid employee id", middleware.GetRequestID(r.Context()))
		return
	}
	employee, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "employee_get_failed")
		return
	}
	api.Success(w, employee, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload employeeCreateRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	validateEmail(v, payload.Email, true)
	if len(payload.Password) < auth.MinPasswordLength {
		v.Add("password", "must be at least "+strconv.Itoa(auth.MinPasswordLength)+" characters")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.CreateUser(r.Context(), directory.CreateUserInput{
		Name:         payload.Name,
		Email:        payload.Email,
		Password:     payload.Password,
		Role:         auth.RoleEmployee,
		ManagerID:    payload.ManagerID.ID,
		DepartmentID: payload.DepartmentID.ID,
	})
	if err != nil {
		writeError(w, r, err, "employee_create_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionEmployeeCreate, "employee", strconv.FormatInt(created.ID, 10), nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid employee id", middleware.GetRequestID(r.Context()))
		return
	}
	var payload employeeUpdateRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Name != nil {
		v.Required("name", *payload.Name, "must not be empty")
	}
	if payload.Email != nil {
		validateEmail(v, *payload.Email, true)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Service.UpdateEmployee(r.Context(), id, directory.UpdateEmployeeInput{
		Name:         payload.Name,
		Email:        payload.Email,
		ManagerID:    payload.ManagerID,
		DepartmentID: payload.DepartmentID,
	})
	if err != nil {
		writeError(w, r, err, "employee_update_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionEmployeeUpdate, "employee", strconv.FormatInt(id, 10), nil, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid employee id", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.DeleteEmployee(r.Context(), id); err != nil {
		writeError(w, r, err, "employee_delete_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionEmployeeDelete, "employee", strconv.FormatInt(id, 10), nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResetEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	deleted, err := h.Service.ResetEmployees(r.Context())
	if err != nil {
		slog.Error("reset employees failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "employee_reset_failed", "failed to reset employees", middleware.GetRequestID(r.Context()))
		return
	}
	result := map[string]int{"employeesDeleted": deleted}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionEmployeesReset, "employee", "", nil, result)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		slog.Error("list departments failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "department_list_failed", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	if departments == nil {
		departments = []directory.Department{}
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid department id", middleware.GetRequestID(r.Context()))
		return
	}
	department, err := h.Service.GetDepartment(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "department_get_failed")
		return
	}
	api.Success(w, department, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload departmentRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	created, err := h.Service.CreateDepartment(r.Context(), directory.DepartmentInput{Name: payload.Name, Description: payload.Description})
	if err != nil {
		writeError(w, r, err, "department_create_failed")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid department id", middleware.GetRequestID(r.Context()))
		return
	}
	var payload departmentRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	updated, err := h.Service.UpdateDepartment(r.Context(), id, directory.DepartmentInput{Name: payload.Name, Description: payload.Description})
	if err != nil {
		writeError(w, r, err, "department_update_failed")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "id")
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid department id", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.DeleteDepartment(r.Context(), id); err != nil {
		writeError(w, r, err, "department_delete_failed")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func validateEmail(v *shared.Validator, email string, required bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		if required {
			v.Add("email", "is required")
		}
		return
	}
	if !strings.Contains(email, "@") {
		v.Add("email", "must be a valid email")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, directory.ErrEmployeeNotFound), errors.Is(err, directory.ErrDepartmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, directory.ErrEmailTaken), errors.Is(err, directory.ErrDepartmentNameTaken):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, directory.ErrManagerNotEmployee), errors.Is(err, directory.ErrUnknownDepartment):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), reqID)
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidRole):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("directory request failed", "code", fallback, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallback, "directory operation failed", reqID)
	}
}
