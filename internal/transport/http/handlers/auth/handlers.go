package authhandler

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

type Authenticator interface {
	Login(ctx context.Context, email, password, mfaCode string) (auth.LoginResult, error)
	Logout(ctx context.Context, user auth.UserContext) error
	SetupMFA(ctx context.Context, userID int64) (auth.MFASetup, error)
	SetMFA(ctx context.Context, userID int64, code string, enabled bool) error
}

type Accounts interface {
	GetEmployee(ctx context.Context, id int64) (directory.Employee, error)
	CreateUser(ctx context.Context, input directory.CreateUserInput) (directory.Employee, error)
}

type Handler struct {
	Auth     Authenticator
	Accounts Accounts
	Audit    shared.Auditor
	Perms    middleware.PermissionStore
}

func NewHandler(authService Authenticator, accounts Accounts, auditor shared.Auditor, perms middleware.PermissionStore) *Handler {
	return &Handler{Auth: authService, Accounts: accounts, Audit: auditor, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.With(middleware.RequireAuth).Post("/logout", h.HandleLogout)
		r.With(middleware.RequireAuth).Get("/me", h.HandleMe)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Post("/register", h.HandleRegister)
		r.With(middleware.RequireAuth).Post("/mfa/setup", h.HandleMFASetup)
		r.With(middleware.RequireAuth).Post("/mfa/enable", h.HandleMFAEnable)
		r.With(middleware.RequireAuth).Post("/mfa/disable", h.HandleMFADisable)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type registerRequest struct {
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Password     string               `json:"password"`
	Role         string               `json:"role"`
	ManagerID    directory.OptionalID `json:"managerId"`
	DepartmentID directory.OptionalID `json:"departmentId"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Auth.Login(r.Context(), payload.Email, payload.Password, strings.TrimSpace(payload.MFACode))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Auth.Logout(r.Context(), user); err != nil {
		slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	me, err := h.Accounts.GetEmployee(r.Context(), user.UserID)
	if errors.Is(err, directory.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "user no longer exists", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "auth_me_failed", "failed to load user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, me, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload registerRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Required("email", payload.Email, "is required")
	if payload.Email != "" && !strings.Contains(payload.Email, "@") {
		v.Add("email", "must be a valid email")
	}
	if len(payload.Password) < auth.MinPasswordLength {
		v.Add("password", "must be at least "+strconv.Itoa(auth.MinPasswordLength)+" characters")
	}
	v.Enum("role", payload.Role, auth.Roles, "must be ADMIN or EMPLOYEE")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Accounts.CreateUser(r.Context(), directory.CreateUserInput{
		Name:         payload.Name,
		Email:        payload.Email,
		Password:     payload.Password,
		Role:         payload.Role,
		ManagerID:    payload.ManagerID.ID,
		DepartmentID: payload.DepartmentID.ID,
	})
	if err != nil {
		writeAccountError(w, r, err, "auth_register_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionUserRegister, "user", strconv.FormatInt(created.ID, 10), nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	setup, err := h.Auth.SetupMFA(r.Context(), user.UserID)
	if err != nil {
		writeMFAError(w, r, err, "mfa_setup_failed")
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, false)
}

func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, enabled bool) {
	user, _ := middleware.GetUser(r.Context())
	var payload mfaCodeRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if err := h.Auth.SetMFA(r.Context(), user.UserID, strings.TrimSpace(payload.Code), enabled); err != nil {
		code := "mfa_disable_failed"
		if enabled {
			code = "mfa_enable_failed"
		}
		writeMFAError(w, r, err, code)
		return
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}

func writeMFAError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrMFAUnavailable):
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", reqID)
	case errors.Is(err, auth.ErrMFANotConfigured):
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", reqID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", reqID)
	default:
		slog.Error("mfa update failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, fallback, "failed to update mfa", reqID)
	}
}

func writeAccountError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, directory.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, auth.ErrInvalidRole), errors.Is(err, auth.ErrWeakPassword):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, directory.ErrManagerNotEmployee), errors.Is(err, directory.ErrUnknownDepartment):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), reqID)
	default:
		slog.Error("account write failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, fallback, "failed to save user", reqID)
	}
}
