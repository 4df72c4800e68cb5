// Package httpapi exposes the user service over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authcore/internal/common"
	"github.com/dmitrijs2005/authcore/internal/logging"
	"github.com/dmitrijs2005/authcore/internal/server/metrics"
	"github.com/dmitrijs2005/authcore/internal/server/services"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// AuthService is the part of services.UserService the handlers call.
type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	svc   AuthService
	store Pinger
	log   logging.Logger
}

func NewHandlers(svc AuthService, store Pinger, log logging.Logger) *Handlers {
	return &Handlers{svc: svc, store: store, log: log.With("module", "http")}
}

// RegisterRoutes mounts the auth routes on router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/register", h.register).Methods(http.MethodPost)
	router.HandleFunc("/login", h.login).Methods(http.MethodPost)
	router.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	router.HandleFunc("/revoke", h.revoke).Methods(http.MethodPost)
}

// RouterConfig carries the optional parts of the router.
type RouterConfig struct {
	// InternalToken, when set, is required in the X-Internal-Token header
	// on every route except /health and /metrics.
	InternalToken string
	Metrics       *metrics.Metrics
}

// NewRouter builds the full HTTP handler. Auth routes are served both at
// the root and under /auth.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	r.Use(recoverer(h.log))
	r.Use(cfg.Metrics.Middleware)
	r.Use(internalToken(cfg.InternalToken, "/health", "/metrics"))

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	h.RegisterRoutes(r)
	h.RegisterRoutes(r.PathPrefix("/auth").Subrouter())
	return r
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type revokeRequest struct {
	UserID string `json:"userId"`
}

// register handles POST /register
func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	displayName, err := validateRegister(req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Register(r.Context(), req.Email, req.Password, displayName)
	if err != nil {
		h.writeServiceError(w, r, err, "User with this email already exists", "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// login handles POST /login
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateLogin(req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "", "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// refresh handles POST /refresh
func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeServiceError(w, r, err, "", "Invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// revoke handles POST /revoke
func (h *Handlers) revoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeMessage(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.svc.Revoke(r.Context(), req.UserID); err != nil {
		h.writeServiceError(w, r, err, "", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// health handles GET /health
func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "service": "authcore"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "authcore"})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error, conflictMsg, unauthorizedMsg string) {
	switch {
	case errors.Is(err, common.ErrorConflict) && conflictMsg != "":
		writeMessage(w, http.StatusConflict, conflictMsg)
	case errors.Is(err, common.ErrorUnauthorized) && unauthorizedMsg != "":
		writeMessage(w, http.StatusUnauthorized, unauthorizedMsg)
	default:
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Not Found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
