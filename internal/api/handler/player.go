package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/beforeafter/internal/api/apierr"
	"github.com/mcoot/beforeafter/internal/api/middleware"
	"github.com/mcoot/beforeafter/internal/api/request"
	"github.com/mcoot/beforeafter/internal/api/response"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/services/auth"
	"github.com/mcoot/beforeafter/internal/services/play"
)

// PlayerHandler handles device and account endpoints
type PlayerHandler struct {
	authService *auth.Service
	controller  play.ControllerInterface
	logger      *slog.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, controller play.ControllerInterface, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
		controller:  controller,
		logger:      logger,
	}
}

// CreateGuest handles POST /api/v1/players/guest
func (h *PlayerHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	session, err := h.authService.CreateDevice(r.Context(), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.AuthResponseFromSession(session))
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	h.switchIdentity(w, r, http.StatusCreated, func(token string) (*auth.Session, model.IdentityTransition, error) {
		return h.authService.Register(r.Context(), token, req.Username, req.Password, req.DisplayName)
	})
}

// Login handles POST /api/v1/players/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	h.switchIdentity(w, r, http.StatusOK, func(token string) (*auth.Session, model.IdentityTransition, error) {
		return h.authService.Login(r.Context(), token, req.Username, req.Password)
	})
}

// Logout handles POST /api/v1/players/logout
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.switchIdentity(w, r, http.StatusOK, func(token string) (*auth.Session, model.IdentityTransition, error) {
		return h.authService.Logout(r.Context(), token)
	})
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.MeFromSession(session))
}

// switchIdentity re-binds the caller's device token and reconciles scores
// while the device is locked. Once the token is re-bound the request succeeds;
// reconciliation failures are reported as warnings.
func (h *PlayerHandler) switchIdentity(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	bind func(token string) (*auth.Session, model.IdentityTransition, error),
) {
	caller := middleware.MustGetSession(r.Context())

	var (
		session    *auth.Session
		transition model.IdentityTransition
	)
	playSession, err := h.controller.SwitchIdentity(r.Context(), caller.DeviceID, func() (model.IdentityTransition, error) {
		var bindErr error
		session, transition, bindErr = bind(caller.Token)
		return transition, bindErr
	})
	if session == nil {
		WriteError(w, err)
		return
	}

	resp := response.AuthResponseFromSession(session)
	if err != nil {
		h.logger.Warn("identity transition incomplete",
			slog.String("kind", string(transition.Kind)),
			slog.String("device_id", string(transition.DeviceID)),
			slog.String("error", err.Error()),
		)
		resp.Warnings = apierr.Warnings(err)
	}
	if playSession != nil {
		s := response.SessionFromModel(playSession, nil)
		resp.Session = &s
	}

	response.JSON(w, status, resp)
}
