package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mcoot/beforeafter/internal/api/apierr"
	"github.com/mcoot/beforeafter/internal/api/middleware"
	"github.com/mcoot/beforeafter/internal/api/request"
	"github.com/mcoot/beforeafter/internal/api/response"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/services/play"
)

const (
	defaultGuessLimit = 20
	maxGuessLimit     = 100
)

// GuessLister reads recorded guesses for a device
type GuessLister interface {
	Recent(ctx context.Context, deviceID model.PlayerID, limit int) ([]model.GuessRecord, error)
}

// SessionHandler handles play-through endpoints
type SessionHandler struct {
	controller play.ControllerInterface
	guesses    GuessLister
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller play.ControllerInterface, guesses GuessLister) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		guesses:    guesses,
	}
}

// Start handles POST /api/v1/session
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	session, err := h.controller.StartSession(r.Context(), identity)
	if session == nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.SessionFromModel(session, apierr.Warnings(err)))
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	session, err := h.controller.GetSession(r.Context(), identity)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session, nil))
}

// Guess handles POST /api/v1/session/guess
func (h *SessionHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req request.GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	guess, err := model.ParseDirection(req.Guess)
	if err != nil {
		WriteError(w, err)
		return
	}

	identity := middleware.MustGetIdentity(r.Context())
	outcome, err := h.controller.SubmitGuess(r.Context(), identity, guess)
	if outcome == nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GuessResponseFromModel(outcome, apierr.Warnings(err)))
}

// Abandon handles DELETE /api/v1/session
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	session, err := h.controller.AbandonSession(r.Context(), identity)
	if session == nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session, apierr.Warnings(err)))
}

// Guesses handles GET /api/v1/session/guesses
func (h *SessionHandler) Guesses(w http.ResponseWriter, r *http.Request) {
	limit := defaultGuessLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = min(n, maxGuessLimit)
	}

	session := middleware.MustGetSession(r.Context())
	records, err := h.guesses.Recent(r.Context(), session.DeviceID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GuessHistoryFromModel(records))
}
