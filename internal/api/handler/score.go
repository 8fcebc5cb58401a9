package handler

import (
	"net/http"

	"github.com/mcoot/beforeafter/internal/api/middleware"
	"github.com/mcoot/beforeafter/internal/api/response"
	"github.com/mcoot/beforeafter/internal/services/play"
)

// ScoreHandler reports the caller's score
type ScoreHandler struct {
	controller play.ControllerInterface
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(controller play.ControllerInterface) *ScoreHandler {
	return &ScoreHandler{controller: controller}
}

// Get handles GET /api/v1/score
func (h *ScoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	session, err := h.controller.GetSession(r.Context(), identity)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreResponse{
		Score:    response.ScoreFromModel(session.Score),
		Identity: response.IdentityFromModel(identity),
	})
}
