package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAlreadySignedIn    = "ALREADY_SIGNED_IN"
	CodeNotSignedIn        = "NOT_SIGNED_IN"
	CodeInvalidGuess       = "INVALID_GUESS"
	CodeNotPlaying         = "NOT_PLAYING"
	CodeSessionInProgress  = "SESSION_IN_PROGRESS"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeInsufficientItems  = "INSUFFICIENT_ITEMS"
	CodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	CodeScoreNotSaved      = "SCORE_NOT_SAVED"
	CodeScoreNotReconciled = "SCORE_NOT_RECONCILED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Session errors
	case errors.Is(err, model.ErrInvalidGuess):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGuess, "Guess must be before or after"}}
	case errors.Is(err, model.ErrNotPlaying):
		return &httpError{http.StatusConflict, APIError{CodeNotPlaying, "No guess is awaited; start a session first"}}
	case errors.Is(err, model.ErrSessionInProgress):
		return &httpError{http.StatusConflict, APIError{CodeSessionInProgress, "A session is already in progress"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "No session to abandon"}}

	// Catalog errors; a load failure takes precedence since it is retryable
	case errors.Is(err, model.ErrCatalogLoad):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeCatalogUnavailable, "Items could not be loaded, try again"}}
	case errors.Is(err, model.ErrInsufficientItems):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientItems, "Not enough items to play"}}

	// Score errors
	case errors.Is(err, model.ErrScorePersistence):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeScoreNotSaved, "Score could not be saved"}}
	case errors.Is(err, model.ErrIdentityReconciliation):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeScoreNotReconciled, "Score could not be reconciled"}}

	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrMissingCredentials):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Username and password are required"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}
	case errors.Is(err, auth.ErrAlreadySignedIn):
		return &httpError{http.StatusConflict, APIError{CodeAlreadySignedIn, "Already signed in on this device"}}
	case errors.Is(err, auth.ErrNotSignedIn):
		return &httpError{http.StatusConflict, APIError{CodeNotSignedIn, "Not signed in on this device"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// Warnings describes recoverable failures that accompany a successful result.
// Returns nil when err is nil.
func Warnings(err error) []APIError {
	if err == nil {
		return nil
	}

	var warnings []APIError
	if errors.Is(err, model.ErrScorePersistence) {
		warnings = append(warnings, APIError{CodeScoreNotSaved, "Score could not be saved; it is kept for this session"})
	}
	if errors.Is(err, model.ErrIdentityReconciliation) {
		warnings = append(warnings, APIError{CodeScoreNotReconciled, "Scores could not be fully merged"})
	}
	if len(warnings) == 0 {
		warnings = append(warnings, toHTTPError(err).apiError)
	}
	return warnings
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
