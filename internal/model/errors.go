package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Catalog errors
	ErrInvalidItem       = errors.New("invalid item")
	ErrCatalogLoad       = errors.New("catalog could not be loaded")
	ErrInsufficientItems = errors.New("at least two items are needed to play")

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionInProgress = errors.New("session is in progress")
	ErrNotPlaying        = errors.New("no guess is awaited")
	ErrInvalidGuess      = errors.New("invalid guess")

	// Score errors
	ErrScoreNotFound          = errors.New("score not found")
	ErrScorePersistence       = errors.New("score could not be saved")
	ErrIdentityReconciliation = errors.New("score could not be reconciled")
)
