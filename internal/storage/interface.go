package storage

import (
	"context"

	"github.com/mcoot/beforeafter/internal/model"
)

// DefaultGuessLogLength is how many guesses each backend keeps per device
const DefaultGuessLogLength = 500

// Storage defines the interface for data persistence
type Storage interface {
	PlayerStore
	CatalogStore
	SessionStore
	LocalScoreStore
	RemoteScoreStore
	GuessStore

	// Close releases backend resources
	Close() error
}

// PlayerStore holds devices and registered accounts
type PlayerStore interface {
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)
}

// CatalogStore holds the pool of items
type CatalogStore interface {
	// GetItems returns the pool in a stable order (by ID)
	GetItems(ctx context.Context) ([]model.Item, error)
	// SaveItems replaces the pool
	SaveItems(ctx context.Context, items []model.Item) error
}

// SessionStore holds one play-through per device
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, deviceID model.PlayerID) (*model.Session, error)
	DeleteSession(ctx context.Context, deviceID model.PlayerID) error
}

// LocalScoreStore is the local-only score surface, keyed by device
type LocalScoreStore interface {
	GetLocalScore(ctx context.Context, deviceID model.PlayerID) (model.ScoreRecord, error)
	SaveLocalScore(ctx context.Context, deviceID model.PlayerID, record model.ScoreRecord) error
	DeleteLocalScore(ctx context.Context, deviceID model.PlayerID) error
}

// RemoteScoreStore is the authoritative score surface for registered accounts
type RemoteScoreStore interface {
	GetRemoteScore(ctx context.Context, userID model.PlayerID) (model.ScoreRecord, error)
	SaveRemoteScore(ctx context.Context, userID model.PlayerID, record model.ScoreRecord) error
}

// GuessStore records guess telemetry
type GuessStore interface {
	// RecordGuess appends to the device's log, dropping the oldest entries past the backend's cap
	RecordGuess(ctx context.Context, guess *model.GuessRecord) error
	// ListGuesses returns the most recent guesses for a device, newest first
	ListGuesses(ctx context.Context, deviceID model.PlayerID, limit int) ([]model.GuessRecord, error)
}
