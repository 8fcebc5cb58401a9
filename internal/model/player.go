package model

import "time"

// PlayerID uniquely identifies a device or a registered account
type PlayerID string

// Player is either a device (guest) or a registered account
type Player struct {
	ID          PlayerID
	DisplayName string
	IsGuest     bool // true for devices, false for registered accounts
	CreatedAt   time.Time
}

// RegisteredPlayer extends an account Player with authentication data
// Stored separately for security (password never in memory with session)
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
