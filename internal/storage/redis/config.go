package redis

import (
	"time"

	"github.com/mcoot/beforeafter/internal/storage"
)

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings for different entity types
	DevicePlayerTTL time.Duration
	SessionTTL      time.Duration
	LocalScoreTTL   time.Duration
	GuessLogTTL     time.Duration

	// GuessLogLength caps how many guesses are kept per device
	GuessLogLength int64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		DevicePlayerTTL: 30 * 24 * time.Hour,
		SessionTTL:      24 * time.Hour,
		LocalScoreTTL:   30 * 24 * time.Hour,
		GuessLogTTL:     7 * 24 * time.Hour,
		GuessLogLength:  storage.DefaultGuessLogLength,
	}
}
