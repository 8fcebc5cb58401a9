package redis

import (
	"fmt"

	"github.com/mcoot/beforeafter/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "bagame"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// itemsKey returns the Redis key for the HASH of catalog items (id -> json)
func itemsKey() string {
	return fmt.Sprintf("%s:items", keyPrefix)
}

// sessionKey returns the Redis key for a device's Session
func sessionKey(deviceID model.PlayerID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, deviceID)
}

// localScoreKey returns the Redis key for a device's local-only score
func localScoreKey(deviceID model.PlayerID) string {
	return fmt.Sprintf("%s:score:local:%s", keyPrefix, deviceID)
}

// remoteScoreKey returns the Redis key for an account's score
func remoteScoreKey(userID model.PlayerID) string {
	return fmt.Sprintf("%s:score:remote:%s", keyPrefix, userID)
}

// guessLogKey returns the Redis key for the LIST of a device's guesses
func guessLogKey(deviceID model.PlayerID) string {
	return fmt.Sprintf("%s:guesses:%s", keyPrefix, deviceID)
}
