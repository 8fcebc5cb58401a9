package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
)

// Score hash fields
const (
	fieldCurrentScore = "current_score"
	fieldHighScore    = "high_score"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Devices expire when unused; accounts are kept
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.DevicePlayerTTL
	}
	return s.client.Set(ctx, playerKey(player.ID), data, ttl).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	if err := s.getJSON(ctx, playerKey(id), &player, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.client.Del(ctx, playerKey(id)).Err()
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0)
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	if err := s.getJSON(ctx, registeredPlayerKey(playerID), &rp, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Catalog operations

func (s *Storage) GetItems(ctx context.Context) ([]model.Item, error) {
	values, err := s.client.HGetAll(ctx, itemsKey()).Result()
	if err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(values))
	for _, val := range values {
		var item model.Item
		if err := json.Unmarshal([]byte(val), &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Storage) SaveItems(ctx context.Context, items []model.Item) error {
	fields := make([]any, 0, len(items)*2)
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		fields = append(fields, string(item.ID), data)
	}

	// Replace the whole catalog atomically
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, itemsKey())
	if len(fields) > 0 {
		pipe.HSet(ctx, itemsKey(), fields...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.DeviceID), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetSession(ctx context.Context, deviceID model.PlayerID) (*model.Session, error) {
	var session model.Session
	if err := s.getJSON(ctx, sessionKey(deviceID), &session, model.ErrSessionNotFound); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, deviceID model.PlayerID) error {
	return s.client.Del(ctx, sessionKey(deviceID)).Err()
}

// Score operations

func (s *Storage) GetLocalScore(ctx context.Context, deviceID model.PlayerID) (model.ScoreRecord, error) {
	return s.getScore(ctx, localScoreKey(deviceID))
}

func (s *Storage) SaveLocalScore(ctx context.Context, deviceID model.PlayerID, record model.ScoreRecord) error {
	return s.saveScore(ctx, localScoreKey(deviceID), record, s.cfg.LocalScoreTTL)
}

func (s *Storage) DeleteLocalScore(ctx context.Context, deviceID model.PlayerID) error {
	return s.client.Del(ctx, localScoreKey(deviceID)).Err()
}

func (s *Storage) GetRemoteScore(ctx context.Context, userID model.PlayerID) (model.ScoreRecord, error) {
	return s.getScore(ctx, remoteScoreKey(userID))
}

func (s *Storage) SaveRemoteScore(ctx context.Context, userID model.PlayerID, record model.ScoreRecord) error {
	return s.saveScore(ctx, remoteScoreKey(userID), record, 0)
}

// getScore reads a score hash; missing fields read as zero
func (s *Storage) getScore(ctx context.Context, key string) (model.ScoreRecord, error) {
	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return model.ScoreRecord{}, err
	}
	if len(values) == 0 {
		return model.ScoreRecord{}, model.ErrScoreNotFound
	}

	var record model.ScoreRecord
	if v, ok := values[fieldCurrentScore]; ok {
		if record.CurrentScore, err = strconv.Atoi(v); err != nil {
			return model.ScoreRecord{}, err
		}
	}
	if v, ok := values[fieldHighScore]; ok {
		if record.HighScore, err = strconv.Atoi(v); err != nil {
			return model.ScoreRecord{}, err
		}
	}
	return record, nil
}

func (s *Storage) saveScore(ctx context.Context, key string, record model.ScoreRecord, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fieldCurrentScore, record.CurrentScore, fieldHighScore, record.HighScore)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Guess operations

func (s *Storage) RecordGuess(ctx context.Context, guess *model.GuessRecord) error {
	data, err := json.Marshal(guess)
	if err != nil {
		return err
	}

	key := guessLogKey(guess.DeviceID)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, data)
	if s.cfg.GuessLogLength > 0 {
		pipe.LTrim(ctx, key, 0, s.cfg.GuessLogLength-1)
	}
	if s.cfg.GuessLogTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.GuessLogTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListGuesses(ctx context.Context, deviceID model.PlayerID, limit int) ([]model.GuessRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	values, err := s.client.LRange(ctx, guessLogKey(deviceID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	guesses := make([]model.GuessRecord, 0, len(values))
	for _, val := range values {
		var guess model.GuessRecord
		if err := json.Unmarshal([]byte(val), &guess); err != nil {
			continue // Skip invalid data
		}
		guesses = append(guesses, guess)
	}
	return guesses, nil
}

// getJSON loads a JSON value, mapping a missing key to notFound
func (s *Storage) getJSON(ctx context.Context, key string, dst any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}
