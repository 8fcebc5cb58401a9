package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	items             []model.Item
	sessions          map[model.PlayerID]*model.Session
	localScores       map[model.PlayerID]model.ScoreRecord
	remoteScores      map[model.PlayerID]model.ScoreRecord
	guesses           map[model.PlayerID][]model.GuessRecord

	guessLogLength int
}

// Config holds in-memory storage settings
type Config struct {
	// GuessLogLength caps how many guesses are kept per device; zero keeps all
	GuessLogLength int
}

// DefaultConfig returns the settings New uses
func DefaultConfig() Config {
	return Config{GuessLogLength: storage.DefaultGuessLogLength}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an in-memory storage instance with the given settings
func NewWithConfig(cfg Config) *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		sessions:          make(map[model.PlayerID]*model.Session),
		localScores:       make(map[model.PlayerID]model.ScoreRecord),
		remoteScores:      make(map[model.PlayerID]model.ScoreRecord),
		guesses:           make(map[model.PlayerID][]model.GuessRecord),
		guessLogLength:    cfg.GuessLogLength,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rp
	s.registeredPlayers[rp.PlayerID] = &r
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	r := *rp
	return &r, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	playerID, ok := s.usernameIndex[username]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return s.GetRegisteredPlayer(ctx, playerID)
}

// Catalog operations

func (s *Storage) GetItems(ctx context.Context) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.Item, len(s.items))
	copy(result, s.items)
	return result, nil
}

func (s *Storage) SaveItems(ctx context.Context, items []model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]model.Item, len(items))
	copy(s.items, items)
	sort.Slice(s.items, func(i, j int) bool { return s.items[i].ID < s.items[j].ID })
	return nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.DeviceID] = session.Clone()
	return nil
}

func (s *Storage) GetSession(ctx context.Context, deviceID model.PlayerID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[deviceID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) DeleteSession(ctx context.Context, deviceID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, deviceID)
	return nil
}

// Score operations

func (s *Storage) GetLocalScore(ctx context.Context, deviceID model.PlayerID) (model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.localScores[deviceID]
	if !ok {
		return model.ScoreRecord{}, model.ErrScoreNotFound
	}
	return record, nil
}

func (s *Storage) SaveLocalScore(ctx context.Context, deviceID model.PlayerID, record model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localScores[deviceID] = record
	return nil
}

func (s *Storage) DeleteLocalScore(ctx context.Context, deviceID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.localScores, deviceID)
	return nil
}

func (s *Storage) GetRemoteScore(ctx context.Context, userID model.PlayerID) (model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.remoteScores[userID]
	if !ok {
		return model.ScoreRecord{}, model.ErrScoreNotFound
	}
	return record, nil
}

func (s *Storage) SaveRemoteScore(ctx context.Context, userID model.PlayerID, record model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteScores[userID] = record
	return nil
}

// Guess operations

func (s *Storage) RecordGuess(ctx context.Context, guess *model.GuessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recorded := append(s.guesses[guess.DeviceID], *guess)
	if s.guessLogLength > 0 && len(recorded) > s.guessLogLength {
		recorded = append([]model.GuessRecord(nil), recorded[len(recorded)-s.guessLogLength:]...)
	}
	s.guesses[guess.DeviceID] = recorded
	return nil
}

func (s *Storage) ListGuesses(ctx context.Context, deviceID model.PlayerID, limit int) ([]model.GuessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recorded := s.guesses[deviceID]
	result := make([]model.GuessRecord, 0, len(recorded))
	for i := len(recorded) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, recorded[i])
	}
	return result, nil
}
