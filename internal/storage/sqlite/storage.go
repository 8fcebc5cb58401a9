package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Storage is a SQLite-backed implementation of the storage interface.
// It is the durable choice for the remote score surface.
type Storage struct {
	db  *sql.DB
	cfg Config
}

// Config holds SQLite storage settings
type Config struct {
	// GuessLogLength caps how many guesses are kept per device; zero keeps all
	GuessLogLength int
}

// DefaultConfig returns the settings Open uses
func DefaultConfig() Config {
	return Config{GuessLogLength: storage.DefaultGuessLogLength}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
func Open(path string) (*Storage, error) {
	return OpenWithConfig(path, DefaultConfig())
}

// OpenWithConfig is Open with explicit settings
func OpenWithConfig(path string, cfg Config) (*Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Storage{db: db, cfg: cfg}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, display_name, is_guest, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name, is_guest = excluded.is_guest
	`, string(player.ID), player.DisplayName, player.IsGuest, player.CreatedAt)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	var playerID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, is_guest, created_at FROM players WHERE id = ?
	`, string(id)).Scan(&playerID, &player.DisplayName, &player.IsGuest, &player.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	player.ID = model.PlayerID(playerID)
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, string(id))
	return err
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registered_players (player_id, username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET password_hash = excluded.password_hash, updated_at = excluded.updated_at
	`, string(rp.PlayerID), rp.Username, rp.PasswordHash, rp.CreatedAt, rp.UpdatedAt)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	return s.queryRegisteredPlayer(ctx, `WHERE player_id = ?`, string(playerID))
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	return s.queryRegisteredPlayer(ctx, `WHERE username = ?`, username)
}

func (s *Storage) queryRegisteredPlayer(ctx context.Context, where string, arg any) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	var playerID string
	err := s.db.QueryRowContext(ctx, `
		SELECT player_id, username, password_hash, created_at, updated_at FROM registered_players
	`+where, arg).Scan(&playerID, &rp.Username, &rp.PasswordHash, &rp.CreatedAt, &rp.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	rp.PlayerID = model.PlayerID(playerID)
	return &rp, nil
}

// Catalog operations

func (s *Storage) GetItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, year, month FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		var id string
		if err := rows.Scan(&id, &item.Title, &item.Year, &item.Month); err != nil {
			return nil, err
		}
		item.ID = model.ItemID(id)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Storage) SaveItems(ctx context.Context, items []model.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, title, year, month) VALUES (?, ?, ?, ?)
		`, string(item.ID), item.Title, item.Year, item.Month); err != nil {
			return fmt.Errorf("insert item %s: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (device_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, string(session.DeviceID), string(data), session.UpdatedAt)
	return err
}

func (s *Storage) GetSession(ctx context.Context, deviceID model.PlayerID) (*model.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE device_id = ?`, string(deviceID)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, deviceID model.PlayerID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE device_id = ?`, string(deviceID))
	return err
}

// Score operations

func (s *Storage) GetLocalScore(ctx context.Context, deviceID model.PlayerID) (model.ScoreRecord, error) {
	return s.getScore(ctx, `SELECT current_score, high_score FROM local_scores WHERE device_id = ?`, deviceID)
}

func (s *Storage) SaveLocalScore(ctx context.Context, deviceID model.PlayerID, record model.ScoreRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_scores (device_id, current_score, high_score) VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET current_score = excluded.current_score, high_score = excluded.high_score
	`, string(deviceID), record.CurrentScore, record.HighScore)
	return err
}

func (s *Storage) DeleteLocalScore(ctx context.Context, deviceID model.PlayerID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM local_scores WHERE device_id = ?`, string(deviceID))
	return err
}

func (s *Storage) GetRemoteScore(ctx context.Context, userID model.PlayerID) (model.ScoreRecord, error) {
	return s.getScore(ctx, `SELECT current_score, high_score FROM remote_scores WHERE user_id = ?`, userID)
}

func (s *Storage) SaveRemoteScore(ctx context.Context, userID model.PlayerID, record model.ScoreRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO remote_scores (user_id, current_score, high_score) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET current_score = excluded.current_score, high_score = excluded.high_score
	`, string(userID), record.CurrentScore, record.HighScore)
	return err
}

func (s *Storage) getScore(ctx context.Context, query string, id model.PlayerID) (model.ScoreRecord, error) {
	var record model.ScoreRecord
	err := s.db.QueryRowContext(ctx, query, string(id)).Scan(&record.CurrentScore, &record.HighScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ScoreRecord{}, model.ErrScoreNotFound
		}
		return model.ScoreRecord{}, err
	}
	return record, nil
}

// Guess operations

func (s *Storage) RecordGuess(ctx context.Context, guess *model.GuessRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record guess: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO guesses
		(id, device_id, previous_year, previous_month, current_year, current_month, guess, correct, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		guess.ID,
		string(guess.DeviceID),
		guess.PreviousYear,
		guess.PreviousMonth,
		guess.CurrentYear,
		guess.CurrentMonth,
		string(guess.Guess),
		guess.Correct,
		guess.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("record guess: %w", err)
	}

	if s.cfg.GuessLogLength > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM guesses WHERE device_id = ? AND seq NOT IN (
				SELECT seq FROM guesses WHERE device_id = ? ORDER BY seq DESC LIMIT ?
			)
		`, string(guess.DeviceID), string(guess.DeviceID), s.cfg.GuessLogLength); err != nil {
			return fmt.Errorf("trim guesses: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Storage) ListGuesses(ctx context.Context, deviceID model.PlayerID, limit int) ([]model.GuessRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_id, previous_year, previous_month, current_year, current_month, guess, correct, recorded_at
		FROM guesses WHERE device_id = ? ORDER BY seq DESC LIMIT ?
	`, string(deviceID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	guesses := []model.GuessRecord{}
	for rows.Next() {
		var g model.GuessRecord
		var device, direction string
		if err := rows.Scan(&g.ID, &device, &g.PreviousYear, &g.PreviousMonth, &g.CurrentYear, &g.CurrentMonth,
			&direction, &g.Correct, &g.RecordedAt); err != nil {
			return nil, err
		}
		g.DeviceID = model.PlayerID(device)
		g.Guess = model.Direction(direction)
		guesses = append(guesses, g)
	}
	return guesses, rows.Err()
}
