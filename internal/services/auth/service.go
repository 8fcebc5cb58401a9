// Package auth issues device tokens and signs registered accounts in and out of them.
//
// Every client first obtains a device token. Signing in links an account to
// that device; signing out unlinks it. Each link change is reported as a
// model.IdentityTransition for the session controller to reconcile scores.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/beforeafter/internal/dependencies/clock"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
	ErrAlreadySignedIn    = errors.New("device is already signed in")
	ErrNotSignedIn        = errors.New("device is not signed in")
)

// Session is a device token, optionally linked to a signed-in account
type Session struct {
	Token     string
	DeviceID  model.PlayerID
	Device    model.Player
	Account   *model.Player // nil while anonymous
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Identity returns who scores are kept for on this device
func (s *Session) Identity() model.Identity {
	if s.Account != nil {
		return model.Authenticated(s.DeviceID, s.Account.ID)
	}
	return model.Anonymous(s.DeviceID)
}

// DisplayName is the account name when signed in, else the device name
func (s *Session) DisplayName() string {
	if s.Account != nil {
		return s.Account.DisplayName
	}
	return s.Device.DisplayName
}

func (s *Session) clone() *Session {
	c := *s
	if s.Account != nil {
		account := *s.Account
		c.Account = &account
	}
	return &c
}

// Service handles device tokens and account sign-in
type Service struct {
	storage storage.PlayerStore
	clock   clock.Clock
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
	passwordCost    int
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	PasswordCost    int // bcrypt cost
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		PasswordCost:    bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(storage storage.PlayerStore, clock clock.Clock, logger *slog.Logger, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = DefaultConfig().PasswordCost
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
		passwordCost:    cfg.PasswordCost,
	}
}

// CreateDevice registers a new anonymous device and returns its token
func (s *Service) CreateDevice(ctx context.Context, displayName string) (*Session, error) {
	now := s.clock.Now()
	device := &model.Player{
		ID:          model.PlayerID(s.generateID("d_")),
		DisplayName: strings.TrimSpace(displayName),
		IsGuest:     true,
		CreatedAt:   now,
	}

	if err := s.storage.SavePlayer(ctx, device); err != nil {
		return nil, err
	}

	session := &Session{
		Token:     s.generateID("sess_"),
		DeviceID:  device.ID,
		Device:    *device,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	s.logger.Info("device created", slog.String("device_id", string(device.ID)))
	return session.clone(), nil
}

// Register creates an account and signs it in on the device holding token
func (s *Service) Register(ctx context.Context, token, username, password, displayName string) (*Session, model.IdentityTransition, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, model.IdentityTransition{}, ErrMissingCredentials
	}
	if _, err := s.anonymousSession(token); err != nil {
		return nil, model.IdentityTransition{}, err
	}

	_, err := s.storage.GetRegisteredPlayerByUsername(ctx, username)
	if err == nil {
		return nil, model.IdentityTransition{}, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, model.IdentityTransition{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, model.IdentityTransition{}, err
	}

	now := s.clock.Now()
	if strings.TrimSpace(displayName) == "" {
		displayName = username
	}
	account := &model.Player{
		ID:          model.PlayerID(s.generateID("u_")),
		DisplayName: strings.TrimSpace(displayName),
		IsGuest:     false,
		CreatedAt:   now,
	}
	registered := &model.RegisteredPlayer{
		PlayerID:     account.ID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SavePlayer(ctx, account); err != nil {
		return nil, model.IdentityTransition{}, err
	}
	if err := s.storage.SaveRegisteredPlayer(ctx, registered); err != nil {
		return nil, model.IdentityTransition{}, err
	}

	return s.link(token, account)
}

// Login verifies credentials and signs the account in on the device holding token
func (s *Service) Login(ctx context.Context, token, username, password string) (*Session, model.IdentityTransition, error) {
	if _, err := s.anonymousSession(token); err != nil {
		return nil, model.IdentityTransition{}, err
	}

	rp, err := s.storage.GetRegisteredPlayerByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, model.IdentityTransition{}, ErrInvalidCredentials
		}
		return nil, model.IdentityTransition{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rp.PasswordHash), []byte(password)); err != nil {
		return nil, model.IdentityTransition{}, ErrInvalidCredentials
	}

	account, err := s.storage.GetPlayer(ctx, rp.PlayerID)
	if err != nil {
		return nil, model.IdentityTransition{}, err
	}

	return s.link(token, account)
}

// Logout signs the account out of the device holding token.
// The device token itself stays valid.
func (s *Service) Logout(ctx context.Context, token string) (*Session, model.IdentityTransition, error) {
	s.mu.Lock()
	session, err := s.lookupLocked(token)
	if err != nil {
		s.mu.Unlock()
		return nil, model.IdentityTransition{}, err
	}
	if session.Account == nil {
		s.mu.Unlock()
		return nil, model.IdentityTransition{}, ErrNotSignedIn
	}
	userID := session.Account.ID
	session.Account = nil
	result := session.clone()
	s.mu.Unlock()

	s.logger.Info("signed out",
		slog.String("device_id", string(result.DeviceID)),
		slog.String("user_id", string(userID)),
	)
	return result, model.SignOut(result.DeviceID, userID), nil
}

// ValidateSession checks if a token is valid and returns its session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookupLocked(token)
	if err != nil {
		return nil, err
	}
	return session.clone(), nil
}

// InvalidateSession forgets a device token
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

func (s *Service) anonymousSession(token string) (*Session, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	if session.Account != nil {
		return nil, ErrAlreadySignedIn
	}
	return session, nil
}

// link attaches account to the device session, re-checking under the lock
func (s *Service) link(token string, account *model.Player) (*Session, model.IdentityTransition, error) {
	s.mu.Lock()
	session, err := s.lookupLocked(token)
	if err != nil {
		s.mu.Unlock()
		return nil, model.IdentityTransition{}, err
	}
	if session.Account != nil {
		s.mu.Unlock()
		return nil, model.IdentityTransition{}, ErrAlreadySignedIn
	}
	linked := *account
	session.Account = &linked
	result := session.clone()
	s.mu.Unlock()

	s.logger.Info("signed in",
		slog.String("device_id", string(result.DeviceID)),
		slog.String("user_id", string(account.ID)),
	)
	return result, model.SignIn(result.DeviceID, account.ID), nil
}

// lookupLocked returns the live session for token; s.mu must be held
func (s *Service) lookupLocked(token string) (*Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrInvalidSession
	}
	if s.clock.Now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrInvalidSession
	}
	return session, nil
}

// generateID generates a random ID with a prefix
func (s *Service) generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
