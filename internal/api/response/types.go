package response

import (
	"time"

	"github.com/mcoot/beforeafter/internal/api/apierr"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/services/auth"
)

// Player represents a device or account in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// Identity is who scores are kept for
type Identity struct {
	DeviceID      string `json:"device_id"`
	UserID        string `json:"user_id,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// IdentityFromModel converts a model.Identity
func IdentityFromModel(i model.Identity) Identity {
	return Identity{
		DeviceID:      string(i.DeviceID),
		UserID:        string(i.UserID),
		Authenticated: i.IsAuthenticated(),
	}
}

// Me describes the calling device
type Me struct {
	Device   Player   `json:"device"`
	Account  *Player  `json:"account,omitempty"`
	Identity Identity `json:"identity"`
}

// MeFromSession creates a Me from an auth session
func MeFromSession(s *auth.Session) Me {
	me := Me{
		Device:   PlayerFromModel(&s.Device),
		Identity: IdentityFromModel(s.Identity()),
	}
	if s.Account != nil {
		account := PlayerFromModel(s.Account)
		me.Account = &account
	}
	return me
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Me
	SessionToken string            `json:"session_token"`
	Session      *Session          `json:"session,omitempty"`
	Warnings     []apierr.APIError `json:"warnings,omitempty"`
}

// AuthResponseFromSession creates an AuthResponse from an auth session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Me:           MeFromSession(s),
		SessionToken: s.Token,
	}
}

// Item is a catalog item. Year and Month are omitted while the item is hidden.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
	Month int    `json:"month,omitempty"`
}

// ItemFromModel converts a model.Item, hiding its date unless reveal is set
func ItemFromModel(i *model.Item, reveal bool) *Item {
	if i == nil {
		return nil
	}
	item := &Item{ID: string(i.ID), Title: i.Title}
	if reveal {
		item.Year = i.Year
		item.Month = i.Month
	}
	return item
}

// Pair is the reference and current item
type Pair struct {
	Reference *Item `json:"reference"`
	Current   *Item `json:"current"`
}

// PairFromModel converts a model.Pair; the reference date is always shown
func PairFromModel(p model.Pair, revealCurrent bool) Pair {
	return Pair{
		Reference: ItemFromModel(p.Reference, true),
		Current:   ItemFromModel(p.Current, revealCurrent),
	}
}

// Score is a current and high score
type Score struct {
	CurrentScore int `json:"current_score"`
	HighScore    int `json:"high_score"`
}

// ScoreFromModel converts a model.ScoreRecord
func ScoreFromModel(r model.ScoreRecord) Score {
	return Score{
		CurrentScore: r.CurrentScore,
		HighScore:    r.HighScore,
	}
}

// ScoreResponse is the caller's score and who it is kept for
type ScoreResponse struct {
	Score
	Identity Identity `json:"identity"`
}

// Session is a device's play-through
type Session struct {
	Status        string            `json:"status"`
	Identity      Identity          `json:"identity"`
	Pair          Pair              `json:"pair"`
	Score         Score             `json:"score"`
	Guesses       int               `json:"guesses"`
	DeckRemaining int               `json:"deck_remaining"`
	StartedAt     *time.Time        `json:"started_at,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Warnings      []apierr.APIError `json:"warnings,omitempty"`
}

// SessionFromModel converts a model.Session.
// The current item's date stays hidden until the session is lost.
func SessionFromModel(s *model.Session, warnings []apierr.APIError) Session {
	resp := Session{
		Status:        string(s.Status),
		Identity:      IdentityFromModel(s.Identity),
		Pair:          PairFromModel(s.CurrentPair(), !s.IsPlaying()),
		Score:         ScoreFromModel(s.Score),
		Guesses:       s.Guesses,
		DeckRemaining: s.Deck.Remaining(),
		UpdatedAt:     s.UpdatedAt,
		Warnings:      warnings,
	}
	if !s.StartedAt.IsZero() {
		startedAt := s.StartedAt
		resp.StartedAt = &startedAt
	}
	return resp
}

// GuessResponse is the result of a guess
type GuessResponse struct {
	Guess    string            `json:"guess"`
	Correct  bool              `json:"correct"`
	Previous Pair              `json:"previous"`
	Session  Session           `json:"session"`
	Warnings []apierr.APIError `json:"warnings,omitempty"`
}

// GuessResponseFromModel converts a model.GuessOutcome
func GuessResponseFromModel(o *model.GuessOutcome, warnings []apierr.APIError) GuessResponse {
	return GuessResponse{
		Guess:    string(o.Guess),
		Correct:  o.Correct,
		Previous: PairFromModel(o.Previous, true),
		Session:  SessionFromModel(o.Session, nil),
		Warnings: warnings,
	}
}

// GuessRecord is one recorded guess
type GuessRecord struct {
	ID            string    `json:"id"`
	PreviousYear  int       `json:"previous_year"`
	PreviousMonth int       `json:"previous_month"`
	CurrentYear   int       `json:"current_year"`
	CurrentMonth  int       `json:"current_month"`
	Guess         string    `json:"guess"`
	Correct       bool      `json:"correct"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// GuessHistory lists recent guesses, newest first
type GuessHistory struct {
	Guesses []GuessRecord `json:"guesses"`
}

// GuessHistoryFromModel converts recorded guesses
func GuessHistoryFromModel(records []model.GuessRecord) GuessHistory {
	history := GuessHistory{Guesses: make([]GuessRecord, len(records))}
	for i, r := range records {
		history.Guesses[i] = GuessRecord{
			ID:            r.ID,
			PreviousYear:  r.PreviousYear,
			PreviousMonth: r.PreviousMonth,
			CurrentYear:   r.CurrentYear,
			CurrentMonth:  r.CurrentMonth,
			Guess:         string(r.Guess),
			Correct:       r.Correct,
			RecordedAt:    r.RecordedAt,
		}
	}
	return history
}
