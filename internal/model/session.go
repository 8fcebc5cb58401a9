package model

import "time"

// SessionStatus represents the current phase of a play-through
type SessionStatus string

const (
	SessionStatusIdle    SessionStatus = "idle"    // No play-through started
	SessionStatusPlaying SessionStatus = "playing" // Waiting for a guess on the current pair
	SessionStatusLost    SessionStatus = "lost"    // Wrong guess, score finalized
)

// Session is one device's play-through
type Session struct {
	DeviceID PlayerID
	Identity Identity
	Status   SessionStatus

	Reference *Item
	Current   *Item
	Deck      Deck

	// Score is the in-memory view; it stays advanced even when persisting it fails
	Score ScoreRecord

	// Guesses counts evaluated guesses in this play-through
	Guesses int

	StartedAt time.Time
	UpdatedAt time.Time
}

// NewIdleSession returns the session a device has before it starts playing
func NewIdleSession(identity Identity, score ScoreRecord, now time.Time) *Session {
	return &Session{
		DeviceID:  identity.DeviceID,
		Identity:  identity,
		Status:    SessionStatusIdle,
		Score:     score,
		UpdatedAt: now,
	}
}

// Pair is the reference and current item awaiting a guess
type Pair struct {
	Reference *Item
	Current   *Item
}

// CurrentPair returns the pair being compared, empty unless playing or lost
func (s *Session) CurrentPair() Pair {
	return Pair{Reference: s.Reference, Current: s.Current}
}

// IsPlaying returns true when a guess can be submitted
func (s *Session) IsPlaying() bool {
	return s.Status == SessionStatusPlaying
}

// GuessOutcome is the result of submitting one guess
type GuessOutcome struct {
	Guess    Direction
	Correct  bool
	Previous Pair // The pair the guess was made against
	Session  *Session
}

// GuessRecord is the telemetry payload sent for every evaluated guess
type GuessRecord struct {
	ID            string    `json:"id"`
	DeviceID      PlayerID  `json:"device_id"`
	PreviousYear  int       `json:"previous_year"`
	PreviousMonth int       `json:"previous_month"`
	CurrentYear   int       `json:"current_year"`
	CurrentMonth  int       `json:"current_month"`
	Guess         Direction `json:"guess"`
	Correct       bool      `json:"correct"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// Clone returns a deep copy so callers can mutate it without aliasing stored state
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Reference != nil {
		ref := *s.Reference
		c.Reference = &ref
	}
	if s.Current != nil {
		cur := *s.Current
		c.Current = &cur
	}
	if s.Deck.Items != nil {
		c.Deck.Items = make([]Item, len(s.Deck.Items))
		copy(c.Deck.Items, s.Deck.Items)
	}
	return &c
}
