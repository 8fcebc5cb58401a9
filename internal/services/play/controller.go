// Package play drives one device's play-through: idle -> playing -> lost.
package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/beforeafter/internal/dependencies/clock"
	"github.com/mcoot/beforeafter/internal/dependencies/random"
	"github.com/mcoot/beforeafter/internal/lockmap"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/services/catalog"
	"github.com/mcoot/beforeafter/internal/services/evaluator"
	"github.com/mcoot/beforeafter/internal/services/score"
	"github.com/mcoot/beforeafter/internal/services/sequencer"
	"github.com/mcoot/beforeafter/internal/services/telemetry"
	"github.com/mcoot/beforeafter/internal/storage"
)

// Controller manages the session state machine.
//
// Every operation for a device runs under that device's lock, so guesses are
// applied in arrival order and an identity transition completes before the
// next guess is scored against the new identity.
type Controller struct {
	sessions  storage.SessionStore
	catalog   catalog.ServiceInterface
	ledger    score.LedgerInterface
	telemetry telemetry.Recorder
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
	locks     *lockmap.Map
}

// NewController creates a new Controller
func NewController(
	sessions storage.SessionStore,
	catalog catalog.ServiceInterface,
	ledger score.LedgerInterface,
	telemetry telemetry.Recorder,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		sessions:  sessions,
		catalog:   catalog,
		ledger:    ledger,
		telemetry: telemetry,
		clock:     clock,
		random:    random,
		logger:    logger,
		locks:     lockmap.New(),
	}
}

// GetSession returns the device's session. A device that has never played,
// or whose stored session belongs to another identity, reads as idle with
// the identity's stored score.
func (c *Controller) GetSession(ctx context.Context, identity model.Identity) (*model.Session, error) {
	unlock := c.locks.Lock(string(identity.DeviceID))
	defer unlock()

	return c.current(ctx, identity)
}

// StartSession begins a play-through from idle or lost.
//
// A catalog failure or a pool that is too small leaves the device in its prior
// state. An error wrapping ErrScorePersistence is returned alongside a started
// session when only the score reset could not be saved.
func (c *Controller) StartSession(ctx context.Context, identity model.Identity) (*model.Session, error) {
	unlock := c.locks.Lock(string(identity.DeviceID))
	defer unlock()

	prev, err := c.current(ctx, identity)
	if err != nil {
		return nil, err
	}
	if prev.IsPlaying() {
		return nil, model.ErrSessionInProgress
	}

	pool, err := c.catalog.GetAllItems(ctx)
	if err != nil {
		c.logger.Warn("catalog fetch failed on start",
			slog.String("device_id", string(identity.DeviceID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	deck, err := sequencer.NewDeck(pool, c.random)
	if err != nil {
		return nil, err
	}
	reference, _ := deck.Draw()
	current, _ := deck.Draw()

	record, err := c.ledger.Load(ctx, identity)
	if err != nil {
		c.logger.Warn("score load failed on start, using session view",
			slog.String("identity", identity.String()),
			slog.String("error", err.Error()),
		)
		record = prev.Score
	}
	record = record.WithHighScoreAtLeast(prev.Score.HighScore)
	record, persistErr := c.ledger.ResetCurrent(ctx, identity, record)

	now := c.clock.Now()
	session := &model.Session{
		DeviceID:  identity.DeviceID,
		Identity:  identity,
		Status:    model.SessionStatusPlaying,
		Reference: &reference,
		Current:   &current,
		Deck:      *deck,
		Score:     record,
		StartedAt: now,
		UpdatedAt: now,
	}

	if err := c.sessions.SaveSession(ctx, session); err != nil {
		c.logger.Error("failed to save session",
			slog.String("device_id", string(identity.DeviceID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("session started",
		slog.String("device_id", string(identity.DeviceID)),
		slog.String("identity", identity.String()),
		slog.Int("pool_size", len(pool)),
		slog.Int("high_score", record.HighScore),
	)

	return session, persistErr
}

// SubmitGuess evaluates a guess against the current pair.
//
// A correct guess moves the current item into the reference slot, draws the
// next current item and increments the score. An incorrect guess ends the
// play-through. If the deck needs replenishing and the catalog cannot be
// read, ErrCatalogLoad is returned and the session is left exactly as it was.
func (c *Controller) SubmitGuess(ctx context.Context, identity model.Identity, guess model.Direction) (*model.GuessOutcome, error) {
	unlock := c.locks.Lock(string(identity.DeviceID))
	defer unlock()

	session, err := c.current(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !session.IsPlaying() {
		return nil, model.ErrNotPlaying
	}

	correct, err := evaluator.IsGuessCorrect(session.Reference, session.Current, guess)
	if err != nil {
		return nil, err
	}

	previous := session.Clone().CurrentPair()
	next := session.Clone()
	next.Guesses++
	next.UpdatedAt = c.clock.Now()

	var persistErr error
	if correct {
		item, err := c.drawNext(ctx, next)
		if err != nil {
			c.logger.Warn("session paused, next item unavailable",
				slog.String("device_id", string(identity.DeviceID)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		next.Reference = next.Current
		next.Current = &item
		next.Score, persistErr = c.ledger.Increment(ctx, identity, next.Score)
	} else {
		next.Status = model.SessionStatusLost
		next.Score, persistErr = c.ledger.Finalize(ctx, identity, next.Score)
	}

	if err := c.sessions.SaveSession(ctx, next); err != nil {
		c.logger.Error("failed to save session",
			slog.String("device_id", string(identity.DeviceID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.record(ctx, identity.DeviceID, previous, guess, correct)

	if !correct {
		c.logger.Info("session lost",
			slog.String("device_id", string(identity.DeviceID)),
			slog.Int("final_score", next.Score.CurrentScore),
			slog.Int("high_score", next.Score.HighScore),
			slog.Int("guesses", next.Guesses),
		)
	}

	return &model.GuessOutcome{
		Guess:    guess,
		Correct:  correct,
		Previous: previous,
		Session:  next,
	}, persistErr
}

// AbandonSession returns the device to idle, keeping its score
func (c *Controller) AbandonSession(ctx context.Context, identity model.Identity) (*model.Session, error) {
	unlock := c.locks.Lock(string(identity.DeviceID))
	defer unlock()

	session, err := c.current(ctx, identity)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusIdle {
		return nil, model.ErrSessionNotFound
	}

	record := session.Score
	var persistErr error
	if session.IsPlaying() {
		record, persistErr = c.ledger.Finalize(ctx, identity, record)
	}

	idle := model.NewIdleSession(identity, record, c.clock.Now())
	if err := c.sessions.SaveSession(ctx, idle); err != nil {
		return nil, err
	}

	c.logger.Info("session abandoned",
		slog.String("device_id", string(identity.DeviceID)),
		slog.String("status", string(session.Status)),
		slog.Int("guesses", session.Guesses),
	)

	return idle, persistErr
}

// BindFunc moves a device to a new identity and reports the transition it made
type BindFunc func() (model.IdentityTransition, error)

// SwitchIdentity runs bind under the device's lock, then reconciles scores for
// the transition it reports before releasing the device. A request resolving to
// the new identity therefore waits until reconciliation has finished.
// An error from bind is returned as-is and nothing is reconciled.
func (c *Controller) SwitchIdentity(ctx context.Context, deviceID model.PlayerID, bind BindFunc) (*model.Session, error) {
	unlock := c.locks.Lock(string(deviceID))
	defer unlock()

	transition, err := bind()
	if err != nil {
		return nil, err
	}
	if transition.DeviceID != deviceID {
		return nil, fmt.Errorf("%w: transition for device %s bound on %s",
			model.ErrIdentityReconciliation, transition.DeviceID, deviceID)
	}
	return c.reconcile(ctx, transition)
}

// HandleIdentityTransition reconciles scores for a sign-in or sign-out on a
// device and resets its session to idle under the new identity.
// A reconciliation failure is returned alongside the reset session.
func (c *Controller) HandleIdentityTransition(ctx context.Context, transition model.IdentityTransition) (*model.Session, error) {
	unlock := c.locks.Lock(string(transition.DeviceID))
	defer unlock()

	return c.reconcile(ctx, transition)
}

// reconcile applies transition; the device lock must be held
func (c *Controller) reconcile(ctx context.Context, transition model.IdentityTransition) (*model.Session, error) {
	from := transition.From()
	current, err := c.sessionScore(ctx, from)
	if err != nil {
		c.logger.Warn("could not read score of previous identity",
			slog.String("identity", from.String()),
			slog.String("error", err.Error()),
		)
	}

	record, reconcileErr := c.ledger.Reconcile(ctx, transition, current)
	if reconcileErr != nil {
		c.logger.Warn("identity reconciliation incomplete",
			slog.String("device_id", string(transition.DeviceID)),
			slog.String("kind", string(transition.Kind)),
			slog.String("error", reconcileErr.Error()),
		)
	}
	record = record.WithHighScoreAtLeast(current.HighScore)

	to := transition.To()
	session := model.NewIdleSession(to, record, c.clock.Now())
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("identity transition handled",
		slog.String("device_id", string(transition.DeviceID)),
		slog.String("kind", string(transition.Kind)),
		slog.String("identity", to.String()),
		slog.Int("high_score", record.HighScore),
	)

	return session, reconcileErr
}

// current loads the stored session for identity, or an idle one
func (c *Controller) current(ctx context.Context, identity model.Identity) (*model.Session, error) {
	stored, err := c.sessions.GetSession(ctx, identity.DeviceID)
	if err == nil && stored.Identity == identity {
		if stored.IsPlaying() {
			return stored, nil
		}
		// An account may have raised its high score on another device
		record, err := c.ledger.Load(ctx, identity)
		if err != nil {
			c.logger.Warn("score load failed, using session view",
				slog.String("identity", identity.String()),
				slog.String("error", err.Error()),
			)
			return stored, nil
		}
		stored.Score = stored.Score.WithHighScoreAtLeast(record.HighScore)
		return stored, nil
	}
	if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		return nil, err
	}

	record, err := c.ledger.Load(ctx, identity)
	if err != nil {
		return nil, err
	}
	return model.NewIdleSession(identity, record, c.clock.Now()), nil
}

// sessionScore is the in-memory score of identity on its device,
// falling back to the ledger when no session is bound to it
func (c *Controller) sessionScore(ctx context.Context, identity model.Identity) (model.ScoreRecord, error) {
	stored, err := c.sessions.GetSession(ctx, identity.DeviceID)
	if err == nil && stored.Identity == identity {
		return stored.Score, nil
	}
	return c.ledger.Load(ctx, identity)
}

// drawNext draws from the session's deck, rebuilding it from a fresh pool when exhausted
func (c *Controller) drawNext(ctx context.Context, session *model.Session) (model.Item, error) {
	if item, ok := session.Deck.Draw(); ok {
		return item, nil
	}

	pool, err := c.catalog.GetAllItems(ctx)
	if err != nil {
		return model.Item{}, err
	}
	deck, err := sequencer.NewDeck(pool, c.random)
	if err != nil {
		return model.Item{}, fmt.Errorf("%w: %w", model.ErrCatalogLoad, err)
	}

	item, _ := deck.Draw()
	// The outgoing current item becomes the reference; never pair an item with itself
	if session.Current != nil && item.ID == session.Current.ID {
		if other, ok := deck.Draw(); ok {
			item = other
		}
	}
	session.Deck = *deck

	c.logger.Info("deck replenished",
		slog.String("device_id", string(session.DeviceID)),
		slog.Int("pool_size", len(pool)),
	)
	return item, nil
}

func (c *Controller) record(ctx context.Context, deviceID model.PlayerID, pair model.Pair, guess model.Direction, correct bool) {
	if err := c.telemetry.RecordGuess(ctx, telemetry.NewRecord(deviceID, pair, guess, correct)); err != nil {
		c.logger.Warn("failed to record guess",
			slog.String("device_id", string(deviceID)),
			slog.String("error", err.Error()),
		)
	}
}

// ControllerInterface is the session API exposed to transports
type ControllerInterface interface {
	GetSession(ctx context.Context, identity model.Identity) (*model.Session, error)
	StartSession(ctx context.Context, identity model.Identity) (*model.Session, error)
	SubmitGuess(ctx context.Context, identity model.Identity, guess model.Direction) (*model.GuessOutcome, error)
	AbandonSession(ctx context.Context, identity model.Identity) (*model.Session, error)
	SwitchIdentity(ctx context.Context, deviceID model.PlayerID, bind BindFunc) (*model.Session, error)
	HandleIdentityTransition(ctx context.Context, transition model.IdentityTransition) (*model.Session, error)
}

var _ ControllerInterface = (*Controller)(nil)
