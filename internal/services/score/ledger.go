// Package score keeps current and high scores per identity.
//
// Anonymous identities are scored on the local surface, keyed by device.
// Authenticated identities are scored on the remote surface, keyed by user.
// No write ever lowers a stored high score.
package score

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/beforeafter/internal/lockmap"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
)

// Ledger is the only writer of score records
type Ledger struct {
	local  storage.LocalScoreStore
	remote storage.RemoteScoreStore
	locks  *lockmap.Map
	logger *slog.Logger
}

// New creates a Ledger over the two score surfaces
func New(local storage.LocalScoreStore, remote storage.RemoteScoreStore, logger *slog.Logger) *Ledger {
	return &Ledger{
		local:  local,
		remote: remote,
		locks:  lockmap.New(),
		logger: logger,
	}
}

// Load reads the record for identity. A missing record reads as {0, 0}.
func (l *Ledger) Load(ctx context.Context, identity model.Identity) (model.ScoreRecord, error) {
	record, err := l.get(ctx, identity)
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("load score for %s: %w", identity, err)
	}
	return record, nil
}

// Increment advances the streak and persists it.
// The advanced record is returned even when persisting fails.
func (l *Ledger) Increment(ctx context.Context, identity model.Identity, record model.ScoreRecord) (model.ScoreRecord, error) {
	return l.persist(ctx, identity, record.Increment())
}

// ResetCurrent zeroes the streak for a new play-through and persists it
func (l *Ledger) ResetCurrent(ctx context.Context, identity model.Identity, record model.ScoreRecord) (model.ScoreRecord, error) {
	return l.persist(ctx, identity, record.ResetCurrent())
}

// Finalize flushes the terminal record of a play-through
func (l *Ledger) Finalize(ctx context.Context, identity model.Identity, record model.ScoreRecord) (model.ScoreRecord, error) {
	return l.persist(ctx, identity, record.WithHighScoreAtLeast(record.CurrentScore))
}

// Reconcile applies the merge for an identity transition.
// current is the in-memory record of the identity being left.
func (l *Ledger) Reconcile(ctx context.Context, transition model.IdentityTransition, current model.ScoreRecord) (model.ScoreRecord, error) {
	switch transition.Kind {
	case model.TransitionSignIn:
		return l.SignIn(ctx, transition.DeviceID, transition.UserID)
	case model.TransitionSignOut:
		return l.SignOut(ctx, transition.DeviceID, transition.UserID, current)
	default:
		return model.ScoreRecord{}, fmt.Errorf("%w: unknown transition %q", model.ErrIdentityReconciliation, transition.Kind)
	}
}

// ReconcileOnSignIn merges the device's anonymous record into the account's.
// The remote streak wins; the high score is the larger of the two.
// writeBack is true when the remote surface must be raised to the merged high score.
func ReconcileOnSignIn(local, remote model.ScoreRecord) (merged model.ScoreRecord, writeBack bool) {
	merged = remote.WithHighScoreAtLeast(local.HighScore)
	return merged, local.HighScore > remote.HighScore
}

// SignIn reconciles the local record of deviceID into the remote record of userID.
//
// The local record is cleared once both records have been read, whether or not
// the write-back succeeds. A failed write-back is reported as ErrIdentityReconciliation
// alongside the merged record. A failed read aborts without clearing anything.
func (l *Ledger) SignIn(ctx context.Context, deviceID, userID model.PlayerID) (model.ScoreRecord, error) {
	anon := model.Anonymous(deviceID)
	account := model.Authenticated(deviceID, userID)

	unlockLocal := l.locks.Lock(surfaceKey(anon))
	defer unlockLocal()
	unlockRemote := l.locks.Lock(surfaceKey(account))
	defer unlockRemote()

	local, err := l.get(ctx, anon)
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("%w: read local score: %w", model.ErrIdentityReconciliation, err)
	}
	remote, err := l.get(ctx, account)
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("%w: read remote score: %w", model.ErrIdentityReconciliation, err)
	}

	merged, writeBack := ReconcileOnSignIn(local, remote)

	var errs []error
	if writeBack {
		if err := l.remote.SaveRemoteScore(ctx, userID, merged); err != nil {
			l.logger.Warn("failed to write back merged high score",
				slog.String("user_id", string(userID)),
				slog.Int("high_score", merged.HighScore),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%w: write back: %w", model.ErrIdentityReconciliation, err))
		}
	}

	if err := l.local.DeleteLocalScore(ctx, deviceID); err != nil {
		l.logger.Warn("failed to clear local score",
			slog.String("device_id", string(deviceID)),
			slog.String("error", err.Error()),
		)
		errs = append(errs, fmt.Errorf("%w: clear local: %w", model.ErrIdentityReconciliation, err))
	}

	l.logger.Info("score reconciled on sign in",
		slog.String("device_id", string(deviceID)),
		slog.String("user_id", string(userID)),
		slog.Int("local_high_score", local.HighScore),
		slog.Int("remote_high_score", remote.HighScore),
		slog.Bool("write_back", writeBack),
	)

	return merged, errors.Join(errs...)
}

// ReconcileOnSignOut is the record an anonymous session starts from after sign-out:
// no streak, and the account's high score remembered
func ReconcileOnSignOut(current model.ScoreRecord) model.ScoreRecord {
	return model.ScoreRecord{HighScore: max(current.HighScore, current.CurrentScore)}
}

// SignOut copies the account's high score onto the device's local surface.
//
// The account's stored record is read as well as current, since the account may
// have played on other devices since this one last saw it. An existing higher
// local high score is kept.
func (l *Ledger) SignOut(ctx context.Context, deviceID, userID model.PlayerID, current model.ScoreRecord) (model.ScoreRecord, error) {
	anon := model.Anonymous(deviceID)
	account := model.Authenticated(deviceID, userID)

	unlockLocal := l.locks.Lock(surfaceKey(anon))
	defer unlockLocal()
	unlockRemote := l.locks.Lock(surfaceKey(account))
	defer unlockRemote()

	record := ReconcileOnSignOut(current)

	remote, err := l.get(ctx, account)
	if err != nil {
		l.logger.Warn("failed to read remote score on sign out",
			slog.String("user_id", string(userID)),
			slog.String("error", err.Error()),
		)
	}
	record = record.WithHighScoreAtLeast(remote.HighScore)

	existing, err := l.get(ctx, anon)
	if err != nil {
		// Still write what we know rather than leave the device at {0, 0}
		l.logger.Warn("failed to read local score on sign out",
			slog.String("device_id", string(deviceID)),
			slog.String("error", err.Error()),
		)
	}
	record = record.WithHighScoreAtLeast(existing.HighScore)

	if err := l.local.SaveLocalScore(ctx, deviceID, record); err != nil {
		return record, fmt.Errorf("%w: save local score: %w", model.ErrIdentityReconciliation, err)
	}

	l.logger.Info("score reconciled on sign out",
		slog.String("device_id", string(deviceID)),
		slog.String("user_id", string(userID)),
		slog.Int("high_score", record.HighScore),
	)
	return record, nil
}

// persist writes record to the surface for identity, never lowering the stored
// high score. The returned record is the one callers should display, even on error.
func (l *Ledger) persist(ctx context.Context, identity model.Identity, record model.ScoreRecord) (model.ScoreRecord, error) {
	unlock := l.locks.Lock(surfaceKey(identity))
	defer unlock()

	stored, err := l.get(ctx, identity)
	if err != nil {
		l.logScoreFailure(identity, record, err)
		return record, fmt.Errorf("%w: %w", model.ErrScorePersistence, err)
	}
	record = record.WithHighScoreAtLeast(stored.HighScore)

	if err := l.put(ctx, identity, record); err != nil {
		l.logScoreFailure(identity, record, err)
		return record, fmt.Errorf("%w: %w", model.ErrScorePersistence, err)
	}
	return record, nil
}

func (l *Ledger) get(ctx context.Context, identity model.Identity) (model.ScoreRecord, error) {
	var (
		record model.ScoreRecord
		err    error
	)
	if identity.IsAuthenticated() {
		record, err = l.remote.GetRemoteScore(ctx, identity.UserID)
	} else {
		record, err = l.local.GetLocalScore(ctx, identity.DeviceID)
	}
	if errors.Is(err, model.ErrScoreNotFound) {
		return model.ScoreRecord{}, nil
	}
	return record, err
}

func (l *Ledger) put(ctx context.Context, identity model.Identity, record model.ScoreRecord) error {
	if identity.IsAuthenticated() {
		return l.remote.SaveRemoteScore(ctx, identity.UserID, record)
	}
	return l.local.SaveLocalScore(ctx, identity.DeviceID, record)
}

func (l *Ledger) logScoreFailure(identity model.Identity, record model.ScoreRecord, err error) {
	l.logger.Error("failed to persist score",
		slog.String("identity", identity.String()),
		slog.Int("current_score", record.CurrentScore),
		slog.Int("high_score", record.HighScore),
		slog.String("error", err.Error()),
	)
}

func surfaceKey(identity model.Identity) string {
	return identity.String()
}

// LedgerInterface is what the session controller needs from the ledger
type LedgerInterface interface {
	Load(ctx context.Context, identity model.Identity) (model.ScoreRecord, error)
	Increment(ctx context.Context, identity model.Identity, record model.ScoreRecord) (model.ScoreRecord, error)
	ResetCurrent(ctx context.Context, identity model.Identity, record model.ScoreRecord) (model.ScoreRecord, error)
	Finalize(ctx context.Context, identity model.Identity, record model.ScoreRecord) (model.ScoreRecord, error)
	Reconcile(ctx context.Context, transition model.IdentityTransition, current model.ScoreRecord) (model.ScoreRecord, error)
}

var _ LedgerInterface = (*Ledger)(nil)
