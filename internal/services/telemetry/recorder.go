// Package telemetry records every evaluated guess for analytics.
// Recording never gates gameplay: callers log failures and move on.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/beforeafter/internal/dependencies/clock"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
)

// Recorder accepts guess submissions
type Recorder interface {
	RecordGuess(ctx context.Context, record model.GuessRecord) error
}

// StorageRecorder writes guess submissions to a GuessStore
type StorageRecorder struct {
	store  storage.GuessStore
	clock  clock.Clock
	logger *slog.Logger
}

var _ Recorder = (*StorageRecorder)(nil)

// New creates a StorageRecorder
func New(store storage.GuessStore, clock clock.Clock, logger *slog.Logger) *StorageRecorder {
	return &StorageRecorder{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// RecordGuess stores the record, filling in its ID and timestamp when unset.
// IDs are UUIDv7 so they sort by time across backends.
func (r *StorageRecorder) RecordGuess(ctx context.Context, record model.GuessRecord) error {
	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate guess id: %w", err)
		}
		record.ID = id.String()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = r.clock.Now()
	}

	if err := r.store.RecordGuess(ctx, &record); err != nil {
		return fmt.Errorf("record guess: %w", err)
	}

	r.logger.Debug("guess recorded",
		slog.String("guess_id", record.ID),
		slog.String("device_id", string(record.DeviceID)),
		slog.Bool("correct", record.Correct),
	)
	return nil
}

// Recent returns the latest guesses for a device, newest first
func (r *StorageRecorder) Recent(ctx context.Context, deviceID model.PlayerID, limit int) ([]model.GuessRecord, error) {
	return r.store.ListGuesses(ctx, deviceID, limit)
}

// NewRecord builds the payload for one evaluated guess
func NewRecord(deviceID model.PlayerID, pair model.Pair, guess model.Direction, correct bool) model.GuessRecord {
	record := model.GuessRecord{
		DeviceID: deviceID,
		Guess:    guess,
		Correct:  correct,
	}
	if pair.Reference != nil {
		record.PreviousYear = pair.Reference.Year
		record.PreviousMonth = pair.Reference.Month
	}
	if pair.Current != nil {
		record.CurrentYear = pair.Current.Year
		record.CurrentMonth = pair.Current.Month
	}
	return record
}

// Nop discards every record
type Nop struct{}

var _ Recorder = Nop{}

// RecordGuess does nothing
func (Nop) RecordGuess(ctx context.Context, record model.GuessRecord) error {
	return nil
}
