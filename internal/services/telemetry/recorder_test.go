package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/beforeafter/internal/dependencies/mocks"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage/memory"
	"github.com/mcoot/beforeafter/internal/testutil"
)

type RecorderSuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	recorder *StorageRecorder
	ctx      context.Context
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.recorder = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *RecorderSuite) TestRecordGuessAssignsIDAndTimestamp() {
	ref := &model.Item{ID: "a", Year: 2000, Month: 5}
	cur := &model.Item{ID: "b", Year: 1999, Month: 12}
	record := NewRecord("device-1", model.Pair{Reference: ref, Current: cur}, model.DirectionBefore, true)

	s.Require().NoError(s.recorder.RecordGuess(s.ctx, record))

	guesses, err := s.recorder.Recent(s.ctx, "device-1", 0)
	s.Require().NoError(err)
	s.Require().Len(guesses, 1)

	got := guesses[0]
	id, err := uuid.Parse(got.ID)
	s.Require().NoError(err)
	s.Equal(uuid.Version(7), id.Version())
	s.Equal(s.clock.Now(), got.RecordedAt)
	s.Equal(2000, got.PreviousYear)
	s.Equal(5, got.PreviousMonth)
	s.Equal(1999, got.CurrentYear)
	s.Equal(12, got.CurrentMonth)
	s.Equal(model.DirectionBefore, got.Guess)
	s.True(got.Correct)
}

func (s *RecorderSuite) TestRecordGuessKeepsExistingID() {
	record := model.GuessRecord{ID: "fixed", DeviceID: "device-1", Guess: model.DirectionAfter}
	s.Require().NoError(s.recorder.RecordGuess(s.ctx, record))

	guesses, err := s.recorder.Recent(s.ctx, "device-1", 1)
	s.Require().NoError(err)
	s.Equal("fixed", guesses[0].ID)
}

func (s *RecorderSuite) TestRecentNewestFirst() {
	for _, guess := range []model.Direction{model.DirectionBefore, model.DirectionAfter} {
		s.Require().NoError(s.recorder.RecordGuess(s.ctx, model.GuessRecord{DeviceID: "device-1", Guess: guess}))
		s.clock.Advance(time.Second)
	}

	guesses, err := s.recorder.Recent(s.ctx, "device-1", 0)
	s.Require().NoError(err)
	s.Require().Len(guesses, 2)
	s.Equal(model.DirectionAfter, guesses[0].Guess)
	s.True(guesses[0].RecordedAt.After(guesses[1].RecordedAt))
}

func (s *RecorderSuite) TestNewRecordWithoutPair() {
	record := NewRecord("device-1", model.Pair{}, model.DirectionAfter, false)
	s.Equal(0, record.PreviousYear)
	s.Equal(0, record.CurrentYear)
}

func (s *RecorderSuite) TestNopRecorder() {
	s.NoError(Nop{}.RecordGuess(s.ctx, model.GuessRecord{}))
}
