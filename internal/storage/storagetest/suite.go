// Package storagetest holds behaviour every storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
)

// Suite runs against any storage.Storage. Backends embed it and set Storage
// in SetupTest, along with the guess log cap they were configured with.
type Suite struct {
	suite.Suite
	Storage        storage.Storage
	Ctx            context.Context
	GuessLogLength int
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "device-1",
		DisplayName: "Alice",
		IsGuest:     true,
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	err := s.Storage.SavePlayer(s.Ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "device-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.DisplayName, retrieved.DisplayName)
	s.True(retrieved.IsGuest)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestDeletePlayer() {
	player := &model.Player{ID: "device-1", DisplayName: "Alice", CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player))

	err := s.Storage.DeletePlayer(s.Ctx, "device-1")
	s.Require().NoError(err)

	_, err = s.Storage.GetPlayer(s.Ctx, "device-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestGetRegisteredPlayerByUsername() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rp := &model.RegisteredPlayer{
		PlayerID:     "user-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, rp))

	retrieved, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("user-1"), retrieved.PlayerID)
	s.Equal("hash123", retrieved.PasswordHash)

	_, err = s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Catalog tests

func (s *Suite) TestItemsEmptyByDefault() {
	items, err := s.Storage.GetItems(s.Ctx)
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *Suite) TestSaveItemsReplacesPoolInIDOrder() {
	first := []model.Item{
		{ID: "c", Title: "Gamma", Year: 2001, Month: 3},
		{ID: "a", Title: "Alpha", Year: 1999, Month: 1},
	}
	second := []model.Item{
		{ID: "z", Title: "Zeta", Year: 1980, Month: 6},
		{ID: "b", Title: "Beta", Year: 2010, Month: 12},
	}

	s.Require().NoError(s.Storage.SaveItems(s.Ctx, first))
	items, err := s.Storage.GetItems(s.Ctx)
	s.Require().NoError(err)
	s.Equal([]model.Item{first[1], first[0]}, items)

	s.Require().NoError(s.Storage.SaveItems(s.Ctx, second))
	items, err = s.Storage.GetItems(s.Ctx)
	s.Require().NoError(err)
	s.Equal([]model.Item{second[1], second[0]}, items)
}

// Session tests

func (s *Suite) TestSaveAndGetSession() {
	ref := model.Item{ID: "a", Title: "Alpha", Year: 1999, Month: 1}
	cur := model.Item{ID: "b", Title: "Beta", Year: 2001, Month: 5}
	session := &model.Session{
		DeviceID:  "device-1",
		Identity:  model.Anonymous("device-1"),
		Status:    model.SessionStatusPlaying,
		Reference: &ref,
		Current:   &cur,
		Deck:      model.Deck{Items: []model.Item{{ID: "c", Title: "Gamma", Year: 1970, Month: 2}, ref, cur}, Cursor: 1},
		Score:     model.ScoreRecord{CurrentScore: 2, HighScore: 5},
		UpdatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	retrieved, err := s.Storage.GetSession(s.Ctx, "device-1")
	s.Require().NoError(err)
	s.Equal(model.SessionStatusPlaying, retrieved.Status)
	s.Equal(ref, *retrieved.Reference)
	s.Equal(cur, *retrieved.Current)
	s.Equal(1, retrieved.Deck.Remaining())
	s.Equal(session.Score, retrieved.Score)
	s.Equal(session.Identity, retrieved.Identity)
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Storage.GetSession(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestStoredSessionIsNotAliased() {
	session := &model.Session{DeviceID: "device-1", Status: model.SessionStatusPlaying}
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	session.Status = model.SessionStatusLost

	retrieved, err := s.Storage.GetSession(s.Ctx, "device-1")
	s.Require().NoError(err)
	s.Equal(model.SessionStatusPlaying, retrieved.Status)
}

func (s *Suite) TestDeleteSession() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, &model.Session{DeviceID: "device-1"}))
	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "device-1"))

	_, err := s.Storage.GetSession(s.Ctx, "device-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Score tests

func (s *Suite) TestLocalScoreLifecycle() {
	_, err := s.Storage.GetLocalScore(s.Ctx, "device-1")
	s.ErrorIs(err, model.ErrScoreNotFound)

	record := model.ScoreRecord{CurrentScore: 3, HighScore: 9}
	s.Require().NoError(s.Storage.SaveLocalScore(s.Ctx, "device-1", record))

	retrieved, err := s.Storage.GetLocalScore(s.Ctx, "device-1")
	s.Require().NoError(err)
	s.Equal(record, retrieved)

	s.Require().NoError(s.Storage.DeleteLocalScore(s.Ctx, "device-1"))
	_, err = s.Storage.GetLocalScore(s.Ctx, "device-1")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *Suite) TestRemoteScoreIsKeyedByUser() {
	s.Require().NoError(s.Storage.SaveRemoteScore(s.Ctx, "user-1", model.ScoreRecord{CurrentScore: 1, HighScore: 4}))
	s.Require().NoError(s.Storage.SaveRemoteScore(s.Ctx, "user-2", model.ScoreRecord{CurrentScore: 0, HighScore: 7}))
	s.Require().NoError(s.Storage.SaveRemoteScore(s.Ctx, "user-1", model.ScoreRecord{CurrentScore: 2, HighScore: 4}))

	one, err := s.Storage.GetRemoteScore(s.Ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 2, HighScore: 4}, one)

	two, err := s.Storage.GetRemoteScore(s.Ctx, "user-2")
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 7}, two)

	_, err = s.Storage.GetRemoteScore(s.Ctx, "user-3")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *Suite) TestLocalAndRemoteScoresAreSeparate() {
	s.Require().NoError(s.Storage.SaveLocalScore(s.Ctx, "same-id", model.ScoreRecord{HighScore: 1}))
	s.Require().NoError(s.Storage.SaveRemoteScore(s.Ctx, "same-id", model.ScoreRecord{HighScore: 2}))

	local, err := s.Storage.GetLocalScore(s.Ctx, "same-id")
	s.Require().NoError(err)
	remote, err := s.Storage.GetRemoteScore(s.Ctx, "same-id")
	s.Require().NoError(err)

	s.Equal(1, local.HighScore)
	s.Equal(2, remote.HighScore)
}

// Guess tests

func (s *Suite) TestListGuessesNewestFirst() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		guess := &model.GuessRecord{
			ID:            string(rune('a' + i)),
			DeviceID:      "device-1",
			PreviousYear:  2000,
			PreviousMonth: 5,
			CurrentYear:   1999 + i,
			CurrentMonth:  1,
			Guess:         model.DirectionBefore,
			Correct:       i == 0,
			RecordedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		s.Require().NoError(s.Storage.RecordGuess(s.Ctx, guess))
	}
	s.Require().NoError(s.Storage.RecordGuess(s.Ctx, &model.GuessRecord{ID: "other", DeviceID: "device-2", Guess: model.DirectionAfter, RecordedAt: base}))

	guesses, err := s.Storage.ListGuesses(s.Ctx, "device-1", 0)
	s.Require().NoError(err)
	s.Require().Len(guesses, 3)
	s.Equal("c", guesses[0].ID)
	s.Equal("a", guesses[2].ID)
	s.True(guesses[2].Correct)
	s.Equal(model.DirectionBefore, guesses[0].Guess)

	limited, err := s.Storage.ListGuesses(s.Ctx, "device-1", 2)
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *Suite) TestGuessLogIsCapped() {
	s.Require().Positive(s.GuessLogLength, "backend must set GuessLogLength")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	total := s.GuessLogLength + 3
	for i := 0; i < total; i++ {
		s.Require().NoError(s.Storage.RecordGuess(s.Ctx, &model.GuessRecord{
			ID:         fmt.Sprintf("g-%02d", i),
			DeviceID:   "device-1",
			Guess:      model.DirectionAfter,
			RecordedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	s.Require().NoError(s.Storage.RecordGuess(s.Ctx, &model.GuessRecord{ID: "other", DeviceID: "device-2", Guess: model.DirectionBefore, RecordedAt: base}))

	guesses, err := s.Storage.ListGuesses(s.Ctx, "device-1", 0)
	s.Require().NoError(err)
	s.Require().Len(guesses, s.GuessLogLength)
	s.Equal(fmt.Sprintf("g-%02d", total-1), guesses[0].ID)
	s.Equal(fmt.Sprintf("g-%02d", total-s.GuessLogLength), guesses[len(guesses)-1].ID)

	others, err := s.Storage.ListGuesses(s.Ctx, "device-2", 0)
	s.Require().NoError(err)
	s.Len(others, 1)
}
