package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.DevicePlayerTTL = time.Hour
	cfg.SessionTTL = time.Hour
	cfg.LocalScoreTTL = time.Hour
	cfg.GuessLogTTL = time.Hour
	cfg.GuessLogLength = 5

	s.storage = NewWithClient(client, cfg)
	s.Storage = s.storage
	s.Ctx = context.Background()
	s.GuessLogLength = int(cfg.GuessLogLength)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestDevicePlayerTTL() {
	device := &model.Player{ID: "device-1", IsGuest: true}
	account := &model.Player{ID: "user-1", IsGuest: false}

	s.Require().NoError(s.storage.SavePlayer(s.Ctx, device))
	s.Require().NoError(s.storage.SavePlayer(s.Ctx, account))

	s.True(s.mini.TTL(playerKey(device.ID)) > 0, "Device player should have TTL")
	s.Equal(time.Duration(0), s.mini.TTL(playerKey(account.ID)), "Account should not have TTL")
}

func (s *StorageSuite) TestSessionTTL() {
	s.Require().NoError(s.storage.SaveSession(s.Ctx, &model.Session{DeviceID: "device-1"}))
	s.True(s.mini.TTL(sessionKey("device-1")) > 0, "Session should have TTL")
}

func (s *StorageSuite) TestLocalScoreHasTTLAndRemoteDoesNot() {
	s.Require().NoError(s.storage.SaveLocalScore(s.Ctx, "device-1", model.ScoreRecord{HighScore: 3}))
	s.Require().NoError(s.storage.SaveRemoteScore(s.Ctx, "user-1", model.ScoreRecord{HighScore: 3}))

	s.True(s.mini.TTL(localScoreKey("device-1")) > 0, "Local score should have TTL")
	s.Equal(time.Duration(0), s.mini.TTL(remoteScoreKey("user-1")), "Remote score should not have TTL")
}

func (s *StorageSuite) TestRemoteScoreMissingFieldsReadAsZero() {
	s.mini.HSet(remoteScoreKey("user-1"), fieldHighScore, "11")

	record, err := s.storage.GetRemoteScore(s.Ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 11}, record)
}

func (s *StorageSuite) TestGuessLogExpires() {
	s.Require().NoError(s.storage.RecordGuess(s.Ctx, &model.GuessRecord{ID: "a", DeviceID: "device-1", Guess: model.DirectionAfter}))
	s.Equal(time.Hour, s.mini.TTL(guessLogKey("device-1")))
}
