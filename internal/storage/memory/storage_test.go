package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
	"github.com/mcoot/beforeafter/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = NewWithConfig(Config{GuessLogLength: 5})
	s.Storage = s.storage
	s.Ctx = context.Background()
	s.GuessLogLength = 5
}

func (s *StorageSuite) TestGetItemsReturnsCopy() {
	s.Require().NoError(s.storage.SaveItems(s.Ctx, []model.Item{{ID: "a", Title: "Alpha", Year: 2000, Month: 1}}))

	items, err := s.storage.GetItems(s.Ctx)
	s.Require().NoError(err)
	items[0].Title = "Changed"

	again, err := s.storage.GetItems(s.Ctx)
	s.Require().NoError(err)
	s.Equal("Alpha", again[0].Title)
}

func (s *StorageSuite) TestGetSessionDeckIsNotAliased() {
	session := &model.Session{
		DeviceID: "device-1",
		Deck:     model.Deck{Items: []model.Item{{ID: "a"}, {ID: "b"}}, Cursor: 2},
	}
	s.Require().NoError(s.storage.SaveSession(s.Ctx, session))

	retrieved, err := s.storage.GetSession(s.Ctx, "device-1")
	s.Require().NoError(err)
	_, _ = retrieved.Deck.Draw()
	retrieved.Deck.Items[0].ID = "changed"

	again, err := s.storage.GetSession(s.Ctx, "device-1")
	s.Require().NoError(err)
	s.Equal(2, again.Deck.Remaining())
	s.Equal(model.ItemID("a"), again.Deck.Items[0].ID)
}

func (s *StorageSuite) TestDefaultConfigCapsGuessLog() {
	s.Equal(storage.DefaultGuessLogLength, New().guessLogLength)
}
