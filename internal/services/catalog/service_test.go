package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage/memory"
	"github.com/mcoot/beforeafter/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) writeFile(content string) string {
	path := filepath.Join(s.T().TempDir(), "items.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *ServiceSuite) TestEmptyByDefault() {
	items, err := s.service.GetAllItems(s.ctx)
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *ServiceSuite) TestLoadFromFile() {
	path := s.writeFile(`
items:
  - id: b
    title: Beta
    year: 2001
    month: 2
  - {id: a, title: Alpha, year: 1999, month: 12}
`)

	n, err := s.service.LoadFromFile(s.ctx, path)
	s.Require().NoError(err)
	s.Equal(2, n)

	items, err := s.service.GetAllItems(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.Item{
		{ID: "a", Title: "Alpha", Year: 1999, Month: 12},
		{ID: "b", Title: "Beta", Year: 2001, Month: 2},
	}, items)
}

func (s *ServiceSuite) TestLoadFromFileMissing() {
	_, err := s.service.LoadFromFile(s.ctx, filepath.Join(s.T().TempDir(), "nope.yaml"))
	s.Error(err)
}

func (s *ServiceSuite) TestLoadFromFileRejectsUnknownFields() {
	path := s.writeFile(`
items:
  - {id: a, title: Alpha, year: 1999, month: 12, day: 3}
`)
	_, err := s.service.LoadFromFile(s.ctx, path)
	s.Error(err)

	count, err := s.service.ItemCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count, "a bad file must not replace the pool")
}

func (s *ServiceSuite) TestLoadItemsRejectsInvalidItems() {
	err := s.service.LoadItems(s.ctx, []model.Item{{ID: "a", Title: "Alpha", Year: 1999, Month: 13}})
	s.ErrorIs(err, model.ErrInvalidItem)

	err = s.service.LoadItems(s.ctx, []model.Item{{ID: "a", Year: 1999, Month: 1}})
	s.ErrorIs(err, model.ErrInvalidItem)
}

func (s *ServiceSuite) TestLoadItemsRejectsDuplicateIDs() {
	err := s.service.LoadItems(s.ctx, []model.Item{
		{ID: "a", Title: "Alpha", Year: 1999, Month: 1},
		{ID: "a", Title: "Again", Year: 2000, Month: 1},
	})
	s.ErrorIs(err, model.ErrInvalidItem)
}

func (s *ServiceSuite) TestLoadItemsReplacesPool() {
	s.Require().NoError(s.service.LoadItems(s.ctx, []model.Item{{ID: "a", Title: "Alpha", Year: 1999, Month: 1}}))
	s.Require().NoError(s.service.LoadItems(s.ctx, []model.Item{{ID: "b", Title: "Beta", Year: 1999, Month: 1}}))

	items, err := s.service.GetAllItems(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(model.ItemID("b"), items[0].ID)
}

func (s *ServiceSuite) TestLoadDefault() {
	n, err := s.service.LoadDefault(s.ctx)
	s.Require().NoError(err)
	s.Greater(n, 2)

	count, err := s.service.ItemCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(n, count)
}

func (s *ServiceSuite) TestGetAllItemsWrapsStorageErrors() {
	service := New(failingCatalog{}, testutil.NopLogger())

	_, err := service.GetAllItems(s.ctx)
	s.ErrorIs(err, model.ErrCatalogLoad)
	s.ErrorIs(err, errUnavailable)
}

func (s *ServiceSuite) TestParseEmptyDocument() {
	items, err := Parse(strings.NewReader(""))
	s.Require().NoError(err)
	s.Empty(items)
}

var errUnavailable = errors.New("catalog unavailable")

type failingCatalog struct{}

func (failingCatalog) GetItems(ctx context.Context) ([]model.Item, error) {
	return nil, errUnavailable
}

func (failingCatalog) SaveItems(ctx context.Context, items []model.Item) error {
	return errUnavailable
}
