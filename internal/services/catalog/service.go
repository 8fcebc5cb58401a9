// Package catalog owns the item pool that decks are built from.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage"
)

//go:embed seed.yaml
var seedYAML []byte

// File is the on-disk catalog format
type File struct {
	Items []model.Item `yaml:"items"`
}

// Service loads items into storage and serves pool snapshots
type Service struct {
	storage storage.CatalogStore
	logger  *slog.Logger
}

// New creates a new catalog Service
func New(storage storage.CatalogStore, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// GetAllItems returns a fresh snapshot of the pool.
// Failures wrap ErrCatalogLoad so callers can retry.
func (s *Service) GetAllItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.storage.GetItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogLoad, err)
	}
	return items, nil
}

// ItemCount returns the number of items in the pool
func (s *Service) ItemCount(ctx context.Context) (int, error) {
	items, err := s.GetAllItems(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// LoadFromFile replaces the pool with the items in a YAML catalog file
func (s *Service) LoadFromFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	items, err := Parse(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.LoadItems(ctx, items); err != nil {
		return 0, err
	}

	s.logger.Info("catalog loaded",
		slog.String("path", path),
		slog.Int("item_count", len(items)),
	)
	return len(items), nil
}

// LoadDefault replaces the pool with the built-in seed catalog
func (s *Service) LoadDefault(ctx context.Context) (int, error) {
	items, err := Parse(bytes.NewReader(seedYAML))
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	if err := s.LoadItems(ctx, items); err != nil {
		return 0, err
	}

	s.logger.Info("default catalog loaded", slog.Int("item_count", len(items)))
	return len(items), nil
}

// LoadItems validates items and replaces the pool with them
func (s *Service) LoadItems(ctx context.Context, items []model.Item) error {
	if err := Validate(items); err != nil {
		return err
	}
	return s.storage.SaveItems(ctx, items)
}

// Parse decodes a catalog file. Unknown fields are rejected.
func Parse(r io.Reader) ([]model.Item, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if file.Items == nil {
		file.Items = []model.Item{}
	}
	return file.Items, nil
}

// Validate checks every item and rejects duplicate IDs
func Validate(items []model.Item) error {
	seen := make(map[model.ItemID]struct{}, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s", model.ErrInvalidItem, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// ServiceInterface is what the session controller needs from the catalog
type ServiceInterface interface {
	GetAllItems(ctx context.Context) ([]model.Item, error)
}

var _ ServiceInterface = (*Service)(nil)
