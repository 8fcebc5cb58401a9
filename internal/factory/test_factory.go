package factory

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/beforeafter/internal/dependencies/mocks"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/services/auth"
	"github.com/mcoot/beforeafter/internal/storage/memory"
	"github.com/mcoot/beforeafter/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// With nothing queued, MockRandom leaves decks unshuffled, so items are
// drawn in reverse ID order.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.PasswordCost = bcrypt.MinCost

	app := newWithDependencies(store, mockClock, mockRandom, authCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// LoadTestCatalog loads a small catalog with one item per year, 2001 to 2006.
// Unshuffled, the first pair is item-6 (2006) then item-5 (2005).
func (t *TestApp) LoadTestCatalog(ctx context.Context) error {
	items := make([]model.Item, 0, 6)
	for i := 1; i <= 6; i++ {
		items = append(items, model.Item{
			ID:    model.ItemID(fmt.Sprintf("item-%d", i)),
			Title: fmt.Sprintf("Item %d", i),
			Year:  2000 + i,
			Month: 6,
		})
	}
	return t.CatalogService.LoadItems(ctx, items)
}
