// Package sequencer builds shuffled decks from a catalog pool.
//
// A deck is a single traversal of the pool: every item is drawn at most
// once, and drawing from an exhausted deck reports exhaustion rather than
// an error so the caller can rebuild from a fresh pool.
package sequencer

import (
	"fmt"

	"github.com/mcoot/beforeafter/internal/dependencies/random"
	"github.com/mcoot/beforeafter/internal/model"
)

// MinPoolSize is the smallest pool a deck can be built from.
// A round needs a reference and a current item.
const MinPoolSize = 2

// NewDeck copies pool and shuffles the copy with Fisher-Yates.
// The caller's slice is never reordered.
func NewDeck(pool []model.Item, rnd random.Random) (*model.Deck, error) {
	if len(pool) < MinPoolSize {
		return nil, fmt.Errorf("%w: pool has %d items, need %d", model.ErrInsufficientItems, len(pool), MinPoolSize)
	}

	items := make([]model.Item, len(pool))
	copy(items, pool)
	Shuffle(items, rnd)

	return &model.Deck{Items: items, Cursor: len(items)}, nil
}

// Shuffle permutes items in place, from the last index down,
// swapping index i with a uniformly chosen index in [0, i].
func Shuffle(items []model.Item, rnd random.Random) {
	for i := len(items) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
