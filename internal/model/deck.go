package model

// Deck is one shuffled traversal of a pool.
// Items[:Cursor] are still to be drawn; the top of the deck is Items[Cursor-1].
// Drawing only moves the cursor, so the buffer itself is never mutated.
type Deck struct {
	Items  []Item `json:"items"`
	Cursor int    `json:"cursor"`
}

// Remaining returns how many items are left to draw
func (d *Deck) Remaining() int {
	if d == nil {
		return 0
	}
	return d.Cursor
}

// IsExhausted returns true once every item has been drawn
func (d *Deck) IsExhausted() bool {
	return d.Remaining() == 0
}

// Draw removes and returns the top item.
// The second return is false once the deck is exhausted.
func (d *Deck) Draw() (Item, bool) {
	if d.IsExhausted() {
		return Item{}, false
	}
	d.Cursor--
	return d.Items[d.Cursor], true
}

// Peek returns the top item without drawing it
func (d *Deck) Peek() (Item, bool) {
	if d.IsExhausted() {
		return Item{}, false
	}
	return d.Items[d.Cursor-1], true
}
