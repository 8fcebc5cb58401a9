package model

import (
	"fmt"
	"strings"
)

// ItemID uniquely identifies a catalog item
type ItemID string

// Item is a dated cultural artifact shown to the player
type Item struct {
	ID    ItemID `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Year  int    `json:"year" yaml:"year"`
	Month int    `json:"month" yaml:"month"` // 1-12
}

// Validate checks that the item is well-formed
func (i Item) Validate() error {
	if strings.TrimSpace(string(i.ID)) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("%w: item %s has no title", ErrInvalidItem, i.ID)
	}
	if i.Month < 1 || i.Month > 12 {
		return fmt.Errorf("%w: item %s has month %d", ErrInvalidItem, i.ID, i.Month)
	}
	return nil
}

// Compare orders items by year, then month.
// Returns -1 if i precedes other, 1 if it follows, 0 on a tie.
func (i Item) Compare(other Item) int {
	switch {
	case i.Year < other.Year:
		return -1
	case i.Year > other.Year:
		return 1
	case i.Month < other.Month:
		return -1
	case i.Month > other.Month:
		return 1
	default:
		return 0
	}
}

// Direction is the player's guess about where the current item sits relative to the reference
type Direction string

const (
	DirectionBefore Direction = "before"
	DirectionAfter  Direction = "after"
)

// Valid returns true for before/after
func (d Direction) Valid() bool {
	return d == DirectionBefore || d == DirectionAfter
}

// ParseDirection converts user input into a Direction
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGuess, s)
	}
	return d, nil
}
