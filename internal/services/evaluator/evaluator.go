// Package evaluator decides whether a before/after guess is correct.
package evaluator

import (
	"fmt"

	"github.com/mcoot/beforeafter/internal/model"
)

// IsGuessCorrect reports whether current sits on the guessed side of reference.
// Items are ordered by year, then month. Two items with the same year and month
// tie, and a tie is incorrect for either guess.
func IsGuessCorrect(reference, current *model.Item, guess model.Direction) (bool, error) {
	if !guess.Valid() {
		return false, fmt.Errorf("%w: %q", model.ErrInvalidGuess, guess)
	}
	if reference == nil || current == nil {
		return false, fmt.Errorf("%w: no pair to compare", model.ErrInvalidGuess)
	}

	switch current.Compare(*reference) {
	case -1:
		return guess == model.DirectionBefore, nil
	case 1:
		return guess == model.DirectionAfter, nil
	default:
		return false, nil
	}
}
