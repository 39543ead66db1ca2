package game

import (
	"fmt"

	"github.com/dom/deception-server/internal/domain"
)

// ValidateTestimony checks a full set of witness tokens against the shown
// cards: six tokens weighted 1..6, one per shown card, each on a real fact.
func ValidateTestimony(shown []*domain.MatchInformationCard, options []domain.Option) error {
	if len(shown) != domain.ShownCardCount {
		return fmt.Errorf("%w: expected %d shown cards, got %d", domain.ErrInvalidTestimony, domain.ShownCardCount, len(shown))
	}
	bySlot := make(map[int]*domain.MatchInformationCard, len(shown))
	for _, card := range shown {
		if card.Order < 1 || card.Order > domain.ShownCardCount {
			return fmt.Errorf("%w: shown card %q has slot %d", domain.ErrInvalidTestimony, card.InformationCardID, card.Order)
		}
		if _, dup := bySlot[card.Order]; dup {
			return fmt.Errorf("%w: two shown cards share slot %d", domain.ErrInvalidTestimony, card.Order)
		}
		bySlot[card.Order] = card
	}

	if len(options) != domain.ShownCardCount {
		return fmt.Errorf("%w: expected %d options, got %d", domain.ErrInvalidTestimony, domain.ShownCardCount, len(options))
	}
	weights := make(map[int]bool, len(options))
	slots := make(map[int]bool, len(options))
	for _, o := range options {
		if o.Weight < 1 || o.Weight > domain.ShownCardCount {
			return fmt.Errorf("%w: weight %d out of range", domain.ErrInvalidTestimony, o.Weight)
		}
		if weights[o.Weight] {
			return fmt.Errorf("%w: duplicate weight %d", domain.ErrInvalidTestimony, o.Weight)
		}
		weights[o.Weight] = true

		if o.IsEmpty() {
			return fmt.Errorf("%w: option %d is not placed", domain.ErrInvalidTestimony, o.Weight)
		}
		card, ok := bySlot[o.Order]
		if !ok {
			return fmt.Errorf("%w: option %d points at slot %d with no shown card", domain.ErrInvalidTestimony, o.Weight, o.Order)
		}
		if slots[o.Order] {
			return fmt.Errorf("%w: more than one option on slot %d", domain.ErrInvalidTestimony, o.Order)
		}
		slots[o.Order] = true

		if card.Card != nil && o.IndexOnCard >= len(card.Card.Facts) {
			return fmt.Errorf("%w: option %d points past the facts of card %q", domain.ErrInvalidTestimony, o.Weight, card.InformationCardID)
		}
	}
	return nil
}
