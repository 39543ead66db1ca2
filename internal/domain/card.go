package domain

import "gorm.io/datatypes"

// Information card categories that always occupy the first two slots.
const (
	CategoryCauseOfDeath = "cause_of_death"
	CategoryCrimeScene   = "crime_scene"
)

const (
	ShownCardCount = 6
	HandSize       = 4
)

// InformationCard is a template card the witness marks facts on.
type InformationCard struct {
	ID       string                      `json:"id" gorm:"primaryKey"`
	Name     string                      `json:"name" gorm:"not null"`
	Category string                      `json:"category" gorm:"not null;index"`
	Facts    datatypes.JSONSlice[string] `json:"facts" gorm:"type:jsonb"`
}

// IsFixed reports whether the card belongs to one of the two categories that
// are dealt into fixed slots and never drawn later.
func (c *InformationCard) IsFixed() bool {
	return c.Category == CategoryCauseOfDeath || c.Category == CategoryCrimeScene
}

type MeasureCard struct {
	Name    string `json:"name" gorm:"primaryKey"`
	Picture string `json:"picture"`
}

type ClueCard struct {
	Name    string `json:"name" gorm:"primaryKey"`
	Picture string `json:"picture"`
}

// CardCatalog is the full set of templates a match is built from.
type CardCatalog struct {
	InformationCards []*InformationCard `json:"informationCards"`
	MeasureCards     []*MeasureCard     `json:"measureCards"`
	ClueCards        []*ClueCard        `json:"clueCards"`
}

func (c *CardCatalog) InformationCard(id string) *InformationCard {
	for _, card := range c.InformationCards {
		if card.ID == id {
			return card
		}
	}
	return nil
}
