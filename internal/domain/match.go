package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Phase int

const (
	PhaseInit Phase = iota
	PhaseMurder
	PhaseProvideTestimonials
	PhaseReasoning
	PhaseAccomplice
	PhaseAdditionalTestimonials
	PhaseDetectiveWin
	PhaseMurdererWin
)

var phaseNames = [...]string{
	"init",
	"murder",
	"provide_testimonials",
	"reasoning",
	"accomplice",
	"additional_testimonials",
	"detective_win",
	"murderer_win",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

func (p Phase) IsTerminal() bool {
	return p == PhaseDetectiveWin || p == PhaseMurdererWin
}

type PlayerStatus int

const (
	PlayerStatusNotReady PlayerStatus = iota
	PlayerStatusReady
	PlayerStatusLeave
)

type CardStatus int

const (
	CardStatusInit CardStatus = iota
	CardStatusPending
	CardStatusShow
	CardStatusDiscard
)

// Match is the aggregate every transition reads and rewrites as one unit.
type Match struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RoomID             uuid.UUID `json:"roomId" gorm:"type:uuid;not null;uniqueIndex"`
	Phase              Phase     `json:"phase" gorm:"not null;default:0"`
	Round              int       `json:"round" gorm:"not null;default:1"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex" gorm:"not null;default:0"`
	AccusedMeasure     *string   `json:"accusedMeasure"`
	AccusedClue        *string   `json:"accusedClue"`
	Version            int64     `json:"version" gorm:"not null;default:0"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`

	Players          []*Player               `json:"players" gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
	InformationCards []*MatchInformationCard `json:"informationCards" gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
	Options          []*MatchOption          `json:"options" gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
}

type Player struct {
	ID                       uuid.UUID                   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MatchID                  uuid.UUID                   `json:"matchId" gorm:"type:uuid;not null;index"`
	UserID                   uuid.UUID                   `json:"userId" gorm:"type:uuid;not null"`
	DisplayName              string                      `json:"displayName"`
	Seat                     int                         `json:"seat" gorm:"not null"`
	Role                     Role                        `json:"role" gorm:"not null"`
	Status                   PlayerStatus                `json:"status" gorm:"not null;default:0"`
	RemainingNumOfSolveCase  int                         `json:"remainingNumOfSolveCase"`
	RemainingNumOfAccomplice int                         `json:"remainingNumOfAccomplice"`
	MeasureCards             datatypes.JSONSlice[string] `json:"measureCards" gorm:"type:jsonb"`
	ClueCards                datatypes.JSONSlice[string] `json:"clueCards" gorm:"type:jsonb"`
}

func (p *Player) HoldsMeasure(name string) bool {
	return slices.Contains(p.MeasureCards, name)
}

func (p *Player) HoldsClue(name string) bool {
	return slices.Contains(p.ClueCards, name)
}

// MatchInformationCard attaches a template card to a match. Order is the
// 1-based slot; shown cards occupy 1..6, later draws are appended after.
type MatchInformationCard struct {
	MatchID           uuid.UUID  `json:"matchId" gorm:"type:uuid;primaryKey"`
	InformationCardID string     `json:"informationCardId" gorm:"primaryKey"`
	Order             int        `json:"order" gorm:"column:slot;not null"`
	Status            CardStatus `json:"status" gorm:"not null;default:0"`

	Card *InformationCard `json:"card,omitempty" gorm:"foreignKey:InformationCardID"`
}

type MatchOption struct {
	MatchID     uuid.UUID `json:"matchId" gorm:"type:uuid;primaryKey"`
	Weight      int       `json:"weight" gorm:"primaryKey;autoIncrement:false"`
	Order       int       `json:"order" gorm:"column:slot;not null"`
	IndexOnCard int       `json:"indexOnCard" gorm:"not null"`
}

func (o *MatchOption) Option() Option {
	return Option{Weight: o.Weight, Order: o.Order, IndexOnCard: o.IndexOnCard}
}

func (m *Match) Player(id uuid.UUID) *Player {
	for _, p := range m.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *Match) PlayerByUser(userID uuid.UUID) *Player {
	for _, p := range m.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (m *Match) PlayerByRole(role Role) *Player {
	for _, p := range m.Players {
		if p.Role == role {
			return p
		}
	}
	return nil
}

// Speakers returns the non-witness players in seat order. CurrentPlayerIndex
// indexes into this list.
func (m *Match) Speakers() []*Player {
	speakers := make([]*Player, 0, len(m.Players))
	for _, p := range m.Players {
		if p.Role != RoleWitness {
			speakers = append(speakers, p)
		}
	}
	slices.SortFunc(speakers, func(a, b *Player) int { return a.Seat - b.Seat })
	return speakers
}

// CurrentSpeaker returns nil outside of an active turn.
func (m *Match) CurrentSpeaker() *Player {
	speakers := m.Speakers()
	if m.CurrentPlayerIndex < 0 || m.CurrentPlayerIndex >= len(speakers) {
		return nil
	}
	return speakers[m.CurrentPlayerIndex]
}

// ShownCards returns the shown information cards ordered by slot.
func (m *Match) ShownCards() []*MatchInformationCard {
	shown := make([]*MatchInformationCard, 0, ShownCardCount)
	for _, c := range m.InformationCards {
		if c.Status == CardStatusShow {
			shown = append(shown, c)
		}
	}
	slices.SortFunc(shown, func(a, b *MatchInformationCard) int { return a.Order - b.Order })
	return shown
}

func (m *Match) InformationCard(id string) *MatchInformationCard {
	for _, c := range m.InformationCards {
		if c.InformationCardID == id {
			return c
		}
	}
	return nil
}

func (m *Match) Option(weight int) *MatchOption {
	for _, o := range m.Options {
		if o.Weight == weight {
			return o
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without affecting the source.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	if m.AccusedMeasure != nil {
		v := *m.AccusedMeasure
		c.AccusedMeasure = &v
	}
	if m.AccusedClue != nil {
		v := *m.AccusedClue
		c.AccusedClue = &v
	}
	c.Players = make([]*Player, len(m.Players))
	for i, p := range m.Players {
		cp := *p
		cp.MeasureCards = slices.Clone(p.MeasureCards)
		cp.ClueCards = slices.Clone(p.ClueCards)
		c.Players[i] = &cp
	}
	c.InformationCards = make([]*MatchInformationCard, len(m.InformationCards))
	for i, card := range m.InformationCards {
		cc := *card
		if card.Card != nil {
			tpl := *card.Card
			tpl.Facts = slices.Clone(card.Card.Facts)
			cc.Card = &tpl
		}
		c.InformationCards[i] = &cc
	}
	c.Options = make([]*MatchOption, len(m.Options))
	for i, o := range m.Options {
		co := *o
		c.Options[i] = &co
	}
	return &c
}
