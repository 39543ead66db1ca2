package game

import (
	"fmt"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
)

const DefaultMaxRounds = 3

// Engine applies match transitions. Every method validates against the match
// it is given and either mutates it or returns an error without touching it,
// so callers must pass a freshly loaded aggregate inside their transaction.
type Engine struct {
	maxRounds int
	rng       Rand
}

func NewEngine(maxRounds int, rng Rand) *Engine {
	if maxRounds < 1 {
		maxRounds = DefaultMaxRounds
	}
	return &Engine{maxRounds: maxRounds, rng: rng}
}

func (e *Engine) MaxRounds() int {
	return e.maxRounds
}

// CardEdit moves an attached information card to a new slot and status.
type CardEdit struct {
	InformationCardID string            `json:"informationCardId"`
	Order             int               `json:"order"`
	Status            domain.CardStatus `json:"status"`
}

func requirePhase(m *domain.Match, want domain.Phase) error {
	if m.Phase != want {
		return fmt.Errorf("%w: match is in phase %s, expected %s", domain.ErrBadTiming, m.Phase, want)
	}
	return nil
}

// actor resolves an active participant of the match.
func actor(m *domain.Match, playerID uuid.UUID) (*domain.Player, error) {
	p := m.Player(playerID)
	if p == nil {
		return nil, fmt.Errorf("%w: player %s", domain.ErrPlayerNotInMatch, playerID)
	}
	if p.Status == domain.PlayerStatusLeave {
		return nil, fmt.Errorf("%w: player %s has left the match", domain.ErrPermission, playerID)
	}
	return p, nil
}

func requireRole(p *domain.Player, role domain.Role) error {
	if p.Role != role {
		return fmt.Errorf("%w: only the %s may do this", domain.ErrPermission, role)
	}
	return nil
}

func requireNotWitness(p *domain.Player) error {
	if p.Role == domain.RoleWitness {
		return fmt.Errorf("%w: the witness may not do this", domain.ErrPermission)
	}
	return nil
}

func requireTurn(m *domain.Match, index int) error {
	if index != m.CurrentPlayerIndex {
		return fmt.Errorf("%w: stale turn %d, current turn is %d", domain.ErrBadTiming, index, m.CurrentPlayerIndex)
	}
	return nil
}

// Ready marks a player ready during Init and reports whether every
// player still in the match is now ready.
func (e *Engine) Ready(m *domain.Match, playerID uuid.UUID) (bool, error) {
	if err := requirePhase(m, domain.PhaseInit); err != nil {
		return false, err
	}
	p, err := actor(m, playerID)
	if err != nil {
		return false, err
	}
	if p.Status == domain.PlayerStatusReady {
		return false, fmt.Errorf("%w: player is already ready", domain.ErrBadTiming)
	}
	p.Status = domain.PlayerStatusReady
	return AllReady(m), nil
}

func AllReady(m *domain.Match) bool {
	active := 0
	for _, p := range m.Players {
		switch p.Status {
		case domain.PlayerStatusLeave:
			continue
		case domain.PlayerStatusNotReady:
			return false
		}
		active++
	}
	return active > 0
}

func (e *Engine) Start(m *domain.Match) error {
	if err := requirePhase(m, domain.PhaseInit); err != nil {
		return err
	}
	m.Phase = domain.PhaseMurder
	return nil
}

// Accuse records the murderer's chosen measure and clue. They must come from
// the murderer's own hand.
func (e *Engine) Accuse(m *domain.Match, playerID uuid.UUID, measure, clue string) error {
	if err := requirePhase(m, domain.PhaseMurder); err != nil {
		return err
	}
	p, err := actor(m, playerID)
	if err != nil {
		return err
	}
	if err := requireRole(p, domain.RoleMurderer); err != nil {
		return err
	}
	if !p.HoldsMeasure(measure) {
		return fmt.Errorf("%w: measure %q is not in hand", domain.ErrInvalidAction, measure)
	}
	if !p.HoldsClue(clue) {
		return fmt.Errorf("%w: clue %q is not in hand", domain.ErrInvalidAction, clue)
	}

	m.AccusedMeasure = &measure
	m.AccusedClue = &clue
	m.Phase = domain.PhaseProvideTestimonials
	return nil
}

func (e *Engine) ProvideTestimony(m *domain.Match, playerID uuid.UUID, options []domain.Option) error {
	if err := requirePhase(m, domain.PhaseProvideTestimonials); err != nil {
		return err
	}
	p, err := actor(m, playerID)
	if err != nil {
		return err
	}
	if err := requireRole(p, domain.RoleWitness); err != nil {
		return err
	}
	if err := ValidateTestimony(m.ShownCards(), options); err != nil {
		return err
	}

	m.Options = toMatchOptions(m.ID, options)
	m.Phase = domain.PhaseReasoning
	m.CurrentPlayerIndex = 0
	return nil
}

// SolveCase spends one of the player's guesses. A guess matching the
// accused pair ends the match at once, whoever's turn it is.
func (e *Engine) SolveCase(m *domain.Match, playerID uuid.UUID, measure, clue string, index int) (bool, error) {
	if err := requirePhase(m, domain.PhaseReasoning); err != nil {
		return false, err
	}
	if err := requireTurn(m, index); err != nil {
		return false, err
	}
	p, err := actor(m, playerID)
	if err != nil {
		return false, err
	}
	if err := requireNotWitness(p); err != nil {
		return false, err
	}
	if p.RemainingNumOfSolveCase <= 0 {
		return false, fmt.Errorf("%w: no solve attempts left", domain.ErrBadTiming)
	}

	p.RemainingNumOfSolveCase = max(p.RemainingNumOfSolveCase-1, 0)
	solved := m.AccusedMeasure != nil && m.AccusedClue != nil &&
		measure == *m.AccusedMeasure && clue == *m.AccusedClue
	if solved {
		m.Phase = domain.PhaseDetectiveWin
	}
	return solved, nil
}

// EndTurn passes the floor to the next speaker. After the last speaker the
// round advances and the match moves to the accomplice, a new testimony, or
// ends when the final round is over.
func (e *Engine) EndTurn(m *domain.Match, playerID uuid.UUID, index int, pool []*domain.InformationCard) error {
	if err := requirePhase(m, domain.PhaseReasoning); err != nil {
		return err
	}
	if err := requireTurn(m, index); err != nil {
		return err
	}
	p, err := actor(m, playerID)
	if err != nil {
		return err
	}
	if err := requireNotWitness(p); err != nil {
		return err
	}
	speakers := m.Speakers()
	current := m.CurrentSpeaker()
	if current == nil {
		return fmt.Errorf("%w: no current speaker", domain.ErrBadTiming)
	}
	// Anyone may skip a speaker who has left; otherwise only the speaker ends their turn.
	if current.ID != p.ID && current.Status != domain.PlayerStatusLeave {
		return fmt.Errorf("%w: it is not your turn", domain.ErrPermission)
	}

	if m.CurrentPlayerIndex < len(speakers)-1 {
		m.CurrentPlayerIndex++
		return nil
	}

	finalRound := m.Round >= e.maxRounds
	m.CurrentPlayerIndex = 0
	m.Round = min(m.Round+1, e.maxRounds)

	switch {
	case finalRound:
		m.Phase = domain.PhaseMurdererWin
	case accompliceCanAct(m):
		m.Phase = domain.PhaseAccomplice
	default:
		DrawInformationCard(m, pool, e.rng)
		m.Phase = domain.PhaseAdditionalTestimonials
	}
	return nil
}

func accompliceCanAct(m *domain.Match) bool {
	if len(m.Players) <= 5 {
		return false
	}
	a := m.PlayerByRole(domain.RoleAccomplice)
	return a != nil && a.Status != domain.PlayerStatusLeave && a.RemainingNumOfAccomplice > 0
}

// Assist spends the accomplice's single action: they choose which eligible
// information card the witness receives next (empty cardID draws at random).
func (e *Engine) Assist(m *domain.Match, playerID uuid.UUID, cardID string, pool []*domain.InformationCard) error {
	if err := requirePhase(m, domain.PhaseAccomplice); err != nil {
		return err
	}
	p, err := actor(m, playerID)
	if err != nil {
		return err
	}
	if err := requireRole(p, domain.RoleAccomplice); err != nil {
		return err
	}
	if p.RemainingNumOfAccomplice <= 0 {
		return fmt.Errorf("%w: accomplice action already used", domain.ErrBadTiming)
	}

	if cardID == "" {
		DrawInformationCard(m, pool, e.rng)
	} else {
		var chosen *domain.InformationCard
		for _, card := range eligibleDraws(m, pool) {
			if card.ID == cardID {
				chosen = card
				break
			}
		}
		if chosen == nil {
			return fmt.Errorf("%w: information card %q cannot be drawn", domain.ErrInvalidAction, cardID)
		}
		attachPending(m, chosen)
	}

	p.RemainingNumOfAccomplice--
	m.Phase = domain.PhaseAdditionalTestimonials
	return nil
}

// ReplenishTestimony applies the witness's card swaps and token moves as one
// batch. The batch is applied to a copy and only committed if the result is a
// complete, valid testimony.
func (e *Engine) ReplenishTestimony(m *domain.Match, playerID uuid.UUID, cards []CardEdit, options []domain.Option) error {
	if err := requirePhase(m, domain.PhaseAdditionalTestimonials); err != nil {
		return err
	}
	p, err := actor(m, playerID)
	if err != nil {
		return err
	}
	if err := requireRole(p, domain.RoleWitness); err != nil {
		return err
	}

	next := m.Clone()
	for _, edit := range cards {
		card := next.InformationCard(edit.InformationCardID)
		if card == nil {
			return fmt.Errorf("%w: information card %q is not in this match", domain.ErrInvalidTestimony, edit.InformationCardID)
		}
		if !allowedCardMove(card.Status, edit.Status) {
			return fmt.Errorf("%w: card %q cannot move from status %d to %d", domain.ErrInvalidTestimony, edit.InformationCardID, card.Status, edit.Status)
		}
		if edit.Order < 1 {
			return fmt.Errorf("%w: card %q has invalid order %d", domain.ErrInvalidTestimony, edit.InformationCardID, edit.Order)
		}
		card.Order = edit.Order
		card.Status = edit.Status
	}
	for _, edit := range options {
		opt := next.Option(edit.Weight)
		if opt == nil {
			return fmt.Errorf("%w: no option with weight %d", domain.ErrInvalidTestimony, edit.Weight)
		}
		opt.Order = edit.Order
		opt.IndexOnCard = edit.IndexOnCard
	}

	placed := make([]domain.Option, len(next.Options))
	for i, o := range next.Options {
		placed[i] = o.Option()
	}
	if err := ValidateTestimony(next.ShownCards(), placed); err != nil {
		return err
	}

	m.InformationCards = next.InformationCards
	m.Options = next.Options
	m.Phase = domain.PhaseReasoning
	m.CurrentPlayerIndex = 0
	return nil
}

func allowedCardMove(from, to domain.CardStatus) bool {
	switch from {
	case domain.CardStatusPending:
		return to == domain.CardStatusPending || to == domain.CardStatusShow
	case domain.CardStatusShow:
		return to == domain.CardStatusShow || to == domain.CardStatusDiscard
	case domain.CardStatusDiscard:
		return to == domain.CardStatusDiscard
	}
	return false
}

// Quit marks the player as gone and reports whether nobody is left.
func (e *Engine) Quit(m *domain.Match, playerID uuid.UUID) (bool, error) {
	p, err := actor(m, playerID)
	if err != nil {
		return false, err
	}
	p.Status = domain.PlayerStatusLeave

	for _, other := range m.Players {
		if other.Status != domain.PlayerStatusLeave {
			return false, nil
		}
	}
	return true, nil
}

func toMatchOptions(matchID uuid.UUID, options []domain.Option) []*domain.MatchOption {
	out := make([]*domain.MatchOption, len(options))
	for i, o := range options {
		out[i] = &domain.MatchOption{
			MatchID:     matchID,
			Weight:      o.Weight,
			Order:       o.Order,
			IndexOnCard: o.IndexOnCard,
		}
	}
	return out
}
