package service

import (
	"context"
	"errors"
	"log"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/dom/deception-server/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dom/deception-server/internal/service"

// Actor identifies who is acting in a match: the authenticated user and the
// player seat they claim.
type Actor struct {
	UserID   uuid.UUID
	MatchID  uuid.UUID
	PlayerID uuid.UUID
}

type MatchService struct {
	matchRepo repository.MatchRepository
	roomRepo  repository.RoomRepository
	cards     *CardService
	engine    *game.Engine
	tracer    trace.Tracer
}

func NewMatchService(matchRepo repository.MatchRepository, roomRepo repository.RoomRepository, cards *CardService, engine *game.Engine) *MatchService {
	return &MatchService{
		matchRepo: matchRepo,
		roomRepo:  roomRepo,
		cards:     cards,
		engine:    engine,
		tracer:    otel.Tracer(tracerName),
	}
}

// Create deals a new match for every member of the room. Only the host may
// create it and only once all members are ready. Nothing is stored unless
// the whole match could be built.
func (s *MatchService) Create(ctx context.Context, userID, roomID uuid.UUID) (*domain.Match, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.Create",
		trace.WithAttributes(attribute.String("room.id", roomID.String())))
	defer span.End()

	match, err := s.create(ctx, userID, roomID)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("match.id", match.ID.String()), attribute.Int("match.players", len(match.Players)))
	return match, nil
}

func (s *MatchService) create(ctx context.Context, userID, roomID uuid.UUID) (*domain.Match, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	if room.HostID != userID {
		return nil, domain.ErrNotRoomHost
	}
	if room.MatchID != nil {
		return nil, domain.ErrMatchInProgress
	}
	if !room.AllReady() {
		return nil, domain.ErrPlayersNotReady
	}

	catalog, err := s.cards.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	seats := make([]game.Seat, len(room.Members))
	for i, m := range room.Members {
		seats[i] = game.Seat{UserID: m.UserID, DisplayName: m.DisplayName()}
	}

	match, err := s.engine.NewMatch(room.ID, seats, catalog)
	if err != nil {
		return nil, err
	}
	if err := s.matchRepo.CreateForRoom(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *MatchService) Get(ctx context.Context, matchID uuid.UUID) (*domain.Match, error) {
	return s.matchRepo.GetByID(ctx, matchID)
}

// Ready marks the actor ready and reports whether the whole party now is.
func (s *MatchService) Ready(ctx context.Context, a Actor) (*domain.Match, bool, error) {
	var allReady bool
	m, err := s.transition(ctx, "Ready", a, func(m *domain.Match) error {
		var err error
		allReady, err = s.engine.Ready(m, a.PlayerID)
		return err
	})
	return m, allReady, err
}

// Start moves a fully ready match into the murder phase. It is driven by
// the start countdown rather than by a player.
func (s *MatchService) Start(ctx context.Context, matchID uuid.UUID) (*domain.Match, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.Start",
		trace.WithAttributes(attribute.String("match.id", matchID.String())))
	defer span.End()

	m, err := s.matchRepo.Mutate(ctx, matchID, s.engine.Start)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	committed(span, m)
	return m, nil
}

func (s *MatchService) Accuse(ctx context.Context, a Actor, measure, clue string) (*domain.Match, error) {
	return s.transition(ctx, "Accuse", a, func(m *domain.Match) error {
		return s.engine.Accuse(m, a.PlayerID, measure, clue)
	})
}

func (s *MatchService) ProvideTestimony(ctx context.Context, a Actor, options []domain.Option) (*domain.Match, error) {
	return s.transition(ctx, "ProvideTestimony", a, func(m *domain.Match) error {
		return s.engine.ProvideTestimony(m, a.PlayerID, options)
	})
}

// SolveCase spends one of the actor's guesses and reports whether it named
// the murderer's pair.
func (s *MatchService) SolveCase(ctx context.Context, a Actor, measure, clue string, index int) (*domain.Match, bool, error) {
	var solved bool
	m, err := s.transition(ctx, "SolveCase", a, func(m *domain.Match) error {
		var err error
		solved, err = s.engine.SolveCase(m, a.PlayerID, measure, clue, index)
		return err
	})
	return m, solved, err
}

func (s *MatchService) EndTurn(ctx context.Context, a Actor, index int) (*domain.Match, error) {
	catalog, err := s.cards.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, "EndTurn", a, func(m *domain.Match) error {
		return s.engine.EndTurn(m, a.PlayerID, index, catalog.InformationCards)
	})
}

// Assist lets the accomplice pick the next information card. An empty
// cardID draws one at random.
func (s *MatchService) Assist(ctx context.Context, a Actor, cardID string) (*domain.Match, error) {
	catalog, err := s.cards.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, "Assist", a, func(m *domain.Match) error {
		return s.engine.Assist(m, a.PlayerID, cardID, catalog.InformationCards)
	})
}

func (s *MatchService) ReplenishTestimony(ctx context.Context, a Actor, cards []game.CardEdit, options []domain.Option) (*domain.Match, error) {
	return s.transition(ctx, "ReplenishTestimony", a, func(m *domain.Match) error {
		return s.engine.ReplenishTestimony(m, a.PlayerID, cards, options)
	})
}

// Quit marks the actor as gone. Once nobody is left the match is deleted and
// destroyed is true; the returned snapshot is the last committed state.
func (s *MatchService) Quit(ctx context.Context, a Actor) (m *domain.Match, destroyed bool, err error) {
	var allLeft bool
	m, err = s.transition(ctx, "Quit", a, func(m *domain.Match) error {
		var err error
		allLeft, err = s.engine.Quit(m, a.PlayerID)
		return err
	})
	if err != nil || !allLeft {
		return m, false, err
	}
	if err := s.matchRepo.Delete(ctx, a.MatchID); err != nil && !errors.Is(err, domain.ErrMatchNotFound) {
		log.Printf("ERROR [service.Quit] Failed to delete abandoned match %s: %v", a.MatchID, err)
		return m, false, err
	}
	return m, true, nil
}

// Delete tears a match down on request of the room host.
func (s *MatchService) Delete(ctx context.Context, userID, matchID uuid.UUID) (*domain.Match, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.Delete",
		trace.WithAttributes(attribute.String("match.id", matchID.String())))
	defer span.End()

	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	room, err := s.roomRepo.GetByID(ctx, m.RoomID)
	if err != nil {
		err = notFound(err, domain.ErrRoomNotFound)
		fail(span, err)
		return nil, err
	}
	if room.HostID != userID {
		fail(span, domain.ErrNotRoomHost)
		return nil, domain.ErrNotRoomHost
	}
	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		fail(span, err)
		return nil, err
	}
	return m, nil
}

// transition runs fn against the locked match after checking that the
// claimed player seat belongs to the authenticated user.
func (s *MatchService) transition(ctx context.Context, op string, a Actor, fn func(m *domain.Match) error) (*domain.Match, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService."+op, trace.WithAttributes(
		attribute.String("match.id", a.MatchID.String()),
		attribute.String("player.id", a.PlayerID.String()),
	))
	defer span.End()

	m, err := s.matchRepo.Mutate(ctx, a.MatchID, func(m *domain.Match) error {
		if p := m.Player(a.PlayerID); p != nil && p.UserID != a.UserID {
			return domain.ErrPermission
		}
		return fn(m)
	})
	if err != nil {
		fail(span, err)
		return nil, err
	}
	committed(span, m)
	return m, nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func committed(span trace.Span, m *domain.Match) {
	span.SetAttributes(
		attribute.String("match.phase", m.Phase.String()),
		attribute.Int64("match.version", m.Version),
	)
}
