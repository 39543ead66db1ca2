package service

import (
	"time"

	"github.com/dom/deception-server/internal/config"
	"github.com/dom/deception-server/internal/game"
	"github.com/dom/deception-server/internal/repository"
)

type Services struct {
	Auth  *AuthService
	Room  *RoomService
	Card  *CardService
	Match *MatchService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	seed := uint64(time.Now().UnixNano())
	engine := game.NewEngine(cfg.MaxRounds, game.NewLockedRand(seed, seed>>1))
	return NewServicesWithEngine(repos, cfg, engine)
}

// NewServicesWithEngine is NewServices with a caller supplied engine, so
// tests can fix the random source.
func NewServicesWithEngine(repos *repository.Repositories, cfg *config.Config, engine *game.Engine) *Services {
	cards := NewCardService(repos.Card)
	return &Services{
		Auth:  NewAuthService(repos.User, repos.Session, cfg),
		Room:  NewRoomService(repos.Room, repos.RoomMember, repos.Match),
		Card:  cards,
		Match: NewMatchService(repos.Match, repos.Room, cards, engine),
	}
}
