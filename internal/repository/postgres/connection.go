package postgres

import (
	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table, in dependency order, for migrations and test cleanup.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.UserSession{},
		&domain.Room{},
		&domain.RoomMember{},
		&domain.InformationCard{},
		&domain.MeasureCard{},
		&domain.ClueCard{},
		&domain.Match{},
		&domain.Player{},
		&domain.MatchInformationCard{},
		&domain.MatchOption{},
	}
}

func NewConnection(databaseURL string, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:       NewUserRepository(db),
		Session:    NewSessionRepository(db),
		Room:       NewRoomRepository(db),
		RoomMember: NewRoomMemberRepository(db),
		Card:       NewCardRepository(db),
		Match:      NewMatchRepository(db),
	}
}
