package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *matchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) CreateForRoom(ctx context.Context, match *domain.Match) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Room{}).
			Where("id = ? AND match_id IS NULL", match.RoomID).
			Update("match_id", match.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&domain.Room{}).Where("id = ?", match.RoomID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrRoomNotFound
			}
			return domain.ErrMatchInProgress
		}

		if err := tx.Omit(clause.Associations).Create(match).Error; err != nil {
			return err
		}
		return writeChildren(tx, match)
	})
}

func (r *matchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	return load(r.db.WithContext(ctx), id, false)
}

func (r *matchRepository) Mutate(ctx context.Context, id uuid.UUID, fn repository.MatchMutator) (*domain.Match, error) {
	var result *domain.Match
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match, err := load(tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(match); err != nil {
			return err
		}

		match.Version++
		if err := tx.Omit(clause.Associations).Save(match).Error; err != nil {
			return err
		}
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		if err := writeChildren(tx, match); err != nil {
			return err
		}
		result = match
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *matchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		res := tx.Delete(&domain.Match{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
		}
		return tx.Model(&domain.Room{}).
			Where("match_id = ?", id).
			Update("match_id", nil).Error
	})
}

// load reads the whole aggregate. With lock set the match row is held
// FOR UPDATE until the surrounding transaction ends.
func load(db *gorm.DB, id uuid.UUID, lock bool) (*domain.Match, error) {
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var match domain.Match
	if err := q.First(&match, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
		}
		return nil, err
	}

	if err := db.Where("match_id = ?", id).Order("seat ASC").Find(&match.Players).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("Card").Where("match_id = ?", id).Order("slot ASC").Find(&match.InformationCards).Error; err != nil {
		return nil, err
	}
	if err := db.Where("match_id = ?", id).Order("weight ASC").Find(&match.Options).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

func deleteChildren(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Delete(&domain.MatchOption{}, "match_id = ?", id).Error; err != nil {
		return err
	}
	if err := tx.Delete(&domain.MatchInformationCard{}, "match_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&domain.Player{}, "match_id = ?", id).Error
}

func writeChildren(tx *gorm.DB, match *domain.Match) error {
	if len(match.Players) > 0 {
		if err := tx.Omit(clause.Associations).Create(&match.Players).Error; err != nil {
			return err
		}
	}
	if len(match.InformationCards) > 0 {
		if err := tx.Omit(clause.Associations).Create(&match.InformationCards).Error; err != nil {
			return err
		}
	}
	if len(match.Options) > 0 {
		if err := tx.Omit(clause.Associations).Create(&match.Options).Error; err != nil {
			return err
		}
	}
	return nil
}
