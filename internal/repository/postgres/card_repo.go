package postgres

import (
	"context"

	"github.com/dom/deception-server/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *cardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) UpsertCatalog(ctx context.Context, catalog *domain.CardCatalog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(catalog.InformationCards) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(catalog.InformationCards).Error
			if err != nil {
				return err
			}
		}
		if len(catalog.MeasureCards) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				UpdateAll: true,
			}).Create(catalog.MeasureCards).Error
			if err != nil {
				return err
			}
		}
		if len(catalog.ClueCards) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				UpdateAll: true,
			}).Create(catalog.ClueCards).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *cardRepository) GetCatalog(ctx context.Context) (*domain.CardCatalog, error) {
	catalog := &domain.CardCatalog{}
	db := r.db.WithContext(ctx)
	if err := db.Order("id ASC").Find(&catalog.InformationCards).Error; err != nil {
		return nil, err
	}
	if err := db.Order("name ASC").Find(&catalog.MeasureCards).Error; err != nil {
		return nil, err
	}
	if err := db.Order("name ASC").Find(&catalog.ClueCards).Error; err != nil {
		return nil, err
	}
	return catalog, nil
}
