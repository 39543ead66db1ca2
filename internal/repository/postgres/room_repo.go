package postgres

import (
	"context"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type roomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *roomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Omit("Members").Create(room).Error
}

func (r *roomRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Host").
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Members.User")
}

func (r *roomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	var room domain.Room
	err := r.withRelations(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) GetByShortCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.withRelations(ctx).First(&room, "short_code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Update saves the room's own columns; membership is managed separately.
func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Omit("Host", "Members").Save(room).Error
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.RoomMember{}, "room_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Room{}, "id = ?", id).Error
	})
}
