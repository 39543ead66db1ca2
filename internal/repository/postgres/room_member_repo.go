package postgres

import (
	"context"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type roomMemberRepository struct {
	db *gorm.DB
}

func NewRoomMemberRepository(db *gorm.DB) *roomMemberRepository {
	return &roomMemberRepository{db: db}
}

func (r *roomMemberRepository) Create(ctx context.Context, member *domain.RoomMember) error {
	return r.db.WithContext(ctx).Omit("User").Create(member).Error
}

func (r *roomMemberRepository) GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*domain.RoomMember, error) {
	var members []*domain.RoomMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order("joined_at").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *roomMemberRepository) GetByRoomAndUser(ctx context.Context, roomID, userID uuid.UUID) (*domain.RoomMember, error) {
	var member domain.RoomMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *roomMemberRepository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*domain.RoomMember, error) {
	var member domain.RoomMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *roomMemberRepository) SetReady(ctx context.Context, roomID, userID uuid.UUID, ready bool) error {
	res := r.db.WithContext(ctx).
		Model(&domain.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("is_ready", ready)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *roomMemberRepository) Delete(ctx context.Context, roomID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.RoomMember{}, "room_id = ? AND user_id = ?", roomID, userID).Error
}
