package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomService struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.RoomMemberRepository
	matchRepo  repository.MatchRepository
}

func NewRoomService(roomRepo repository.RoomRepository, memberRepo repository.RoomMemberRepository, matchRepo repository.MatchRepository) *RoomService {
	return &RoomService{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
		matchRepo:  matchRepo,
	}
}

type CreateRoomInput struct {
	HostID uuid.UUID
	Title  string
}

// CreateRoom opens a room with the host as its first member.
func (s *RoomService) CreateRoom(ctx context.Context, input CreateRoomInput) (*domain.Room, error) {
	room := &domain.Room{
		ID:        uuid.New(),
		ShortCode: generateShortCode(),
		Title:     strings.TrimSpace(input.Title),
		HostID:    input.HostID,
		CreatedAt: time.Now(),
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	member := &domain.RoomMember{
		ID:       uuid.New(),
		RoomID:   room.ID,
		UserID:   input.HostID,
		JoinedAt: time.Now(),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	return s.getByID(ctx, room.ID)
}

func (s *RoomService) GetRoom(ctx context.Context, idOrCode string) (*domain.Room, error) {
	var (
		room *domain.Room
		err  error
	)
	if id, parseErr := uuid.Parse(idOrCode); parseErr == nil {
		room, err = s.roomRepo.GetByID(ctx, id)
	} else {
		room, err = s.roomRepo.GetByShortCode(ctx, strings.ToUpper(idOrCode))
	}
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return room, nil
}

// JoinRoom adds the user to the room. Joining a room twice is a no-op.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID uuid.UUID) (*domain.Room, error) {
	room, err := s.getByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Member(userID) != nil {
		return room, nil
	}
	if room.MatchID != nil {
		return nil, domain.ErrMatchInProgress
	}
	if len(room.Members) >= domain.MaxRoomMembers {
		return nil, domain.ErrRoomFull
	}

	member := &domain.RoomMember{
		ID:       uuid.New(),
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	return s.getByID(ctx, roomID)
}

// LeaveRoom removes the user. When the host leaves, the longest present
// member becomes host; when the last member leaves the room is deleted and
// a nil room is returned.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) (*domain.Room, error) {
	room, err := s.getByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Member(userID) == nil {
		return nil, domain.ErrNotInRoom
	}

	if err := s.memberRepo.Delete(ctx, roomID, userID); err != nil {
		return nil, err
	}

	remaining, err := s.memberRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		if err := s.roomRepo.Delete(ctx, roomID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if room.HostID == userID {
		room.HostID = remaining[0].UserID
		if err := s.roomRepo.Update(ctx, room); err != nil {
			return nil, err
		}
	}
	return s.getByID(ctx, roomID)
}

// Presence reports the room the user joined last and their seat in its
// match, if one is running. It returns nil when the user is in no room.
func (s *RoomService) Presence(ctx context.Context, userID uuid.UUID) (*domain.Presence, error) {
	member, err := s.memberRepo.GetLatestByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	presence := &domain.Presence{RoomID: member.RoomID}

	room, err := s.getByID(ctx, member.RoomID)
	if err != nil {
		return nil, err
	}
	if room.MatchID == nil {
		return presence, nil
	}
	m, err := s.matchRepo.GetByID(ctx, *room.MatchID)
	if errors.Is(err, domain.ErrMatchNotFound) {
		// destroyed between the two reads
		return presence, nil
	}
	if err != nil {
		return nil, err
	}

	presence.MatchID = &m.ID
	presence.Phase = &m.Phase
	if p := m.PlayerByUser(userID); p != nil && p.Status != domain.PlayerStatusLeave {
		presence.PlayerID = &p.ID
	}
	return presence, nil
}

func (s *RoomService) SetReady(ctx context.Context, roomID, userID uuid.UUID, ready bool) (*domain.Room, error) {
	if err := s.memberRepo.SetReady(ctx, roomID, userID, ready); err != nil {
		return nil, notFound(err, domain.ErrNotInRoom)
	}
	return s.getByID(ctx, roomID)
}

func (s *RoomService) getByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return room, nil
}

// notFound translates a missing row into a domain error.
func notFound(err, replacement error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return replacement
	}
	return err
}

func generateShortCode() string {
	bytes := make([]byte, 3)
	rand.Read(bytes)
	return strings.ToUpper(hex.EncodeToString(bytes))
}
