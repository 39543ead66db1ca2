package memory

import (
	"context"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type roomRepository struct {
	s *Store
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.rooms {
		if existing.ShortCode == room.ShortCode {
			return gorm.ErrDuplicatedKey
		}
	}
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}
	cp := *room
	cp.Host = nil
	cp.Members = nil
	r.s.rooms[room.ID] = &cp
	return nil
}

// hydrate copies a stored room and attaches its host and members, the way
// the gorm repository preloads them. Caller holds the lock.
func (r *roomRepository) hydrate(room *domain.Room) *domain.Room {
	cp := *room
	if room.MatchID != nil {
		id := *room.MatchID
		cp.MatchID = &id
	}
	if u, ok := r.s.users[room.HostID]; ok {
		host := *u
		cp.Host = &host
	}
	cp.Members = r.s.membersOf(room.ID)
	return &cp
}

func (r *roomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.hydrate(room), nil
}

func (r *roomRepository) GetByShortCode(ctx context.Context, code string) (*domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, room := range r.s.rooms {
		if room.ShortCode == code {
			return r.hydrate(room), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[room.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *room
	cp.Host = nil
	cp.Members = nil
	r.s.rooms[room.ID] = &cp
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.rooms, id)
	delete(r.s.members, id)
	return nil
}

type roomMemberRepository struct {
	s *Store
}

// membersOf returns copies of a room's members in join order with their
// users attached. Caller holds the lock.
func (s *Store) membersOf(roomID uuid.UUID) []*domain.RoomMember {
	stored := s.members[roomID]
	out := make([]*domain.RoomMember, 0, len(stored))
	for _, m := range stored {
		cp := *m
		if u, ok := s.users[m.UserID]; ok {
			user := *u
			cp.User = &user
		}
		out = append(out, &cp)
	}
	return out
}

func (r *roomMemberRepository) Create(ctx context.Context, member *domain.RoomMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members[member.RoomID] {
		if m.UserID == member.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	cp := *member
	cp.User = nil
	r.s.members[member.RoomID] = append(r.s.members[member.RoomID], &cp)
	return nil
}

func (r *roomMemberRepository) GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*domain.RoomMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.membersOf(roomID), nil
}

func (r *roomMemberRepository) GetByRoomAndUser(ctx context.Context, roomID, userID uuid.UUID) (*domain.RoomMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.membersOf(roomID) {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *roomMemberRepository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*domain.RoomMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *domain.RoomMember
	for roomID := range r.s.members {
		for _, m := range r.s.membersOf(roomID) {
			if m.UserID == userID && (latest == nil || m.JoinedAt.After(latest.JoinedAt)) {
				latest = m
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *roomMemberRepository) SetReady(ctx context.Context, roomID, userID uuid.UUID, ready bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members[roomID] {
		if m.UserID == userID {
			m.IsReady = ready
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *roomMemberRepository) Delete(ctx context.Context, roomID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := r.s.members[roomID]
	for i, m := range members {
		if m.UserID == userID {
			r.s.members[roomID] = append(members[:i:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}
