package domain

import (
	"time"

	"github.com/google/uuid"
)

const MaxRoomMembers = 10

type Room struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShortCode string     `json:"shortCode" gorm:"uniqueIndex;not null"`
	Title     string     `json:"title" gorm:"not null;default:''"`
	HostID    uuid.UUID  `json:"hostId" gorm:"type:uuid;not null"`
	MatchID   *uuid.UUID `json:"matchId" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"createdAt"`

	// Relations
	Host    *User         `json:"host,omitempty" gorm:"foreignKey:HostID"`
	Members []*RoomMember `json:"members,omitempty" gorm:"foreignKey:RoomID"`
}

// RoomMember is a user seated in a room before and during a match.
type RoomMember struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RoomID   uuid.UUID `json:"roomId" gorm:"type:uuid;not null;uniqueIndex:idx_room_member"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_room_member"`
	IsReady  bool      `json:"isReady" gorm:"not null;default:false"`
	JoinedAt time.Time `json:"joinedAt"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// DisplayName returns the member's user name, or an empty string if the user
// relation was not loaded.
func (m *RoomMember) DisplayName() string {
	if m.User == nil {
		return ""
	}
	return m.User.DisplayName
}

// AllReady reports whether every member has marked themselves ready.
func (r *Room) AllReady() bool {
	for _, m := range r.Members {
		if !m.IsReady {
			return false
		}
	}
	return true
}

func (r *Room) Member(userID uuid.UUID) *RoomMember {
	for _, m := range r.Members {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}
