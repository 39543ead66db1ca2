package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxDisplayNameLength bounds names shown on the table, in runes.
const MaxDisplayNameLength = 24

// SessionTTL is how long a refresh token stays usable.
const SessionTTL = 7 * 24 * time.Hour

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PasswordHash string    `json:"-" gorm:"not null"`
	DisplayName  string    `json:"displayName" gorm:"uniqueIndex;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ValidateDisplayName checks a name before it is stored. The name is what
// other players see next to the seat, so it has to be printable and short.
func ValidateDisplayName(name string) error {
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: display name has leading or trailing spaces", ErrInvalidAction)
	}
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxDisplayNameLength {
		return fmt.Errorf("%w: display name must be 1 to %d characters", ErrInvalidAction, MaxDisplayNameLength)
	}
	return nil
}

// UserSession holds the hash of the one refresh token a user may redeem.
type UserSession struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	RefreshTokenHash string    `json:"-" gorm:"not null"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (s *UserSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Presence is where a user currently sits: the room they joined last and,
// once its match is dealt, their seat in it. A client that lost its
// connection uses it to find the match to catch up on.
type Presence struct {
	RoomID   uuid.UUID  `json:"roomId"`
	MatchID  *uuid.UUID `json:"matchId,omitempty"`
	PlayerID *uuid.UUID `json:"playerId,omitempty"`
	Phase    *Phase     `json:"phase,omitempty"`
}

// Seated reports whether the user holds a seat in a running match.
func (p *Presence) Seated() bool {
	return p != nil && p.PlayerID != nil
}
