package domain

import (
	"errors"
	"fmt"
)

// Match rule errors. Callers wrap these with context via fmt.Errorf("%w: ...")
// and classify them with errors.Is.
var (
	ErrBadTiming        = errors.New("bad timing")
	ErrPermission       = errors.New("permission denied")
	ErrPartySize        = errors.New("invalid party size")
	ErrCardPool         = errors.New("card pool exhausted")
	ErrNotFound         = errors.New("not found")
	ErrInvalidTestimony = errors.New("invalid testimony")
	ErrInvalidAction    = errors.New("invalid action")
)

// Room errors
var (
	ErrRoomNotFound     = fmt.Errorf("room %w", ErrNotFound)
	ErrRoomFull         = fmt.Errorf("%w: room is full", ErrPartySize)
	ErrNotInRoom        = fmt.Errorf("%w: user is not in room", ErrPermission)
	ErrNotRoomHost      = fmt.Errorf("%w: only the room host can perform this action", ErrPermission)
	ErrPlayersNotReady  = fmt.Errorf("%w: not all players are ready", ErrBadTiming)
	ErrMatchInProgress  = fmt.Errorf("%w: room already has a match", ErrBadTiming)
	ErrMatchNotFound    = fmt.Errorf("match %w", ErrNotFound)
	ErrPlayerNotInMatch = fmt.Errorf("player %w in match", ErrNotFound)
)
