package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type countdown struct {
	timer *time.Timer
	fire  func()
}

// CountdownManager runs at most one pending start countdown per match.
// A countdown that is cancelled before it fires never runs its callback,
// even if its timer already expired and is waiting on the lock.
type CountdownManager struct {
	mu      sync.Mutex
	pending map[uuid.UUID]*countdown
}

func NewCountdownManager() *CountdownManager {
	return &CountdownManager{
		pending: make(map[uuid.UUID]*countdown),
	}
}

// Schedule arranges for fire to run after d. It returns false, and schedules
// nothing, if a countdown for the match is already pending.
func (cm *CountdownManager) Schedule(matchID uuid.UUID, d time.Duration, fire func()) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.pending[matchID]; exists {
		return false
	}

	cd := &countdown{fire: fire}
	cd.timer = time.AfterFunc(d, func() {
		cm.mu.Lock()
		current, ok := cm.pending[matchID]
		if !ok || current != cd {
			cm.mu.Unlock()
			return
		}
		delete(cm.pending, matchID)
		cm.mu.Unlock()

		cd.fire()
	})
	cm.pending[matchID] = cd
	return true
}

// Cancel stops the match's countdown and reports whether one was pending.
func (cm *CountdownManager) Cancel(matchID uuid.UUID) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cd, ok := cm.pending[matchID]
	if !ok {
		return false
	}
	cd.timer.Stop()
	delete(cm.pending, matchID)
	return true
}

func (cm *CountdownManager) Pending(matchID uuid.UUID) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	_, ok := cm.pending[matchID]
	return ok
}

// StopAll cancels every pending countdown.
func (cm *CountdownManager) StopAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for id, cd := range cm.pending {
		cd.timer.Stop()
		delete(cm.pending, id)
	}
}
