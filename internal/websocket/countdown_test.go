package websocket

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCountdownManager_Fires(t *testing.T) {
	cm := NewCountdownManager()
	matchID := uuid.New()
	fired := make(chan struct{})

	assert.True(t, cm.Schedule(matchID, 10*time.Millisecond, func() { close(fired) }))
	assert.True(t, cm.Pending(matchID))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("countdown did not fire")
	}
	assert.Eventually(t, func() bool { return !cm.Pending(matchID) }, time.Second, 5*time.Millisecond)
}

func TestCountdownManager_OnePerMatch(t *testing.T) {
	cm := NewCountdownManager()
	matchID := uuid.New()
	var count atomic.Int32

	assert.True(t, cm.Schedule(matchID, 20*time.Millisecond, func() { count.Add(1) }))
	assert.False(t, cm.Schedule(matchID, 20*time.Millisecond, func() { count.Add(1) }))

	assert.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 1, count.Load())

	// a fired countdown can be scheduled again
	assert.True(t, cm.Schedule(matchID, time.Millisecond, func() { count.Add(1) }))
	assert.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestCountdownManager_Cancel(t *testing.T) {
	cm := NewCountdownManager()
	matchID := uuid.New()
	var fired atomic.Bool

	cm.Schedule(matchID, 20*time.Millisecond, func() { fired.Store(true) })
	assert.True(t, cm.Cancel(matchID))
	assert.False(t, cm.Cancel(matchID))
	assert.False(t, cm.Pending(matchID))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestCountdownManager_StopAll(t *testing.T) {
	cm := NewCountdownManager()
	var fired atomic.Int32
	for i := 0; i < 3; i++ {
		cm.Schedule(uuid.New(), 20*time.Millisecond, func() { fired.Add(1) })
	}

	cm.StopAll()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
