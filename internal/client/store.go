package client

import "sync"

// Action is a client-side event fed to a reducer. The set of actions is
// closed: only types in this package implement it.
type Action interface {
	action()
}

// Reducer computes the next state. It must not mutate its input.
type Reducer[S any] func(S, Action) S

// Store holds the current state and notifies subscribers after every
// dispatch. Listeners run outside the lock and may dispatch again; they see
// states in the order they were committed, one goroutine at a time.
type Store[S any] struct {
	mu        sync.RWMutex
	state     S
	reduce    Reducer[S]
	listeners map[int]func(S)
	nextID    int

	queue      []S
	delivering bool
}

func NewStore[S any](initial S, reduce Reducer[S]) *Store[S] {
	return &Store[S]{
		state:     initial,
		reduce:    reduce,
		listeners: make(map[int]func(S)),
	}
}

func (s *Store[S]) GetState() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store[S]) Subscribe(fn func(S)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Dispatch commits the next state and returns it. If another dispatch is
// already notifying listeners, the new state is queued behind it and this
// call returns without waiting.
func (s *Store[S]) Dispatch(a Action) S {
	s.mu.Lock()
	next := s.reduce(s.state, a)
	s.state = next
	s.queue = append(s.queue, next)
	if s.delivering {
		s.mu.Unlock()
		return next
	}
	s.delivering = true
	s.mu.Unlock()

	s.deliver()
	return next
}

func (s *Store[S]) deliver() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.delivering = false
			s.mu.Unlock()
			return
		}
		state := s.queue[0]
		s.queue = s.queue[1:]
		listeners := make([]func(S), 0, len(s.listeners))
		for _, fn := range s.listeners {
			listeners = append(listeners, fn)
		}
		s.mu.Unlock()

		for _, fn := range listeners {
			fn(state)
		}
	}
}
