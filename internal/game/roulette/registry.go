package roulette

import "sync"

// Registry indexes live sessions by id, by channel and by player. It enforces
// one live game per channel and one live game per player. An index entry
// pointing at a resolved or missing session is stale: lookups delete it and
// report the key as free.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	byChannel map[int64]string
	byPlayer  map[int64]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		byChannel: make(map[int64]string),
		byPlayer:  make(map[int64]string),
	}
}

// live returns the session for id if it exists and is not closed.
// Callers must hold r.mu.
func (r *Registry) live(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	if !ok || s.Closed() {
		return nil, false
	}
	return s, true
}

// Register indexes a new session under its channel and its host.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byChannel[s.channelID]; ok {
		if _, live := r.live(id); live {
			return ErrChannelBusy
		}
		r.pruneLocked(id)
	}
	if id, ok := r.byPlayer[s.hostID]; ok {
		if _, live := r.live(id); live {
			return ErrPlayerAlreadyInGame
		}
		r.pruneLocked(id)
	}

	r.sessions[s.id] = s
	r.byChannel[s.channelID] = s.id
	r.byPlayer[s.hostID] = s.id
	return nil
}

// Claim maps a joining player to a session.
func (r *Registry) Claim(playerID int64, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live(sessionID); !ok {
		return ErrGameNotFound
	}
	if id, ok := r.byPlayer[playerID]; ok {
		if _, live := r.live(id); live {
			if id == sessionID {
				return ErrDuplicateJoin
			}
			return ErrPlayerAlreadyInGame
		}
		r.pruneLocked(id)
	}
	r.byPlayer[playerID] = sessionID
	return nil
}

// Unclaim undoes a Claim whose join did not go through.
func (r *Registry) Unclaim(playerID int64, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byPlayer[playerID] == sessionID {
		delete(r.byPlayer, playerID)
	}
}

// Get returns a live session by id.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	return r.lookup(func() (string, bool) {
		_, ok := r.sessions[sessionID]
		return sessionID, ok
	})
}

// ByChannel returns the live session of a channel.
func (r *Registry) ByChannel(channelID int64) (*Session, bool) {
	return r.lookup(func() (string, bool) {
		id, ok := r.byChannel[channelID]
		return id, ok
	})
}

// ByPlayer returns the live session a player belongs to.
func (r *Registry) ByPlayer(playerID int64) (*Session, bool) {
	return r.lookup(func() (string, bool) {
		id, ok := r.byPlayer[playerID]
		return id, ok
	})
}

func (r *Registry) lookup(index func() (string, bool)) (*Session, bool) {
	r.mu.RLock()
	id, ok := index()
	if !ok {
		r.mu.RUnlock()
		return nil, false
	}
	if s, live := r.live(id); live {
		r.mu.RUnlock()
		return s, true
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check under the write lock; the entry may have been replaced meanwhile.
	if id, ok = index(); !ok {
		return nil, false
	}
	if s, live := r.live(id); live {
		return s, true
	}
	r.pruneLocked(id)
	return nil, false
}

// Release removes every entry that points at the session.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked(sessionID)
}

func (r *Registry) pruneLocked(sessionID string) {
	delete(r.sessions, sessionID)
	for ch, id := range r.byChannel {
		if id == sessionID {
			delete(r.byChannel, ch)
		}
	}
	for p, id := range r.byPlayer {
		if id == sessionID {
			delete(r.byPlayer, p)
		}
	}
}

// Len returns the number of indexed sessions, stale ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
