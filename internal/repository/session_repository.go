package repository

import (
	"sync"

	"go-card-extractor/pkg/models"
)

// defaultSessionCap bounds the in-memory session store; the oldest session is
// evicted when a new one would exceed it.
const defaultSessionCap = 32

// InMemorySessionRepository keeps recent sessions in a mutex-guarded map.
// There is no persistence: a session only needs to outlive the export clicks
// that follow its extraction run.
type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	order    []string // insertion order for eviction
	cap      int
}

// NewInMemorySessionRepository creates a store with the default capacity
func NewInMemorySessionRepository() SessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]*models.Session),
		cap:      defaultSessionCap,
	}
}

func (r *InMemorySessionRepository) Save(session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; !exists {
		r.order = append(r.order, session.ID)
		for len(r.order) > r.cap {
			evicted := r.order[0]
			r.order = r.order[1:]
			delete(r.sessions, evicted)
		}
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *InMemorySessionRepository) Get(id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
