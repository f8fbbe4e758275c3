package game

import "sync"

// Repository is the only place the engine reads or writes state. It never
// keeps a reference between calls.
type Repository interface {
	GetState() GameState
	SetState(GameState)
}

// Progression evaluates unlock rules after each closed day and returns the
// possibly updated state plus player-facing messages.
type Progression interface {
	Check(GameState) (GameState, []string)
}

type NopProgression struct{}

func (NopProgression) Check(s GameState) (GameState, []string) { return s, nil }

// MemoryRepository holds one snapshot. Reads and writes exchange clones so
// callers cannot alias the stored value.
type MemoryRepository struct {
	mu    sync.RWMutex
	state GameState
}

func NewMemoryRepository(s GameState) *MemoryRepository {
	return &MemoryRepository{state: s.Clone()}
}

func (r *MemoryRepository) GetState() GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

func (r *MemoryRepository) SetState(s GameState) {
	c := s.Clone()
	r.mu.Lock()
	r.state = c
	r.mu.Unlock()
}
