package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and single-node development.
// Conditional moves hold the mutex for the whole check-and-write.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[domain.ApplicationID]*Token
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[domain.ApplicationID]*Token)}
}

func (m *MemoryStore) File(_ context.Context, t Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.ApplicationID]; ok {
		return sentinel.ErrConflict
	}
	cp := t
	m.tokens[t.ApplicationID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id domain.ApplicationID) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) MoveToAssociate(_ context.Context, id domain.ApplicationID, agencyID uuid.UUID, associateID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	inAgencyPool := t.Stage == StageAgency && t.HolderID == agencyID
	if !inAgencyPool && t.Stage != StageNone {
		return false, sentinel.ErrConflict
	}
	first := !t.EverAssigned
	t.Stage = StageAssociate
	t.HolderID = associateID
	t.EverAssigned = true
	return first, nil
}

func (m *MemoryStore) MoveToSolicitor(_ context.Context, id domain.ApplicationID, solicitorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.Stage != StageAssociate {
		return sentinel.ErrConflict
	}
	t.Stage = StageSolicitor
	t.HolderID = solicitorID
	return nil
}

func (m *MemoryStore) Drop(_ context.Context, id domain.ApplicationID, associateID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.Stage != StageAssociate || t.HolderID != associateID {
		return sentinel.ErrConflict
	}
	t.Stage = StageNone
	t.HolderID = uuid.Nil
	return nil
}

func (m *MemoryStore) ListByHolder(_ context.Context, stage Stage, holder uuid.UUID) ([]*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Token
	for _, t := range m.tokens {
		if t.Stage == stage && t.HolderID == holder {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ApplicationID.String() < out[j].ApplicationID.String()
	})
	return out, nil
}

func (m *MemoryStore) Complete(_ context.Context, id domain.ApplicationID, solicitorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.Stage != StageSolicitor || t.HolderID != solicitorID {
		return sentinel.ErrConflict
	}
	delete(m.tokens, id)
	return nil
}
