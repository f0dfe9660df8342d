package directory

import (
	"context"
	"sync"

	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and single-node development.
type MemoryStore struct {
	mu            sync.RWMutex
	students      map[domain.StudentID]*Student
	agencies      map[domain.AgencyID]*Agency
	universities  map[domain.UniversityID]*University
	agents        map[domain.AgentID]*Agent
	associates    map[domain.AssociateID]*Associate
	solicitors    map[domain.SolicitorID]*Solicitor
	courses       map[domain.CourseID]*Course
	agentStudents map[domain.AgentID]map[domain.StudentID]struct{}
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:      make(map[domain.StudentID]*Student),
		agencies:      make(map[domain.AgencyID]*Agency),
		universities:  make(map[domain.UniversityID]*University),
		agents:        make(map[domain.AgentID]*Agent),
		associates:    make(map[domain.AssociateID]*Associate),
		solicitors:    make(map[domain.SolicitorID]*Solicitor),
		courses:       make(map[domain.CourseID]*Course),
		agentStudents: make(map[domain.AgentID]map[domain.StudentID]struct{}),
	}
}

func (m *MemoryStore) PutStudent(s *Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.students[s.ID] = &cp
}

func (m *MemoryStore) PutAgency(a *Agency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.agencies[a.ID] = &cp
}

func (m *MemoryStore) PutUniversity(u *University) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.universities[u.ID] = &cp
}

func (m *MemoryStore) PutAgent(a *Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.agents[a.ID] = &cp
}

func (m *MemoryStore) PutAssociate(a *Associate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.associates[a.ID] = &cp
}

func (m *MemoryStore) PutSolicitor(s *Solicitor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.solicitors[s.ID] = &cp
}

func (m *MemoryStore) PutCourse(c *Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.courses[c.ID] = &cp
}

func (m *MemoryStore) GetStudent(_ context.Context, id domain.StudentID) (*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok || s.IsDeleted {
		return nil, sentinel.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) SetSolicitorService(_ context.Context, id domain.StudentID, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok || s.IsDeleted {
		return sentinel.ErrNotFound
	}
	s.SolicitorService = enabled
	return nil
}

func (m *MemoryStore) GetAgency(_ context.Context, id domain.AgencyID) (*Agency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agencies[id]
	if !ok || a.IsDeleted {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) DefaultAgency(_ context.Context) (*Agency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.agencies {
		if a.IsDefault && !a.IsDeleted {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *MemoryStore) GetUniversity(_ context.Context, id domain.UniversityID) (*University, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.universities[id]
	if !ok || u.IsDeleted {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetAgent(_ context.Context, id domain.AgentID) (*Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) LinkAgentStudent(_ context.Context, agentID domain.AgentID, studentID domain.StudentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[agentID]; !ok {
		return sentinel.ErrNotFound
	}
	set, ok := m.agentStudents[agentID]
	if !ok {
		set = make(map[domain.StudentID]struct{})
		m.agentStudents[agentID] = set
	}
	set[studentID] = struct{}{}
	return nil
}

func (m *MemoryStore) GetAssociate(_ context.Context, id domain.AssociateID) (*Associate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.associates[id]
	if !ok || a.IsDeleted {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) GetSolicitor(_ context.Context, id domain.SolicitorID) (*Solicitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.solicitors[id]
	if !ok || s.IsDeleted {
		return nil, sentinel.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) GetCourse(_ context.Context, id domain.CourseID) (*Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}
