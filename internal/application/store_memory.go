package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/sentinel"
)

type placementKey struct {
	app   domain.ApplicationID
	group StageGroup
}

// MemoryStore is an in-memory Store for tests and single-node development.
// Conditional mutations hold the store mutex for the whole check-and-write,
// so they are as atomic as their SQL counterparts.
type MemoryStore struct {
	mu         sync.RWMutex
	apps       map[domain.ApplicationID]*Application
	placements map[placementKey]*Placement
	now        func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:       make(map[domain.ApplicationID]*Application),
		placements: make(map[placementKey]*Placement),
		now:        time.Now,
	}
}

func copyApp(a *Application) *Application {
	cp := *a
	cp.AssignedAgents = append([]domain.AgentID(nil), a.AssignedAgents...)
	cp.Documents = append([]string(nil), a.Documents...)
	cp.ExtraDocuments = append([]string(nil), a.ExtraDocuments...)
	if a.AssignedSolicitor != nil {
		sol := *a.AssignedSolicitor
		cp.AssignedSolicitor = &sol
	}
	if a.ReviewDate != nil {
		rd := *a.ReviewDate
		cp.ReviewDate = &rd
	}
	return &cp
}

func (m *MemoryStore) Insert(_ context.Context, app *Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[app.ID]; ok {
		return sentinel.ErrConflict
	}
	m.apps[app.ID] = copyApp(app)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id domain.ApplicationID) (*Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyApp(a), nil
}

func (m *MemoryStore) FindByStudentCourse(_ context.Context, studentID domain.StudentID, courseID domain.CourseID) (*Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.apps {
		if a.Student == studentID && a.Course == courseID {
			return copyApp(a), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *MemoryStore) CountAcceptedByStudent(_ context.Context, studentID domain.StudentID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, a := range m.apps {
		if a.Student == studentID && a.Status == StatusAccepted {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) ListByStudent(_ context.Context, studentID domain.StudentID, status *Status) ([]*Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Application
	for _, a := range m.apps {
		if a.Student != studentID || a.IsDeleted {
			continue
		}
		if status != nil && a.Status != *status {
			continue
		}
		out = append(out, copyApp(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionDate.After(out[j].SubmissionDate) })
	return out, nil
}

func (m *MemoryStore) UpdateDocuments(_ context.Context, id domain.ApplicationID, upd DocumentsUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if upd.Grades != nil {
		a.Grades = *upd.Grades
	}
	if upd.FinancialAid != nil {
		a.FinancialAid = *upd.FinancialAid
	}
	if upd.Documents != nil {
		a.Documents = append([]string(nil), upd.Documents...)
	}
	if upd.Notes != nil {
		a.Notes = *upd.Notes
	}
	return nil
}

func (m *MemoryStore) MarkAccepted(_ context.Context, id domain.ApplicationID, attachmentURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.Status != StatusProcessing {
		return sentinel.ErrInvalidState
	}
	a.Status = StatusAccepted
	rd := m.now().UTC()
	a.ReviewDate = &rd
	if attachmentURL != "" {
		a.ExtraDocuments = append(a.ExtraDocuments, attachmentURL)
	}
	return nil
}

func (m *MemoryStore) MarkRejected(_ context.Context, id domain.ApplicationID, reason string, softDelete bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.Status != StatusProcessing {
		return sentinel.ErrInvalidState
	}
	a.Status = StatusRejected
	a.Reason = reason
	rd := m.now().UTC()
	a.ReviewDate = &rd
	if softDelete {
		a.IsDeleted = true
	}
	return nil
}

func (m *MemoryStore) MarkWithdrawn(_ context.Context, id domain.ApplicationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.Status != StatusProcessing {
		return sentinel.ErrInvalidState
	}
	a.Status = StatusWithdrawn
	return nil
}

func (m *MemoryStore) AppendAgent(_ context.Context, id domain.ApplicationID, agentID domain.AgentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range a.AssignedAgents {
		if existing == agentID {
			return nil
		}
	}
	a.AssignedAgents = append(a.AssignedAgents, agentID)
	return nil
}

func (m *MemoryStore) SetAssignedSolicitor(_ context.Context, id domain.ApplicationID, solicitorID domain.SolicitorID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.AssignedSolicitor != nil {
		return sentinel.ErrConflict
	}
	a.AssignedSolicitor = &solicitorID
	a.Status = StatusAccepted
	return nil
}

func (m *MemoryStore) InsertPlacement(_ context.Context, p Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := placementKey{app: p.ApplicationID, group: p.Stage.Group()}
	if _, ok := m.placements[key]; ok {
		return sentinel.ErrConflict
	}
	cp := p
	m.placements[key] = &cp
	return nil
}

func (m *MemoryStore) MovePlacement(_ context.Context, id domain.ApplicationID, from, to StageCategory, holder uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := placementKey{app: id, group: from.Group()}
	p, ok := m.placements[key]
	if !ok || p.Stage != from || p.HolderID != holder {
		return sentinel.ErrConflict
	}
	p.Stage = to
	return nil
}

func (m *MemoryStore) DeletePlacement(_ context.Context, id domain.ApplicationID, stage StageCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := placementKey{app: id, group: stage.Group()}
	p, ok := m.placements[key]
	if !ok || p.Stage != stage {
		return sentinel.ErrNotFound
	}
	delete(m.placements, key)
	return nil
}

func (m *MemoryStore) GetPlacement(_ context.Context, id domain.ApplicationID, group StageGroup) (*Placement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.placements[placementKey{app: id, group: group}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ListPlacements(_ context.Context, stage StageCategory, holder uuid.UUID) ([]*Placement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Placement
	for _, p := range m.placements {
		if p.Stage == stage && p.HolderID == holder {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ApplicationID.String() < out[j].ApplicationID.String()
	})
	return out, nil
}
