package directory

import (
	"context"

	"connect2uni/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=../../mocks/directory_store_mock.go -package=mocks

// Store resolves directory records by id. Implementations return
// sentinel.ErrNotFound for missing or soft-deleted rows.
type Store interface {
	GetStudent(ctx context.Context, id domain.StudentID) (*Student, error)
	SetSolicitorService(ctx context.Context, id domain.StudentID, enabled bool) error

	GetAgency(ctx context.Context, id domain.AgencyID) (*Agency, error)
	DefaultAgency(ctx context.Context) (*Agency, error)

	GetUniversity(ctx context.Context, id domain.UniversityID) (*University, error)

	GetAgent(ctx context.Context, id domain.AgentID) (*Agent, error)
	// LinkAgentStudent records that an agent has been put in charge of a
	// student's application. Repeated links are idempotent.
	LinkAgentStudent(ctx context.Context, agentID domain.AgentID, studentID domain.StudentID) error

	GetAssociate(ctx context.Context, id domain.AssociateID) (*Associate, error)
	GetSolicitor(ctx context.Context, id domain.SolicitorID) (*Solicitor, error)

	GetCourse(ctx context.Context, id domain.CourseID) (*Course, error)
}
