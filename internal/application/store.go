package application

import (
	"context"

	"github.com/google/uuid"

	"connect2uni/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=../../mocks/application_store_mock.go -package=mocks

// DocumentsUpdate is a partial update of the student-editable fields. Nil
// fields are left untouched.
type DocumentsUpdate struct {
	Grades       *string
	FinancialAid *bool
	Documents    []string
	Notes        *string
}

// Store persists applications and the placement index. Conditional mutations
// are compare-and-swap on the current row state and return sentinel errors
// when the condition does not hold, so concurrent transitions resolve with
// exactly one winner.
type Store interface {
	Insert(ctx context.Context, app *Application) error
	// Get returns the application regardless of its soft-delete flag; the
	// caller decides visibility.
	Get(ctx context.Context, id domain.ApplicationID) (*Application, error)
	// FindByStudentCourse resolves the duplicate-application guard. It sees
	// soft-deleted rows too: a rejected course stays rejected.
	FindByStudentCourse(ctx context.Context, studentID domain.StudentID, courseID domain.CourseID) (*Application, error)
	CountAcceptedByStudent(ctx context.Context, studentID domain.StudentID) (int, error)
	ListByStudent(ctx context.Context, studentID domain.StudentID, status *Status) ([]*Application, error)

	UpdateDocuments(ctx context.Context, id domain.ApplicationID, upd DocumentsUpdate) error

	// MarkAccepted flips Processing -> Accepted, stamps the review date and
	// optionally appends an acceptance-letter reference to extraDocuments.
	// ErrInvalidState when the row is not Processing.
	MarkAccepted(ctx context.Context, id domain.ApplicationID, attachmentURL string) error
	// MarkRejected flips Processing -> Rejected with the reason. softDelete
	// additionally sets the soft-delete flag (university path only).
	MarkRejected(ctx context.Context, id domain.ApplicationID, reason string, softDelete bool) error
	// MarkWithdrawn flips Processing -> Withdrawn.
	MarkWithdrawn(ctx context.Context, id domain.ApplicationID) error

	// AppendAgent adds the agent to assignedAgent; re-adding is a no-op.
	AppendAgent(ctx context.Context, id domain.ApplicationID, agentID domain.AgentID) error
	// SetAssignedSolicitor sets the monotonic back-reference and forces the
	// status to Accepted. ErrConflict when a solicitor is already set.
	SetAssignedSolicitor(ctx context.Context, id domain.ApplicationID, solicitorID domain.SolicitorID) error

	// InsertPlacement adds the application to a pool. ErrConflict when the
	// application already has a placement in the category's group.
	InsertPlacement(ctx context.Context, p Placement) error
	// MovePlacement advances a placement from one category to another within
	// its group, conditionally on the current category and holder.
	// ErrConflict when the row is not at `from` under that holder.
	MovePlacement(ctx context.Context, id domain.ApplicationID, from, to StageCategory, holder uuid.UUID) error
	// DeletePlacement removes the group's row conditionally on its current
	// category. ErrNotFound when no such row exists.
	DeletePlacement(ctx context.Context, id domain.ApplicationID, stage StageCategory) error
	GetPlacement(ctx context.Context, id domain.ApplicationID, group StageGroup) (*Placement, error)
	ListPlacements(ctx context.Context, stage StageCategory, holder uuid.UUID) ([]*Placement, error)
}
