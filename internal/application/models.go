// Package application owns the admission application lifecycle: the status
// state machine (Processing -> Accepted | Rejected | Withdrawn) and the
// placement index that tracks which pool an application sits in on its way
// from the agency to a university. All multi-row transitions run inside one
// transaction; notification and email side effects fire after commit and are
// best-effort.
package application

import (
	"time"

	"github.com/google/uuid"

	"connect2uni/pkg/domain"
)

type Status string

const (
	StatusProcessing Status = "Processing"
	StatusAccepted   Status = "Accepted"
	StatusRejected   Status = "Rejected"
	StatusWithdrawn  Status = "Withdrawn"
)

// Application is the central entity. Links to student, university, course and
// agency are immutable after creation. AssignedSolicitor is monotonic: set at
// most once, never cleared.
type Application struct {
	ID         domain.ApplicationID
	Student    domain.StudentID
	University domain.UniversityID
	Course     domain.CourseID
	Agency     domain.AgencyID

	Status            Status
	AssignedAgents    []domain.AgentID
	AssignedSolicitor *domain.SolicitorID

	Grades         string
	FinancialAid   bool
	Documents      []string
	ExtraDocuments []string

	Reason         string
	Notes          string
	SubmissionDate time.Time
	ReviewDate     *time.Time

	// IsDeleted is set by the university-initiated reject only. The agency
	// reject path deliberately leaves it false; the two paths stay distinct.
	IsDeleted bool
}

// StageCategory names the pool a placement row puts an application in.
// Categories split into two groups that evolve independently: the agency
// group (pending -> sent) and the university group (pending -> approved).
type StageCategory string

const (
	StageAgencyPending      StageCategory = "agency_pending"
	StageAgencySent         StageCategory = "agency_sent"
	StageUniversityPending  StageCategory = "university_pending"
	StageUniversityApproved StageCategory = "university_approved"
)

// StageGroup identifies which group a category belongs to. An application has
// at most one placement row per group.
type StageGroup string

const (
	GroupAgency     StageGroup = "agency"
	GroupUniversity StageGroup = "university"
)

func (s StageCategory) Group() StageGroup {
	switch s {
	case StageAgencyPending, StageAgencySent:
		return GroupAgency
	default:
		return GroupUniversity
	}
}

// Placement is one row of the placement index: the application's current
// stage within a group and the pool holder responsible for it there. It
// replaces the per-document membership lists the workflow used to scatter
// across agency and university records.
type Placement struct {
	ApplicationID domain.ApplicationID
	Stage         StageCategory
	HolderID      uuid.UUID
	// StudentID travels with the placement so pool listings can show the
	// applicant without joining the applications table.
	StudentID domain.StudentID
}
