// Package domain holds the cross-domain primitives of the admissions
// workflow: typed entity ids and actor roles. IDs are distinct types over
// uuid.UUID so an ApplicationID can never be passed where a StudentID is
// expected; construct them via the Parse functions at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "connect2uni/pkg/domain-errors"
)

type (
	ApplicationID uuid.UUID
	StudentID     uuid.UUID
	AgencyID      uuid.UUID
	UniversityID  uuid.UUID
	CourseID      uuid.UUID
	AgentID       uuid.UUID
	AssociateID   uuid.UUID
	SolicitorID   uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s id cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "invalid %s id", kind)
	}
	return u, nil
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application")
	return ApplicationID(u), err
}

func ParseStudentID(s string) (StudentID, error) {
	u, err := parseUUID(s, "student")
	return StudentID(u), err
}

func ParseAgencyID(s string) (AgencyID, error) {
	u, err := parseUUID(s, "agency")
	return AgencyID(u), err
}

func ParseUniversityID(s string) (UniversityID, error) {
	u, err := parseUUID(s, "university")
	return UniversityID(u), err
}

func ParseCourseID(s string) (CourseID, error) {
	u, err := parseUUID(s, "course")
	return CourseID(u), err
}

func ParseAgentID(s string) (AgentID, error) {
	u, err := parseUUID(s, "agent")
	return AgentID(u), err
}

func ParseAssociateID(s string) (AssociateID, error) {
	u, err := parseUUID(s, "associate")
	return AssociateID(u), err
}

func ParseSolicitorID(s string) (SolicitorID, error) {
	u, err := parseUUID(s, "solicitor")
	return SolicitorID(u), err
}

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id StudentID) String() string     { return uuid.UUID(id).String() }
func (id AgencyID) String() string      { return uuid.UUID(id).String() }
func (id UniversityID) String() string  { return uuid.UUID(id).String() }
func (id CourseID) String() string      { return uuid.UUID(id).String() }
func (id AgentID) String() string       { return uuid.UUID(id).String() }
func (id AssociateID) String() string   { return uuid.UUID(id).String() }
func (id SolicitorID) String() string   { return uuid.UUID(id).String() }

func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id StudentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id AgencyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UniversityID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CourseID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AgentID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AssociateID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SolicitorID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
