// Package directory is the entity store for the people and institutions the
// admissions workflow coordinates: students, the agency pool, universities,
// agents, associates, and solicitors, plus the course catalog entries
// applications reference. Records here are never physically deleted, only
// soft-flagged.
package directory

import (
	"time"

	"connect2uni/pkg/domain"
)

type Student struct {
	ID        domain.StudentID
	FirstName string
	LastName  string
	Email     string
	// SolicitorService gates the visa-assistance workflow; it flips to true
	// when the payment boundary confirms the service purchase.
	SolicitorService bool
	IsDeleted        bool
	CreatedAt        time.Time
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

type Agency struct {
	ID    domain.AgencyID
	Name  string
	Email string
	// IsDefault marks the well-known agency every student application routes
	// through. Exactly one agency carries it.
	IsDefault bool
	IsDeleted bool
	CreatedAt time.Time
}

type University struct {
	ID        domain.UniversityID
	Name      string
	Email     string
	Country   string
	IsDeleted bool
	CreatedAt time.Time
}

type Agent struct {
	ID     domain.AgentID
	Name   string
	Email  string
	Agency domain.AgencyID
}

type Associate struct {
	ID        domain.AssociateID
	Name      string
	Email     string
	Phone     string
	IsDeleted bool
	CreatedAt time.Time
}

type Solicitor struct {
	ID        domain.SolicitorID
	FirstName string
	LastName  string
	Email     string
	// Associate references the associate that created this solicitor. Only
	// that associate may route requests to it.
	Associate domain.AssociateID
	IsDeleted bool
	CreatedAt time.Time
}

func (s *Solicitor) FullName() string {
	return s.FirstName + " " + s.LastName
}

type CourseStatus string

const (
	CourseActive   CourseStatus = "Active"
	CourseInactive CourseStatus = "Inactive"
)

type Course struct {
	ID         domain.CourseID
	University domain.UniversityID
	Name       string
	Status     CourseStatus
}
