package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// Scanner/Valuer implementations so typed ids can be read from and written to
// SQL rows directly.

func (id *ApplicationID) Scan(src any) error { return (*uuid.UUID)(id).Scan(src) }
func (id *StudentID) Scan(src any) error     { return (*uuid.UUID)(id).Scan(src) }
func (id *AgencyID) Scan(src any) error      { return (*uuid.UUID)(id).Scan(src) }
func (id *UniversityID) Scan(src any) error  { return (*uuid.UUID)(id).Scan(src) }
func (id *CourseID) Scan(src any) error      { return (*uuid.UUID)(id).Scan(src) }
func (id *AgentID) Scan(src any) error       { return (*uuid.UUID)(id).Scan(src) }
func (id *AssociateID) Scan(src any) error   { return (*uuid.UUID)(id).Scan(src) }
func (id *SolicitorID) Scan(src any) error   { return (*uuid.UUID)(id).Scan(src) }

func (id ApplicationID) Value() (driver.Value, error) { return id.String(), nil }
func (id StudentID) Value() (driver.Value, error)     { return id.String(), nil }
func (id AgencyID) Value() (driver.Value, error)      { return id.String(), nil }
func (id UniversityID) Value() (driver.Value, error)  { return id.String(), nil }
func (id CourseID) Value() (driver.Value, error)      { return id.String(), nil }
func (id AgentID) Value() (driver.Value, error)       { return id.String(), nil }
func (id AssociateID) Value() (driver.Value, error)   { return id.String(), nil }
func (id SolicitorID) Value() (driver.Value, error)   { return id.String(), nil }
