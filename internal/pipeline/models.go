// Package pipeline routes a solicitor-service request through the three-tier
// hand-off: agency pool -> associate -> solicitor. The token is the
// application id; it lives in exactly one holder's queue at a time, enforced
// by conditional writes on the single pipeline row per application.
package pipeline

import (
	"github.com/google/uuid"

	"connect2uni/pkg/domain"
)

type Stage string

const (
	StageAgency    Stage = "agency"
	StageAssociate Stage = "associate"
	StageSolicitor Stage = "solicitor"
	// StageNone is the tombstone left by an associate reject: the token has
	// no holder, but the row survives to remember EverAssigned so re-routing
	// does not re-fire the first-assignment notification.
	StageNone Stage = "none"
)

// Token is the pipeline row for one application.
type Token struct {
	ApplicationID domain.ApplicationID
	Stage         Stage
	// HolderID is the queue owner at the current stage: the agency, the
	// associate, or the solicitor. Zero when Stage is none.
	HolderID uuid.UUID
	// EverAssigned flips to true on the first-ever associate assignment and
	// never back. It gates the "request approved" notification.
	EverAssigned bool
}
