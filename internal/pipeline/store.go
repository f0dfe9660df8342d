package pipeline

import (
	"context"

	"github.com/google/uuid"

	"connect2uni/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=../../mocks/pipeline_store_mock.go -package=mocks

// Store persists pipeline tokens. Every move is a compare-and-swap on the
// current stage (and holder where the stage implies one); a move whose
// condition does not hold returns sentinel.ErrConflict, so concurrent
// assignments resolve with exactly one winner.
type Store interface {
	// File inserts the token at stage agency. ErrConflict when a row already
	// exists for the application, tombstone included.
	File(ctx context.Context, t Token) error
	Get(ctx context.Context, id domain.ApplicationID) (*Token, error)

	// MoveToAssociate hands the token to an associate. The condition accepts
	// either the agency pool (held by the given agency) or the tombstone left
	// by an associate reject. Returns whether this was the first-ever
	// associate assignment; the flag flips in the same write.
	MoveToAssociate(ctx context.Context, id domain.ApplicationID, agencyID uuid.UUID, associateID uuid.UUID) (first bool, err error)
	// MoveToSolicitor hands the token from the associate stage to a
	// solicitor. The condition keys on the stage alone, so a stale holder can
	// never leave a second copy behind.
	MoveToSolicitor(ctx context.Context, id domain.ApplicationID, solicitorID uuid.UUID) error
	// Drop tombstones the token: stage none, no holder, EverAssigned kept.
	// Conditional on the acting associate holding it.
	Drop(ctx context.Context, id domain.ApplicationID, associateID uuid.UUID) error
	// Complete deletes the token, conditional on the acting solicitor
	// holding it. The pipeline terminates here.
	Complete(ctx context.Context, id domain.ApplicationID, solicitorID uuid.UUID) error

	// ListByHolder returns the tokens a holder currently has at a stage.
	ListByHolder(ctx context.Context, stage Stage, holder uuid.UUID) ([]*Token, error)
}
