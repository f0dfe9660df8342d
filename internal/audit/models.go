// Package audit records every workflow transition as an event. Events are
// appended in the same transaction as the transition they describe and
// drained to Kafka by a background worker, so the event stream never claims
// a transition that did not commit.
package audit

import (
	"time"

	"github.com/google/uuid"

	"connect2uni/pkg/domain"
)

// Event is one workflow transition. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	ID            uuid.UUID            `json:"id"`
	OccurredAt    time.Time            `json:"occurred_at"`
	ApplicationID domain.ApplicationID `json:"application_id"`
	ActorRole     string               `json:"actor_role"`
	ActorID       uuid.UUID            `json:"actor_id"`
	Action        string               `json:"action"`
	Detail        map[string]string    `json:"detail,omitempty"`
}

// Actions emitted by the workflow services.
const (
	ActionApplicationFiled      = "application.filed"
	ActionApplicationForwarded  = "application.forwarded"
	ActionApplicationAccepted   = "application.accepted"
	ActionApplicationRejected   = "application.rejected"
	ActionApplicationWithdrawn  = "application.withdrawn"
	ActionAgentAssigned         = "application.agent_assigned"
	ActionSolicitorRequested    = "solicitor.requested"
	ActionSolicitorRouted       = "solicitor.routed_to_associate"
	ActionSolicitorAssigned     = "solicitor.assigned"
	ActionSolicitorRejected     = "solicitor.rejected_by_associate"
	ActionSolicitorCaseApproved = "solicitor.case_approved"
)
