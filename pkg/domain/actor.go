package domain

import "github.com/google/uuid"

// Actor is the authenticated caller: a role tag plus the id of the entity
// acting. It replaces per-request probing of five collections with a value
// resolved once from the access token.
type Actor struct {
	Role Role
	ID   uuid.UUID
}

func (a Actor) IsZero() bool { return a.Role == "" || a.ID == uuid.Nil }
