package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect2uni/pkg/domain"
	dErrors "connect2uni/pkg/domain-errors"
)

func seedNotification(t *testing.T, store *MemoryStore, userID uuid.UUID, msg string, at time.Time) *Notification {
	t.Helper()
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   msg,
		Type:      TypeGeneral,
		CreatedAt: at,
	}
	require.NoError(t, store.Insert(context.Background(), n))
	return n
}

func TestService_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	userID := uuid.New()
	actor := domain.Actor{Role: domain.RoleStudent, ID: userID}

	base := time.Now()
	seedNotification(t, store, userID, "oldest", base.Add(-2*time.Hour))
	seedNotification(t, store, userID, "newest", base)
	seedNotification(t, store, userID, "middle", base.Add(-time.Hour))
	seedNotification(t, store, uuid.New(), "someone else's", base)

	items, err := svc.List(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "newest", items[0].Message)
	assert.Equal(t, "middle", items[1].Message)
	assert.Equal(t, "oldest", items[2].Message)
}

func TestService_OwnershipEnforced(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	owner := uuid.New()
	n := seedNotification(t, store, owner, "private", time.Now())

	intruder := domain.Actor{Role: domain.RoleStudent, ID: uuid.New()}

	_, err := svc.Get(context.Background(), intruder, n.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	err = svc.MarkRead(context.Background(), intruder, n.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	err = svc.Delete(context.Background(), intruder, n.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	// untouched
	got, err := svc.Get(context.Background(), domain.Actor{Role: domain.RoleStudent, ID: owner}, n.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRead)
}

func TestService_MarkReadAndDelete(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	userID := uuid.New()
	actor := domain.Actor{Role: domain.RoleUniversity, ID: userID}
	n := seedNotification(t, store, userID, "decision posted", time.Now())

	require.NoError(t, svc.MarkRead(context.Background(), actor, n.ID))
	got, err := svc.Get(context.Background(), actor, n.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	require.NoError(t, svc.Delete(context.Background(), actor, n.ID))
	_, err = svc.Get(context.Background(), actor, n.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestService_MissingNotification(t *testing.T) {
	svc := NewService(NewMemoryStore())
	actor := domain.Actor{Role: domain.RoleStudent, ID: uuid.New()}

	_, err := svc.Get(context.Background(), actor, uuid.New())
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	err = svc.MarkRead(context.Background(), actor, uuid.New())
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
