package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/sentinel"
)

func TestMemoryStore_StudentLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id := domain.StudentID(uuid.New())

	_, err := store.GetStudent(ctx, id)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	store.PutStudent(&Student{ID: id, FirstName: "Asha", LastName: "Rao", Email: "asha@example.com"})

	got, err := store.GetStudent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.FullName())
	assert.False(t, got.SolicitorService)

	require.NoError(t, store.SetSolicitorService(ctx, id, true))
	got, err = store.GetStudent(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.SolicitorService)
}

func TestMemoryStore_SetSolicitorServiceMissingStudent(t *testing.T) {
	store := NewMemoryStore()
	err := store.SetSolicitorService(context.Background(), domain.StudentID(uuid.New()), true)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStore_SoftDeletedRowsAreHidden(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	stuID := domain.StudentID(uuid.New())
	store.PutStudent(&Student{ID: stuID, FirstName: "Gone", IsDeleted: true})
	_, err := store.GetStudent(ctx, stuID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	uniID := domain.UniversityID(uuid.New())
	store.PutUniversity(&University{ID: uniID, Name: "Shuttered", IsDeleted: true})
	_, err = store.GetUniversity(ctx, uniID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStore_DefaultAgency(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.DefaultAgency(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	other := domain.AgencyID(uuid.New())
	store.PutAgency(&Agency{ID: other, Name: "Regional"})
	def := domain.AgencyID(uuid.New())
	store.PutAgency(&Agency{ID: def, Name: "Head Office", IsDefault: true})

	got, err := store.DefaultAgency(ctx)
	require.NoError(t, err)
	assert.Equal(t, def, got.ID)
}

func TestMemoryStore_LinkAgentStudent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	agentID := domain.AgentID(uuid.New())
	studentID := domain.StudentID(uuid.New())

	err := store.LinkAgentStudent(ctx, agentID, studentID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	store.PutAgent(&Agent{ID: agentID, Name: "Agent One", Agency: domain.AgencyID(uuid.New())})
	require.NoError(t, store.LinkAgentStudent(ctx, agentID, studentID))
	// repeat link is idempotent
	require.NoError(t, store.LinkAgentStudent(ctx, agentID, studentID))
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id := domain.StudentID(uuid.New())
	store.PutStudent(&Student{ID: id, FirstName: "Asha"})

	got, err := store.GetStudent(ctx, id)
	require.NoError(t, err)
	got.FirstName = "Mutated"

	again, err := store.GetStudent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Asha", again.FirstName)
}
