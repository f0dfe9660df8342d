package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect2uni/internal/application"
	"connect2uni/internal/directory"
	"connect2uni/internal/email"
	"connect2uni/internal/notification"
	"connect2uni/pkg/domain"
	dErrors "connect2uni/pkg/domain-errors"
	"connect2uni/pkg/platform/tx"
)

type sentNotification struct {
	UserID  uuid.UUID
	Message string
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (c *captureNotifier) Dispatch(_ context.Context, userID uuid.UUID, _ notification.Type, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentNotification{UserID: userID, Message: message})
	return nil
}

type captureMailer struct {
	sent []email.Message
}

func (c *captureMailer) Send(_ context.Context, msg email.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

type fixture struct {
	svc       *Service
	store     *MemoryStore
	apps      *application.MemoryStore
	dir       *directory.MemoryStore
	notifier  *captureNotifier
	mailer    *captureMailer
	student   domain.StudentID
	agency    domain.AgencyID
	assocA    domain.AssociateID
	assocB    domain.AssociateID
	solicitor domain.SolicitorID // created by assocB
	app       domain.ApplicationID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     NewMemoryStore(),
		apps:      application.NewMemoryStore(),
		dir:       directory.NewMemoryStore(),
		notifier:  &captureNotifier{},
		mailer:    &captureMailer{},
		student:   domain.StudentID(uuid.New()),
		agency:    domain.AgencyID(uuid.New()),
		assocA:    domain.AssociateID(uuid.New()),
		assocB:    domain.AssociateID(uuid.New()),
		solicitor: domain.SolicitorID(uuid.New()),
		app:       domain.ApplicationID(uuid.New()),
	}

	f.dir.PutStudent(&directory.Student{
		ID: f.student, FirstName: "Asha", LastName: "Rao",
		Email: "asha@example.com", SolicitorService: true,
	})
	f.dir.PutAgency(&directory.Agency{ID: f.agency, Name: "Head Office", IsDefault: true})
	f.dir.PutAssociate(&directory.Associate{ID: f.assocA, Name: "Associate A"})
	f.dir.PutAssociate(&directory.Associate{ID: f.assocB, Name: "Associate B"})
	f.dir.PutSolicitor(&directory.Solicitor{
		ID: f.solicitor, FirstName: "Rohan", LastName: "Mehta",
		Email: "rohan@example.com", Associate: f.assocB,
	})

	require.NoError(t, f.apps.Insert(context.Background(), &application.Application{
		ID:             f.app,
		Student:        f.student,
		University:     domain.UniversityID(uuid.New()),
		Course:         domain.CourseID(uuid.New()),
		Agency:         f.agency,
		Status:         application.StatusAccepted,
		SubmissionDate: time.Now(),
	}))

	f.svc = NewService(f.store, f.apps, f.dir, tx.NewShardedRunner(),
		f.notifier, f.mailer, nil, slog.Default(), nil)
	return f
}

func (f *fixture) approvedCount() int {
	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	count := 0
	for _, n := range f.notifier.sent {
		if strings.Contains(n.Message, "approved") {
			count++
		}
	}
	return count
}

func TestFileRequest(t *testing.T) {
	t.Run("files into the agency pool", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.FileRequest(context.Background(), f.app, f.student))

		token, err := f.store.Get(context.Background(), f.app)
		require.NoError(t, err)
		assert.Equal(t, StageAgency, token.Stage)
		assert.Equal(t, uuid.UUID(f.agency), token.HolderID)
		assert.False(t, token.EverAssigned)
	})

	t.Run("duplicate request is rejected", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.FileRequest(context.Background(), f.app, f.student))
		err := f.svc.FileRequest(context.Background(), f.app, f.student)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})

	t.Run("requires the solicitor service gate", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.dir.SetSolicitorService(context.Background(), f.student, false))
		err := f.svc.FileRequest(context.Background(), f.app, f.student)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("requires an accepted application", func(t *testing.T) {
		f := newFixture(t)
		pending := domain.ApplicationID(uuid.New())
		require.NoError(t, f.apps.Insert(context.Background(), &application.Application{
			ID: pending, Student: f.student, Agency: f.agency,
			Status: application.StatusProcessing,
		}))
		err := f.svc.FileRequest(context.Background(), pending, f.student)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
		assert.Contains(t, dErrors.MessageOf(err), "Processing")
	})

	t.Run("requires ownership", func(t *testing.T) {
		f := newFixture(t)
		other := domain.StudentID(uuid.New())
		f.dir.PutStudent(&directory.Student{ID: other, FirstName: "Eve", SolicitorService: true})
		err := f.svc.FileRequest(context.Background(), f.app, other)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func TestAssignToAssociate_FirstAssignmentNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.FileRequest(ctx, f.app, f.student))

	require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocA, f.agency))
	assert.Equal(t, 1, f.approvedCount())

	// A rejects, the token goes holderless
	require.NoError(t, f.svc.RejectByAssociate(ctx, f.app, f.assocA))
	token, err := f.store.Get(ctx, f.app)
	require.NoError(t, err)
	assert.Equal(t, StageNone, token.Stage)
	assert.True(t, token.EverAssigned)

	// re-routing to B must not fire the approved notification again
	require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocB, f.agency))
	assert.Equal(t, 1, f.approvedCount())
}

// Two agency clerks route the same request to different associates at once.
// Exactly one assignment may win, and the approved notification fires once.
func TestAssignToAssociate_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.FileRequest(ctx, f.app, f.student))

	results := make(chan error, 2)
	for _, assoc := range []domain.AssociateID{f.assocA, f.assocB} {
		go func(assoc domain.AssociateID) {
			results <- f.svc.AssignToAssociate(ctx, f.app, assoc, f.agency)
		}(assoc)
	}

	var wins, conflicts int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			wins++
		case dErrors.Is(err, dErrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, f.approvedCount())

	token, err := f.store.Get(ctx, f.app)
	require.NoError(t, err)
	assert.Equal(t, StageAssociate, token.Stage)
	assertSingleHolder(t, f)
}

func TestAssignToAssociate_Guards(t *testing.T) {
	t.Run("no request filed", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.AssignToAssociate(context.Background(), f.app, f.assocA, f.agency)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("associate already holds it", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		require.NoError(t, f.svc.FileRequest(ctx, f.app, f.student))
		require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocA, f.agency))

		err := f.svc.AssignToAssociate(ctx, f.app, f.assocA, f.agency)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})

	t.Run("unknown associate", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.FileRequest(context.Background(), f.app, f.student))
		err := f.svc.AssignToAssociate(context.Background(), f.app, domain.AssociateID(uuid.New()), f.agency)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func TestAssignToSolicitor_OwnershipGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.FileRequest(ctx, f.app, f.student))
	require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocA, f.agency))

	// solicitor belongs to B, caller is A
	err := f.svc.AssignToSolicitor(ctx, f.app, f.solicitor, f.assocA)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	// token untouched
	token, getErr := f.store.Get(ctx, f.app)
	require.NoError(t, getErr)
	assert.Equal(t, StageAssociate, token.Stage)
	assert.Equal(t, uuid.UUID(f.assocA), token.HolderID)
}

func TestApprove_MonotonicAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.FileRequest(ctx, f.app, f.student))
	require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocB, f.agency))
	require.NoError(t, f.svc.AssignToSolicitor(ctx, f.app, f.solicitor, f.assocB))
	require.NoError(t, f.svc.Approve(ctx, f.app, f.solicitor))

	app, err := f.apps.Get(ctx, f.app)
	require.NoError(t, err)
	require.NotNil(t, app.AssignedSolicitor)
	assert.Equal(t, f.solicitor, *app.AssignedSolicitor)
	assert.Equal(t, application.StatusAccepted, app.Status)

	// re-approval cannot change or clear the assignment
	err = f.svc.Approve(ctx, f.app, f.solicitor)
	assert.Error(t, err)
	app, getErr := f.apps.Get(ctx, f.app)
	require.NoError(t, getErr)
	assert.Equal(t, f.solicitor, *app.AssignedSolicitor)
}

// A rejection that arrives after the solicitor already approved must fail
// without disturbing the finished assignment.
func TestRejectByAssociate_AfterApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.FileRequest(ctx, f.app, f.student))
	require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocB, f.agency))
	require.NoError(t, f.svc.AssignToSolicitor(ctx, f.app, f.solicitor, f.assocB))
	require.NoError(t, f.svc.Approve(ctx, f.app, f.solicitor))

	err := f.svc.RejectByAssociate(ctx, f.app, f.assocB)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	app, getErr := f.apps.Get(ctx, f.app)
	require.NoError(t, getErr)
	require.NotNil(t, app.AssignedSolicitor)
	assert.Equal(t, f.solicitor, *app.AssignedSolicitor)
	assert.Equal(t, application.StatusAccepted, app.Status)
}

func TestStatusProbe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.svc.Status(ctx, f.app, f.student)
	require.NoError(t, err)
	assert.Equal(t, StateNotRequested, status.State)

	require.NoError(t, f.svc.FileRequest(ctx, f.app, f.student))
	status, err = f.svc.Status(ctx, f.app, f.student)
	require.NoError(t, err)
	assert.Equal(t, StateProcessingAgency, status.State)

	require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocB, f.agency))
	status, err = f.svc.Status(ctx, f.app, f.student)
	require.NoError(t, err)
	assert.Equal(t, StateProcessingAssociate, status.State)

	require.NoError(t, f.svc.AssignToSolicitor(ctx, f.app, f.solicitor, f.assocB))
	status, err = f.svc.Status(ctx, f.app, f.student)
	require.NoError(t, err)
	assert.Equal(t, StateProcessingSolicitor, status.State)

	require.NoError(t, f.svc.Approve(ctx, f.app, f.solicitor))
	status, err = f.svc.Status(ctx, f.app, f.student)
	require.NoError(t, err)
	assert.Equal(t, StateAssigned, status.State)
	assert.True(t, status.IsAssigned)
	require.NotNil(t, status.Solicitor)
	assert.Equal(t, f.solicitor, *status.Solicitor)
}

func TestStatusProbe_NotEnrolled(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.dir.SetSolicitorService(context.Background(), f.student, false))
	status, err := f.svc.Status(context.Background(), f.app, f.student)
	require.NoError(t, err)
	assert.Equal(t, StateNotEnrolled, status.State)
}

// TestRoutingScenario walks the full hand-off: file, assign to A, A rejects,
// re-assign to B, B assigns its solicitor, solicitor approves.
func TestRoutingScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.FileRequest(ctx, f.app, f.student))
	assertSingleHolder(t, f)

	require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocA, f.agency))
	assert.Equal(t, 1, f.approvedCount())
	assertSingleHolder(t, f)

	require.NoError(t, f.svc.RejectByAssociate(ctx, f.app, f.assocA))
	token, err := f.store.Get(ctx, f.app)
	require.NoError(t, err)
	assert.Equal(t, StageNone, token.Stage)

	require.NoError(t, f.svc.AssignToAssociate(ctx, f.app, f.assocB, f.agency))
	assert.Equal(t, 1, f.approvedCount(), "second routing must not re-fire the approved notification")
	assertSingleHolder(t, f)

	require.NoError(t, f.svc.AssignToSolicitor(ctx, f.app, f.solicitor, f.assocB))
	assertSingleHolder(t, f)

	// no associate holds it anymore
	for _, assoc := range []domain.AssociateID{f.assocA, f.assocB} {
		held, err := f.store.ListByHolder(ctx, StageAssociate, uuid.UUID(assoc))
		require.NoError(t, err)
		assert.Empty(t, held)
	}

	require.NoError(t, f.svc.Approve(ctx, f.app, f.solicitor))
	app, err := f.apps.Get(ctx, f.app)
	require.NoError(t, err)
	require.NotNil(t, app.AssignedSolicitor)
	assert.Equal(t, f.solicitor, *app.AssignedSolicitor)
	assert.Equal(t, application.StatusAccepted, app.Status)

	// pipeline terminated: token gone
	_, err = f.store.Get(ctx, f.app)
	assert.Error(t, err)

	// the student heard about the final assignment
	found := false
	for _, n := range f.notifier.sent {
		if n.UserID == uuid.UUID(f.student) && strings.Contains(n.Message, "Rohan Mehta") {
			found = true
		}
	}
	assert.True(t, found, "student should be told the solicitor was assigned")
}

// assertSingleHolder checks the single-holder invariant: the token appears in
// at most one queue across all stages and holders.
func assertSingleHolder(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	holders := 0
	for _, probe := range []struct {
		stage  Stage
		holder uuid.UUID
	}{
		{StageAgency, uuid.UUID(f.agency)},
		{StageAssociate, uuid.UUID(f.assocA)},
		{StageAssociate, uuid.UUID(f.assocB)},
		{StageSolicitor, uuid.UUID(f.solicitor)},
	} {
		held, err := f.store.ListByHolder(ctx, probe.stage, probe.holder)
		require.NoError(t, err)
		for _, tok := range held {
			if tok.ApplicationID == f.app {
				holders++
			}
		}
	}
	require.LessOrEqual(t, holders, 1, fmt.Sprintf("token held in %d places", holders))
}
