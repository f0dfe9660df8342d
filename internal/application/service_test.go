package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	sent []sentNotification
}

func (c *captureNotifier) Dispatch(_ context.Context, userID uuid.UUID, _ notification.Type, message string) error {
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
	svc        *Service
	store      *MemoryStore
	dir        *directory.MemoryStore
	notifier   *captureNotifier
	mailer     *captureMailer
	student    domain.StudentID
	agency     domain.AgencyID
	university domain.UniversityID
	course     domain.CourseID
	agent      domain.AgentID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      NewMemoryStore(),
		dir:        directory.NewMemoryStore(),
		notifier:   &captureNotifier{},
		mailer:     &captureMailer{},
		student:    domain.StudentID(uuid.New()),
		agency:     domain.AgencyID(uuid.New()),
		university: domain.UniversityID(uuid.New()),
		course:     domain.CourseID(uuid.New()),
		agent:      domain.AgentID(uuid.New()),
	}

	f.dir.PutStudent(&directory.Student{
		ID: f.student, FirstName: "Asha", LastName: "Rao", Email: "asha@example.com",
	})
	f.dir.PutAgency(&directory.Agency{
		ID: f.agency, Name: "Head Office", Email: "office@example.com", IsDefault: true,
	})
	f.dir.PutUniversity(&directory.University{
		ID: f.university, Name: "Northfield University", Country: "UK",
	})
	f.dir.PutCourse(&directory.Course{
		ID: f.course, University: f.university, Name: "MSc Computing", Status: directory.CourseActive,
	})
	f.dir.PutAgent(&directory.Agent{ID: f.agent, Name: "Priya", Agency: f.agency})

	f.svc = NewService(f.store, f.dir, tx.NewShardedRunner(),
		f.notifier, f.mailer, nil, slog.Default(), nil, 3)
	return f
}

// apply files an application and returns it, failing the test on error.
func (f *fixture) apply(t *testing.T) *Application {
	t.Helper()
	app, err := f.svc.Apply(context.Background(), f.student, ApplyRequest{
		CourseID:  f.course,
		Grades:    "AAB",
		Documents: []string{"transcript.pdf"},
	})
	require.NoError(t, err)
	return app
}

func TestApply(t *testing.T) {
	t.Run("files into the agency pending pool", func(t *testing.T) {
		f := newFixture(t)
		app := f.apply(t)

		assert.Equal(t, StatusProcessing, app.Status)
		assert.Equal(t, f.agency, app.Agency)
		assert.Equal(t, f.university, app.University)
		assert.False(t, app.SubmissionDate.IsZero())

		p, err := f.store.GetPlacement(context.Background(), app.ID, GroupAgency)
		require.NoError(t, err)
		assert.Equal(t, StageAgencyPending, p.Stage)
		assert.Equal(t, uuid.UUID(f.agency), p.HolderID)
		assert.Equal(t, f.student, p.StudentID)

		require.Len(t, f.mailer.sent, 1)
		assert.Equal(t, "agency_new_application", f.mailer.sent[0].Template)
		assert.Equal(t, "office@example.com", f.mailer.sent[0].To)
	})

	t.Run("duplicate for the same course conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.apply(t)

		_, err := f.svc.Apply(context.Background(), f.student, ApplyRequest{CourseID: f.course})
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
		assert.Contains(t, dErrors.MessageOf(err), "Processing")
	})

	t.Run("previously rejected course cannot be re-filed", func(t *testing.T) {
		f := newFixture(t)
		app := f.apply(t)
		require.NoError(t, f.svc.SendToUniversity(context.Background(), app.ID, f.agency))
		require.NoError(t, f.svc.RejectByUniversity(context.Background(), app.ID, f.university, "incomplete transcript"))

		_, err := f.svc.Apply(context.Background(), f.student, ApplyRequest{CourseID: f.course})
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
		assert.Contains(t, dErrors.MessageOf(err), "previously rejected")
	})

	t.Run("inactive course is closed", func(t *testing.T) {
		f := newFixture(t)
		closed := domain.CourseID(uuid.New())
		f.dir.PutCourse(&directory.Course{
			ID: closed, University: f.university, Name: "Old Course", Status: directory.CourseInactive,
		})
		_, err := f.svc.Apply(context.Background(), f.student, ApplyRequest{CourseID: closed})
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
	})

	t.Run("accepted-application cap", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			course := domain.CourseID(uuid.New())
			f.dir.PutCourse(&directory.Course{
				ID: course, University: f.university, Name: "Course", Status: directory.CourseActive,
			})
			app, err := f.svc.Apply(ctx, f.student, ApplyRequest{CourseID: course})
			require.NoError(t, err)
			require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))
			require.NoError(t, f.svc.Accept(ctx, app.ID, f.university, ""))
		}

		_, err := f.svc.Apply(ctx, f.student, ApplyRequest{CourseID: f.course})
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
		assert.Contains(t, dErrors.MessageOf(err), "3 accepted")
	})
}

func TestSendToUniversity(t *testing.T) {
	t.Run("moves the placement across groups", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)

		require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))

		agencyRow, err := f.store.GetPlacement(ctx, app.ID, GroupAgency)
		require.NoError(t, err)
		assert.Equal(t, StageAgencySent, agencyRow.Stage)

		uniRow, err := f.store.GetPlacement(ctx, app.ID, GroupUniversity)
		require.NoError(t, err)
		assert.Equal(t, StageUniversityPending, uniRow.Stage)
		assert.Equal(t, uuid.UUID(f.university), uniRow.HolderID)

		// status unchanged by forwarding
		got, err := f.store.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, got.Status)
	})

	t.Run("cannot forward twice", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)
		require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))

		err := f.svc.SendToUniversity(ctx, app.ID, f.agency)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
	})

	t.Run("another agency cannot forward", func(t *testing.T) {
		f := newFixture(t)
		app := f.apply(t)
		err := f.svc.SendToUniversity(context.Background(), app.ID, domain.AgencyID(uuid.New()))
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func TestAssignAgent(t *testing.T) {
	t.Run("appends and links", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)

		require.NoError(t, f.svc.AssignAgent(ctx, app.ID, f.agent, f.agency))
		// re-assignment is a no-op, not an error
		require.NoError(t, f.svc.AssignAgent(ctx, app.ID, f.agent, f.agency))

		got, err := f.store.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, []domain.AgentID{f.agent}, got.AssignedAgents)
	})

	t.Run("agent of another agency is refused", func(t *testing.T) {
		f := newFixture(t)
		app := f.apply(t)
		outsider := domain.AgentID(uuid.New())
		f.dir.PutAgent(&directory.Agent{ID: outsider, Agency: domain.AgencyID(uuid.New())})

		err := f.svc.AssignAgent(context.Background(), app.ID, outsider, f.agency)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func TestAccept(t *testing.T) {
	t.Run("transitions and mails the offer", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)
		require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))
		f.mailer.sent = nil

		require.NoError(t, f.svc.Accept(ctx, app.ID, f.university, "https://cdn.example.com/offer.pdf"))

		got, err := f.store.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, got.Status)
		assert.NotNil(t, got.ReviewDate)
		assert.Contains(t, got.ExtraDocuments, "https://cdn.example.com/offer.pdf")

		p, err := f.store.GetPlacement(ctx, app.ID, GroupUniversity)
		require.NoError(t, err)
		assert.Equal(t, StageUniversityApproved, p.Stage)

		require.Len(t, f.mailer.sent, 1)
		assert.Equal(t, "acceptance", f.mailer.sent[0].Template)
		assert.Equal(t, "asha@example.com", f.mailer.sent[0].To)
	})

	t.Run("terminal states refuse a second decision", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)
		require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))
		require.NoError(t, f.svc.Accept(ctx, app.ID, f.university, ""))

		err := f.svc.Accept(ctx, app.ID, f.university, "")
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
		assert.Contains(t, dErrors.MessageOf(err), "Accepted")

		// status untouched by the losing attempt
		got, getErr := f.store.Get(ctx, app.ID)
		require.NoError(t, getErr)
		assert.Equal(t, StatusAccepted, got.Status)
	})

	t.Run("cannot accept before the agency forwards", func(t *testing.T) {
		f := newFixture(t)
		app := f.apply(t)
		err := f.svc.Accept(context.Background(), app.ID, f.university, "")
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
	})
}

func TestReject(t *testing.T) {
	t.Run("university reject soft-deletes", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)
		require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))

		require.NoError(t, f.svc.RejectByUniversity(ctx, app.ID, f.university, "quota full"))

		got, err := f.store.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.Status)
		assert.Equal(t, "quota full", got.Reason)
		assert.True(t, got.IsDeleted)

		// invisible to the owner now
		_, err = f.svc.GetByID(ctx, app.ID, f.student)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("agency reject keeps the row visible", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)

		require.NoError(t, f.svc.RejectByAgency(ctx, app.ID, f.agency, "ineligible"))

		got, err := f.svc.GetByID(ctx, app.ID, f.student)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.Status)
		assert.False(t, got.IsDeleted)
	})

	t.Run("double reject conflicts without changing state", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)
		require.NoError(t, f.svc.RejectByAgency(ctx, app.ID, f.agency, "ineligible"))

		err := f.svc.RejectByAgency(ctx, app.ID, f.agency, "second try")
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
		assert.Contains(t, dErrors.MessageOf(err), "Rejected")

		got, getErr := f.store.Get(ctx, app.ID)
		require.NoError(t, getErr)
		assert.Equal(t, "ineligible", got.Reason)
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("processing application withdraws and leaves every pool", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)
		require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))

		require.NoError(t, f.svc.Withdraw(ctx, app.ID, f.student))

		got, err := f.store.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusWithdrawn, got.Status)

		for _, group := range []StageGroup{GroupAgency, GroupUniversity} {
			_, err := f.store.GetPlacement(ctx, app.ID, group)
			assert.Error(t, err)
		}
	})

	t.Run("only the owner may withdraw", func(t *testing.T) {
		f := newFixture(t)
		app := f.apply(t)
		err := f.svc.Withdraw(context.Background(), app.ID, domain.StudentID(uuid.New()))
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("decided applications cannot be withdrawn", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)
		require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))
		require.NoError(t, f.svc.Accept(ctx, app.ID, f.university, ""))

		err := f.svc.Withdraw(ctx, app.ID, f.student)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidState))
		assert.Contains(t, dErrors.MessageOf(err), "Accepted")
	})

	t.Run("double withdraw conflicts", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		app := f.apply(t)
		require.NoError(t, f.svc.Withdraw(ctx, app.ID, f.student))

		err := f.svc.Withdraw(ctx, app.ID, f.student)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})
}

func TestUpdateDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t)

	grades := "A*AA"
	aid := true
	require.NoError(t, f.svc.UpdateDocuments(ctx, app.ID, f.student, DocumentsUpdate{
		Grades:       &grades,
		FinancialAid: &aid,
		Documents:    []string{"transcript.pdf", "reference.pdf"},
	}))

	got, err := f.store.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "A*AA", got.Grades)
	assert.True(t, got.FinancialAid)
	assert.Len(t, got.Documents, 2)

	err = f.svc.UpdateDocuments(ctx, app.ID, domain.StudentID(uuid.New()), DocumentsUpdate{Grades: &grades})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestListPools(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t)

	pending, err := f.svc.ListAgencyPool(ctx, f.agency, StageAgencyPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, app.ID, pending[0].ApplicationID)

	require.NoError(t, f.svc.SendToUniversity(ctx, app.ID, f.agency))

	pending, err = f.svc.ListAgencyPool(ctx, f.agency, StageAgencyPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	sent, err := f.svc.ListAgencyPool(ctx, f.agency, StageAgencySent)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	uniPending, err := f.svc.ListUniversityPool(ctx, f.university, StageUniversityPending)
	require.NoError(t, err)
	assert.Len(t, uniPending, 1)

	// group mismatch is a validation error
	_, err = f.svc.ListAgencyPool(ctx, f.agency, StageUniversityPending)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestListByStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t)

	second := domain.CourseID(uuid.New())
	f.dir.PutCourse(&directory.Course{
		ID: second, University: f.university, Name: "BSc Maths", Status: directory.CourseActive,
	})
	_, err := f.svc.Apply(ctx, f.student, ApplyRequest{CourseID: second})
	require.NoError(t, err)

	all, err := f.svc.ListByStudent(ctx, f.student, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, f.svc.RejectByAgency(ctx, app.ID, f.agency, "ineligible"))
	status := StatusRejected
	rejected, err := f.svc.ListByStudent(ctx, f.student, &status)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, app.ID, rejected[0].ID)
}
