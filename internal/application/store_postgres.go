package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/sentinel"
	"connect2uni/pkg/platform/tx"
)

// PostgresStore persists applications and placements in PostgreSQL. Agent
// assignments live in a link table so the no-duplicate append is a plain
// ON CONFLICT DO NOTHING.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres constructs a PostgreSQL-backed application store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t := tx.From(ctx); t != nil {
		return t
	}
	return s.db
}

const appColumns = `
	a.id, a.student_id, a.university_id, a.course_id, a.agency_id,
	a.status, a.assigned_solicitor, a.grades, a.financial_aid,
	a.documents, a.extra_documents, a.reason, a.notes,
	a.submission_date, a.review_date, a.is_deleted
`

func (s *PostgresStore) scanApp(ctx context.Context, row *sql.Row) (*Application, error) {
	var a Application
	var solicitor sql.NullString
	var reviewDate sql.NullTime
	err := row.Scan(
		&a.ID, &a.Student, &a.University, &a.Course, &a.Agency,
		&a.Status, &solicitor, &a.Grades, &a.FinancialAid,
		pq.Array(&a.Documents), pq.Array(&a.ExtraDocuments), &a.Reason, &a.Notes,
		&a.SubmissionDate, &reviewDate, &a.IsDeleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	if solicitor.Valid {
		parsed, err := domain.ParseSolicitorID(solicitor.String)
		if err != nil {
			return nil, fmt.Errorf("scan assigned solicitor: %w", err)
		}
		a.AssignedSolicitor = &parsed
	}
	if reviewDate.Valid {
		rd := reviewDate.Time
		a.ReviewDate = &rd
	}
	if err := s.loadAgents(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) loadAgents(ctx context.Context, a *Application) error {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT agent_id FROM application_agents WHERE application_id = $1 ORDER BY assigned_at`, a.ID)
	if err != nil {
		return fmt.Errorf("load assigned agents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var agentID domain.AgentID
		if err := rows.Scan(&agentID); err != nil {
			return fmt.Errorf("scan assigned agent: %w", err)
		}
		a.AssignedAgents = append(a.AssignedAgents, agentID)
	}
	return rows.Err()
}

func (s *PostgresStore) Insert(ctx context.Context, app *Application) error {
	const query = `
		INSERT INTO applications (
			id, student_id, university_id, course_id, agency_id,
			status, grades, financial_aid, documents, extra_documents,
			reason, notes, submission_date, is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		app.ID, app.Student, app.University, app.Course, app.Agency,
		string(app.Status), app.Grades, app.FinancialAid,
		pq.Array(app.Documents), pq.Array(app.ExtraDocuments),
		app.Reason, app.Notes, app.SubmissionDate, app.IsDeleted,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ApplicationID) (*Application, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+appColumns+` FROM applications a WHERE a.id = $1`, id)
	return s.scanApp(ctx, row)
}

func (s *PostgresStore) FindByStudentCourse(ctx context.Context, studentID domain.StudentID, courseID domain.CourseID) (*Application, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+appColumns+` FROM applications a WHERE a.student_id = $1 AND a.course_id = $2`,
		studentID, courseID)
	return s.scanApp(ctx, row)
}

func (s *PostgresStore) CountAcceptedByStudent(ctx context.Context, studentID domain.StudentID) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE student_id = $1 AND status = $2`,
		studentID, string(StatusAccepted)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count accepted applications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID domain.StudentID, status *Status) ([]*Application, error) {
	query := `SELECT a.id FROM applications a WHERE a.student_id = $1 AND NOT a.is_deleted`
	args := []any{studentID}
	if status != nil {
		query += ` AND a.status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY a.submission_date DESC`

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var ids []domain.ApplicationID
	for rows.Next() {
		var id domain.ApplicationID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan application id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	out := make([]*Application, 0, len(ids))
	for _, id := range ids {
		app, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}

func (s *PostgresStore) UpdateDocuments(ctx context.Context, id domain.ApplicationID, upd DocumentsUpdate) error {
	const query = `
		UPDATE applications SET
			grades        = COALESCE($2, grades),
			financial_aid = COALESCE($3, financial_aid),
			documents     = COALESCE($4, documents),
			notes         = COALESCE($5, notes)
		WHERE id = $1
	`
	var docs any
	if upd.Documents != nil {
		docs = pq.Array(upd.Documents)
	}
	res, err := s.q(ctx).ExecContext(ctx, query, id, upd.Grades, upd.FinancialAid, docs, upd.Notes)
	if err != nil {
		return fmt.Errorf("update application documents: %w", err)
	}
	return s.requireRow(ctx, res, id, sentinel.ErrNotFound)
}

func (s *PostgresStore) MarkAccepted(ctx context.Context, id domain.ApplicationID, attachmentURL string) error {
	const query = `
		UPDATE applications SET
			status = $2,
			review_date = NOW(),
			extra_documents = CASE WHEN $3 <> '' THEN array_append(extra_documents, $3) ELSE extra_documents END
		WHERE id = $1 AND status = $4
	`
	res, err := s.q(ctx).ExecContext(ctx, query, id, string(StatusAccepted), attachmentURL, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("mark application accepted: %w", err)
	}
	return s.requireRow(ctx, res, id, sentinel.ErrInvalidState)
}

func (s *PostgresStore) MarkRejected(ctx context.Context, id domain.ApplicationID, reason string, softDelete bool) error {
	const query = `
		UPDATE applications SET
			status = $2,
			reason = $3,
			review_date = NOW(),
			is_deleted = is_deleted OR $4
		WHERE id = $1 AND status = $5
	`
	res, err := s.q(ctx).ExecContext(ctx, query, id, string(StatusRejected), reason, softDelete, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("mark application rejected: %w", err)
	}
	return s.requireRow(ctx, res, id, sentinel.ErrInvalidState)
}

func (s *PostgresStore) MarkWithdrawn(ctx context.Context, id domain.ApplicationID) error {
	const query = `UPDATE applications SET status = $2 WHERE id = $1 AND status = $3`
	res, err := s.q(ctx).ExecContext(ctx, query, id, string(StatusWithdrawn), string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("mark application withdrawn: %w", err)
	}
	return s.requireRow(ctx, res, id, sentinel.ErrInvalidState)
}

// requireRow maps a zero-row conditional update onto the right sentinel:
// missing row -> ErrNotFound, present but failing the condition -> cond.
func (s *PostgresStore) requireRow(ctx context.Context, res sql.Result, id domain.ApplicationID, cond error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	err = s.q(ctx).QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check application exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return cond
}

func (s *PostgresStore) AppendAgent(ctx context.Context, id domain.ApplicationID, agentID domain.AgentID) error {
	const query = `
		INSERT INTO application_agents (application_id, agent_id, assigned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (application_id, agent_id) DO NOTHING
	`
	if _, err := s.q(ctx).ExecContext(ctx, query, id, agentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("append assigned agent: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetAssignedSolicitor(ctx context.Context, id domain.ApplicationID, solicitorID domain.SolicitorID) error {
	const query = `
		UPDATE applications SET assigned_solicitor = $2, status = $3
		WHERE id = $1 AND assigned_solicitor IS NULL
	`
	res, err := s.q(ctx).ExecContext(ctx, query, id, solicitorID, string(StatusAccepted))
	if err != nil {
		return fmt.Errorf("set assigned solicitor: %w", err)
	}
	return s.requireRow(ctx, res, id, sentinel.ErrConflict)
}

func (s *PostgresStore) InsertPlacement(ctx context.Context, p Placement) error {
	const query = `
		INSERT INTO application_placements (application_id, stage_group, stage, holder_id, student_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (application_id, stage_group) DO NOTHING
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		p.ApplicationID, string(p.Stage.Group()), string(p.Stage), p.HolderID, p.StudentID)
	if err != nil {
		return fmt.Errorf("insert placement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert placement: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) MovePlacement(ctx context.Context, id domain.ApplicationID, from, to StageCategory, holder uuid.UUID) error {
	const query = `
		UPDATE application_placements SET stage = $4
		WHERE application_id = $1 AND stage = $2 AND holder_id = $3
	`
	res, err := s.q(ctx).ExecContext(ctx, query, id, string(from), holder, string(to))
	if err != nil {
		return fmt.Errorf("move placement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("move placement: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) DeletePlacement(ctx context.Context, id domain.ApplicationID, stage StageCategory) error {
	const query = `DELETE FROM application_placements WHERE application_id = $1 AND stage = $2`
	res, err := s.q(ctx).ExecContext(ctx, query, id, string(stage))
	if err != nil {
		return fmt.Errorf("delete placement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete placement: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetPlacement(ctx context.Context, id domain.ApplicationID, group StageGroup) (*Placement, error) {
	const query = `
		SELECT application_id, stage, holder_id, student_id
		FROM application_placements
		WHERE application_id = $1 AND stage_group = $2
	`
	var p Placement
	err := s.q(ctx).QueryRowContext(ctx, query, id, string(group)).Scan(
		&p.ApplicationID, &p.Stage, &p.HolderID, &p.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get placement: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPlacements(ctx context.Context, stage StageCategory, holder uuid.UUID) ([]*Placement, error) {
	const query = `
		SELECT application_id, stage, holder_id, student_id
		FROM application_placements
		WHERE stage = $1 AND holder_id = $2
		ORDER BY application_id
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, string(stage), holder)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()

	var out []*Placement
	for rows.Next() {
		var p Placement
		if err := rows.Scan(&p.ApplicationID, &p.Stage, &p.HolderID, &p.StudentID); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	return out, nil
}
