package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/sentinel"
	"connect2uni/pkg/platform/tx"
)

// PostgresStore persists directory records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres constructs a PostgreSQL-backed directory store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// q returns the transaction bound to ctx when one is open, otherwise the pool.
func (s *PostgresStore) q(ctx context.Context) querier {
	if t := tx.From(ctx); t != nil {
		return t
	}
	return s.db
}

func (s *PostgresStore) GetStudent(ctx context.Context, id domain.StudentID) (*Student, error) {
	const query = `
		SELECT id, first_name, last_name, email, solicitor_service, is_deleted, created_at
		FROM students
		WHERE id = $1 AND NOT is_deleted
	`
	var st Student
	err := s.q(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&st.ID, &st.FirstName, &st.LastName, &st.Email, &st.SolicitorService, &st.IsDeleted, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &st, nil
}

func (s *PostgresStore) SetSolicitorService(ctx context.Context, id domain.StudentID, enabled bool) error {
	const query = `UPDATE students SET solicitor_service = $2 WHERE id = $1 AND NOT is_deleted`
	res, err := s.q(ctx).ExecContext(ctx, query, id.String(), enabled)
	if err != nil {
		return fmt.Errorf("set solicitor service: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set solicitor service: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetAgency(ctx context.Context, id domain.AgencyID) (*Agency, error) {
	const query = `
		SELECT id, name, email, is_default, is_deleted, created_at
		FROM agencies
		WHERE id = $1 AND NOT is_deleted
	`
	var a Agency
	err := s.q(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&a.ID, &a.Name, &a.Email, &a.IsDefault, &a.IsDeleted, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get agency: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) DefaultAgency(ctx context.Context) (*Agency, error) {
	const query = `
		SELECT id, name, email, is_default, is_deleted, created_at
		FROM agencies
		WHERE is_default AND NOT is_deleted
		LIMIT 1
	`
	var a Agency
	err := s.q(ctx).QueryRowContext(ctx, query).Scan(
		&a.ID, &a.Name, &a.Email, &a.IsDefault, &a.IsDeleted, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get default agency: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) GetUniversity(ctx context.Context, id domain.UniversityID) (*University, error) {
	const query = `
		SELECT id, name, email, country, is_deleted, created_at
		FROM universities
		WHERE id = $1 AND NOT is_deleted
	`
	var u University
	err := s.q(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&u.ID, &u.Name, &u.Email, &u.Country, &u.IsDeleted, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get university: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetAgent(ctx context.Context, id domain.AgentID) (*Agent, error) {
	const query = `SELECT id, name, email, agency_id FROM agents WHERE id = $1`
	var a Agent
	err := s.q(ctx).QueryRowContext(ctx, query, id.String()).Scan(&a.ID, &a.Name, &a.Email, &a.Agency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) LinkAgentStudent(ctx context.Context, agentID domain.AgentID, studentID domain.StudentID) error {
	const query = `
		INSERT INTO agent_students (agent_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (agent_id, student_id) DO NOTHING
	`
	if _, err := s.q(ctx).ExecContext(ctx, query, agentID.String(), studentID.String()); err != nil {
		return fmt.Errorf("link agent student: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAssociate(ctx context.Context, id domain.AssociateID) (*Associate, error) {
	const query = `
		SELECT id, name, email, phone, is_deleted, created_at
		FROM associates
		WHERE id = $1 AND NOT is_deleted
	`
	var a Associate
	err := s.q(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.IsDeleted, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get associate: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) GetSolicitor(ctx context.Context, id domain.SolicitorID) (*Solicitor, error) {
	const query = `
		SELECT id, first_name, last_name, email, associate_id, is_deleted, created_at
		FROM solicitors
		WHERE id = $1 AND NOT is_deleted
	`
	var sol Solicitor
	err := s.q(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&sol.ID, &sol.FirstName, &sol.LastName, &sol.Email, &sol.Associate, &sol.IsDeleted, &sol.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get solicitor: %w", err)
	}
	return &sol, nil
}

func (s *PostgresStore) GetCourse(ctx context.Context, id domain.CourseID) (*Course, error) {
	const query = `SELECT id, university_id, name, status FROM courses WHERE id = $1`
	var c Course
	err := s.q(ctx).QueryRowContext(ctx, query, id.String()).Scan(&c.ID, &c.University, &c.Name, &c.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &c, nil
}
