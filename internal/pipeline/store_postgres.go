package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/sentinel"
	"connect2uni/pkg/platform/tx"
)

// PostgresStore persists pipeline tokens in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres constructs a PostgreSQL-backed pipeline store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t := tx.From(ctx); t != nil {
		return t
	}
	return s.db
}

func (s *PostgresStore) File(ctx context.Context, t Token) error {
	const query = `
		INSERT INTO solicitor_pipeline (application_id, stage, holder_id, ever_assigned)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (application_id) DO NOTHING
	`
	res, err := s.q(ctx).ExecContext(ctx, query, t.ApplicationID, string(t.Stage), t.HolderID, t.EverAssigned)
	if err != nil {
		return fmt.Errorf("file solicitor request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("file solicitor request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ApplicationID) (*Token, error) {
	const query = `
		SELECT application_id, stage, holder_id, ever_assigned
		FROM solicitor_pipeline
		WHERE application_id = $1
	`
	var t Token
	var holder sql.NullString
	err := s.q(ctx).QueryRowContext(ctx, query, id).Scan(&t.ApplicationID, &t.Stage, &holder, &t.EverAssigned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get pipeline token: %w", err)
	}
	if holder.Valid {
		parsed, err := uuid.Parse(holder.String)
		if err != nil {
			return nil, fmt.Errorf("parse holder id: %w", err)
		}
		t.HolderID = parsed
	}
	return &t, nil
}

// MoveToAssociate performs the hand-off and first-assignment detection in a
// single conditional write: the self-join captures the pre-update
// ever_assigned flag so read-then-write races cannot double-fire the
// notification.
func (s *PostgresStore) MoveToAssociate(ctx context.Context, id domain.ApplicationID, agencyID uuid.UUID, associateID uuid.UUID) (bool, error) {
	const query = `
		UPDATE solicitor_pipeline sp
		SET stage = 'associate', holder_id = $3, ever_assigned = TRUE
		FROM (
			SELECT application_id, ever_assigned
			FROM solicitor_pipeline
			WHERE application_id = $1
			FOR UPDATE
		) old
		WHERE sp.application_id = old.application_id
		  AND ((sp.stage = 'agency' AND sp.holder_id = $2) OR sp.stage = 'none')
		RETURNING NOT old.ever_assigned
	`
	var first bool
	err := s.q(ctx).QueryRowContext(ctx, query, id, agencyID, associateID).Scan(&first)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, s.missingOrConflict(ctx, id)
		}
		return false, fmt.Errorf("move token to associate: %w", err)
	}
	return first, nil
}

func (s *PostgresStore) MoveToSolicitor(ctx context.Context, id domain.ApplicationID, solicitorID uuid.UUID) error {
	const query = `
		UPDATE solicitor_pipeline
		SET stage = 'solicitor', holder_id = $2
		WHERE application_id = $1 AND stage = 'associate'
	`
	res, err := s.q(ctx).ExecContext(ctx, query, id, solicitorID)
	if err != nil {
		return fmt.Errorf("move token to solicitor: %w", err)
	}
	return s.requireMoved(ctx, res, id)
}

func (s *PostgresStore) Drop(ctx context.Context, id domain.ApplicationID, associateID uuid.UUID) error {
	const query = `
		UPDATE solicitor_pipeline
		SET stage = 'none', holder_id = NULL
		WHERE application_id = $1 AND stage = 'associate' AND holder_id = $2
	`
	res, err := s.q(ctx).ExecContext(ctx, query, id, associateID)
	if err != nil {
		return fmt.Errorf("drop token: %w", err)
	}
	return s.requireMoved(ctx, res, id)
}

func (s *PostgresStore) Complete(ctx context.Context, id domain.ApplicationID, solicitorID uuid.UUID) error {
	const query = `
		DELETE FROM solicitor_pipeline
		WHERE application_id = $1 AND stage = 'solicitor' AND holder_id = $2
	`
	res, err := s.q(ctx).ExecContext(ctx, query, id, solicitorID)
	if err != nil {
		return fmt.Errorf("complete pipeline: %w", err)
	}
	return s.requireMoved(ctx, res, id)
}

func (s *PostgresStore) ListByHolder(ctx context.Context, stage Stage, holder uuid.UUID) ([]*Token, error) {
	const query = `
		SELECT application_id, stage, holder_id, ever_assigned
		FROM solicitor_pipeline
		WHERE stage = $1 AND holder_id = $2
		ORDER BY application_id
	`
	rows, err := s.db.QueryContext(ctx, query, string(stage), holder)
	if err != nil {
		return nil, fmt.Errorf("list pipeline tokens: %w", err)
	}
	defer rows.Close()

	var out []*Token
	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.ApplicationID, &t.Stage, &t.HolderID, &t.EverAssigned); err != nil {
			return nil, fmt.Errorf("scan pipeline token: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pipeline tokens: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) requireMoved(ctx context.Context, res sql.Result, id domain.ApplicationID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	return s.missingOrConflict(ctx, id)
}

func (s *PostgresStore) missingOrConflict(ctx context.Context, id domain.ApplicationID) error {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM solicitor_pipeline WHERE application_id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check pipeline token exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}
