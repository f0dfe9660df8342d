// Package postgres holds the relational schema and bootstrap helpers for
// the PostgreSQL backing store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for a fresh install. It is the single
// source of truth: integration tests apply it via EnsureSchema, so a store
// referencing a column missing here fails immediately rather than in
// production. Every statement is idempotent.
const SchemaSQL = `
-- Directory: the people and institutions the workflow routes between.
CREATE TABLE IF NOT EXISTS students (
	id                UUID PRIMARY KEY,
	first_name        TEXT NOT NULL,
	last_name         TEXT NOT NULL,
	email             TEXT NOT NULL UNIQUE,
	solicitor_service BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS agencies (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	is_default BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- At most one live default agency; new applications route to it.
CREATE UNIQUE INDEX IF NOT EXISTS agencies_default_idx
	ON agencies ((TRUE)) WHERE is_default AND NOT is_deleted;

CREATE TABLE IF NOT EXISTS universities (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	country    TEXT NOT NULL,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS agents (
	id        UUID PRIMARY KEY,
	name      TEXT NOT NULL,
	email     TEXT NOT NULL UNIQUE,
	agency_id UUID NOT NULL REFERENCES agencies (id)
);

CREATE TABLE IF NOT EXISTS agent_students (
	agent_id   UUID NOT NULL REFERENCES agents (id),
	student_id UUID NOT NULL REFERENCES students (id),
	PRIMARY KEY (agent_id, student_id)
);

CREATE TABLE IF NOT EXISTS associates (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	phone      TEXT NOT NULL DEFAULT '',
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS solicitors (
	id           UUID PRIMARY KEY,
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	email        TEXT NOT NULL UNIQUE,
	associate_id UUID NOT NULL REFERENCES associates (id),
	is_deleted   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS courses (
	id            UUID PRIMARY KEY,
	university_id UUID NOT NULL REFERENCES universities (id),
	name          TEXT NOT NULL,
	status        TEXT NOT NULL CHECK (status IN ('active', 'inactive'))
);

-- Applications and their review pools.
CREATE TABLE IF NOT EXISTS applications (
	id                 UUID PRIMARY KEY,
	student_id         UUID NOT NULL REFERENCES students (id),
	university_id      UUID NOT NULL REFERENCES universities (id),
	course_id          UUID NOT NULL REFERENCES courses (id),
	agency_id          UUID NOT NULL REFERENCES agencies (id),
	status             TEXT NOT NULL CHECK (status IN ('Processing', 'Accepted', 'Rejected', 'Withdrawn')),
	assigned_solicitor UUID REFERENCES solicitors (id),
	grades             TEXT NOT NULL DEFAULT '',
	financial_aid      BOOLEAN NOT NULL DEFAULT FALSE,
	documents          TEXT[] DEFAULT '{}',
	extra_documents    TEXT[] DEFAULT '{}',
	reason             TEXT NOT NULL DEFAULT '',
	notes              TEXT NOT NULL DEFAULT '',
	submission_date    TIMESTAMPTZ NOT NULL,
	review_date        TIMESTAMPTZ,
	is_deleted         BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS applications_student_idx ON applications (student_id);

CREATE TABLE IF NOT EXISTS application_agents (
	application_id UUID NOT NULL REFERENCES applications (id),
	agent_id       UUID NOT NULL REFERENCES agents (id),
	assigned_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (application_id, agent_id)
);

-- One placement row per application per review tier. Pool listings are
-- index scans over (stage, holder_id); moving an application between the
-- pending and decided pools of a tier updates this row in place.
CREATE TABLE IF NOT EXISTS application_placements (
	application_id UUID NOT NULL REFERENCES applications (id),
	stage_group    TEXT NOT NULL CHECK (stage_group IN ('agency', 'university')),
	stage          TEXT NOT NULL,
	holder_id      UUID NOT NULL,
	student_id     UUID NOT NULL REFERENCES students (id),
	PRIMARY KEY (application_id, stage_group)
);

CREATE INDEX IF NOT EXISTS application_placements_pool_idx
	ON application_placements (stage, holder_id);

-- Solicitor routing: at most one live token per application. A 'none'
-- row is a tombstone whose ever_assigned flag survives reassignment.
CREATE TABLE IF NOT EXISTS solicitor_pipeline (
	application_id UUID PRIMARY KEY REFERENCES applications (id),
	stage          TEXT NOT NULL CHECK (stage IN ('agency', 'associate', 'solicitor', 'none')),
	holder_id      UUID,
	ever_assigned  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS solicitor_pipeline_pool_idx
	ON solicitor_pipeline (stage, holder_id);

-- In-app notification inbox.
CREATE TABLE IF NOT EXISTS notifications (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL,
	message    TEXT NOT NULL,
	type       TEXT NOT NULL,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC);

-- Workflow event outbox drained by the audit worker.
CREATE TABLE IF NOT EXISTS workflow_events (
	id             UUID PRIMARY KEY,
	occurred_at    TIMESTAMPTZ NOT NULL,
	application_id UUID NOT NULL,
	actor_role     TEXT NOT NULL,
	actor_id       UUID NOT NULL,
	action         TEXT NOT NULL,
	detail         JSONB,
	published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS workflow_events_unpublished_idx
	ON workflow_events (occurred_at) WHERE published_at IS NULL;
`

// EnsureSchema applies SchemaSQL. Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
