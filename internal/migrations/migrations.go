// Package migrations holds the schema-templated DDL ticketcore hands back
// to its host at registration time. The host executes these; ticketcore
// never runs a migration itself outside the dev-only `migrate` CLI.
package migrations

import (
	"fmt"
	"strings"
)

// DefaultOffset is the first migration id ticketcore uses when the host
// does not supply one.
const DefaultOffset = 26

// Spec is the payload of one migration record. SQL carries literal
// "{schema}" markers the host substitutes with the resolved schema name.
type Spec struct {
	CreateIfNotExists bool   `json:"create_if_not_exists,omitempty"`
	SQL               string `json:"sql"`
}

// Migration is one entry of the contiguous block ticketcore returns from
// Register. Type and Schema are always "custom" and "project" — every
// ticketcore migration is hand-written DDL scoped to one project schema.
type Migration struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Table       string `json:"table"`
	Schema      string `json:"schema"`
	Spec        Spec   `json:"spec"`
}

const (
	createTicketTable = `
CREATE TABLE IF NOT EXISTS {schema}.ticket (
    id SERIAL PRIMARY KEY,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    status TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium',
    assignee TEXT,
    reporter TEXT,
    tags TEXT[] NOT NULL DEFAULT '{}',
    metadata JSONB NOT NULL DEFAULT '{}',
    session_id TEXT,
    content_hash TEXT,
    created_at DOUBLE PRECISION NOT NULL,
    updated_at DOUBLE PRECISION NOT NULL,
    closed_at DOUBLE PRECISION,
    archived_at DOUBLE PRECISION
)`

	createTicketHistoryTable = `
CREATE TABLE IF NOT EXISTS {schema}.ticket_history (
    id SERIAL PRIMARY KEY,
    ticket_id INTEGER NOT NULL REFERENCES {schema}.ticket(id) ON DELETE CASCADE,
    field TEXT NOT NULL,
    old_value TEXT,
    new_value TEXT,
    changed_by TEXT,
    changed_at DOUBLE PRECISION NOT NULL
)`

	createTicketLinkTable = `
CREATE TABLE IF NOT EXISTS {schema}.ticket_link (
    id SERIAL PRIMARY KEY,
    source_id INTEGER NOT NULL REFERENCES {schema}.ticket(id) ON DELETE CASCADE,
    target_id INTEGER NOT NULL REFERENCES {schema}.ticket(id) ON DELETE CASCADE,
    link_type TEXT NOT NULL,
    created_at DOUBLE PRECISION NOT NULL,
    UNIQUE(source_id, target_id, link_type)
)`

	addTsvColumnAndTrigger = `
ALTER TABLE {schema}.ticket ADD COLUMN IF NOT EXISTS tsv tsvector;

CREATE OR REPLACE FUNCTION {schema}.ticket_tsv_update() RETURNS TRIGGER AS $$
BEGIN
    NEW.tsv := to_tsvector('english', NEW.title || ' ' || coalesce(NEW.description, ''));
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS ticket_tsv_trigger ON {schema}.ticket;
CREATE TRIGGER ticket_tsv_trigger
    BEFORE INSERT OR UPDATE OF title, description ON {schema}.ticket
    FOR EACH ROW EXECUTE FUNCTION {schema}.ticket_tsv_update();

UPDATE {schema}.ticket SET tsv = to_tsvector('english', title || ' ' || coalesce(description, ''))`

	addTsvGinIndex = `
CREATE INDEX IF NOT EXISTS idx_ticket_tsv ON {schema}.ticket USING gin(tsv)`

	addArchivedAtIndex = `
CREATE INDEX IF NOT EXISTS idx_ticket_archived_at ON {schema}.ticket(archived_at) WHERE archived_at IS NOT NULL`
)

// New returns the contiguous block of migration records starting at
// offset, in apply order. The first five are spec.md §6's core block
// (ticket, ticket_history, ticket_link, tsv column+trigger, GIN index);
// the sixth is ticketcore's archival supplement, recovered from
// original_source/stompy_ticketing/migrations.py::get_archive_migrations.
func New(offset int) []Migration {
	return []Migration{
		{
			ID: offset, Description: "create_ticket_table", Type: "custom",
			Table: "ticket", Schema: "project",
			Spec: Spec{CreateIfNotExists: true, SQL: createTicketTable},
		},
		{
			ID: offset + 1, Description: "create_ticket_history_table", Type: "custom",
			Table: "ticket_history", Schema: "project",
			Spec: Spec{CreateIfNotExists: true, SQL: createTicketHistoryTable},
		},
		{
			ID: offset + 2, Description: "create_ticket_link_table", Type: "custom",
			Table: "ticket_link", Schema: "project",
			Spec: Spec{CreateIfNotExists: true, SQL: createTicketLinkTable},
		},
		{
			ID: offset + 3, Description: "add_ticket_tsv_column_and_trigger", Type: "custom",
			Table: "ticket", Schema: "project",
			Spec: Spec{SQL: addTsvColumnAndTrigger},
		},
		{
			ID: offset + 4, Description: "add_ticket_tsv_gin_index", Type: "custom",
			Table: "ticket", Schema: "project",
			Spec: Spec{SQL: addTsvGinIndex},
		},
		{
			ID: offset + 5, Description: "add_ticket_archived_at_index", Type: "custom",
			Table: "ticket", Schema: "project",
			Spec: Spec{SQL: addArchivedAtIndex},
		},
	}
}

// SchemaSQL renders every migration's DDL as a single script with
// "{schema}" substituted, for projects created after the host has booted
// and already run its own migration block once.
func SchemaSQL(schema string) string {
	var b strings.Builder
	for _, m := range New(DefaultOffset) {
		fmt.Fprintf(&b, "-- %s\n%s;\n\n", m.Description, strings.ReplaceAll(m.Spec.SQL, "{schema}", schema))
	}
	return b.String()
}
