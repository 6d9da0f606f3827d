// Package migrate bootstraps the record-store schema. Statements are
// idempotent so every process start can run them safely.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS disasters (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		location_name TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		tags          JSONB NOT NULL DEFAULT '[]',
		owner_id      TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		audit_trail   JSONB NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS disasters_tags_idx ON disasters USING GIN (tags)`,
	`CREATE TABLE IF NOT EXISTS resources (
		id          TEXT PRIMARY KEY,
		disaster_id TEXT NOT NULL REFERENCES disasters(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL,
		lat         DOUBLE PRECISION NOT NULL,
		lon         DOUBLE PRECISION NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS resources_disaster_idx ON resources (disaster_id)`,
	`CREATE INDEX IF NOT EXISTS resources_location_idx ON resources
		USING GIST (ST_SetSRID(ST_MakePoint(lon, lat), 4326))`,
}

// EnsureSchema creates the tables and indexes this service reads and writes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}
	return nil
}
