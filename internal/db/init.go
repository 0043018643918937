package db

import (
	"context"
	"database/sql"
	"fmt"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id BIGSERIAL PRIMARY KEY,
	uuid TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	time_created TIMESTAMPTZ NOT NULL DEFAULT now(),
	time_started TIMESTAMPTZ,
	time_completed TIMESTAMPTZ,
	params TEXT,
	results TEXT,
	scheduler_job_id TEXT
)`

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	uuid VARCHAR(64) NOT NULL,
	type VARCHAR(64) NOT NULL,
	status VARCHAR(32) NOT NULL,
	time_created DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	time_started DATETIME(6) NULL,
	time_completed DATETIME(6) NULL,
	params TEXT,
	results TEXT,
	scheduler_job_id VARCHAR(64)
)`

// EnsureJobsTable creates the jobs table when it does not exist yet, so a
// fresh database can serve its first dispatch pass without manual setup.
func EnsureJobsTable(ctx context.Context, db *sql.DB, driver string) error {
	var schema string
	switch driver {
	case "postgres":
		schema = postgresSchema
	case "mysql":
		schema = mysqlSchema
	default:
		return fmt.Errorf("no jobs schema for driver %q", driver)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure jobs table: %w", err)
	}
	return nil
}
