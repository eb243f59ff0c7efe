// Package postgres implements the task and user stores on PostgreSQL through
// the pgx database/sql driver, and ships the schema as embedded goose
// migrations.
//
// Errors from the driver are translated with MapError so callers only need to
// check the sentinels in package store.
package postgres
