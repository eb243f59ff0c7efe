// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, so the same task rules run against
// PostgreSQL or a document store.
package store
