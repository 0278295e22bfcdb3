// Package store persists cleaned notes in the single-file sqlite database
// that downstream consumers read.
//
// The store is created fresh per extraction run: Create either refuses to
// touch an existing database or replaces it wholesale, never appends, so a
// rerun cannot duplicate rows. Schema changes bump schemaVersion; Open
// refuses a database written under a different version.
package store
