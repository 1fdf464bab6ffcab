// Package database provides the PostgreSQL connection pool and schema for the
// optional mark and best-match history tables.
//
// Tables:
//   - mark_snapshots: one row per strike, side and cycle
//   - best_matches: one row per reconciliation label and run
//
// Rows are append-only; the tool never reads them back.
package database
