// Package writer implements the output sinks for marks and best matches.
//
// Sinks:
//   - File: JSON files per cycle and per match, zstd dumps of merged tables
//   - Postgres: mark_snapshots and best_matches rows
//   - Redis: mark history sorted sets and the latest best match per label
//
// Sinks are write-only; nothing is read back. Multi fans out to several.
package writer
