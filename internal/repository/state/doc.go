// Package state implements persistence for the crew-alert engine Snapshot.
//
// Two Repository implementations exist. FileRepository writes the whole
// snapshot as zstd-compressed CBOR behind a BLAKE3 checksum header and
// replaces the file atomically. SQLiteRepository keeps one row per named
// collection and rewrites them in a single transaction.
package state
