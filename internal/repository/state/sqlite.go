package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/oshokin/crew-alert/internal/codec"
	"github.com/oshokin/crew-alert/internal/domain/crew"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

	sqliteUpsert = `INSERT INTO collections (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

	sqliteSelect = `SELECT name, payload FROM collections`
)

// SQLiteRepository persists each snapshot collection as a CBOR row.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("configure sqlite: %w", err)
	}

	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Load reads every collection row and assembles the snapshot.
func (r *SQLiteRepository) Load(ctx context.Context) (*crew.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelect)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var (
		snapshot crew.Snapshot
		targets  = collectionTargets(&snapshot)
		found    int
	)

	for rows.Next() {
		var (
			name    string
			payload []byte
		)

		if err = rows.Scan(&name, &payload); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}

		target, ok := targets[name]
		if !ok {
			// Written by a newer binary.
			continue
		}

		if err = codec.Unmarshal(payload, target); err != nil {
			return nil, fmt.Errorf("%w: collection %q: %w", ErrCorrupted, name, err)
		}

		found++
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}

	if found == 0 {
		return nil, ErrNotFound
	}

	return &snapshot, nil
}

// Save rewrites every collection in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, snapshot *crew.Snapshot) (err error) {
	if snapshot == nil {
		return errNilSnapshot
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, rollbackError(tx.Rollback()))
		}
	}()

	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)

	for name, value := range collectionTargets(snapshot) {
		payload, marshalErr := codec.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("encode collection %q: %w", name, marshalErr)
		}

		if _, err = tx.ExecContext(ctx, sqliteUpsert, name, payload, updatedAt); err != nil {
			return fmt.Errorf("store collection %q: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// rollbackError drops sql.ErrTxDone: a failed Commit has already ended the transaction.
func rollbackError(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}

// collectionTargets maps each collection name to the snapshot field holding it.
func collectionTargets(snapshot *crew.Snapshot) map[string]any {
	return map[string]any{
		crew.CollectionVehicles:    &snapshot.Vehicles,
		crew.CollectionMembers:     &snapshot.Members,
		crew.CollectionPending:     &snapshot.Pending,
		crew.CollectionResolutions: &snapshot.Resolutions,
		crew.CollectionTickets:     &snapshot.Tickets,
		crew.CollectionLog:         &snapshot.Log,
		crew.CollectionSequences:   &snapshot.Sequences,
	}
}
