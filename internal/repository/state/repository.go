package state

import (
	"context"
	"errors"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// Repository defines persistence operations for the engine snapshot.
type Repository interface {
	Load(ctx context.Context) (*crew.Snapshot, error)
	Save(ctx context.Context, snapshot *crew.Snapshot) error
}

var (
	// ErrNotFound is returned when nothing has been saved yet.
	ErrNotFound = errors.New("state not found")
	// ErrCorrupted is returned when stored bytes fail integrity checks.
	ErrCorrupted = errors.New("state corrupted")
	// errNilSnapshot is returned when Save receives nil.
	errNilSnapshot = errors.New("snapshot is not set")
)
