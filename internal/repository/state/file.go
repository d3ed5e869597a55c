package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/oshokin/crew-alert/internal/codec"
	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// fileMagic prefixes every state file, followed by the format version.
var fileMagic = []byte("CRWS") //nolint:gochecknoglobals // Constant byte prefix.

const (
	fileVersion    byte = 1
	checksumLength      = 32
	headerLength        = 4 + 1 + checksumLength
)

// FileRepository persists the snapshot to a single file on disk.
type FileRepository struct {
	// path is the filesystem location of the state file.
	path string
	// mu serializes file access within the process.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes the file at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the state file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the snapshot from disk.
func (r *FileRepository) Load(_ context.Context) (*crew.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	payload, err := unwrapFile(contents)
	if err != nil {
		return nil, err
	}

	var snapshot crew.Snapshot
	if err = codec.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return &snapshot, nil
}

// Save writes the snapshot to a temporary file and renames it over the old one.
func (r *FileRepository) Save(_ context.Context, snapshot *crew.Snapshot) error {
	if snapshot == nil {
		return errNilSnapshot
	}

	payload, err := codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	data, err := wrapFile(payload)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return writeAtomic(r.path, data)
}

// wrapFile compresses payload and prepends the header.
func wrapFile(payload []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	defer encoder.Close()

	compressed := encoder.EncodeAll(payload, nil)
	sum := blake3.Sum256(compressed)

	data := make([]byte, 0, headerLength+len(compressed))
	data = append(data, fileMagic...)
	data = append(data, fileVersion)
	data = append(data, sum[:]...)
	data = append(data, compressed...)

	return data, nil
}

// unwrapFile validates the header and returns the decompressed payload.
func unwrapFile(data []byte) ([]byte, error) {
	if len(data) < headerLength || !bytes.Equal(data[:len(fileMagic)], fileMagic) {
		return nil, fmt.Errorf("%w: unknown file format", ErrCorrupted)
	}

	if version := data[len(fileMagic)]; version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupted, version)
	}

	var (
		want       = data[len(fileMagic)+1 : headerLength]
		compressed = data[headerLength:]
		got        = blake3.Sum256(compressed)
	)

	if !bytes.Equal(want, got[:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupted)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	defer decoder.Close()

	payload, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	return payload, nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary state file: %w", err)
	}

	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return cause
	}

	if _, err = tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write state file: %w", err))
	}

	if err = tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync state file: %w", err))
	}

	if err = tmp.Chmod(config.DefaultFilePermissions); err != nil {
		return cleanup(fmt.Errorf("chmod state file: %w", err))
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close state file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
