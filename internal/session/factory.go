package session

import (
	"fmt"
	"io"
	"strings"
)

// Storage backends selectable through configuration.
const (
	BackendFile      = "file"
	BackendEncrypted = "encrypted"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendFile, BackendEncrypted, BackendSQLite, BackendMemory}
}

// OpenOptions selects and configures a storage backend.
type OpenOptions struct {
	Backend    string
	Path       string
	Passphrase string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the Storage named by opts.Backend. The returned Closer must be
// closed when the storage is no longer needed.
func Open(opts OpenOptions) (Storage, io.Closer, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))

	switch backend {
	case "", BackendFile:
		if opts.Path == "" {
			return nil, nil, fmt.Errorf("file session storage requires a path")
		}
		return NewFileStorage(opts.Path), nopCloser{}, nil
	case BackendEncrypted:
		if opts.Path == "" {
			return nil, nil, fmt.Errorf("encrypted session storage requires a path")
		}
		enc, err := NewEncryptedStorage(NewFileStorage(opts.Path), opts.Passphrase)
		if err != nil {
			return nil, nil, err
		}
		return enc, nopCloser{}, nil
	case BackendSQLite:
		db, err := NewSQLiteStorage(opts.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite session storage: %w", err)
		}
		return db, db, nil
	case BackendMemory, "mem":
		return NewMemoryStorage(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("invalid storage backend %q (supported: %s)",
			opts.Backend, strings.Join(Backends(), ", "))
	}
}
