package storage

import (
	"errors"
	"io/fs"
	"os"

	"lejting/internal/ledger"
)

// Save overwrites path with the encoded store. The write is not atomic: a
// crash part-way through can leave a truncated file behind.
func Save(s *ledger.Store, path string) error {
	if path == "" {
		path = DefaultDataFile
	}
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load reads and decodes path. A missing file yields ErrFileAbsent so the
// caller can start from an empty store.
func Load(path string, opts ...ledger.Option) (*ledger.Store, error) {
	if path == "" {
		path = DefaultDataFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileAbsent
		}
		return nil, &IOError{Op: "load", Path: path, Err: err}
	}

	s, err := Decode(data, opts...)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return s, nil
}
