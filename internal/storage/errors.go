package storage

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrFileAbsent is returned by Load when the data file does not exist yet.
// It wraps fs.ErrNotExist.
var ErrFileAbsent = fmt.Errorf("data file absent: %w", fs.ErrNotExist)

// ParseError reports malformed data file content.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse ledger: %v", e.Err)
	}
	return fmt.Sprintf("parse ledger %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a failure to read or write the data file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsParseError reports whether err carries a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
