package policy

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("policy file not found")
	ErrUnknownSubject   = errors.New("unknown subject")
	ErrUnknownKind      = errors.New("unknown line kind")
	ErrUnknownClause    = errors.New("unknown clause")
	ErrMalformedClause  = errors.New("malformed clause")
	ErrMalformedLine    = errors.New("malformed line")
	ErrRegexUnsupported = errors.New("regex command matching is not supported")
)

// ParseError is returned by Load and Parse. Line is 1-based; it is zero when
// the failure concerns the whole file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
