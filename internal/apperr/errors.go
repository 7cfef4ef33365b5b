// Package apperr holds the error kinds shared across idmkit packages.
//
// Callers wrap these with fmt.Errorf("...: %w", ...) and test with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrParse             = errors.New("parse error")
	ErrIO                = errors.New("i/o error")
	ErrInvalidInputSpec  = errors.New("invalid input spec")
	ErrAmbiguousHeadline = errors.New("ambiguous headline")
	ErrInvalidName       = errors.New("invalid name")
)

// IO tags err as a filesystem failure while keeping the cause reachable
// through errors.Is and errors.As.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}
