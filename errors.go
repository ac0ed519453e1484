package cathapult

import (
	"errors"
	"fmt"
	"io/fs"

	"cathapult/colstore"
	"cathapult/summary"
	"cathapult/tsv"
)

var (
	// ErrNotFound is returned when a source file, store or blob is absent.
	ErrNotFound = errors.New("cathapult: not found")

	// ErrCorrupted is returned when a store file fails validation.
	ErrCorrupted = errors.New("cathapult: store corrupted")

	// ErrValidation is returned for unusable input: an empty fetch list,
	// a malformed source reference, conflicting options.
	ErrValidation = errors.New("cathapult: invalid input")
)

// SchemaError indicates the source schema cannot satisfy the request, such
// as a missing key or keyword column.
//
// The underlying error can be accessed via errors.Unwrap.
type SchemaError struct {
	Column string // offending column, when known
	cause  error
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("cathapult: schema: no column %q", e.Column)
	}
	return "cathapult: schema mismatch"
}

func (e *SchemaError) Unwrap() error { return e.cause }

// translateError maps package-level failures onto the public taxonomy so
// callers match on cathapult errors without importing internals.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, colstore.ErrCorrupted) ||
		errors.Is(err, colstore.ErrInvalidMagic) ||
		errors.Is(err, colstore.ErrInvalidVersion) {
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	var ce *summary.ColumnError
	if errors.As(err, &ce) {
		return &SchemaError{Column: ce.Column, cause: err}
	}
	if errors.Is(err, summary.ErrNoKeywordColumn) || errors.Is(err, tsv.ErrNoHeader) {
		return &SchemaError{cause: err}
	}
	var re *tsv.RowError
	if errors.As(err, &re) {
		return &SchemaError{cause: err}
	}

	return err
}
