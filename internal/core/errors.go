package core

import (
	"errors"
	"fmt"
)

// Configuration errors abort the run before any output is written.
var (
	ErrInputNotFound   = errors.New("input file not found")
	ErrInputAccess     = errors.New("input file not readable")
	ErrEmptyInput      = errors.New("empty file")
	ErrInvalidCSV      = errors.New("invalid csv")
	ErrUnknownEncoding = errors.New("unknown encoding")
	ErrEncoding        = errors.New("encoding error")
	ErrColumnNotFound  = errors.New("column not found")
	ErrAmbiguousColumn = errors.New("ambiguous column")
	ErrColumnCollision = errors.New("output column already present")
	ErrInvalidOption   = errors.New("invalid option")
)

// Run errors.
var (
	ErrOutputUnwritable = errors.New("output not writable")
	ErrInvalidRow       = errors.New("invalid row")
)

// ColumnError names the role a column lookup failed for.
type ColumnError struct {
	Role       Role
	Column     string   // Requested column, empty when auto-discovering
	Candidates []string // Matching headers when ambiguous
	Err        error    // ErrColumnNotFound or ErrAmbiguousColumn
}

func (e *ColumnError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("%s column %q: %v", e.Role, e.Column, e.Err)
	case len(e.Candidates) > 0:
		return fmt.Sprintf("%s column: %v (candidates: %q)", e.Role, e.Err, e.Candidates)
	default:
		return fmt.Sprintf("%s column: %v", e.Role, e.Err)
	}
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// RowError reports the row that stopped a strict run.
type RowError struct {
	Line  int
	Cause ValidationError
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Cause)
}

func (e *RowError) Unwrap() error {
	return ErrInvalidRow
}

// IsConfigError reports whether err stems from options, input layout or
// the output location rather than from processing.
func IsConfigError(err error) bool {
	for _, target := range []error{
		ErrInputNotFound, ErrInputAccess, ErrEmptyInput, ErrUnknownEncoding,
		ErrOutputUnwritable, ErrColumnNotFound, ErrAmbiguousColumn,
		ErrColumnCollision, ErrInvalidOption,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Exit codes returned by the command.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsConfigError(err):
		return ExitConfigError
	default:
		return ExitFailure
	}
}
