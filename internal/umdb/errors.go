package umdb

import (
	"errors"
	"fmt"

	"github.com/hnrobert/umgmt/internal/records"
)

var (
	// ErrAllocation is kept for callers matching the full error taxonomy.
	// The Go runtime reports memory exhaustion as a fatal error, so nothing
	// in this package returns it.
	ErrAllocation        = errors.New("allocation failure")
	ErrSourceUnavailable = records.ErrSourceUnavailable
	ErrSinkUnavailable   = records.ErrSinkUnavailable
	ErrMalformedRecord   = records.ErrMalformed
	ErrWriteFailure      = errors.New("record write failed")
	ErrExists            = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrDanglingReference = errors.New("group references a user outside the database")
)

// RecordError reports which file and record an operation failed on.
type RecordError struct {
	Op   string // "load" or "store"
	Kind records.Kind
	Name string
	Err  error
}

func (e *RecordError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s record %q: %v", e.Op, e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func loadError(kind records.Kind, err error) error {
	re := &RecordError{Op: "load", Kind: kind, Err: err}
	var pe *records.ParseError
	if errors.As(err, &pe) {
		re.Name = pe.Name
	}
	return re
}
