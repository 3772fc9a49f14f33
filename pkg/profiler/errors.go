package profiler

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes errors by how the caller is expected to react.
type ErrorKind int

const (
	// KindUsage marks mismatched instrumentation call sites.
	KindUsage ErrorKind = iota
	// KindConsistency marks a clock anomaly. The data can no longer be trusted.
	KindConsistency
)

func (k ErrorKind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

var (
	// ErrNotStarted is returned for a work that was never started.
	ErrNotStarted = errors.New("not started")
	// ErrDuplicateStart is returned when a work is started twice.
	ErrDuplicateStart = errors.New("duplicate start")
	// ErrNotEnded is returned when the elapsed time of a running work is
	// requested. DefaultWork is exempt.
	ErrNotEnded = errors.New("not ended")
	// ErrClockRegression is returned when a work ends before it started.
	ErrClockRegression = errors.New("end time before start time")
)

// Error wraps a sentinel with the operation and work name it was raised for.
type Error struct {
	Kind ErrorKind
	Op   string // "start_work", "end_work", "record_job", "work_elapsed"
	Name string
	Err  error
}

// Error implements error interface
func (e *Error) Error() string {
	return fmt.Sprintf("profiler: %s %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap implements error unwrapping
func (e *Error) Unwrap() error {
	return e.Err
}

func usageError(op, name string, err error) *Error {
	return &Error{Kind: KindUsage, Op: op, Name: name, Err: err}
}

// IsUsage reports whether err is a usage error raised by the store.
func IsUsage(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindUsage
}

// IsConsistency reports whether err is a consistency error raised by the store.
func IsConsistency(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindConsistency
}
