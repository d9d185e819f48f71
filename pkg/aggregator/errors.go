package aggregator

import (
	"errors"
	"fmt"
)

// ErrNoSources is returned by Run when it is handed nothing to count.
var ErrNoSources = errors.New("no sources to count")

// SourceOpenError means a source could not be opened for reading. Run
// returns it before any counting starts.
type SourceOpenError struct {
	Source string
	Err    error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("failed to open source %s: %v", e.Source, e.Err)
}

func (e *SourceOpenError) Unwrap() error {
	return e.Err
}

// SourceReadError means an opened source failed part way through. Counts
// already folded in from that source stay in the table.
type SourceReadError struct {
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("failed to read source %s: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}
