package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema marks a source whose raw table cannot be mapped onto the
	// observation model. It is permanent for the lifetime of the process.
	ErrSchema = errors.New("schema error")

	// ErrSourceUnavailable marks a failed fetch of a source's backing file.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnknownSource is returned for source keys with no registered definition.
	ErrUnknownSource = errors.New("unknown source")

	// ErrNoData is returned by Compare when none of the requested countries has data.
	ErrNoData = errors.New("no data found")

	// ErrInvalidParameter marks caller input that cannot be interpreted.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// SchemaError reports required column roles that could not be resolved,
// or a raw file that holds no tabular data at all.
type SchemaError struct {
	Source  string
	Missing []Role
	Reason  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("source %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("source %s: missing expected columns: %s", e.Source, strings.Join(e.MissingNames(), ", "))
}

// MissingNames returns the unresolved roles as plain strings.
func (e *SchemaError) MissingNames() []string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = string(r)
	}
	return names
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// SourceError wraps a fetch failure for a specific source.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}
