package source

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for source errors.
var (
	ErrLoad   = errors.New("table load failed")
	ErrSchema = errors.New("table schema invalid")
)

// LoadError reports an unreachable or unparseable source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%v: %v", ErrLoad, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrLoad, e.Source, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *LoadError) Unwrap() []error { return []error{ErrLoad, e.Err} }

// SchemaError reports identifying columns absent from the header.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%v: missing column(s) %s", ErrSchema, strings.Join(e.Missing, ", "))
	if e.Source != "" {
		msg += " in " + e.Source
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// withSource stamps the source name onto load and schema errors.
func withSource(err error, name string) error {
	var le *LoadError
	if errors.As(err, &le) && le.Source == "" {
		le.Source = name
		return le
	}
	var se *SchemaError
	if errors.As(err, &se) && se.Source == "" {
		se.Source = name
		return se
	}
	return err
}
