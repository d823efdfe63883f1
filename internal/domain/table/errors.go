package table

import (
	"errors"
	"fmt"
)

// Sentinel kinds for table errors.
var (
	ErrIndexOutOfRange = errors.New("row index out of range")
)

// IndexError reports a RowAt call outside the table.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d, len %d", ErrIndexOutOfRange, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }
