package manifest

import (
	"errors"
	"fmt"
)

// ErrNotHashdeep is wrapped by every FormatError.
var ErrNotHashdeep = errors.New("not a hashdeep file")

// ErrMalformedLine is wrapped by every DataError.
var ErrMalformedLine = errors.New("malformed data line")

// FormatError reports a preamble line that fails validation.
type FormatError struct {
	Path   string
	Line   int // 1-based
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s is not a hashdeep file: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrNotHashdeep }

// DataError reports a data row with fewer fields than the header declares.
type DataError struct {
	Path string
	Line int // 1-based
	Want int
	Got  int
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: line %d has %d fields, header declares %d columns", e.Path, e.Line, e.Got, e.Want)
}

func (e *DataError) Unwrap() error { return ErrMalformedLine }
