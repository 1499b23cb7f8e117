package csvio

import (
	"errors"
	"fmt"

	"hexapink-api/internal/apperr"
)

var (
	errUnknownEncoding = errors.New("unknown encoding")
	// ErrReadSource stands in for I/O failures of the underlying reader,
	// whose messages may carry file system paths.
	ErrReadSource = errors.New("cannot read source")
)

// ParseError reports structurally malformed delimited data. Line is 1-based and
// zero when the failure is not tied to a line (e.g. the source could not be read).
// Cause holds the underlying read error for logging; it is not part of Error.
type ParseError struct {
	Line  int
	Err   error
	Cause error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func (e *ParseError) Kind() apperr.Kind { return apperr.KindParse }

type DecodeError struct {
	Encoding Encoding
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode input as %s: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error     { return e.Err }
func (e *DecodeError) Kind() apperr.Kind { return apperr.KindDecode }

type InvalidDelimiterError struct {
	Delimiter string
}

func (e *InvalidDelimiterError) Error() string {
	return fmt.Sprintf("invalid delimiter %q (use comma, tab, semicolon or pipe)", e.Delimiter)
}

func (e *InvalidDelimiterError) Kind() apperr.Kind { return apperr.KindInvalidDelimiter }

type EmptyDatasetError struct{}

func (e *EmptyDatasetError) Error() string     { return "no data rows found in file" }
func (e *EmptyDatasetError) Kind() apperr.Kind { return apperr.KindEmptyDataset }
