package tariff

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error returned by this package wraps exactly one of
// them and can be matched with errors.Is.
var (
	ErrMissingRequiredTable = errors.New("missing required table")
	ErrWeightParse          = errors.New("weight label has no digits")
	ErrZoneNotFound         = errors.New("zone not found")
	ErrBracketNotFound      = errors.New("no weight bracket covers weight")
	ErrPriceColumnMissing   = errors.New("price column missing")
	ErrInvalidWeight        = errors.New("invalid weight")
	ErrIngestion            = errors.New("ingestion failed")
)

// Error is a tariff failure. It holds the kind, the wrapped cause
// and a message that is safe to show to the user who uploaded the
// file or asked for the quote.
type Error struct {
	kind       error
	err        error
	msg        string
	statusCode int
}

func newError(kind error, err error, msg string, statusCode int) *Error {
	return &Error{
		kind:       kind,
		err:        err,
		msg:        msg,
		statusCode: statusCode,
	}
}

// IngestionError wraps err as an ErrIngestion failure. It is used for any
// malformed upload that has no more specific kind.
func IngestionError(err error) *Error {
	return newError(ErrIngestion, err,
		fmt.Sprintf("Fehler beim Einlesen der Datei: %v", err),
		http.StatusUnprocessableEntity)
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.kind.Error()
	}

	return fmt.Sprintf("%v: %v", e.kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Is(target error) bool {
	return e.kind == target
}

// Kind returns the sentinel this error was created with.
func (e *Error) Kind() error {
	return e.kind
}

// Message returns the user facing message.
func (e *Error) Message() string {
	return e.msg
}

func (e *Error) ServerErrorResponse() (int, string) {
	return e.statusCode, e.msg
}
