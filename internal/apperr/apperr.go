package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Kind string

const (
	KindInvalidDelimiter Kind = "invalid_delimiter"
	KindDecode           Kind = "decode_error"
	KindParse            Kind = "parse_error"
	KindEmptyDataset     Kind = "empty_dataset"
	KindTagConflict      Kind = "tag_conflict"
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation"
	KindStorage          Kind = "storage_error"
	KindInternal         Kind = "internal"
)

// Error is the error type returned by services for failures the caller can act on.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// kinded is implemented by typed errors declared in other packages (csvio).
type kinded interface {
	Kind() Kind
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}

func Status(kind Kind) int {
	switch kind {
	case KindInvalidDelimiter, KindDecode, KindParse, KindEmptyDataset, KindTagConflict, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing text for err. Server-side kinds get a
// generic message so paths and driver errors stay out of responses.
func Message(err error) string {
	kind := KindOf(err)
	switch kind {
	case KindStorage:
		return "storage operation failed"
	case KindInternal:
		return "internal server error"
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	if kind == KindNotFound {
		return "record not found"
	}
	return err.Error()
}

func Respond(c *gin.Context, err error) {
	kind := KindOf(err)
	c.JSON(Status(kind), gin.H{"error": Message(err), "kind": kind})
}
