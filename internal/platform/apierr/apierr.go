package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the retrieval/synthesis core. Empty evidence and empty
// cluster membership are valid results, never errors.
const (
	CodeNotFound            = "not_found"
	CodeDimensionMismatch   = "dimension_mismatch"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeTimeout             = "timeout"
	CodeStaleWriteConflict  = "stale_write_conflict"
	CodeValidation          = "validation"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(entity string, id any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s %v not found", entity, id))
}

func DimensionMismatch(want, got int) *Error {
	return New(http.StatusBadRequest, CodeDimensionMismatch, fmt.Errorf("embedding dimension mismatch: expected=%d got=%d", want, got))
}

func UpstreamUnavailable(service string, err error) *Error {
	return New(http.StatusBadGateway, CodeUpstreamUnavailable, fmt.Errorf("%s unavailable: %w", service, err))
}

func Timeout(op string, err error) *Error {
	return New(http.StatusGatewayTimeout, CodeTimeout, fmt.Errorf("%s timed out: %w", op, err))
}

func StaleWriteConflict(key string) *Error {
	return New(http.StatusConflict, CodeStaleWriteConflict, fmt.Errorf("synthesis for %s invalidated during computation", key))
}

func Validation(err error) *Error {
	return New(http.StatusBadRequest, CodeValidation, err)
}

func HasCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

func IsNotFound(err error) bool            { return HasCode(err, CodeNotFound) }
func IsDimensionMismatch(err error) bool   { return HasCode(err, CodeDimensionMismatch) }
func IsUpstreamUnavailable(err error) bool { return HasCode(err, CodeUpstreamUnavailable) }
func IsTimeout(err error) bool             { return HasCode(err, CodeTimeout) }
func IsStaleWriteConflict(err error) bool  { return HasCode(err, CodeStaleWriteConflict) }

// StatusOf maps any error to an HTTP status for the handler layer.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
