package domain

import (
	"errors"
	"net/http"
)

// ErrorCode classifies a DomainError for HTTP mapping and API response codes.
type ErrorCode int

const (
	ErrorCodeParameterInvalid ErrorCode = iota + 1
	ErrorCodeResourceNotFound
	ErrorCodeResourceConflict
	ErrorCodeAuthNotAuthenticated
	ErrorCodeAuthPermissionDenied
	ErrorCodeInternalProcess
	ErrorCodeRemoteProcess
)

// Sentinel errors returned by repositories. Services translate these into
// DomainErrors before they reach a handler.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDomainTaken    = errors.New("domain is already claimed")
)

// DomainError carries an error code, the underlying cause, and an optional
// client-facing message and detail payload.
type DomainError struct {
	code      ErrorCode
	err       error
	clientMsg string
	detail    map[string]interface{}
}

type ErrorOption func(*DomainError)

// WithMsg sets the message returned to the API client.
func WithMsg(msg string) ErrorOption {
	return func(e *DomainError) {
		e.clientMsg = msg
	}
}

// WithDetail attaches structured detail to the error response.
func WithDetail(detail map[string]interface{}) ErrorOption {
	return func(e *DomainError) {
		e.detail = detail
	}
}

func NewError(code ErrorCode, err error, opts ...ErrorOption) DomainError {
	e := DomainError{code: code, err: err}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e DomainError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.clientMsg
}

func (e DomainError) Unwrap() error {
	return e.err
}

func (e DomainError) Code() ErrorCode {
	return e.code
}

func (e DomainError) ClientMsg() string {
	return e.clientMsg
}

func (e DomainError) Detail() map[string]interface{} {
	return e.detail
}

// Name returns the stable identifier used in API error mapping.
// The zero value reports INTERNAL_PROCESS.
func (e DomainError) Name() string {
	switch e.code {
	case ErrorCodeParameterInvalid:
		return "PARAMETER_INVALID"
	case ErrorCodeResourceNotFound:
		return "RESOURCE_NOT_FOUND"
	case ErrorCodeResourceConflict:
		return "RESOURCE_CONFLICT"
	case ErrorCodeAuthNotAuthenticated:
		return "AUTH_NOT_AUTHENTICATED"
	case ErrorCodeAuthPermissionDenied:
		return "AUTH_PERMISSION_DENIED"
	case ErrorCodeRemoteProcess:
		return "REMOTE_PROCESS_ERROR"
	default:
		return "INTERNAL_PROCESS"
	}
}

func (e DomainError) HTTPStatus() int {
	switch e.code {
	case ErrorCodeParameterInvalid:
		return http.StatusBadRequest
	case ErrorCodeResourceNotFound:
		return http.StatusNotFound
	case ErrorCodeResourceConflict:
		return http.StatusConflict
	case ErrorCodeAuthNotAuthenticated:
		return http.StatusUnauthorized
	case ErrorCodeAuthPermissionDenied:
		return http.StatusForbidden
	case ErrorCodeRemoteProcess:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
