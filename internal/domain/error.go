package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeFailedPrecond    ErrorCode = "FAILED_PRECONDITION"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodeInternal         ErrorCode = "INTERNAL"
	CodeCanceled         ErrorCode = "CANCELED"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:    existing.Code,
			Op:      op,
			Message: existing.Message,
			Cause:   existing.Cause,
		}
	}
	return E(code, op, "", err)
}

// ConfigurationError reports required settings that were not provided at startup.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("configuration: missing required settings: %s", strings.Join(e.Missing, ", "))
}

// AuthError reports a failed client-credentials token request. Status is zero
// when the token endpoint could not be reached.
type AuthError struct {
	Status int
	Body   string
	Cause  error
}

func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("token request failed: status %d: %s", e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("token request failed: status %d", e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("token request failed: %v", e.Cause)
	default:
		return "token request failed"
	}
}

func (e *AuthError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// RemoteAPIError carries a non-2xx registry response. Body is kept verbatim.
type RemoteAPIError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteAPIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Body == "" {
		return fmt.Sprintf("%s: registry responded with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: registry responded with status %d: %s", e.Op, e.Status, e.Body)
}

type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

type MissingArgumentError struct {
	Tool  string
	Field string
}

func (e *MissingArgumentError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: missing required argument %q", e.Tool, e.Field)
}

type InvalidArgumentError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: invalid argument %q: %s", e.Tool, e.Field, e.Reason)
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	var (
		cfgErr     *ConfigurationError
		authErr    *AuthError
		remoteErr  *RemoteAPIError
		unknownErr *UnknownToolError
		missingErr *MissingArgumentError
		invalidErr *InvalidArgumentError
	)
	switch {
	case errors.As(err, &cfgErr):
		return CodeFailedPrecond, true
	case errors.As(err, &authErr):
		if authErr.Status == 0 && authErr.Cause != nil {
			if code, ok := contextCode(authErr.Cause); ok {
				return code, true
			}
		}
		return CodeUnauthenticated, true
	case errors.As(err, &remoteErr):
		return CodeFromHTTPStatus(remoteErr.Status), true
	case errors.As(err, &unknownErr):
		return CodeNotFound, true
	case errors.As(err, &missingErr), errors.As(err, &invalidErr):
		return CodeInvalidArgument, true
	}
	return contextCode(err)
}

// CodeFromHTTPStatus classifies a non-2xx registry status.
func CodeFromHTTPStatus(status int) ErrorCode {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CodeInvalidArgument
	case status == http.StatusUnauthorized:
		return CodeUnauthenticated
	case status == http.StatusForbidden:
		return CodePermissionDenied
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return CodeDeadlineExceeded
	case status >= 500:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

func contextCode(err error) (ErrorCode, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return CodeCanceled, true
	case errors.Is(err, context.DeadlineExceeded):
		return CodeDeadlineExceeded, true
	default:
		return "", false
	}
}
