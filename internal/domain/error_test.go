package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFrom_TypedErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"configuration", &ConfigurationError{Missing: []string{"clientId"}}, CodeFailedPrecond},
		{"auth status", &AuthError{Status: http.StatusUnauthorized}, CodeUnauthenticated},
		{"auth deadline", &AuthError{Cause: context.DeadlineExceeded}, CodeDeadlineExceeded},
		{"remote 400", &RemoteAPIError{Op: "get_organisation", Status: http.StatusBadRequest}, CodeInvalidArgument},
		{"remote 403", &RemoteAPIError{Status: http.StatusForbidden}, CodePermissionDenied},
		{"remote 404", &RemoteAPIError{Status: http.StatusNotFound}, CodeNotFound},
		{"remote 503", &RemoteAPIError{Status: http.StatusServiceUnavailable}, CodeUnavailable},
		{"unknown tool", &UnknownToolError{Name: "nope"}, CodeNotFound},
		{"missing arg", &MissingArgumentError{Tool: ToolGetDocument, Field: ArgDocumentID}, CodeInvalidArgument},
		{"invalid arg", &InvalidArgumentError{Tool: ToolGetDocument, Field: ArgDocumentID, Reason: "must be a string"}, CodeInvalidArgument},
		{"wrapped", fmt.Errorf("dispatch: %w", &UnknownToolError{Name: "x"}), CodeNotFound},
		{"canceled", context.Canceled, CodeCanceled},
		{"envelope", E(CodeInternal, "decode", "bad json", nil), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := CodeFrom(tc.err)
			require.True(t, ok)
			assert.Equal(t, tc.want, code)
		})
	}
}

func TestCodeFrom_Unclassified(t *testing.T) {
	_, ok := CodeFrom(errors.New("boom"))
	assert.False(t, ok)
	_, ok = CodeFrom(nil)
	assert.False(t, ok)
}

func TestWrap_PreservesExistingEnvelope(t *testing.T) {
	inner := E(CodeUnavailable, "", "down", nil)
	wrapped := Wrap(CodeInternal, "is_alive", inner)
	assert.Equal(t, CodeUnavailable, wrapped.Code)
	assert.Equal(t, "is_alive", wrapped.Op)
	assert.Equal(t, "is_alive: UNAVAILABLE: down", wrapped.Error())
	assert.Nil(t, Wrap(CodeInternal, "op", nil))
}

func TestRemoteAPIError_KeepsBodyVerbatim(t *testing.T) {
	body := `{"allowed_ids":["5560000001"]}`
	err := &RemoteAPIError{Op: ToolGetOrganisation, Status: http.StatusBadRequest, Body: body}
	assert.Contains(t, err.Error(), body)
	assert.Contains(t, err.Error(), "400")
}

func TestAuthError_Unwrap(t *testing.T) {
	err := &AuthError{Cause: context.Canceled}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "token request failed: status 401: nope", (&AuthError{Status: 401, Body: "nope"}).Error())
}
