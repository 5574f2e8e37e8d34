package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewAppError(ErrCodeFetchFailed, "weather fetch failed", inner)

	assert.Equal(t, "fetch_failed: weather fetch failed", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "direct app error",
			err:  NewAppError(ErrCodeLocationUnavailable, "no fix", nil),
			want: ErrCodeLocationUnavailable,
		},
		{
			name: "wrapped app error",
			err:  fmt.Errorf("pipeline: %w", NewAppError(ErrCodeNotifyFailed, "rejected", nil)),
			want: ErrCodeNotifyFailed,
		},
		{
			name: "plain error is internal",
			err:  errors.New("nil pointer somewhere"),
			want: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewAppError(ErrCodeLocationUnavailable, "timeout", nil)))
	assert.True(t, IsRetryable(NewAppError(ErrCodeFetchFailed, "503", nil)))
	assert.False(t, IsRetryable(NewAppError(ErrCodeNotifyFailed, "denied", nil)))
	assert.False(t, IsRetryable(NewAppError(ErrCodeInternal, "bug", nil)))
	assert.False(t, IsRetryable(errors.New("unknown")))
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrCodeValidationInvalidLat.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, ErrCodeNotFoundTask.HTTPStatus())
	assert.Equal(t, http.StatusConflict, ErrCodeConflictCycleRunning.HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, ErrCodeFetchFailed.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, ErrCodeUpstreamRateLimited.HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, ErrCodeLocationUnavailable.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("something_else").HTTPStatus())
}

func TestSecretString_Redaction(t *testing.T) {
	s := SecretString("owm-api-key")

	assert.Equal(t, "***REDACTED***", fmt.Sprintf("%s", s))
	assert.Equal(t, "owm-api-key", s.Unmask())

	b, err := s.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"***REDACTED***"`, string(b))
}
