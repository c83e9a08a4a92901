package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"idgen_server/pkg/snowflake"
)

func TestFromGenerator(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "clock regression",
			err:        &snowflake.ClockRegressionError{Offset: 7 * time.Millisecond},
			wantCode:   CodeClockRegression,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "wrapped sentinel",
			err:        fmt.Errorf("mint: %w", snowflake.ErrClockMovedBack),
			wantCode:   CodeClockRegression,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "clock out of range",
			err:        fmt.Errorf("%w: 0 ms", snowflake.ErrClockOutOfRange),
			wantCode:   CodeClockOutOfRange,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "invalid worker",
			err:        fmt.Errorf("%w: got 2000", snowflake.ErrInvalidWorkerID),
			wantCode:   CodeInvalidWorkerID,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown",
			err:        errors.New("disk on fire"),
			wantCode:   CodeInternalError,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromGenerator(tt.err)
			if appErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", appErr.Code, tt.wantCode)
			}
			if appErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", appErr.Status, tt.wantStatus)
			}
			if !errors.Is(appErr, tt.err) {
				t.Errorf("AppError does not wrap original error")
			}
		})
	}

	if FromGenerator(nil) != nil {
		t.Error("FromGenerator(nil) should be nil")
	}
}

func TestFromGenerator_RegressionDetails(t *testing.T) {
	appErr := FromGenerator(&snowflake.ClockRegressionError{Offset: 3 * time.Millisecond, Retried: true})
	if appErr.Details["offset_ms"] != int64(3) {
		t.Errorf("offset_ms = %v", appErr.Details["offset_ms"])
	}
	if appErr.Details["retried"] != true {
		t.Errorf("retried = %v", appErr.Details["retried"])
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", InvalidInput("count", "too big"))
	got := AsAppError(wrapped)
	if got.Code != CodeInvalidInput || got.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("AsAppError = %s/%d", got.Code, got.HTTPStatus())
	}
	if got := AsAppError(errors.New("plain")); got.Code != CodeInternalError {
		t.Errorf("plain error code = %s", got.Code)
	}
}

func TestConfigError(t *testing.T) {
	cause := errors.New("ID_WORKER_ID out of range")
	err := ConfigError(cause)
	if err.Code != CodeConfigError || !errors.Is(err, cause) {
		t.Errorf("ConfigError = %v", err)
	}
	if err.Error() != "[CONFIG_ERROR] invalid configuration: ID_WORKER_ID out of range" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestAppError_Error(t *testing.T) {
	err := Wrap(errors.New("cause"), CodeClockRegression, "clock moved", 503)
	if err.Error() != "[CLOCK_REGRESSION] clock moved: cause" {
		t.Errorf("Error() = %q", err.Error())
	}
	if RateLimited(3).Details["retry_after"] != 3 {
		t.Error("RateLimited missing retry_after")
	}
}
