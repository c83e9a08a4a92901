package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"idgen_server/pkg/apperr"
	"idgen_server/pkg/logger"
	"idgen_server/pkg/ratelimit"
	"idgen_server/pkg/snowflake"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

func newApp(handler fiber.Handler, mw ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(RequestID())
	for _, m := range mw {
		app.Use(m)
	}
	app.Get("/", handler)
	return app
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "app error",
			err:    apperr.InvalidInput("count", "must be an integer"),
			status: http.StatusBadRequest,
			code:   apperr.CodeInvalidInput,
		},
		{
			name:   "wrapped app error",
			err:    fmt.Errorf("handler: %w", apperr.RateLimited(5)),
			status: http.StatusTooManyRequests,
			code:   apperr.CodeRateLimited,
		},
		{
			name: "clock regression",
			err: apperr.FromGenerator(&snowflake.ClockRegressionError{
				Offset: 10 * time.Millisecond,
			}),
			status: http.StatusServiceUnavailable,
			code:   apperr.CodeClockRegression,
		},
		{
			name:   "fiber error",
			err:    fiber.ErrMethodNotAllowed,
			status: http.StatusMethodNotAllowed,
			code:   "METHOD_NOT_ALLOWED",
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   apperr.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decodeError(t, resp)
			if body.Success || body.Error.Code != tt.code {
				t.Errorf("body = %+v, want code %s", body, tt.code)
			}
			if body.RequestID == "" {
				t.Error("request_id missing from error body")
			}
		})
	}
}

func TestRequestID_EchoesHeader(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("request_id").(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("generated X-Request-ID = %q, want a uuid", got)
	}
}

func TestRequestID_StoredOnUserContext(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return c.SendString(logger.RequestIDFromContext(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-ctx-1")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "req-ctx-1" {
		t.Errorf("request id on user context = %q, want req-ctx-1", body)
	}
}

func TestRecover(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error { panic("kaboom") }, Recover())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Error.Code != apperr.CodeInternalError {
		t.Errorf("code = %s", body.Error.Code)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) }, JWTAuth("secret"))

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Authorization %q: status = %d, want 401", header, resp.StatusCode)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if body := decodeError(t, resp); body.Error.Code != apperr.CodeInvalidToken {
		t.Errorf("code = %s, want %s", body.Error.Code, apperr.CodeInvalidToken)
	}
}

func TestRateLimit_WithoutRedisAllows(t *testing.T) {
	limiter := ratelimit.NewLimiter(nil, nil, ratelimit.Config{Limit: 1, Window: time.Minute}, zerolog.Nop())
	app := newApp(func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) }, RateLimit(limiter))

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, resp.StatusCode)
		}
		if got := resp.Header.Get("X-RateLimit-Limit"); got != "1" {
			t.Errorf("X-RateLimit-Limit = %q, want 1", got)
		}
	}
}
