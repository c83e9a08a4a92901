package config

import (
	"errors"
	"testing"
	"time"

	"idgen_server/pkg/apperr"
	"idgen_server/pkg/snowflake"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ID_WORKER_ID", "WORKER_ID", "PORT", "ID_BATCH_MAX", "REDIS_URL", "ENV"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WorkerID != 0 {
		t.Errorf("WorkerID = %d, want 0", cfg.WorkerID)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %s", cfg.Port)
	}
	if cfg.BatchMax != 1000 {
		t.Errorf("BatchMax = %d", cfg.BatchMax)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v", cfg.RateLimitWindow)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Errorf("Environment = %s", cfg.Environment)
	}
}

func TestLoad_WorkerID(t *testing.T) {
	tests := []struct {
		name     string
		primary  string
		fallback string
		want     int64
		wantErr  bool
	}{
		{"primary", "42", "", 42, false},
		{"fallback name", "", "7", 7, false},
		{"primary wins", "3", "9", 3, false},
		{"lower bound", "0", "", 0, false},
		{"upper bound", "1023", "", 1023, false},
		{"negative", "-1", "", 0, true},
		{"too large", "1024", "", 0, true},
		{"not a number", "worker-a", "", 0, true},
		{"malformed fallback", "", "1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ID_WORKER_ID", tt.primary)
			t.Setenv("WORKER_ID", tt.fallback)

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var appErr *apperr.AppError
				if !errors.As(err, &appErr) || appErr.Code != apperr.CodeConfigError {
					t.Errorf("Load() error = %v, want %s", err, apperr.CodeConfigError)
				}
				return
			}
			if cfg.WorkerID != tt.want {
				t.Errorf("WorkerID = %d, want %d", cfg.WorkerID, tt.want)
			}
		})
	}
}

func TestLoad_InvalidBatchMax(t *testing.T) {
	t.Setenv("ID_WORKER_ID", "1")
	t.Setenv("ID_BATCH_MAX", "0")

	if _, err := Load(); err == nil {
		t.Error("Load() accepted ID_BATCH_MAX=0")
	}
}

func TestValidate_WorkerIDRange(t *testing.T) {
	cfg := &Config{BatchMax: 1, RateLimitPerWindow: 1, RateLimitWindow: time.Second}

	cfg.WorkerID = snowflake.MaxWorkerID
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate(%d) error = %v", cfg.WorkerID, err)
	}
	cfg.WorkerID = snowflake.MaxWorkerID + 1
	if err := cfg.Validate(); err == nil {
		t.Errorf("Validate(%d) succeeded", cfg.WorkerID)
	}
}
