package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"idgen_server/config"
	"idgen_server/internal/bootstrap"
	"idgen_server/pkg/apperr"
	"idgen_server/pkg/logger"
	"idgen_server/pkg/snowflake"

	"github.com/joho/godotenv"
)

func main() {
	// Initialize logger early
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "idgen",
	})

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	mode := flag.String("mode", "api", "Run mode: api, gen, decode")
	count := flag.Int("n", 1, "Number of IDs to print in gen mode")
	rawID := flag.String("id", "", "ID to decode in decode mode")
	flag.Parse()

	switch *mode {
	case "api":
		runAPI(loadConfig())
	case "gen":
		runGen(loadConfig(), *count)
	case "decode":
		runDecode(*rawID)
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		appErr := apperr.AsAppError(err)
		logger.WithField("error_code", appErr.Code).
			WithError(appErr.Err).
			Fatal("Failed to load config: %s", appErr.Message)
	}
	return cfg
}

func runAPI(cfg *config.Config) {
	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	// Graceful shutdown with timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", cfg.ShutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Error("Error shutting down: %v", err)
			return
		}
		logger.Info("API server shut down gracefully")
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s (worker %d)", addr, cfg.WorkerID)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

// runGen prints n IDs to stdout, one per line.
func runGen(cfg *config.Config, n int) {
	if n < 1 {
		logger.Fatal("-n must be positive, got %d", n)
	}
	if err := snowflake.Init(cfg.WorkerID, snowflake.WithLogger(logger.Default().Zerolog())); err != nil {
		logger.Fatal("Failed to initialize generator: %v", err)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for i := 0; i < n; i++ {
		fmt.Fprintln(w, snowflake.ID())
	}
}

func runDecode(raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		logger.Fatal("Invalid -id %q: must be a non-negative 64-bit integer", raw)
	}

	ts, workerID, seq := snowflake.Parse(id)
	fmt.Printf("id:        %d\n", id)
	fmt.Printf("timestamp: %s (%d)\n", ts.Format(time.RFC3339Nano), snowflake.ExtractTimestamp(id))
	fmt.Printf("worker_id: %d\n", workerID)
	fmt.Printf("sequence:  %d\n", seq)
}
