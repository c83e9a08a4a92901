package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"idgen_server/pkg/resilience"
)

func TestLimiter_NoRedisAllows(t *testing.T) {
	l := NewLimiter(nil, nil, Config{Limit: 2}, zerolog.Nop())
	if l.Enabled() {
		t.Fatal("Enabled() = true without redis")
	}

	for i := 0; i < 10; i++ {
		d := l.Allow(context.Background(), "10.0.0.1")
		if !d.Allowed || d.Degraded {
			t.Fatalf("call %d: decision = %+v", i, d)
		}
		if d.Limit != 2 || d.Remaining != 2 {
			t.Fatalf("call %d: limit/remaining = %d/%d", i, d.Limit, d.Remaining)
		}
	}
}

func TestLimiter_UnreachableRedisFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cfg := resilience.DefaultBreakerConfig("redis-test")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	breaker := resilience.NewBreaker(cfg, zerolog.Nop())

	l := NewLimiter(client, breaker, Config{Limit: 1, Timeout: 100 * time.Millisecond}, zerolog.Nop())

	for i := 0; i < 4; i++ {
		d := l.Allow(context.Background(), "client")
		if !d.Allowed {
			t.Fatalf("call %d: request rejected while redis is down", i)
		}
		if !d.Degraded {
			t.Fatalf("call %d: Degraded = false", i)
		}
	}

	if l.BreakerState() != "open" {
		t.Errorf("BreakerState() = %s, want open", l.BreakerState())
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(nil, nil, Config{}, zerolog.Nop())
	def := DefaultConfig()
	if l.cfg != def {
		t.Errorf("cfg = %+v, want %+v", l.cfg, def)
	}
}
