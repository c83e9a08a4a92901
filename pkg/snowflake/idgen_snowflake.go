// Package snowflake implements the Snowflake-style 64-bit ID generator.
//
// ID structure (64 bits):
//
//	┌─────────┬─────────────────────┬────────────┬──────────────┐
//	│ 1 bit   │      41 bits        │  10 bits   │   12 bits    │
//	│ sign(0) │ timestamp (ms)      │ worker_id  │  sequence    │
//	└─────────┴─────────────────────┴────────────┴──────────────┘
//
// - 41 bits: milliseconds since Epoch (~69 years)
// - 10 bits: worker/node ID (0-1023)
// - 12 bits: sequence number (0-4095 per ms)
//
// IDs from one Generator are strictly increasing. IDs from different
// generators are only unique if their worker IDs are assigned without
// collision by the deployment.
package snowflake

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// Epoch is 2024-01-01 00:00:00 UTC in milliseconds. NextID refuses clock
	// readings before Epoch or more than MaxTimestamp ms after it (mid 2093),
	// either of which would set the sign bit.
	Epoch int64 = 1704067200000

	timestampBits = 41
	workerIDBits  = 10
	sequenceBits  = 12

	MaxWorkerID  = (1 << workerIDBits) - 1  // 1023
	MaxSequence  = (1 << sequenceBits) - 1  // 4095
	MaxTimestamp = (1 << timestampBits) - 1 // ms after Epoch

	timestampShift = workerIDBits + sequenceBits // 22
	workerIDShift  = sequenceBits                // 12

	// MaxBackwardTolerance is the largest backward clock step NextID waits out.
	MaxBackwardTolerance = 5 * time.Millisecond
)

var (
	ErrInvalidWorkerID = errors.New("worker ID must be between 0 and 1023")
	ErrClockMovedBack  = errors.New("clock moved backwards")
	ErrClockOutOfRange = errors.New("clock outside the representable timestamp range")
)

// ClockRegressionError reports a backward clock step NextID refused to absorb.
// It matches ErrClockMovedBack with errors.Is.
type ClockRegressionError struct {
	Offset  time.Duration
	Retried bool // true when the clock was still behind after the corrective sleep
}

func (e *ClockRegressionError) Error() string {
	if e.Retried {
		return fmt.Sprintf("clock moved backwards by %v and did not recover, refusing to generate ID", e.Offset)
	}
	return fmt.Sprintf("clock moved backwards by %v, refusing to generate ID", e.Offset)
}

func (e *ClockRegressionError) Unwrap() error {
	return ErrClockMovedBack
}

// Observer receives generator events. Implementations must be cheap and
// must not call back into the generator: they run inside the critical section.
type Observer interface {
	ClockRegression(offset time.Duration, recovered bool)
	SequenceExhausted()
}

type nopObserver struct{}

func (nopObserver) ClockRegression(time.Duration, bool) {}
func (nopObserver) SequenceExhausted()                  {}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock. now must return milliseconds since the Unix epoch.
func WithClock(now func() int64) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithSleep replaces the function used for the corrective wait on small clock regressions.
func WithSleep(sleep func(time.Duration)) Option {
	return func(g *Generator) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

func WithObserver(obs Observer) Option {
	return func(g *Generator) {
		if obs != nil {
			g.obs = obs
		}
	}
}

// Generator generates unique Snowflake IDs.
type Generator struct {
	mu       sync.Mutex
	workerID int64
	sequence int64
	lastTime int64

	now   func() int64
	sleep func(time.Duration)
	log   zerolog.Logger
	obs   Observer
}

// NewGenerator creates a new Snowflake ID generator.
// workerID must be between 0 and 1023.
func NewGenerator(workerID int64, opts ...Option) (*Generator, error) {
	if workerID < 0 || workerID > MaxWorkerID {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkerID, workerID)
	}

	g := &Generator{
		workerID: workerID,
		sequence: 0,
		lastTime: -1,
		now:      currentTimeMillis,
		sleep:    time.Sleep,
		log:      zerolog.Nop(),
		obs:      nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}

	g.log.Info().Int64("worker_id", workerID).Msg("snowflake generator initialized")
	return g, nil
}

// WorkerID returns the worker ID embedded in every generated ID.
func (g *Generator) WorkerID() int64 {
	return g.workerID
}

// NextID generates a new unique Snowflake ID.
//
// A backward clock step of up to MaxBackwardTolerance is waited out once
// (sleeping twice the offset); anything larger, or a step that persists after
// the wait, fails with a *ClockRegressionError. When the 4096 sequence values
// of a millisecond are used up NextID spins until the clock advances. Neither
// wait can be cancelled.
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	if now < g.lastTime {
		offset := time.Duration(g.lastTime-now) * time.Millisecond
		if offset > MaxBackwardTolerance {
			g.obs.ClockRegression(offset, false)
			return 0, &ClockRegressionError{Offset: offset}
		}

		g.sleep(offset << 1)
		now = g.now()
		if now < g.lastTime {
			remaining := time.Duration(g.lastTime-now) * time.Millisecond
			g.obs.ClockRegression(remaining, false)
			return 0, &ClockRegressionError{Offset: remaining, Retried: true}
		}

		g.obs.ClockRegression(offset, true)
		g.log.Warn().Dur("offset", offset).Msg("clock moved backwards, recovered after wait")
	}

	if now < Epoch || now-Epoch > MaxTimestamp {
		return 0, fmt.Errorf("%w: %d ms", ErrClockOutOfRange, now)
	}

	if now == g.lastTime {
		// Same millisecond, increment sequence
		g.sequence = (g.sequence + 1) & MaxSequence
		if g.sequence == 0 {
			g.obs.SequenceExhausted()
			now = g.waitNextMillis(g.lastTime)
		}
	} else {
		g.sequence = 0
	}

	g.lastTime = now

	id := ((now - Epoch) << timestampShift) |
		(g.workerID << workerIDShift) |
		g.sequence

	return id, nil
}

// MustNextID generates a new ID and panics on error.
func (g *Generator) MustNextID() int64 {
	id, err := g.NextID()
	if err != nil {
		panic(err)
	}
	return id
}

// waitNextMillis spins until the clock passes lastTime.
func (g *Generator) waitNextMillis(lastTime int64) int64 {
	now := g.now()
	for now <= lastTime {
		runtime.Gosched()
		now = g.now()
	}
	return now
}

func currentTimeMillis() int64 {
	return time.Now().UnixMilli()
}
