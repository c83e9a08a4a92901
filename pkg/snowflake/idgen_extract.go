package snowflake

import (
	"sync"
	"time"
)

// ExtractTimestamp returns the absolute Unix millisecond timestamp of an ID.
func ExtractTimestamp(id int64) int64 {
	return (id >> timestampShift) + Epoch
}

// ExtractWorkerID returns the worker ID component of an ID.
func ExtractWorkerID(id int64) int64 {
	return (id >> workerIDShift) & MaxWorkerID
}

// ExtractSequence returns the sequence component of an ID.
func ExtractSequence(id int64) int64 {
	return id & MaxSequence
}

// Parse extracts components from a Snowflake ID.
func Parse(id int64) (timestamp time.Time, workerID int64, sequence int64) {
	return Timestamp(id), ExtractWorkerID(id), ExtractSequence(id)
}

// Timestamp extracts the timestamp from a Snowflake ID.
func Timestamp(id int64) time.Time {
	return time.UnixMilli(ExtractTimestamp(id)).UTC()
}

// =============================================================================
// Global Generator (for convenience)
// =============================================================================

var (
	globalGen  *Generator
	globalOnce sync.Once
	globalErr  error
)

// Init initializes the global generator with the given worker ID.
// Only the first call has any effect.
func Init(workerID int64, opts ...Option) error {
	globalOnce.Do(func() {
		globalGen, globalErr = NewGenerator(workerID, opts...)
	})
	return globalErr
}

// ID generates a new Snowflake ID using the global generator.
// Init must be called before using this function.
func ID() int64 {
	if globalGen == nil {
		panic("snowflake: global generator not initialized, call Init() first")
	}
	return globalGen.MustNextID()
}

// NextID is an alias for ID.
func NextID() int64 {
	return ID()
}
