package domain

import (
	"strconv"
	"time"

	"idgen_server/pkg/snowflake"
)

// Identifier is the decoded view of a generated ID.
// IDStr carries the same value as a string for JSON clients that cannot
// represent integers above 2^53.
type Identifier struct {
	ID          int64     `json:"id"`
	IDStr       string    `json:"id_str"`
	Timestamp   time.Time `json:"timestamp"`
	TimestampMS int64     `json:"timestamp_ms"`
	WorkerID    int64     `json:"worker_id"`
	Sequence    int64     `json:"sequence"`
}

// NewIdentifier decodes id into its components.
func NewIdentifier(id int64) *Identifier {
	ts, workerID, seq := snowflake.Parse(id)
	return &Identifier{
		ID:          id,
		IDStr:       strconv.FormatInt(id, 10),
		Timestamp:   ts,
		TimestampMS: snowflake.ExtractTimestamp(id),
		WorkerID:    workerID,
		Sequence:    seq,
	}
}

// IDBatch is a run of IDs minted by one batch request, in generation order.
type IDBatch struct {
	IDs      []int64 `json:"ids"`
	WorkerID int64   `json:"worker_id"`
	Count    int     `json:"count"`
}

// GeneratorInfo describes the running generator.
type GeneratorInfo struct {
	WorkerID    int64     `json:"worker_id"`
	Epoch       time.Time `json:"epoch"`
	MaxBatch    int       `json:"max_batch"`
	MaxSequence int64     `json:"max_sequence"`
}
