package in

import (
	"context"

	"idgen_server/core/domain"
	"idgen_server/pkg/metrics"
)

// IDService is the use-case port for minting and inspecting IDs.
type IDService interface {
	// Next mints one ID.
	Next(ctx context.Context) (*domain.Identifier, error)
	// Batch mints count IDs in strictly increasing order. It fails as a whole
	// on the first generator error.
	Batch(ctx context.Context, count int) (*domain.IDBatch, error)
	// Decode splits a previously generated ID into its components.
	Decode(id int64) (*domain.Identifier, error)

	Info() domain.GeneratorInfo
	Stats() metrics.GeneratorStats
}
