package id

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"idgen_server/core/domain"
	"idgen_server/core/port/in"
	"idgen_server/core/port/out"
	"idgen_server/pkg/apperr"
	"idgen_server/pkg/logger"
	"idgen_server/pkg/metrics"
	"idgen_server/pkg/snowflake"
)

const defaultMaxBatch = 1000

// Service implements in.IDService on top of a single shared generator.
type Service struct {
	gen      out.IDGenerator
	metrics  *metrics.GeneratorMetrics
	maxBatch int
	log      *logger.Logger
}

// NewService creates a new IDService
func NewService(gen out.IDGenerator, m *metrics.GeneratorMetrics, maxBatch int) in.IDService {
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	if m == nil {
		m = metrics.NewGeneratorMetrics(0)
	}
	return &Service{
		gen:      gen,
		metrics:  m,
		maxBatch: maxBatch,
		log:      logger.WithField("worker_id", gen.WorkerID()),
	}
}

func (s *Service) Next(ctx context.Context) (*domain.Identifier, error) {
	id, err := s.mint()
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("ID generation failed")
		return nil, apperr.FromGenerator(err)
	}
	return domain.NewIdentifier(id), nil
}

func (s *Service) Batch(ctx context.Context, count int) (*domain.IDBatch, error) {
	if count < 1 || count > s.maxBatch {
		return nil, apperr.InvalidInput("count", fmt.Sprintf("must be between 1 and %d", s.maxBatch))
	}

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		// Cancellation is honoured between IDs only; a single NextID call
		// always runs to completion.
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(err, apperr.CodeUnavailable, "batch cancelled", http.StatusServiceUnavailable)
		}

		id, err := s.mint()
		if err != nil {
			s.log.WithContext(ctx).
				WithError(err).
				WithField("minted", len(ids)).
				Error("batch aborted after %d of %d IDs", len(ids), count)
			return nil, apperr.FromGenerator(err)
		}
		ids = append(ids, id)
	}

	s.metrics.ObserveBatch()
	return &domain.IDBatch{
		IDs:      ids,
		WorkerID: s.gen.WorkerID(),
		Count:    len(ids),
	}, nil
}

func (s *Service) Decode(id int64) (*domain.Identifier, error) {
	if id < 0 {
		return nil, apperr.InvalidInput("id", "must be non-negative")
	}
	return domain.NewIdentifier(id), nil
}

func (s *Service) Info() domain.GeneratorInfo {
	return domain.GeneratorInfo{
		WorkerID:    s.gen.WorkerID(),
		Epoch:       time.UnixMilli(snowflake.Epoch).UTC(),
		MaxBatch:    s.maxBatch,
		MaxSequence: snowflake.MaxSequence,
	}
}

func (s *Service) Stats() metrics.GeneratorStats {
	return s.metrics.Snapshot()
}

func (s *Service) mint() (int64, error) {
	start := time.Now()
	id, err := s.gen.NextID()
	s.metrics.ObserveGenerate(time.Since(start), err)
	return id, err
}
