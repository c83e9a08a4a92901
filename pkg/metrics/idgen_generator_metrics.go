package metrics

import (
	"sync/atomic"
	"time"
)

// GeneratorMetrics counts generator outcomes. It satisfies snowflake.Observer
// so it can be passed to snowflake.WithObserver.
type GeneratorMetrics struct {
	generated          atomic.Int64
	failed             atomic.Int64
	batches            atomic.Int64
	regressionsHealed  atomic.Int64
	regressionsFatal   atomic.Int64
	sequenceExhausted  atomic.Int64
	maxRegressionMicro atomic.Int64

	latency *LatencyTracker
}

// NewGeneratorMetrics creates metrics with a latency window of windowSize samples.
func NewGeneratorMetrics(windowSize int) *GeneratorMetrics {
	return &GeneratorMetrics{
		latency: NewLatencyTracker(windowSize),
	}
}

// ClockRegression implements snowflake.Observer.
func (m *GeneratorMetrics) ClockRegression(offset time.Duration, recovered bool) {
	if recovered {
		m.regressionsHealed.Add(1)
	} else {
		m.regressionsFatal.Add(1)
	}

	us := offset.Microseconds()
	for {
		cur := m.maxRegressionMicro.Load()
		if us <= cur || m.maxRegressionMicro.CompareAndSwap(cur, us) {
			return
		}
	}
}

// SequenceExhausted implements snowflake.Observer.
func (m *GeneratorMetrics) SequenceExhausted() {
	m.sequenceExhausted.Add(1)
}

// ObserveGenerate records one NextID call.
func (m *GeneratorMetrics) ObserveGenerate(d time.Duration, err error) {
	m.latency.Record(d)
	if err != nil {
		m.failed.Add(1)
		return
	}
	m.generated.Add(1)
}

// ObserveBatch records one completed batch request.
func (m *GeneratorMetrics) ObserveBatch() {
	m.batches.Add(1)
}

// GeneratorStats is a point-in-time copy of GeneratorMetrics.
type GeneratorStats struct {
	Generated         int64         `json:"generated"`
	Failed            int64         `json:"failed"`
	Batches           int64         `json:"batches"`
	RegressionsHealed int64         `json:"clock_regressions_recovered"`
	RegressionsFatal  int64         `json:"clock_regressions_fatal"`
	SequenceExhausted int64         `json:"sequence_exhausted"`
	MaxRegression     time.Duration `json:"max_regression"`
	Latency           LatencyStats  `json:"latency"`
}

func (m *GeneratorMetrics) Snapshot() GeneratorStats {
	return GeneratorStats{
		Generated:         m.generated.Load(),
		Failed:            m.failed.Load(),
		Batches:           m.batches.Load(),
		RegressionsHealed: m.regressionsHealed.Load(),
		RegressionsFatal:  m.regressionsFatal.Load(),
		SequenceExhausted: m.sequenceExhausted.Load(),
		MaxRegression:     time.Duration(m.maxRegressionMicro.Load()) * time.Microsecond,
		Latency:           m.latency.Stats(),
	}
}

// ToMap renders the stats for JSON responses.
func (s GeneratorStats) ToMap() map[string]any {
	return map[string]any{
		"generated":                   s.Generated,
		"failed":                      s.Failed,
		"batches":                     s.Batches,
		"clock_regressions_recovered": s.RegressionsHealed,
		"clock_regressions_fatal":     s.RegressionsFatal,
		"sequence_exhausted":          s.SequenceExhausted,
		"max_regression_ms":           float64(s.MaxRegression.Microseconds()) / 1000,
		"latency":                     s.Latency.ToMap(),
	}
}
