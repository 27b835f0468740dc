package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw event into a realtime alert ready for dispatch.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.RealtimeAlert, error)
}

// BatchLoader delivers admitted alerts to their destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, alerts []domain.RealtimeAlert) error
}

// Pipeline consumes inserted realtime alerts and hands admitted ones to the loader.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	running     atomic.Bool
	healthy     atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil while the consumer loop is running and its
// last read from the source succeeded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("realtime consumer is not running")
	}
	if !p.healthy.Load() {
		return errors.New("realtime consumer cannot read from the alert topic")
	}
	return nil
}

// Run executes the consume-admit-dispatch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("realtime consumer started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.healthy.Store(true)
	p.metrics.ConsumerRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.ConsumerRunning.Set(0)
	}()

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("realtime consumer stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one read-admit-dispatch cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.healthy.Store(false)
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.healthy.Store(true)

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	start := time.Now()
	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	if !p.transformAndLoad(ctx, rawBatch, backoff, maxBackoff) {
		return false
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// transformAndLoad admits each message in the batch, dispatches the admitted
// alerts, and commits offsets. Filtered and unparseable messages are committed
// immediately so they are never redelivered. Returns false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration, maxBackoff time.Duration) bool {
	alerts := make([]domain.RealtimeAlert, 0, len(rawBatch))
	admitted := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		alert, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.recordRejection(raw, err)
			p.commitOffset(ctx, raw)
			continue
		}
		alerts = append(alerts, alert)
		admitted = append(admitted, raw)
	}

	if len(alerts) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, alerts); err != nil {
		p.logger.Error("dispatch batch failed", "error", err, "batch_size", len(alerts))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.AlertsDispatched.Add(float64(len(alerts)))

	for _, raw := range admitted {
		p.commitOffset(ctx, raw)
	}
	return true
}

func (p *Pipeline) recordRejection(raw domain.RawEvent, err error) {
	switch {
	case errors.Is(err, domain.ErrBelowSeverityThreshold):
		p.metrics.AlertsFiltered.WithLabelValues("severity").Inc()
		p.logger.Debug("realtime alert below threshold", "error", err, "offset", raw.Offset)
	case errors.Is(err, domain.ErrExpired):
		p.metrics.AlertsFiltered.WithLabelValues("expired").Inc()
		p.logger.Debug("realtime alert expired", "error", err, "offset", raw.Offset)
	default:
		p.metrics.TransformErrors.Inc()
		p.logger.Warn("transform failed, skipping message",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
