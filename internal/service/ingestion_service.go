package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/xtrace/xtrace/internal/config"
	"github.com/xtrace/xtrace/internal/domain"
	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
	"github.com/xtrace/xtrace/internal/pkg/logger"
)

var (
	ingestQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xtrace_ingest_queue_depth",
		Help: "Number of batches waiting in the ingest queue",
	})
	ingestWindowSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xtrace_ingest_window_batches",
		Help:    "Batches written per transaction window",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 200},
	})
	ingestWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xtrace_ingest_write_duration_seconds",
		Help:    "Duration of batch write transactions",
		Buckets: prometheus.DefBuckets,
	})
)

// BatchWriter persists a window of ingest batches in a single transaction
type BatchWriter interface {
	WriteBatches(ctx context.Context, batches []domain.BatchIngest) error
}

// IngestionService owns the bounded ingest queue and its single consumer.
// Enqueue never blocks; the worker drains the queue into transaction windows
// bounded by batch count and elapsed time.
type IngestionService struct {
	writer   BatchWriter
	queue    chan domain.BatchIngest
	maxBatch int
	window   time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewIngestionService creates the service and starts its worker
func NewIngestionService(writer BatchWriter, cfg config.IngestConfig) *IngestionService {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 200
	}
	window := cfg.Window
	if window <= 0 {
		window = 50 * time.Millisecond
	}

	s := &IngestionService{
		writer:   writer,
		queue:    make(chan domain.BatchIngest, queueSize),
		maxBatch: maxBatch,
		window:   window,
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Enqueue hands a batch to the worker without blocking. A full queue rejects
// with 429, a closed one with 503.
func (s *IngestionService) Enqueue(batch domain.BatchIngest) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return apperrors.Unavailable()
	}

	select {
	case s.queue <- batch:
		ingestQueueDepth.Set(float64(len(s.queue)))
		return nil
	default:
		return apperrors.QueueFull()
	}
}

// Close stops accepting batches and waits for the worker to drain the queue
// and finish its in-flight window.
func (s *IngestionService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
}

func (s *IngestionService) run() {
	defer close(s.done)

	for {
		first, ok := <-s.queue
		if !ok {
			return
		}

		batches := s.collectWindow(first)
		ingestQueueDepth.Set(float64(len(s.queue)))
		ingestWindowSize.Observe(float64(len(batches)))

		start := time.Now()
		if err := s.writer.WriteBatches(context.Background(), batches); err != nil {
			logger.Error("failed to write batch",
				zap.Error(err),
				zap.Int("batches", len(batches)),
			)
		}
		ingestWriteDuration.Observe(time.Since(start).Seconds())
	}
}

// collectWindow gathers additional batches until the window elapses, the
// size cap is hit, or the queue closes.
func (s *IngestionService) collectWindow(first domain.BatchIngest) []domain.BatchIngest {
	batches := make([]domain.BatchIngest, 0, s.maxBatch)
	batches = append(batches, first)

	deadline := time.NewTimer(s.window)
	defer deadline.Stop()

	for len(batches) < s.maxBatch {
		select {
		case b, ok := <-s.queue:
			if !ok {
				return batches
			}
			batches = append(batches, b)
		case <-deadline.C:
			return batches
		}
	}
	return batches
}
