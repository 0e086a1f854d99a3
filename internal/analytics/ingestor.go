package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/model"
)

const (
	defaultBufferSize = 10000
	defaultBatchSize  = 50
	defaultFlushTime  = 5 * time.Second
)

// Ingestor handles the asynchronous persistence of generation records.
// Recording never blocks the request path: when the buffer is full the
// record is dropped with a warning rather than stalling a handler.
type Ingestor interface {
	Record(gen *model.Generation)
	Start(ctx context.Context)
	// Stop closes the intake channel and lets the worker drain what is
	// buffered. Call only after the HTTP server has finished shutting
	// down, nothing may Record afterwards.
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	genChan   chan *model.Generation
	batchSize int
	flushTime time.Duration
}

func NewIngestor(logger *zap.Logger, repo store.Repository, cfg config.AnalyticsConfig) Ingestor {
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushTime := time.Duration(cfg.FlushInterval) * time.Second
	if flushTime <= 0 {
		flushTime = defaultFlushTime
	}

	return &ingestor{
		logger:    logger,
		repo:      repo,
		genChan:   make(chan *model.Generation, bufferSize),
		batchSize: batchSize,
		flushTime: flushTime,
	}
}

func (i *ingestor) Record(gen *model.Generation) {
	select {
	case i.genChan <- gen:
	default:
		i.logger.Warn("Analytics buffer full, dropping generation record", zap.String("generation_id", gen.ID))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

func (i *ingestor) Stop() {
	close(i.genChan)
}

func (i *ingestor) worker(ctx context.Context) {
	batch := make([]*model.Generation, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		// Background context: a flush triggered by ctx cancellation
		// still has to land.
		if err := i.repo.Generations().CreateBatch(context.Background(), batch); err != nil {
			i.logger.Error("Failed to persist generation batch",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case gen, ok := <-i.genChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, gen)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
