package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer is the broker surface the worker needs
type Consumer interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
	Cancel(consumerTag string) error
}

// Recorder persists job events
type Recorder interface {
	InsertJobEvent(ctx context.Context, ev events.JobEvent) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Consumer      Consumer
	Recorder      Recorder
	WorkerID      string
	QueueName     string
	Concurrency   int
	PrefetchCount int
	BufferSize    int
	EventTimeout  time.Duration
}

// Worker records job lifecycle events published by the API
type Worker struct {
	logger        *slog.Logger
	consumer      Consumer
	recorder      Recorder
	workerID      string
	queueName     string
	concurrency   int
	prefetchCount int
	eventTimeout  time.Duration
	eventsChan    chan *domain.EventMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}
	buffer := cfg.BufferSize
	if buffer < 0 {
		buffer = 0
	}
	timeout := cfg.EventTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Worker{
		logger:        cfg.Logger,
		consumer:      cfg.Consumer,
		recorder:      cfg.Recorder,
		workerID:      cfg.WorkerID,
		queueName:     cfg.QueueName,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		eventTimeout:  timeout,
		eventsChan:    make(chan *domain.EventMessage, buffer),
		stopChan:      make(chan struct{}),
	}
}

// Start subscribes to the queue, spawns the pool and dispatches deliveries
// until ctx is canceled or the broker closes the delivery channel
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("event_timeout", w.eventTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop cancels the subscription and waits for in-flight events. Safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")

		if err := w.consumer.Cancel(w.workerID); err != nil {
			w.logger.Warn("Failed to cancel consumer", slog.String("error", err.Error()))
		}

		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("Worker stopped")
	})
}
