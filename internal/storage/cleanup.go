package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ObjectRemover deletes a stored object by its public location.
type ObjectRemover interface {
	Remove(ctx context.Context, location string) error
}

// CleanupConfig controls the concurrency characteristics of the cleanup
// worker.
type CleanupConfig struct {
	QueueSize int
	Workers   int
}

// CleanupWorker deletes replaced or orphaned objects in the background so
// request handlers never wait on object storage deletes.
type CleanupWorker struct {
	remover ObjectRemover
	logger  *slog.Logger

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var errCleanupClosed = errors.New("cleanup worker closed")

// NewCleanupWorker starts a pool of workers draining delete requests.
func NewCleanupWorker(remover ObjectRemover, cfg CleanupConfig, logger *slog.Logger) *CleanupWorker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &CleanupWorker{
		remover: remover,
		logger:  logger,
		jobs:    make(chan string, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	w.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go w.worker()
	}

	return w
}

// Enqueue schedules deletion of the object at the given location. Empty
// locations are ignored.
func (w *CleanupWorker) Enqueue(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}
	if w.ctx.Err() != nil {
		return errCleanupClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.ctx.Done():
		return errCleanupClosed
	case w.jobs <- location:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding deletions.
func (w *CleanupWorker) Shutdown(ctx context.Context) error {
	w.once.Do(w.cancel)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *CleanupWorker) worker() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			// Drain whatever was queued before shutdown.
			for {
				select {
				case location := <-w.jobs:
					w.remove(location)
				default:
					return
				}
			}
		case location := <-w.jobs:
			w.remove(location)
		}
	}
}

func (w *CleanupWorker) remove(location string) {
	// A fresh context: the request that queued this job is long gone.
	if err := w.remover.Remove(context.Background(), location); err != nil {
		w.logger.Error("failed to remove stored object", "location", location, "error", err)
	}
}
