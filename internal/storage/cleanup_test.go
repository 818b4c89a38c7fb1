package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingRemover struct {
	mu      sync.Mutex
	removed []string
	err     error
}

func (r *recordingRemover) Remove(_ context.Context, location string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.removed = append(r.removed, location)
	return nil
}

func (r *recordingRemover) locations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.removed...)
}

func TestCleanupWorkerDrainsQueueOnShutdown(t *testing.T) {
	remover := &recordingRemover{}
	worker := NewCleanupWorker(remover, CleanupConfig{QueueSize: 8, Workers: 2}, nil)

	for _, location := range []string{"a.png", "b.png", "c.mp4"} {
		if err := worker.Enqueue(context.Background(), location); err != nil {
			t.Fatalf("enqueue %s: %v", location, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := worker.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := len(remover.locations()); got != 3 {
		t.Fatalf("expected 3 removals, got %d", got)
	}
}

func TestCleanupWorkerIgnoresEmptyLocations(t *testing.T) {
	remover := &recordingRemover{}
	worker := NewCleanupWorker(remover, CleanupConfig{}, nil)

	if err := worker.Enqueue(context.Background(), ""); err != nil {
		t.Fatalf("enqueue empty: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := worker.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := len(remover.locations()); got != 0 {
		t.Fatalf("expected no removals, got %d", got)
	}
}

func TestCleanupWorkerRejectsAfterShutdown(t *testing.T) {
	worker := NewCleanupWorker(&recordingRemover{}, CleanupConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := worker.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := worker.Enqueue(context.Background(), "late.png"); !errors.Is(err, errCleanupClosed) {
		t.Fatalf("expected errCleanupClosed, got %v", err)
	}
}
