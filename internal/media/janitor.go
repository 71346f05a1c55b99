package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ObjectDeleter removes a stored object by the location Save returned.
type ObjectDeleter interface {
	Delete(ctx context.Context, location string) error
}

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
}

// Janitor deletes superseded media objects in the background, so replacing an
// avatar or deleting a video never blocks the request on object storage.
type Janitor struct {
	deleter ObjectDeleter
	logger  *slog.Logger

	// mu guards closed and the jobs channel: the channel is only closed
	// while no Enqueue holds the lock, so a send can never race the close.
	mu     sync.Mutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
	once   sync.Once
}

var errJanitorClosed = errors.New("media janitor closed")

// NewJanitor constructs a background worker pool that deletes media objects.
func NewJanitor(deleter ObjectDeleter, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Janitor{
		deleter: deleter,
		logger:  logger,
		jobs:    make(chan string, cfg.QueueSize),
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules deletion of the object at the provided location.
func (j *Janitor) Enqueue(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return errJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.jobs <- location:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	for location := range j.jobs {
		if j.deleter == nil {
			j.logger.Error("media janitor missing deleter", "location", location)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := j.deleter.Delete(ctx, location); err != nil {
			j.logger.Error("delete media object", "location", location, "error", err)
		}
		cancel()
	}
}
