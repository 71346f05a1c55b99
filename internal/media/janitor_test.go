package media

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type deleterStub struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (d *deleterStub) Delete(_ context.Context, location string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, location)
	return nil
}

func (d *deleterStub) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.deleted...)
}

func TestJanitorDeletesEnqueuedObjects(t *testing.T) {
	deleter := &deleterStub{}
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 4, Workers: 2}, nil)

	locations := []string{
		"https://media.example.com/avatars/1",
		"https://media.example.com/videos/2",
		"https://media.example.com/thumbnails/3",
	}
	for _, location := range locations {
		if err := janitor.Enqueue(context.Background(), location); err != nil {
			t.Fatalf("enqueue %s: %v", location, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	deleted := deleter.snapshot()
	if len(deleted) != len(locations) {
		t.Fatalf("expected %d deletions, got %d: %v", len(locations), len(deleted), deleted)
	}
}

func TestJanitorIgnoresEmptyLocations(t *testing.T) {
	deleter := &deleterStub{}
	janitor := NewJanitor(deleter, JanitorConfig{}, nil)

	if err := janitor.Enqueue(context.Background(), ""); err != nil {
		t.Fatalf("enqueue empty location: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if len(deleter.snapshot()) != 0 {
		t.Fatal("expected no deletions for empty locations")
	}
}

func TestJanitorRejectsEnqueueAfterShutdown(t *testing.T) {
	janitor := NewJanitor(&deleterStub{}, JanitorConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := janitor.Enqueue(context.Background(), "https://media.example.com/x"); !errors.Is(err, errJanitorClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

func TestJanitorEnqueueDuringShutdownNeverPanics(t *testing.T) {
	deleter := &deleterStub{}
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 2, Workers: 2}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				err := janitor.Enqueue(context.Background(), "https://media.example.com/x")
				if err != nil && !errors.Is(err, errJanitorClosed) {
					t.Errorf("enqueue: %v", err)
					return
				}
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	wg.Wait()
}
