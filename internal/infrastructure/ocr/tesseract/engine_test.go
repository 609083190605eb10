package tesseract

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestAcquireBoundsConcurrentSlots(t *testing.T) {
	e := NewEngine("", "", 2, slog.New(slog.DiscardHandler))

	release1, err := e.acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	release2, err := e.acquire(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := e.acquire(ctx); err == nil {
		t.Fatal("third acquire must block while both slots are held")
	}

	release1()
	release3, err := e.acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release3()
	release2()
}

func TestAcquireHonorsCancelledContext(t *testing.T) {
	e := NewEngine("", "", 1, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.acquire(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(e.slots) != 0 {
		t.Fatalf("slot leaked: %d held", len(e.slots))
	}
}
