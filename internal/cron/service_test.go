package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/indiramart/storefront-backend/pkg/logger"
)

type fakeLock struct {
	available bool
	acquired  int
	released  int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquired++
	return f.available, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.released++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, ServiceName: "cron-test"})
}

func TestServiceRunsJobsWhenLockHeld(t *testing.T) {
	good := &stubJob{name: "good"}
	bad := &stubJob{name: "bad", err: errors.New("boom")}
	lock := &fakeLock{available: true}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(good, bad),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if good.runs != 1 || bad.runs != 1 {
		t.Fatalf("expected both jobs to run once, got %d and %d", good.runs, bad.runs)
	}
	if lock.released != 1 {
		t.Fatalf("lock should be released after the cycle")
	}
}

func TestServiceSkipsCycleWithoutLock(t *testing.T) {
	job := &stubJob{name: "solo"}
	lock := &fakeLock{available: false}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job must not run without the lock")
	}
	if lock.released != 0 {
		t.Fatalf("an unheld lock must not be released")
	}
}

func TestServiceRunStopsOnContextCancel(t *testing.T) {
	lock := &fakeLock{available: true}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Lock:     lock,
		Interval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &fakeLock{}}); err == nil {
		t.Fatalf("expected error without logger")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected error without lock")
	}
}
