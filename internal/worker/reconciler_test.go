package worker

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

type fakeTarget struct {
	calls atomic.Int32
	block chan struct{}
	err   error
}

func (f *fakeTarget) ReconcileAll(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	return 1, f.err
}

func TestNewReconcilerRejectsBadSchedule(t *testing.T) {
	if _, err := NewReconciler(&fakeTarget{}, "not a schedule", nil); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}

func TestRunOnceCallsTarget(t *testing.T) {
	target := &fakeTarget{err: errors.New("pet p1: boom")}
	r, err := NewReconciler(target, "@every 1h", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	r.RunOnce(context.Background())
	r.RunOnce(context.Background())

	if got := target.calls.Load(); got != 2 {
		t.Fatalf("calls: got %d want 2", got)
	}
}

func TestRunOnceSkipsWhenAlreadyRunning(t *testing.T) {
	target := &fakeTarget{block: make(chan struct{})}
	r, err := NewReconciler(target, "@every 1h", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	done := make(chan struct{})
	go func() {
		r.RunOnce(context.Background())
		close(done)
	}()

	// Espera a que la primera corrida tome el flag.
	for target.calls.Load() == 0 {
		runtime.Gosched()
	}
	r.RunOnce(context.Background())
	close(target.block)
	<-done

	if got := target.calls.Load(); got != 1 {
		t.Fatalf("calls: got %d want 1", got)
	}
}

func TestStartStop(t *testing.T) {
	r, err := NewReconciler(&fakeTarget{}, "@every 1h", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.Start()
	r.Stop(context.Background())
}
