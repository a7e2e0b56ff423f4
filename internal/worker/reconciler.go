package worker

import (
	"context"
	"sync"
	"time"

	"pet-adoption/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// StatusReconciler lo implementa *applications.Service.
type StatusReconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// Reconciler corre ReconcileAll según un schedule cron ("@every 10m", "0 */6 * * *").
type Reconciler struct {
	target  StatusReconciler
	log     logger.Logger
	cron    *cron.Cron
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

func NewReconciler(target StatusReconciler, schedule string, log logger.Logger) (*Reconciler, error) {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Reconciler{
		target:  target,
		log:     log.With(map[string]any{"component": "reconciler"}),
		cron:    cron.New(),
		timeout: 5 * time.Minute,
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reconciler) Start() {
	r.cron.Start()
	r.log.Info("reconciler started", nil)
}

// Stop espera a que termine la corrida en curso o a que venza ctx.
func (r *Reconciler) Stop(ctx context.Context) {
	done := r.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
	r.log.Info("reconciler stopped", nil)
}

// RunOnce ejecuta una pasada. Si ya hay una en curso, la salta.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.log.Warn("previous reconcile still running, skipping", nil)
		return
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	fixed, err := r.target.ReconcileAll(ctx)
	fields := map[string]any{
		"fixed":       fixed,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["err"] = err
		r.log.Error("reconcile finished with errors", fields)
		return
	}
	r.log.Info("reconcile finished", fields)
}
