package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/config"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/metrics"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/panjf2000/ants/v2"
)

// OutboxStore is the part of the outbox the dispatcher drives
type OutboxStore interface {
	Due(ctx context.Context, limit int) ([]model.OutboxTaskModel, error)
	MarkDone(ctx context.Context, task *model.OutboxTaskModel) error
	MarkSkipped(ctx context.Context, task *model.OutboxTaskModel, reason string) error
	MarkAttemptFailed(ctx context.Context, task *model.OutboxTaskModel, cause error, maxAttempts int, backoff time.Duration) error
}

// Mailer sends application status emails
type Mailer interface {
	SendApplicationStatusEmail(ctx context.Context, p model.ApplicationEmailPayload) error
}

// BackupSink mirrors records
type BackupSink interface {
	BackupRecord(ctx context.Context, kind, id, record string) error
}

// DispatchResult counts of one dispatch pass
type DispatchResult struct {
	Done    int
	Retried int
	Skipped int
}

// Dispatcher delivers due outbox tasks on a worker pool
type Dispatcher struct {
	store  OutboxStore
	mailer Mailer
	backup BackupSink
	cfg    config.OutboxConfig
	pool   *ants.Pool
}

// NewDispatcher creates a dispatcher with cfg.Workers goroutines
func NewDispatcher(store OutboxStore, mailer Mailer, backup BackupSink, cfg config.OutboxConfig) (*Dispatcher, error) {
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch pool: %w", err)
	}
	return &Dispatcher{store: store, mailer: mailer, backup: backup, cfg: cfg, pool: pool}, nil
}

// Release stops the worker pool and waits for its workers to exit
func (d *Dispatcher) Release() {
	if err := d.pool.ReleaseTimeout(5 * time.Second); err != nil {
		logger.Warn("Outbox pool release: %v", err)
	}
}

// Dispatch runs every due task once and waits for them to finish
func (d *Dispatcher) Dispatch(ctx context.Context) (*DispatchResult, error) {
	tasks, err := d.store.Due(ctx, d.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return &DispatchResult{}, nil
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res DispatchResult
	)
	for i := range tasks {
		task := &tasks[i]
		wg.Add(1)
		err := d.pool.Submit(func() {
			defer wg.Done()
			outcome := d.handle(ctx, task)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case "done":
				res.Done++
			case "skipped":
				res.Skipped++
			default:
				res.Retried++
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit outbox task %d to pool: %v", task.Id, err)
		}
	}
	wg.Wait()

	logger.Debug("Outbox dispatch: %d done, %d retried, %d skipped", res.Done, res.Retried, res.Skipped)
	return &res, nil
}

func (d *Dispatcher) handle(ctx context.Context, task *model.OutboxTaskModel) string {
	err := d.deliver(ctx, task)
	switch {
	case err == nil:
		d.record(task, "done", d.store.MarkDone(ctx, task))
		return "done"
	case errors.Is(err, ErrDisabled):
		d.record(task, "skipped", d.store.MarkSkipped(ctx, task, err.Error()))
		return "skipped"
	default:
		logger.Warn("Outbox task %d (%s) attempt %d failed: %v", task.Id, task.Kind, task.Attempts+1, err)
		d.record(task, "retry", d.store.MarkAttemptFailed(ctx, task, err, d.cfg.MaxAttempts, d.cfg.Backoff))
		return "retry"
	}
}

func (d *Dispatcher) record(task *model.OutboxTaskModel, result string, markErr error) {
	metrics.OutboxDispatched.WithLabelValues(string(task.Kind), result).Inc()
	if markErr != nil {
		logger.Error("Failed to record outbox task %d as %s: %v", task.Id, result, markErr)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, task *model.OutboxTaskModel) error {
	switch task.Kind {
	case model.OutboxKindApplicationEmail:
		var p model.ApplicationEmailPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return d.mailer.SendApplicationStatusEmail(ctx, p)
	case model.OutboxKindBackup:
		var p model.BackupPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return fmt.Errorf("decode backup payload: %w", err)
		}
		return d.backup.BackupRecord(ctx, p.Collection, p.RecordId, p.Record)
	default:
		return fmt.Errorf("unknown outbox task kind %q", task.Kind)
	}
}
