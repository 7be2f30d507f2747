package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"gorm.io/gorm"
)

// OutboxLogic queues and tracks side effects (emails, backups)
type OutboxLogic struct {
	db  *gorm.DB
	now func() time.Time
}

// NewOutboxLogic creates the outbox logic
func NewOutboxLogic(db *gorm.DB) *OutboxLogic {
	return &OutboxLogic{db: db, now: time.Now}
}

// enqueueTask stores a task inside the caller's transaction
func enqueueTask(tx *gorm.DB, kind model.OutboxKind, payload interface{}, now time.Time) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	task := model.OutboxTaskModel{
		Kind:          kind,
		Payload:       string(data),
		Status:        model.OutboxStatusPending,
		NextAttemptAt: now.UTC(),
	}
	if err := tx.Create(&task).Error; err != nil {
		return fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return nil
}

// enqueueBackup queues a mirror of record into the backup sink
func enqueueBackup(tx *gorm.DB, collection, id string, record interface{}, now time.Time) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal backup record: %w", err)
	}
	return enqueueTask(tx, model.OutboxKindBackup, model.BackupPayload{
		Collection: collection,
		RecordId:   id,
		Record:     string(doc),
	}, now)
}

// Due returns pending tasks whose next attempt time has passed, oldest first
func (o *OutboxLogic) Due(ctx context.Context, limit int) ([]model.OutboxTaskModel, error) {
	var tasks []model.OutboxTaskModel
	err := o.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", model.OutboxStatusPending, o.now().UTC()).
		Order("id ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("load due outbox tasks: %w", err)
	}
	return tasks, nil
}

// redactTerminal blanks application email payloads, which may carry a
// temporary password, once the task will not run again.
func redactTerminal(task *model.OutboxTaskModel, updates map[string]interface{}) {
	if task.Kind == model.OutboxKindApplicationEmail {
		updates["payload"] = "{}"
	}
}

// MarkDone records a successful dispatch
func (o *OutboxLogic) MarkDone(ctx context.Context, task *model.OutboxTaskModel) error {
	updates := map[string]interface{}{
		"status":     model.OutboxStatusDone,
		"attempts":   task.Attempts + 1,
		"last_error": "",
	}
	redactTerminal(task, updates)
	return o.db.WithContext(ctx).Model(&model.OutboxTaskModel{}).
		Where("id = ?", task.Id).
		Updates(updates).Error
}

// MarkSkipped records a task that cannot run (collaborator not configured)
func (o *OutboxLogic) MarkSkipped(ctx context.Context, task *model.OutboxTaskModel, reason string) error {
	updates := map[string]interface{}{
		"status":     model.OutboxStatusSkipped,
		"last_error": reason,
	}
	redactTerminal(task, updates)
	return o.db.WithContext(ctx).Model(&model.OutboxTaskModel{}).
		Where("id = ?", task.Id).
		Updates(updates).Error
}

// MarkAttemptFailed schedules a retry with exponential backoff, or marks the
// task failed once maxAttempts is reached.
func (o *OutboxLogic) MarkAttemptFailed(ctx context.Context, task *model.OutboxTaskModel, cause error, maxAttempts int, backoff time.Duration) error {
	attempts := task.Attempts + 1
	updates := map[string]interface{}{
		"attempts":   attempts,
		"last_error": cause.Error(),
	}
	if attempts >= maxAttempts {
		updates["status"] = model.OutboxStatusFailed
		redactTerminal(task, updates)
	} else {
		updates["next_attempt_at"] = o.now().UTC().Add(backoff << (attempts - 1))
	}
	return o.db.WithContext(ctx).Model(&model.OutboxTaskModel{}).
		Where("id = ?", task.Id).
		Updates(updates).Error
}

// Counts number of tasks per status
func (o *OutboxLogic) Counts(ctx context.Context) (map[model.OutboxStatus]int64, error) {
	var rows []struct {
		Status model.OutboxStatus
		N      int64
	}
	err := o.db.WithContext(ctx).Model(&model.OutboxTaskModel{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.OutboxStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
