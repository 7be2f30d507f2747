package logic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRetryBackoffAndFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, enqueueTask(f.db, model.OutboxKindBackup, model.BackupPayload{RecordId: "r1"}, t0))

	due, err := f.outbox.Due(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	task := due[0]

	require.NoError(t, f.outbox.MarkAttemptFailed(ctx, &task, errors.New("boom"), 3, time.Minute))
	due, err = f.outbox.Due(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "retry is scheduled in the future")

	f.setNow(t0.Add(time.Minute))
	due, err = f.outbox.Due(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	task = due[0]
	assert.Equal(t, 1, task.Attempts)
	assert.Equal(t, "boom", task.LastError)

	// second failure doubles the delay
	require.NoError(t, f.outbox.MarkAttemptFailed(ctx, &task, errors.New("boom"), 3, time.Minute))
	f.setNow(t0.Add(2 * time.Minute))
	due, err = f.outbox.Due(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
	f.setNow(t0.Add(3 * time.Minute))
	due, err = f.outbox.Due(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	task = due[0]
	require.NoError(t, f.outbox.MarkAttemptFailed(ctx, &task, errors.New("boom"), 3, time.Minute))
	counts, err := f.outbox.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.OutboxStatusFailed])
	assert.Zero(t, counts[model.OutboxStatusPending])
}

func TestOutboxMarkDoneRedactsEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, enqueueTask(f.db, model.OutboxKindApplicationEmail,
		model.ApplicationEmailPayload{To: "a@b.org", TempPassword: "hunter2"}, t0))
	require.NoError(t, enqueueTask(f.db, model.OutboxKindBackup, model.BackupPayload{RecordId: "r1"}, t0))

	due, err := f.outbox.Due(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	for i := range due {
		require.NoError(t, f.outbox.MarkDone(ctx, &due[i]))
	}

	email := f.tasks(t, model.OutboxKindApplicationEmail)[0]
	assert.Equal(t, model.OutboxStatusDone, email.Status)
	assert.Equal(t, "{}", email.Payload)
	assert.NotEqual(t, "{}", f.tasks(t, model.OutboxKindBackup)[0].Payload)

	due, err = f.outbox.Due(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestOutboxMarkSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, enqueueTask(f.db, model.OutboxKindBackup, model.BackupPayload{}, t0))
	due, err := f.outbox.Due(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, f.outbox.MarkSkipped(ctx, &due[0], "backup disabled"))

	task := f.tasks(t, model.OutboxKindBackup)[0]
	assert.Equal(t, model.OutboxStatusSkipped, task.Status)
	assert.Equal(t, "backup disabled", task.LastError)
}

func TestOutboxTerminalStatesRedactEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := model.ApplicationEmailPayload{To: "a@b.org", Status: model.ApplicationStatusApproved, TempPassword: "qoZcXZiN3m3GDF_U"}
	require.NoError(t, enqueueTask(f.db, model.OutboxKindApplicationEmail, payload, t0))
	require.NoError(t, enqueueTask(f.db, model.OutboxKindApplicationEmail, payload, t0))

	due, err := f.outbox.Due(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	skipped, failing := due[0], due[1]

	require.NoError(t, f.outbox.MarkSkipped(ctx, &skipped, "email disabled"))

	// a retry keeps the payload so the next attempt can still deliver it
	require.NoError(t, f.outbox.MarkAttemptFailed(ctx, &failing, errors.New("smtp down"), 2, time.Minute))
	var retrying model.OutboxTaskModel
	require.NoError(t, f.db.First(&retrying, "id = ?", failing.Id).Error)
	assert.Contains(t, retrying.Payload, "qoZcXZiN3m3GDF_U")

	require.NoError(t, f.outbox.MarkAttemptFailed(ctx, &retrying, errors.New("smtp down"), 2, time.Minute))

	tasks := f.tasks(t, model.OutboxKindApplicationEmail)
	require.Len(t, tasks, 2)
	statuses := map[model.OutboxStatus]bool{}
	for _, task := range tasks {
		statuses[task.Status] = true
		assert.Equal(t, "{}", task.Payload, "task %d (%s)", task.Id, task.Status)
		assert.NotContains(t, task.Payload, "qoZcXZiN3m3GDF_U")
	}
	assert.True(t, statuses[model.OutboxStatusSkipped])
	assert.True(t, statuses[model.OutboxStatusFailed])
}
