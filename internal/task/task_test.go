package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/chain"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/dev0xiinko/don-8-sub001/internal/notify"
	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	mu        sync.Mutex
	runs      int
	deadlines []bool
}

func (j *countingJob) GetName() string { return "counting" }

func (j *countingJob) GetSchedule() gocron.JobDefinition { return gocron.DurationJob(time.Hour) }

func (j *countingJob) Execute(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := ctx.Deadline()
	j.runs++
	j.deadlines = append(j.deadlines, ok)
	return nil
}

func (j *countingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestTaskManagerRunsJobImmediately(t *testing.T) {
	m, err := NewTaskManager(time.Second)
	require.NoError(t, err)

	job := &countingJob{}
	require.NoError(t, m.Register(job))
	assert.Equal(t, []string{"counting"}, m.Jobs())

	m.Start()
	assert.Eventually(t, func() bool { return job.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, m.Stop())

	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Equal(t, []bool{true}, job.deadlines, "each run gets a deadline")
}

func TestTaskManagerRejectsBadSchedule(t *testing.T) {
	m, err := NewTaskManager(0)
	require.NoError(t, err)
	defer func() { _ = m.Stop() }()

	err = m.Register(NewCampaignSyncJob(&fakeSyncer{}, 0))
	assert.Error(t, err)
	assert.Empty(t, m.Jobs())
}

type fakeSyncer struct {
	res *logic.SyncResult
	err error
}

func (f *fakeSyncer) SyncCampaignStore(context.Context) (*logic.SyncResult, error) {
	return f.res, f.err
}

type fakeCompleter struct{ n int }

func (f *fakeCompleter) CompleteExpired(context.Context) (int, error) { return f.n, nil }

type fakeConfirmer struct{ err error }

func (f *fakeConfirmer) ConfirmPending(context.Context) (*chain.ConfirmResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &chain.ConfirmResult{Checked: 2, Confirmed: 1, Failed: 1}, nil
}

type fakeDispatcher struct{ calls int }

func (f *fakeDispatcher) Dispatch(context.Context) (*notify.DispatchResult, error) {
	f.calls++
	return &notify.DispatchResult{Done: 1}, nil
}

func TestJobs(t *testing.T) {
	ctx := context.Background()

	sync := NewCampaignSyncJob(&fakeSyncer{res: &logic.SyncResult{Total: 3, Migrated: 1}}, time.Minute)
	assert.Equal(t, "campaign_sync", sync.GetName())
	assert.NoError(t, sync.Execute(ctx))

	boom := errors.New("boom")
	assert.ErrorIs(t, NewCampaignSyncJob(&fakeSyncer{err: boom}, time.Minute).Execute(ctx), boom)

	status := NewCampaignStatusJob(&fakeCompleter{n: 2}, time.Minute)
	assert.Equal(t, "campaign_status", status.GetName())
	assert.NoError(t, status.Execute(ctx))

	confirm := NewDonationConfirmJob(&fakeConfirmer{}, time.Minute)
	assert.Equal(t, "donation_confirm", confirm.GetName())
	assert.NoError(t, confirm.Execute(ctx))
	assert.ErrorIs(t, NewDonationConfirmJob(&fakeConfirmer{err: boom}, time.Minute).Execute(ctx), boom)

	d := &fakeDispatcher{}
	outbox := NewOutboxDispatchJob(d, time.Second)
	assert.Equal(t, "outbox_dispatch", outbox.GetName())
	assert.NoError(t, outbox.Execute(ctx))
	assert.Equal(t, 1, d.calls)
}
