package task

import (
	"context"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/chain"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/dev0xiinko/don-8-sub001/internal/notify"
	"github.com/go-co-op/gocron/v2"
)

type CampaignSyncer interface {
	SyncCampaignStore(ctx context.Context) (*logic.SyncResult, error)
}

type ExpiredCompleter interface {
	CompleteExpired(ctx context.Context) (int, error)
}

type PendingConfirmer interface {
	ConfirmPending(ctx context.Context) (*chain.ConfirmResult, error)
}

type OutboxDispatcher interface {
	Dispatch(ctx context.Context) (*notify.DispatchResult, error)
}

// CampaignSyncJob reconciles the legacy and comprehensive campaign stores
type CampaignSyncJob struct {
	sync     CampaignSyncer
	interval time.Duration
}

func NewCampaignSyncJob(sync CampaignSyncer, interval time.Duration) *CampaignSyncJob {
	return &CampaignSyncJob{sync: sync, interval: interval}
}

func (j *CampaignSyncJob) GetName() string {
	return "campaign_sync"
}

func (j *CampaignSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *CampaignSyncJob) Execute(ctx context.Context) error {
	res, err := j.sync.SyncCampaignStore(ctx)
	if err != nil {
		return err
	}
	if res.Migrated > 0 || res.Repaired > 0 {
		logger.Info("Campaign sync: %d of %d migrated, %d repaired", res.Migrated, res.Total, res.Repaired)
	}
	return nil
}

// CampaignStatusJob completes active campaigns whose end date has passed
type CampaignStatusJob struct {
	campaigns ExpiredCompleter
	interval  time.Duration
}

func NewCampaignStatusJob(campaigns ExpiredCompleter, interval time.Duration) *CampaignStatusJob {
	return &CampaignStatusJob{campaigns: campaigns, interval: interval}
}

func (j *CampaignStatusJob) GetName() string {
	return "campaign_status"
}

func (j *CampaignStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *CampaignStatusJob) Execute(ctx context.Context) error {
	n, err := j.campaigns.CompleteExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("Completed %d expired campaigns", n)
	}
	return nil
}

// DonationConfirmJob settles pending on-chain donations
type DonationConfirmJob struct {
	confirmer PendingConfirmer
	interval  time.Duration
}

func NewDonationConfirmJob(confirmer PendingConfirmer, interval time.Duration) *DonationConfirmJob {
	return &DonationConfirmJob{confirmer: confirmer, interval: interval}
}

func (j *DonationConfirmJob) GetName() string {
	return "donation_confirm"
}

func (j *DonationConfirmJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *DonationConfirmJob) Execute(ctx context.Context) error {
	res, err := j.confirmer.ConfirmPending(ctx)
	if err != nil {
		return err
	}
	if res.Confirmed > 0 || res.Failed > 0 {
		logger.Info("Donation confirm: checked %d, confirmed %d, failed %d", res.Checked, res.Confirmed, res.Failed)
	}
	return nil
}

// OutboxDispatchJob delivers due outbox tasks
type OutboxDispatchJob struct {
	dispatcher OutboxDispatcher
	interval   time.Duration
}

func NewOutboxDispatchJob(dispatcher OutboxDispatcher, interval time.Duration) *OutboxDispatchJob {
	return &OutboxDispatchJob{dispatcher: dispatcher, interval: interval}
}

func (j *OutboxDispatchJob) GetName() string {
	return "outbox_dispatch"
}

func (j *OutboxDispatchJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *OutboxDispatchJob) Execute(ctx context.Context) error {
	_, err := j.dispatcher.Dispatch(ctx)
	return err
}
