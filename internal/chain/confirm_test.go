package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceipts map[string]TxStatus

func (f fakeReceipts) TxStatus(_ context.Context, hash string) (TxStatus, error) {
	if hash == "0xerr" {
		return TxPending, errors.New("rpc timeout")
	}
	return f[hash], nil
}

type fakeDonations struct {
	pending []model.DonationModel
	before  time.Time
	updates map[string]model.DonationStatus
}

func (f *fakeDonations) PendingOnChain(_ context.Context, before time.Time, limit int) ([]model.DonationModel, error) {
	f.before = before
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeDonations) UpdateDonationStatus(_ context.Context, campaignId, txHash string, status model.DonationStatus) (*model.DonationModel, error) {
	if f.updates == nil {
		f.updates = map[string]model.DonationStatus{}
	}
	f.updates[campaignId+"/"+txHash] = status
	return &model.DonationModel{CampaignId: campaignId, TxHash: txHash, Status: status}, nil
}

func TestConfirmPending(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	donations := &fakeDonations{pending: []model.DonationModel{
		{CampaignId: "c1", TxHash: "0xok"},
		{CampaignId: "c1", TxHash: "0xbad"},
		{CampaignId: "c2", TxHash: "0xwait"},
		{CampaignId: "c2", TxHash: "0xerr"},
	}}
	receipts := fakeReceipts{"0xok": TxSucceeded, "0xbad": TxReverted, "0xwait": TxPending}

	c := NewConfirmer(receipts, donations, 5*time.Minute, 10)
	c.now = func() time.Time { return now }

	res, err := c.ConfirmPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ConfirmResult{Checked: 4, Confirmed: 1, Failed: 1}, res)
	assert.Equal(t, now.Add(-5*time.Minute), donations.before)
	assert.Equal(t, map[string]model.DonationStatus{
		"c1/0xok":  model.DonationStatusConfirmed,
		"c1/0xbad": model.DonationStatusFailed,
	}, donations.updates)
}

func TestConfirmPendingBatchDefault(t *testing.T) {
	c := NewConfirmer(fakeReceipts{}, &fakeDonations{}, 0, 0)
	assert.Equal(t, 50, c.batch)
	res, err := c.ConfirmPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Checked)
}

func TestTxStatusString(t *testing.T) {
	assert.Equal(t, "pending", TxPending.String())
	assert.Equal(t, "succeeded", TxSucceeded.String())
	assert.Equal(t, "reverted", TxReverted.String())
}
