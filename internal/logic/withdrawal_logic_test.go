package logic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func withdrawalInput(tx int) WithdrawalInput {
	return WithdrawalInput{
		Amount:      "1",
		Destination: "0xcccccccccccccccccccccccccccccccccccccccc",
		TxHash:      hash(tx),
	}
}

func TestCheckWithdrawalEligibilityUnknownNGO(t *testing.T) {
	f := newFixture(t)
	_, err := f.withdrawals.CheckWithdrawalEligibility(context.Background(), "ngo-x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckWithdrawalEligibilityGracePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.createCampaign(t, "ngo-1", "Fresh")

	f.setNow(t0.Add(7 * day))
	res, err := f.withdrawals.CheckWithdrawalEligibility(ctx, "ngo-1")
	require.NoError(t, err)
	assert.True(t, res.CanWithdraw)
	assert.Empty(t, res.ViolatingCampaigns)

	f.setNow(t0.Add(8 * day))
	res, err = f.withdrawals.CheckWithdrawalEligibility(ctx, "ngo-1")
	require.NoError(t, err)
	assert.False(t, res.CanWithdraw)
	require.Len(t, res.ViolatingCampaigns, 1)
	assert.Equal(t, doc.CampaignId, res.ViolatingCampaigns[0].CampaignId)
	assert.Equal(t, "Fresh", res.ViolatingCampaigns[0].Title)
	assert.Equal(t, 8, res.ViolatingCampaigns[0].DaysSinceCreation)

	_, err = f.campaigns.AddReport(ctx, "ngo-1", doc.CampaignId, model.CampaignReport{FilePath: "r.pdf"})
	require.NoError(t, err)
	res, err = f.withdrawals.CheckWithdrawalEligibility(ctx, "ngo-1")
	require.NoError(t, err)
	assert.True(t, res.CanWithdraw)
}

func TestCheckWithdrawalEligibilityCountsLegacyUpdates(t *testing.T) {
	f := newFixture(t)
	f.insertLegacy(t, model.CampaignModel{
		Id:        "legacy-1",
		NgoId:     "ngo-1",
		Title:     "Old",
		CreatedAt: t0.Add(-30 * day),
		Updates:   []model.CampaignUpdate{{Id: "u1", Title: "done"}},
	})
	f.insertLegacy(t, model.CampaignModel{Id: "legacy-2", NgoId: "ngo-1", Title: "Silent", CreatedAt: t0.Add(-10 * day)})

	res, err := f.withdrawals.CheckWithdrawalEligibility(context.Background(), "ngo-1")
	require.NoError(t, err)
	assert.False(t, res.CanWithdraw)
	require.Len(t, res.ViolatingCampaigns, 1)
	assert.Equal(t, "legacy-2", res.ViolatingCampaigns[0].CampaignId)
	assert.Equal(t, 10, res.ViolatingCampaigns[0].DaysSinceCreation)
}

func TestRecordWithdrawal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createCampaign(t, "ngo-1", "Fresh")

	w, err := f.withdrawals.RecordWithdrawal(ctx, "ngo-1", withdrawalInput(1))
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStatusCompleted, w.Status)
	assert.Equal(t, ledger.NormalizeAddress("0xcccccccccccccccccccccccccccccccccccccccc"), w.Destination)

	_, err = f.withdrawals.RecordWithdrawal(ctx, "ngo-1", withdrawalInput(1))
	assert.ErrorIs(t, err, ErrDuplicate)

	list, err := f.withdrawals.ListWithdrawals(ctx, "ngo-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecordWithdrawalBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createCampaign(t, "ngo-1", "Silent")
	f.setNow(t0.Add(30 * day))

	_, err := f.withdrawals.RecordWithdrawal(ctx, "ngo-1", withdrawalInput(1))
	require.ErrorIs(t, err, ErrWithdrawalBlocked)
	var blocked *WithdrawalBlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Len(t, blocked.Violations, 1)

	list, err := f.withdrawals.ListWithdrawals(ctx, "ngo-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordWithdrawalValidation(t *testing.T) {
	f := newFixture(t)
	f.createCampaign(t, "ngo-1", "Fresh")
	cases := map[string]WithdrawalInput{
		"zero amount":    {Amount: "0", Destination: "0x1", TxHash: hash(1)},
		"bad amount":     {Amount: "x", Destination: "0x1", TxHash: hash(1)},
		"no destination": {Amount: "1", TxHash: hash(1)},
		"no hash":        {Amount: "1", Destination: "0x1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.withdrawals.RecordWithdrawal(context.Background(), "ngo-1", in)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}

	_, err := f.withdrawals.RecordWithdrawal(context.Background(), "ngo-x", withdrawalInput(2))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createCampaign(t, "ngo-1", "A")
	b := f.createCampaign(t, "ngo-1", "B")
	_, err := f.donations.IngestDonations(ctx, a.CampaignId, []DonationInput{
		{TxHash: hash(1), Amount: "10", Status: "confirmed"},
		{TxHash: hash(2), Amount: "4", Status: "pending"},
	})
	require.NoError(t, err)
	_, err = f.donations.IngestDonations(ctx, b.CampaignId, []DonationInput{
		{TxHash: hash(3), Amount: "2.5", Status: "confirmed"},
	})
	require.NoError(t, err)

	in := withdrawalInput(9)
	in.Amount = "5"
	_, err = f.withdrawals.RecordWithdrawal(ctx, "ngo-1", in)
	require.NoError(t, err)

	s, err := f.withdrawals.Summary(ctx, "ngo-1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.CampaignCount)
	assert.Equal(t, "16.5", s.TotalRaised)
	assert.Equal(t, "12.5", s.ConfirmedRaised)
	assert.Equal(t, "5", s.TotalWithdrawn)
	assert.Equal(t, "7.5", s.Available)
	assert.False(t, s.Overdrawn)

	// pending donations do not back withdrawals
	in = withdrawalInput(10)
	in.Amount = "10"
	_, err = f.withdrawals.RecordWithdrawal(ctx, "ngo-1", in)
	require.NoError(t, err)
	s, err = f.withdrawals.Summary(ctx, "ngo-1")
	require.NoError(t, err)
	assert.Equal(t, "15", s.TotalWithdrawn)
	assert.Equal(t, "-2.5", s.Available)
	assert.True(t, s.Overdrawn)
}
