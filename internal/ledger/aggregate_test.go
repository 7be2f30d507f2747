package ledger

import (
	"testing"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func donation(tx, amount string, status model.DonationStatus, donor string, at time.Time) model.DonationModel {
	return model.DonationModel{
		CampaignId:   "c1",
		TxHash:       tx,
		Amount:       amount,
		Status:       status,
		DonorAddress: donor,
		Timestamp:    at,
	}
}

func TestCalculateScenarioA(t *testing.T) {
	stats := Calculate([]model.DonationModel{
		donation("0x1", "30", model.DonationStatusConfirmed, "0xa", t0),
		donation("0x2", "20", model.DonationStatusPending, "0xb", t0.Add(time.Hour)),
	})

	assert.Equal(t, "30", stats.ConfirmedAmount)
	assert.Equal(t, "20", stats.PendingAmount)
	assert.Equal(t, "50", stats.TotalAmount)
	assert.Equal(t, 2, stats.TotalDonations)
	assert.Equal(t, 2, stats.UniqueDonors)
	require.NotNil(t, stats.LastDonationAt)
	assert.True(t, stats.LastDonationAt.Equal(t0.Add(time.Hour)))
}

func TestCalculateEmpty(t *testing.T) {
	stats := Calculate(nil)
	assert.Equal(t, "0", stats.TotalAmount)
	assert.Equal(t, 0, stats.TotalDonations)
	assert.Equal(t, 0, stats.UniqueDonors)
	assert.Nil(t, stats.LastDonationAt)
}

func TestCalculateFailedExcludedFromAmounts(t *testing.T) {
	donations := []model.DonationModel{
		donation("0x1", "10.25", model.DonationStatusConfirmed, "0xa", t0),
		donation("0x2", "5", model.DonationStatusFailed, "0xa", t0),
		donation("0x3", "0.75", model.DonationStatusPending, "0xc", t0),
	}
	stats := Calculate(donations)

	assert.Equal(t, "10.25", stats.ConfirmedAmount)
	assert.Equal(t, "0.75", stats.PendingAmount)
	assert.Equal(t, "11", stats.TotalAmount)
	assert.Equal(t, 3, stats.TotalDonations)

	// confirmed + pending == sum over non-failed
	nonFailed := decimal.Zero
	for _, d := range donations {
		if d.Status != model.DonationStatusFailed {
			nonFailed = nonFailed.Add(AmountOrZero(d.Amount))
		}
	}
	sum := AmountOrZero(stats.ConfirmedAmount).Add(AmountOrZero(stats.PendingAmount))
	assert.True(t, sum.Equal(nonFailed))
}

func TestCalculateUnparseableAmountIsZero(t *testing.T) {
	stats := Calculate([]model.DonationModel{
		donation("0x1", "abc", model.DonationStatusConfirmed, "0xa", t0),
		donation("0x2", "", model.DonationStatusPending, "0xb", t0),
		donation("0x3", "-4", model.DonationStatusConfirmed, "0xc", t0),
		donation("0x4", "7", model.DonationStatusConfirmed, "0xd", t0),
	})
	assert.Equal(t, "7", stats.ConfirmedAmount)
	assert.Equal(t, "0", stats.PendingAmount)
	assert.Equal(t, 4, stats.TotalDonations)
}

func TestCalculateUniqueDonors(t *testing.T) {
	addr := "0x52908400098527886E0F7030069857D2E4169EE7"
	stats := Calculate([]model.DonationModel{
		donation("0x1", "1", model.DonationStatusConfirmed, addr, t0),
		// same wallet, different case
		donation("0x2", "1", model.DonationStatusConfirmed, "0x52908400098527886e0f7030069857d2e4169ee7", t0),
		{TxHash: "0x3", Amount: "1", Status: model.DonationStatusConfirmed, DonorAddress: "0xaaa", Anonymous: true, Timestamp: t0},
		{TxHash: "0x4", Amount: "1", Status: model.DonationStatusConfirmed, DonorAddress: "0xbbb", Anonymous: true, Timestamp: t0},
		{TxHash: "0x5", Amount: "1", Status: model.DonationStatusPending, Timestamp: t0},
	})
	// one named wallet + one anonymous bucket
	assert.Equal(t, 2, stats.UniqueDonors)
	assert.Equal(t, 5, stats.TotalDonations)
}
