package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysSince(t *testing.T) {
	now := t0
	assert.Equal(t, 7, DaysSince(now.Add(-7*24*time.Hour), now))
	assert.Equal(t, 7, DaysSince(now.Add(-8*24*time.Hour+time.Second), now))
	assert.Equal(t, 8, DaysSince(now.Add(-8*24*time.Hour), now))
	assert.Equal(t, 0, DaysSince(now, now))
}

func TestEvaluateWithdrawalBoundary(t *testing.T) {
	now := t0
	res := EvaluateWithdrawal([]CampaignActivity{
		{CampaignId: "seven", CreatedAt: now.Add(-7 * 24 * time.Hour)},
	}, now, DefaultGraceDays)
	assert.True(t, res.CanWithdraw)
	assert.Empty(t, res.ViolatingCampaigns)

	res = EvaluateWithdrawal([]CampaignActivity{
		{CampaignId: "eight", Title: "Wells", CreatedAt: now.Add(-8 * 24 * time.Hour)},
	}, now, DefaultGraceDays)
	assert.False(t, res.CanWithdraw)
	require.Len(t, res.ViolatingCampaigns, 1)
	assert.Equal(t, Violation{CampaignId: "eight", Title: "Wells", DaysSinceCreation: 8}, res.ViolatingCampaigns[0])
}

func TestEvaluateWithdrawalScenariosCD(t *testing.T) {
	now := t0
	campaign := CampaignActivity{CampaignId: "c1", CreatedAt: now.Add(-10 * 24 * time.Hour)}

	res := EvaluateWithdrawal([]CampaignActivity{campaign}, now, DefaultGraceDays)
	assert.False(t, res.CanWithdraw)
	require.Len(t, res.ViolatingCampaigns, 1)
	assert.Equal(t, "c1", res.ViolatingCampaigns[0].CampaignId)

	campaign.UpdateCount = 1
	res = EvaluateWithdrawal([]CampaignActivity{campaign}, now, DefaultGraceDays)
	assert.True(t, res.CanWithdraw)
}

func TestEvaluateWithdrawalReportsCount(t *testing.T) {
	now := t0
	res := EvaluateWithdrawal([]CampaignActivity{
		{CampaignId: "old-with-report", CreatedAt: now.Add(-30 * 24 * time.Hour), ReportCount: 1},
		{CampaignId: "young", CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{CampaignId: "old-silent", CreatedAt: now.Add(-9 * 24 * time.Hour)},
	}, now, DefaultGraceDays)
	assert.False(t, res.CanWithdraw)
	require.Len(t, res.ViolatingCampaigns, 1)
	assert.Equal(t, "old-silent", res.ViolatingCampaigns[0].CampaignId)
}

func TestEvaluateWithdrawalNoCampaigns(t *testing.T) {
	res := EvaluateWithdrawal(nil, t0, DefaultGraceDays)
	assert.True(t, res.CanWithdraw)
	assert.NotNil(t, res.ViolatingCampaigns)
}
