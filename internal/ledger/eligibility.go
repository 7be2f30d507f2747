package ledger

import (
	"time"
)

// DefaultGraceDays campaigns up to this age may withdraw without reporting
const DefaultGraceDays = 7

// CampaignActivity is what the withdrawal policy needs to know about a campaign
type CampaignActivity struct {
	CampaignId  string
	Title       string
	CreatedAt   time.Time
	UpdateCount int
	ReportCount int
}

// Violation a campaign that blocks withdrawals
type Violation struct {
	CampaignId        string `json:"campaignId"`
	Title             string `json:"title"`
	DaysSinceCreation int    `json:"daysSinceCreation"`
}

// Eligibility result of the withdrawal policy
type Eligibility struct {
	CanWithdraw        bool        `json:"canWithdraw"`
	ViolatingCampaigns []Violation `json:"violatingCampaigns"`
}

// DaysSince whole days elapsed between created and now
func DaysSince(created, now time.Time) int {
	return int(now.Sub(created) / (24 * time.Hour))
}

// EvaluateWithdrawal applies the reporting policy: a campaign older than
// graceDays with neither updates nor reports is a violation.
func EvaluateWithdrawal(campaigns []CampaignActivity, now time.Time, graceDays int) Eligibility {
	res := Eligibility{ViolatingCampaigns: []Violation{}}
	for _, c := range campaigns {
		days := DaysSince(c.CreatedAt, now)
		if days <= graceDays {
			continue
		}
		if c.UpdateCount > 0 || c.ReportCount > 0 {
			continue
		}
		res.ViolatingCampaigns = append(res.ViolatingCampaigns, Violation{
			CampaignId:        c.CampaignId,
			Title:             c.Title,
			DaysSinceCreation: days,
		})
	}
	res.CanWithdraw = len(res.ViolatingCampaigns) == 0
	return res
}
