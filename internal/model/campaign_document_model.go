package model

import (
	"time"
)

// CampaignDocumentModel is the comprehensive per-campaign document used by
// detail pages. Donations are not stored here; readers attach them from the
// donation table.
type CampaignDocumentModel struct {
	CampaignId string    `json:"id" gorm:"primaryKey;size:64"`
	NgoId      string    `json:"ngoId" gorm:"index;size:64"`
	CreatedAt  time.Time `json:"createdAt"`

	Title        string         `json:"title"`
	Description  string         `json:"description" gorm:"type:text"`
	Category     string         `json:"category"`
	ImageURL     string         `json:"imageUrl"`
	Images       []string       `json:"images" gorm:"type:text;serializer:json"`
	TargetAmount string         `json:"targetAmount"`
	Status       CampaignStatus `json:"status"`
	EndDate      *time.Time     `json:"endDate"`

	Updates    []CampaignUpdate `json:"updates" gorm:"type:text;serializer:json"`
	Milestones []Milestone      `json:"milestones" gorm:"type:text;serializer:json"`
	Reports    []CampaignReport `json:"reports" gorm:"type:text;serializer:json"`
	Stats      CampaignStats    `json:"stats" gorm:"type:text;serializer:json"`

	LastUpdated time.Time `json:"lastUpdated"`

	Donations []DonationModel `json:"donations" gorm:"-"`
}

// CampaignStats is the aggregate block derived from a donation collection
type CampaignStats struct {
	TotalDonations  int        `json:"totalDonations"`
	TotalAmount     string     `json:"totalAmount"`
	ConfirmedAmount string     `json:"confirmedAmount"`
	PendingAmount   string     `json:"pendingAmount"`
	UniqueDonors    int        `json:"uniqueDonors"`
	LastDonationAt  *time.Time `json:"lastDonationAt,omitempty"`
}

// TableName custom table name
func (CampaignDocumentModel) TableName() string {
	return "campaign_document"
}
