package model

import (
	"fmt"
	"time"
)

// DonationModel donation record; (campaign_id, tx_hash) is unique
type DonationModel struct {
	Id           string         `json:"id" gorm:"primaryKey;size:200"`
	CampaignId   string         `json:"campaignId" gorm:"not null;size:64;uniqueIndex:idx_donation_campaign_tx,priority:1;index"`
	TxHash       string         `json:"txHash" gorm:"not null;size:128;uniqueIndex:idx_donation_campaign_tx,priority:2"`
	Amount       string         `json:"amount" gorm:"not null"`
	Currency     string         `json:"currency,omitempty"`
	Status       DonationStatus `json:"status" gorm:"index;default:'pending'"`
	DonorAddress string         `json:"donorAddress"`
	Anonymous    bool           `json:"anonymous"`
	Message      string         `json:"message,omitempty" gorm:"type:text"`
	Timestamp    time.Time      `json:"timestamp" gorm:"index"`
	CreatedAt    time.Time      `json:"-"`
	UpdatedAt    time.Time      `json:"-"`
}

// DonationStatus donation state
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusConfirmed DonationStatus = "confirmed"
	DonationStatusFailed    DonationStatus = "failed"
)

// ParseDonationStatus validates a status string; empty means pending
func ParseDonationStatus(s string) (DonationStatus, error) {
	switch st := DonationStatus(s); st {
	case "":
		return DonationStatusPending, nil
	case DonationStatusPending, DonationStatusConfirmed, DonationStatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("invalid donation status %q", s)
}

// PublicView hides the donor address of anonymous donations
func (d DonationModel) PublicView() DonationModel {
	if d.Anonymous {
		d.DonorAddress = ""
	}
	return d
}

// TableName custom table name
func (DonationModel) TableName() string {
	return "donation"
}
