package model

import (
	"fmt"
	"time"
)

// CampaignModel is the flat campaign record used by listing pages
type CampaignModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:64"`
	NgoId     string    `json:"ngoId" gorm:"index;size:64"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title       string   `json:"title" gorm:"not null"`
	Description string   `json:"description" gorm:"type:text"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl"`
	Images      []string `json:"images" gorm:"type:text;serializer:json"`

	TargetAmount string         `json:"targetAmount" gorm:"not null;default:'0'"`
	Status       CampaignStatus `json:"status" gorm:"index;default:'active'"`
	EndDate      *time.Time     `json:"endDate"`

	Updates    []CampaignUpdate `json:"updates" gorm:"type:text;serializer:json"`
	Milestones []Milestone      `json:"milestones" gorm:"type:text;serializer:json"`

	// cached aggregates, always recomputed from the donation table
	RaisedAmount  string `json:"raisedAmount" gorm:"default:'0'"`
	CurrentAmount string `json:"currentAmount" gorm:"default:'0'"`
	DonorCount    int    `json:"donorCount" gorm:"default:0"`
}

// CampaignStatus campaign lifecycle state
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusPaused    CampaignStatus = "paused"
)

// ParseCampaignStatus validates a status string
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	switch st := CampaignStatus(s); st {
	case CampaignStatusActive, CampaignStatusCompleted, CampaignStatusPaused:
		return st, nil
	}
	return "", fmt.Errorf("invalid campaign status %q", s)
}

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusActive: {CampaignStatusPaused, CampaignStatusCompleted},
	CampaignStatusPaused: {CampaignStatusActive, CampaignStatusCompleted},
}

// CanTransitionTo reports whether a campaign in status s may move to next.
// Completed is terminal.
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	for _, allowed := range campaignTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CampaignUpdate is an NGO-authored progress post
type CampaignUpdate struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Milestone is a funding milestone shown on the campaign page
type Milestone struct {
	Title        string `json:"title"`
	TargetAmount string `json:"targetAmount"`
	Description  string `json:"description,omitempty"`
	Reached      bool   `json:"reached"`
}

// CampaignReport is metadata for an uploaded report document
type CampaignReport struct {
	Id         string    `json:"id"`
	FilePath   string    `json:"filePath"`
	FileType   string    `json:"fileType"`
	FileName   string    `json:"fileName,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// TableName custom table name
func (CampaignModel) TableName() string {
	return "campaign"
}
