package handler

import (
	"bytes"
	"encoding/json"

	"github.com/dev0xiinko/don-8-sub001/internal/logic"
)

// Response common envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Pagination page info for list responses
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// CampaignListResponse list campaigns
type CampaignListResponse struct {
	Campaigns  interface{} `json:"campaigns"`
	Pagination Pagination  `json:"pagination"`
}

// IngestRequest body of a donation submission. Clients send a bare array, an
// object with a donations field, or a single donation.
type IngestRequest struct {
	Donations []logic.DonationInput `json:"donations"`
}

// UnmarshalJSON accepts all three request shapes
func (r *IngestRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &r.Donations)
	}

	var wrapped struct {
		Donations []logic.DonationInput `json:"donations"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.Donations != nil {
		r.Donations = wrapped.Donations
		return nil
	}
	var single logic.DonationInput
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	r.Donations = []logic.DonationInput{single}
	return nil
}

// StatusRequest a status change
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// LoginRequest email/password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse issued token
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expiresAt"`
	Role      string      `json:"role"`
	Profile   interface{} `json:"profile,omitempty"`
}

// ReportRequest report metadata for a file stored elsewhere
type ReportRequest struct {
	FilePath string `json:"filePath"`
	FileType string `json:"fileType"`
	FileName string `json:"fileName"`
}
