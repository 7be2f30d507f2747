package legacy

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// rawAmount keeps whatever the old files held, string or number
type rawAmount string

func (a *rawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*a = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = rawAmount(s)
	default:
		*a = rawAmount(data)
	}
	return nil
}

// looseTime accepts ISO strings, plain dates and unix milliseconds. Anything
// else decodes to the zero time instead of failing the whole file.
type looseTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *looseTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		if ms, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return nil
}

func (t looseTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type campaignRecord struct {
	Id           string            `json:"id"`
	NgoId        string            `json:"ngoId"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	ImageURL     string            `json:"imageUrl"`
	Images       []string          `json:"images"`
	TargetAmount rawAmount         `json:"targetAmount"`
	Status       string            `json:"status"`
	CreatedAt    looseTime         `json:"createdAt"`
	EndDate      looseTime         `json:"endDate"`
	Updates      []updateRecord    `json:"updates"`
	Milestones   []milestoneRecord `json:"milestones"`

	// comprehensive documents only
	Reports   []reportRecord   `json:"reports"`
	Donations []donationRecord `json:"donations"`
}

type updateRecord struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt looseTime `json:"createdAt"`
}

type milestoneRecord struct {
	Title        string    `json:"title"`
	TargetAmount rawAmount `json:"targetAmount"`
	Description  string    `json:"description"`
	Reached      bool      `json:"reached"`
}

type reportRecord struct {
	Id         string    `json:"id"`
	FilePath   string    `json:"filePath"`
	FileType   string    `json:"fileType"`
	FileName   string    `json:"fileName"`
	UploadedAt looseTime `json:"uploadedAt"`
}

type donationRecord struct {
	TxHash       string    `json:"txHash"`
	Amount       rawAmount `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	DonorAddress string    `json:"donorAddress"`
	Anonymous    bool      `json:"anonymous"`
	Message      string    `json:"message"`
	Timestamp    looseTime `json:"timestamp"`
}

type withdrawalRecord struct {
	Id          string    `json:"id"`
	NgoId       string    `json:"ngoId"`
	Amount      rawAmount `json:"amount"`
	Destination string    `json:"destination"`
	TxHash      string    `json:"txHash"`
	Status      string    `json:"status"`
	Timestamp   looseTime `json:"timestamp"`
}

type applicationRecord struct {
	Id                   string    `json:"id"`
	OrganizationName     string    `json:"organizationName"`
	Email                string    `json:"email"`
	ContactPerson        string    `json:"contactPerson"`
	Phone                string    `json:"phone"`
	Website              string    `json:"website"`
	Country              string    `json:"country"`
	RegistrationNumber   string    `json:"registrationNumber"`
	WalletAddress        string    `json:"walletAddress"`
	Description          string    `json:"description"`
	Status               string    `json:"status"`
	ReviewNotes          string    `json:"reviewNotes"`
	ReviewedAt           looseTime `json:"reviewedAt"`
	CreatedAt            looseTime `json:"createdAt"`
	RegistrationPassword string    `json:"registrationPassword"`
	Credentials          *struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		PasswordHash string `json:"passwordHash"`
	} `json:"credentials"`
}
