package model

import (
	"time"
)

// OutboxTaskModel side effect queued in the same transaction as the write
// that caused it, dispatched later by the outbox job.
type OutboxTaskModel struct {
	Id            int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Kind          OutboxKind   `json:"kind" gorm:"not null;index"`
	Payload       string       `json:"payload" gorm:"type:text"`
	Status        OutboxStatus `json:"status" gorm:"index;default:'pending'"`
	Attempts      int          `json:"attempts" gorm:"default:0"`
	LastError     string       `json:"lastError" gorm:"type:text"`
	NextAttemptAt time.Time    `json:"nextAttemptAt" gorm:"index"`
}

// OutboxKind task kind
type OutboxKind string

const (
	OutboxKindApplicationEmail OutboxKind = "email.application_status"
	OutboxKindBackup           OutboxKind = "backup.record"
)

// OutboxStatus task state
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusDone    OutboxStatus = "done"
	OutboxStatusFailed  OutboxStatus = "failed"
	OutboxStatusSkipped OutboxStatus = "skipped"
)

// ApplicationEmailPayload payload of OutboxKindApplicationEmail
type ApplicationEmailPayload struct {
	To           string            `json:"to"`
	Status       ApplicationStatus `json:"status"`
	OrgName      string            `json:"orgName"`
	Notes        string            `json:"notes,omitempty"`
	TempPassword string            `json:"tempPassword,omitempty"`
}

// BackupPayload payload of OutboxKindBackup
type BackupPayload struct {
	Collection string `json:"collection"`
	RecordId   string `json:"recordId"`
	Record     string `json:"record"` // JSON document
}

// TableName custom table name
func (OutboxTaskModel) TableName() string {
	return "outbox_task"
}

// MigrateModels lists every table the service owns
var MigrateModels = []interface{}{
	&CampaignModel{},
	&CampaignDocumentModel{},
	&DonationModel{},
	&WithdrawalModel{},
	&NGOApplicationModel{},
	&OutboxTaskModel{},
}
