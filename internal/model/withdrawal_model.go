package model

import (
	"time"
)

// WithdrawalModel funds withdrawn by an NGO to an external wallet
type WithdrawalModel struct {
	Id          string           `json:"id" gorm:"primaryKey;size:64"`
	NgoId       string           `json:"ngoId" gorm:"not null;index;size:64"`
	Amount      string           `json:"amount" gorm:"not null"`
	Destination string           `json:"destination" gorm:"not null"`
	TxHash      string           `json:"txHash" gorm:"not null;uniqueIndex;size:128"`
	Status      WithdrawalStatus `json:"status" gorm:"default:'pending'"`
	Timestamp   time.Time        `json:"timestamp"`
	CreatedAt   time.Time        `json:"-"`
	UpdatedAt   time.Time        `json:"-"`
}

// WithdrawalStatus withdrawal state
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

// TableName custom table name
func (WithdrawalModel) TableName() string {
	return "withdrawal"
}
