package main

import (
	"github.com/dev0xiinko/don-8-sub001/internal/config"
	"github.com/dev0xiinko/don-8-sub001/internal/database"
	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"gorm.io/gorm"
)

// app the store and the logic layer shared by every command
type app struct {
	db           *gorm.DB
	campaigns    *logic.CampaignLogic
	donations    *logic.DonationLogic
	withdrawals  *logic.WithdrawalLogic
	applications *logic.ApplicationLogic
	sync         *logic.SyncLogic
	outbox       *logic.OutboxLogic
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, err
	}

	// one lock table for every logic so campaign and NGO keys serialize
	// across all of them
	locks := ledger.NewKeyedMutex()
	return &app{
		db:           db,
		campaigns:    logic.NewCampaignLogic(db, locks),
		donations:    logic.NewDonationLogic(db, locks),
		withdrawals:  logic.NewWithdrawalLogic(db, locks, cfg.Policy.WithdrawalGraceDays),
		applications: logic.NewApplicationLogic(db, locks),
		sync:         logic.NewSyncLogic(db, locks),
		outbox:       logic.NewOutboxLogic(db),
	}, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		logger.Error("Failed to close database: %v", err)
	}
}
