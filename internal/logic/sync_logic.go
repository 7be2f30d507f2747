package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/metrics"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"gorm.io/gorm"
)

// SyncResult outcome of one sync pass
type SyncResult struct {
	Total    int `json:"total"`
	Migrated int `json:"migrated"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// SyncLogic reconciles the legacy campaign table with the documents
type SyncLogic struct {
	db    *gorm.DB
	locks *ledger.KeyedMutex
	now   func() time.Time
}

// NewSyncLogic creates the sync logic
func NewSyncLogic(db *gorm.DB, locks *ledger.KeyedMutex) *SyncLogic {
	return &SyncLogic{db: db, locks: locks, now: time.Now}
}

// SyncCampaignStore brings every campaign document in line with its legacy
// record and donation collection. Migrated counts documents that were created
// or changed, so a second pass over unchanged data reports zero. Repaired
// counts legacy records whose cached aggregates were stale. A failure on one
// campaign does not stop the others.
func (s *SyncLogic) SyncCampaignStore(ctx context.Context) (*SyncResult, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.CampaignModel{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	res := &SyncResult{Total: len(ids)}
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		migrated, repaired, err := s.syncOne(ctx, id)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("campaign %s: %w", id, err))
			logger.Error("Failed to sync campaign %s: %v", id, err)
			continue
		}
		if migrated {
			res.Migrated++
		}
		if repaired {
			res.Repaired++
		}
	}

	metrics.SyncMigrated.Add(float64(res.Migrated))
	logger.Info("Campaign sync finished: %d campaigns, %d migrated, %d repaired, %d failed",
		res.Total, res.Migrated, res.Repaired, res.Failed)
	return res, errors.Join(errs...)
}

func (s *SyncLogic) syncOne(ctx context.Context, id string) (migrated, repaired bool, err error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var legacy model.CampaignModel
		if err := tx.Where("id = ?", id).First(&legacy).Error; err != nil {
			return mapNotFound(err, "campaign", id)
		}
		donations, err := loadDonations(tx, id)
		if err != nil {
			return err
		}
		stats := ledger.Calculate(donations)

		var existing *model.CampaignDocumentModel
		var stored model.CampaignDocumentModel
		switch err := tx.Where("campaign_id = ?", id).First(&stored).Error; {
		case err == nil:
			existing = &stored
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load campaign document: %w", err)
		}

		doc := ledger.BuildDocument(legacy, existing, stats)
		now := s.now()
		if existing == nil || !ledger.DocumentsEqual(*existing, doc) {
			doc.LastUpdated = now
			if err := tx.Save(&doc).Error; err != nil {
				return fmt.Errorf("save campaign document: %w", err)
			}
			if err := enqueueBackup(tx, "campaigns", id, doc, now); err != nil {
				return err
			}
			migrated = true
		}

		if !ledger.LegacyAggregatesMatch(legacy, stats) {
			if err := writeLegacyAggregates(tx, id, stats); err != nil {
				return err
			}
			repaired = true
		}
		return nil
	})
	return migrated, repaired, err
}
