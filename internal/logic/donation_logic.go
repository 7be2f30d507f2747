package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/metrics"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"gorm.io/gorm"
)

// AmountInput accepts an amount sent either as a JSON string or a JSON number
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = AmountInput(n.String())
	return nil
}

// DonationInput one donation as submitted by a client
type DonationInput struct {
	TxHash       string      `json:"txHash"`
	Amount       AmountInput `json:"amount"`
	Currency     string      `json:"currency"`
	Status       string      `json:"status"`
	DonorAddress string      `json:"donorAddress"`
	Anonymous    bool        `json:"anonymous"`
	Message      string      `json:"message"`
	Timestamp    *time.Time  `json:"timestamp"`
}

// IngestResult outcome of IngestDonations
type IngestResult struct {
	Accepted   []model.DonationModel `json:"accepted"`
	Duplicates int                   `json:"duplicates"`
	Stats      model.CampaignStats   `json:"stats"`
}

// DonationLogic donation ingestion and the aggregates derived from it
type DonationLogic struct {
	db    *gorm.DB
	locks *ledger.KeyedMutex
	now   func() time.Time
}

// NewDonationLogic creates the donation logic. locks must be shared with every
// other logic that writes campaign aggregates.
func NewDonationLogic(db *gorm.DB, locks *ledger.KeyedMutex) *DonationLogic {
	return &DonationLogic{db: db, locks: locks, now: time.Now}
}

// donationId keys a donation by campaign and normalised hash
func donationId(campaignId, txHash string) string {
	return campaignId + ":" + txHash
}

func (d *DonationLogic) toCandidates(campaignId string, inputs []DonationInput) ([]model.DonationModel, error) {
	if strings.TrimSpace(campaignId) == "" {
		return nil, invalid("campaignId", "is required")
	}
	if len(inputs) == 0 {
		return nil, invalid("donations", "at least one donation is required")
	}

	now := d.now().UTC()
	out := make([]model.DonationModel, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("donations[%d]", i)
		hash := ledger.NormalizeTxHash(in.TxHash)
		if hash == "" {
			return nil, invalid(field+".txHash", "is required")
		}
		amount, err := ledger.CanonicalAmount(string(in.Amount))
		if err != nil {
			return nil, invalid(field+".amount", err.Error())
		}
		status, err := model.ParseDonationStatus(in.Status)
		if err != nil {
			return nil, invalid(field+".status", err.Error())
		}
		ts := now
		if in.Timestamp != nil && !in.Timestamp.IsZero() {
			ts = in.Timestamp.UTC()
		}
		out = append(out, model.DonationModel{
			Id:           donationId(campaignId, hash),
			CampaignId:   campaignId,
			TxHash:       hash,
			Amount:       amount,
			Currency:     in.Currency,
			Status:       status,
			DonorAddress: ledger.NormalizeAddress(in.DonorAddress),
			Anonymous:    in.Anonymous,
			Message:      in.Message,
			Timestamp:    ts,
		})
	}
	return out, nil
}

// IngestDonations appends a batch of donations to a campaign. Donations whose
// tx hash is already recorded for the campaign are dropped and counted. The
// new donations and the recomputed aggregates of both campaign stores commit
// together or not at all.
func (d *DonationLogic) IngestDonations(ctx context.Context, campaignId string, inputs []DonationInput) (*IngestResult, error) {
	candidates, err := d.toCandidates(campaignId, inputs)
	if err != nil {
		return nil, err
	}

	unlock := d.locks.Lock(campaignId)
	defer unlock()

	var result IngestResult
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := campaignExists(tx, campaignId); err != nil {
			return err
		}
		existing, err := loadDonations(tx, campaignId)
		if err != nil {
			return err
		}

		merged := ledger.MergeDonations(existing, candidates)
		if len(merged.Accepted) > 0 {
			if err := tx.Create(&merged.Accepted).Error; err != nil {
				return fmt.Errorf("insert donations: %w", err)
			}
		}

		stats := ledger.Calculate(merged.Collection)
		now := d.now()
		if err := writeAggregates(tx, campaignId, stats, now); err != nil {
			return err
		}
		for _, a := range merged.Accepted {
			if err := enqueueBackup(tx, "donations", a.Id, a, now); err != nil {
				return err
			}
		}

		result = IngestResult{Accepted: merged.Accepted, Duplicates: merged.Duplicates, Stats: stats}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DonationsIngested.Add(float64(len(result.Accepted)))
	metrics.DonationsDuplicate.Add(float64(result.Duplicates))
	logger.Info("Campaign %s: ingested %d donations, %d duplicates", campaignId, len(result.Accepted), result.Duplicates)
	if result.Accepted == nil {
		result.Accepted = []model.DonationModel{}
	}
	return &result, nil
}

// GetCampaignStats recomputes the aggregate block from the donation table
func (d *DonationLogic) GetCampaignStats(ctx context.Context, campaignId string) (*model.CampaignStats, error) {
	db := d.db.WithContext(ctx)
	if err := campaignExists(db, campaignId); err != nil {
		return nil, err
	}
	donations, err := loadDonations(db, campaignId)
	if err != nil {
		return nil, err
	}
	stats := ledger.Calculate(donations)
	return &stats, nil
}

// ListDonations returns a campaign's donations newest first, with donor
// addresses of anonymous donations removed.
func (d *DonationLogic) ListDonations(ctx context.Context, campaignId string) ([]model.DonationModel, error) {
	db := d.db.WithContext(ctx)
	if err := campaignExists(db, campaignId); err != nil {
		return nil, err
	}
	donations, err := loadDonations(db, campaignId)
	if err != nil {
		return nil, err
	}
	for i := range donations {
		donations[i] = donations[i].PublicView()
	}
	return donations, nil
}

// UpdateDonationStatus changes the status of one donation and rewrites the
// campaign aggregates.
func (d *DonationLogic) UpdateDonationStatus(ctx context.Context, campaignId, txHash string, status model.DonationStatus) (*model.DonationModel, error) {
	if _, err := model.ParseDonationStatus(string(status)); err != nil || status == "" {
		return nil, invalid("status", fmt.Sprintf("invalid donation status %q", status))
	}
	hash := ledger.NormalizeTxHash(txHash)
	if hash == "" {
		return nil, invalid("txHash", "is required")
	}

	unlock := d.locks.Lock(campaignId)
	defer unlock()

	var updated model.DonationModel
	changed := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ? AND tx_hash = ?", campaignId, hash).First(&updated).Error; err != nil {
			return mapNotFound(err, "donation", hash)
		}
		if updated.Status == status {
			return nil
		}
		changed = true
		updated.Status = status
		if err := tx.Model(&updated).Update("status", status).Error; err != nil {
			return fmt.Errorf("update donation status: %w", err)
		}

		donations, err := loadDonations(tx, campaignId)
		if err != nil {
			return err
		}
		now := d.now()
		if err := writeAggregates(tx, campaignId, ledger.Calculate(donations), now); err != nil {
			return err
		}
		return enqueueBackup(tx, "donations", updated.Id, updated, now)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.DonationStatusChanges.WithLabelValues(string(status)).Inc()
		logger.Info("Donation %s of campaign %s is now %s", hash, campaignId, status)
	}
	return &updated, nil
}

// ethTxHashLen 0x plus 32 bytes of hex
const ethTxHashLen = 66

// PendingOnChain returns pending donations carrying an Ethereum tx hash that
// are older than before, oldest first. Other chains' signatures are excluded
// in the query so they cannot fill the batch.
func (d *DonationLogic) PendingOnChain(ctx context.Context, before time.Time, limit int) ([]model.DonationModel, error) {
	var pending []model.DonationModel
	err := d.db.WithContext(ctx).
		Where("status = ? AND timestamp <= ?", model.DonationStatusPending, before.UTC()).
		Where("tx_hash LIKE ? AND LENGTH(tx_hash) = ?", "0x%", ethTxHashLen).
		Order("timestamp ASC").
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("load pending donations: %w", err)
	}

	out := pending[:0]
	for _, p := range pending {
		if ledger.IsEthTxHash(p.TxHash) {
			out = append(out, p)
		}
	}
	return out, nil
}

func campaignExists(db *gorm.DB, campaignId string) error {
	var n int64
	if err := db.Model(&model.CampaignModel{}).Where("id = ?", campaignId).Count(&n).Error; err != nil {
		return fmt.Errorf("look up campaign: %w", err)
	}
	if n == 0 {
		return notFound("campaign", campaignId)
	}
	return nil
}

func loadDonations(db *gorm.DB, campaignId string) ([]model.DonationModel, error) {
	var donations []model.DonationModel
	if err := db.Where("campaign_id = ?", campaignId).Find(&donations).Error; err != nil {
		return nil, fmt.Errorf("load donations: %w", err)
	}
	ledger.SortNewestFirst(donations)
	return donations, nil
}

// writeAggregates stores stats on the legacy record and on the campaign
// document. A campaign without a document yet is left for the sync routine.
func writeAggregates(tx *gorm.DB, campaignId string, stats model.CampaignStats, now time.Time) error {
	if err := writeLegacyAggregates(tx, campaignId, stats); err != nil {
		return err
	}

	var doc model.CampaignDocumentModel
	err := tx.Where("campaign_id = ?", campaignId).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Debug("Campaign %s has no document yet, skipping document stats", campaignId)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load campaign document: %w", err)
	}
	doc.Stats = stats
	doc.LastUpdated = now
	if err := tx.Save(&doc).Error; err != nil {
		return fmt.Errorf("update campaign document: %w", err)
	}
	return nil
}

func writeLegacyAggregates(tx *gorm.DB, campaignId string, stats model.CampaignStats) error {
	err := tx.Model(&model.CampaignModel{Id: campaignId}).
		Select("RaisedAmount", "CurrentAmount", "DonorCount").
		Updates(model.CampaignModel{
			RaisedAmount:  stats.TotalAmount,
			CurrentAmount: stats.TotalAmount,
			DonorCount:    stats.TotalDonations,
		}).Error
	if err != nil {
		return fmt.Errorf("update campaign aggregates: %w", err)
	}
	return nil
}
