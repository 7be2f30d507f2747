package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/metrics"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalBlockedError lists the campaigns that block a withdrawal
type WithdrawalBlockedError struct {
	Violations []ledger.Violation
}

func (e *WithdrawalBlockedError) Error() string {
	return fmt.Sprintf("%d campaign(s) need an update or report before withdrawing", len(e.Violations))
}

func (e *WithdrawalBlockedError) Is(target error) bool {
	return target == ErrWithdrawalBlocked
}

// WithdrawalInput a withdrawal as submitted by an NGO
type WithdrawalInput struct {
	Amount      AmountInput `json:"amount"`
	Destination string      `json:"destination"`
	TxHash      string      `json:"txHash"`
}

// NGOSummary fund totals of one NGO
type NGOSummary struct {
	NgoId           string `json:"ngoId"`
	CampaignCount   int    `json:"campaignCount"`
	TotalRaised     string `json:"totalRaised"`
	ConfirmedRaised string `json:"confirmedRaised"`
	TotalWithdrawn  string `json:"totalWithdrawn"`
	Available       string `json:"available"`
	Overdrawn       bool   `json:"overdrawn"`
}

// WithdrawalLogic NGO withdrawals and the reporting policy gating them
type WithdrawalLogic struct {
	db        *gorm.DB
	locks     *ledger.KeyedMutex
	graceDays int
	now       func() time.Time
}

// NewWithdrawalLogic creates the withdrawal logic
func NewWithdrawalLogic(db *gorm.DB, locks *ledger.KeyedMutex, graceDays int) *WithdrawalLogic {
	if graceDays < 0 {
		graceDays = ledger.DefaultGraceDays
	}
	return &WithdrawalLogic{db: db, locks: locks, graceDays: graceDays, now: time.Now}
}

// CheckWithdrawalEligibility evaluates the reporting policy over every
// campaign of the NGO.
func (w *WithdrawalLogic) CheckWithdrawalEligibility(ctx context.Context, ngoId string) (*ledger.Eligibility, error) {
	db := w.db.WithContext(ctx)
	if err := ngoExists(db, ngoId); err != nil {
		return nil, err
	}
	activity, err := campaignActivity(db, ngoId)
	if err != nil {
		return nil, err
	}
	res := ledger.EvaluateWithdrawal(activity, w.now(), w.graceDays)
	return &res, nil
}

// RecordWithdrawal stores a withdrawal after the NGO passes the reporting
// policy. A tx hash can be recorded only once. The transfer has already
// happened on chain, so the amount is not checked against the confirmed
// balance; Summary reports an NGO that withdrew more as overdrawn.
func (w *WithdrawalLogic) RecordWithdrawal(ctx context.Context, ngoId string, in WithdrawalInput) (*model.WithdrawalModel, error) {
	amount, err := ledger.ParseAmount(string(in.Amount))
	if err != nil {
		return nil, invalid("amount", err.Error())
	}
	if !amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	destination := ledger.NormalizeAddress(in.Destination)
	if destination == "" {
		return nil, invalid("destination", "is required")
	}
	hash := ledger.NormalizeTxHash(in.TxHash)
	if hash == "" {
		return nil, invalid("txHash", "is required")
	}

	unlock := w.locks.Lock("ngo:" + ngoId)
	defer unlock()

	withdrawal := model.WithdrawalModel{
		Id:          uuid.NewString(),
		NgoId:       ngoId,
		Amount:      ledger.FormatAmount(amount),
		Destination: destination,
		TxHash:      hash,
		Status:      model.WithdrawalStatusCompleted,
		Timestamp:   w.now().UTC(),
	}
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ngoExists(tx, ngoId); err != nil {
			return err
		}
		activity, err := campaignActivity(tx, ngoId)
		if err != nil {
			return err
		}
		if res := ledger.EvaluateWithdrawal(activity, w.now(), w.graceDays); !res.CanWithdraw {
			return &WithdrawalBlockedError{Violations: res.ViolatingCampaigns}
		}

		var n int64
		if err := tx.Model(&model.WithdrawalModel{}).Where("tx_hash = ?", hash).Count(&n).Error; err != nil {
			return fmt.Errorf("look up withdrawal: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("withdrawal %q: %w", hash, ErrDuplicate)
		}
		if err := tx.Create(&withdrawal).Error; err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		return enqueueBackup(tx, "withdrawals", withdrawal.Id, withdrawal, w.now())
	})
	if err != nil {
		if errors.Is(err, ErrWithdrawalBlocked) {
			metrics.WithdrawalsBlocked.Inc()
			logger.Warn("Withdrawal by NGO %s blocked: %v", ngoId, err)
		}
		return nil, err
	}

	metrics.WithdrawalsRecorded.Inc()
	logger.Info("NGO %s withdrew %s to %s (tx %s)", ngoId, withdrawal.Amount, destination, hash)
	return &withdrawal, nil
}

// ListWithdrawals returns the NGO's withdrawals, newest first
func (w *WithdrawalLogic) ListWithdrawals(ctx context.Context, ngoId string) ([]model.WithdrawalModel, error) {
	withdrawals := []model.WithdrawalModel{}
	err := w.db.WithContext(ctx).
		Where("ngo_id = ?", ngoId).
		Order("timestamp DESC").
		Find(&withdrawals).Error
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// Summary totals raised and withdrawn funds across the NGO's campaigns.
// Available is confirmed donations minus non-failed withdrawals and goes
// negative when the NGO is overdrawn.
func (w *WithdrawalLogic) Summary(ctx context.Context, ngoId string) (*NGOSummary, error) {
	db := w.db.WithContext(ctx)
	if err := ngoExists(db, ngoId); err != nil {
		return nil, err
	}

	var campaignIds []string
	if err := db.Model(&model.CampaignModel{}).Where("ngo_id = ?", ngoId).Pluck("id", &campaignIds).Error; err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	raised, confirmed := decimal.Zero, decimal.Zero
	for _, id := range campaignIds {
		donations, err := loadDonations(db, id)
		if err != nil {
			return nil, err
		}
		stats := ledger.Calculate(donations)
		raised = raised.Add(ledger.AmountOrZero(stats.TotalAmount))
		confirmed = confirmed.Add(ledger.AmountOrZero(stats.ConfirmedAmount))
	}

	var withdrawals []model.WithdrawalModel
	err := db.Where("ngo_id = ? AND status <> ?", ngoId, model.WithdrawalStatusFailed).Find(&withdrawals).Error
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	withdrawn := decimal.Zero
	for _, wd := range withdrawals {
		withdrawn = withdrawn.Add(ledger.AmountOrZero(wd.Amount))
	}

	return &NGOSummary{
		NgoId:           ngoId,
		CampaignCount:   len(campaignIds),
		TotalRaised:     ledger.FormatAmount(raised),
		ConfirmedRaised: ledger.FormatAmount(confirmed),
		TotalWithdrawn:  ledger.FormatAmount(withdrawn),
		Available:       ledger.FormatAmount(confirmed.Sub(withdrawn)),
		Overdrawn:       withdrawn.GreaterThan(confirmed),
	}, nil
}

// ngoExists an NGO is known once its application is approved, or when it
// owns campaigns imported from legacy data.
func ngoExists(db *gorm.DB, ngoId string) error {
	if strings.TrimSpace(ngoId) == "" {
		return invalid("ngoId", "is required")
	}
	var n int64
	err := db.Model(&model.NGOApplicationModel{}).
		Where("id = ? AND status = ?", ngoId, model.ApplicationStatusApproved).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("look up ngo: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := db.Model(&model.CampaignModel{}).Where("ngo_id = ?", ngoId).Count(&n).Error; err != nil {
		return fmt.Errorf("look up ngo campaigns: %w", err)
	}
	if n == 0 {
		return notFound("ngo", ngoId)
	}
	return nil
}

// campaignActivity collects what the reporting policy needs for every
// campaign of the NGO. Updates may live on either store; reports only on the
// document.
func campaignActivity(db *gorm.DB, ngoId string) ([]ledger.CampaignActivity, error) {
	var campaigns []model.CampaignModel
	if err := db.Where("ngo_id = ?", ngoId).Order("created_at").Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	ids := make([]string, len(campaigns))
	for i, c := range campaigns {
		ids[i] = c.Id
	}
	var docs []model.CampaignDocumentModel
	if err := db.Where("campaign_id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("load campaign documents: %w", err)
	}
	byId := make(map[string]*model.CampaignDocumentModel, len(docs))
	for i := range docs {
		byId[docs[i].CampaignId] = &docs[i]
	}

	out := make([]ledger.CampaignActivity, 0, len(campaigns))
	for _, c := range campaigns {
		a := ledger.CampaignActivity{
			CampaignId:  c.Id,
			Title:       c.Title,
			CreatedAt:   c.CreatedAt,
			UpdateCount: len(c.Updates),
		}
		if doc, ok := byId[c.Id]; ok {
			if len(doc.Updates) > a.UpdateCount {
				a.UpdateCount = len(doc.Updates)
			}
			a.ReportCount = len(doc.Reports)
		}
		out = append(out, a)
	}
	return out, nil
}
