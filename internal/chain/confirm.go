package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
)

// ReceiptSource reports the on-chain status of a transaction
type ReceiptSource interface {
	TxStatus(ctx context.Context, hash string) (TxStatus, error)
}

// DonationStore is what the confirmer needs from the donation logic
type DonationStore interface {
	PendingOnChain(ctx context.Context, before time.Time, limit int) ([]model.DonationModel, error)
	UpdateDonationStatus(ctx context.Context, campaignId, txHash string, status model.DonationStatus) (*model.DonationModel, error)
}

// ConfirmResult counts of one confirmation pass
type ConfirmResult struct {
	Checked   int
	Confirmed int
	Failed    int
}

// Confirmer promotes pending donations once their transaction is mined
type Confirmer struct {
	receipts  ReceiptSource
	donations DonationStore
	minAge    time.Duration
	batch     int
	now       func() time.Time
}

// NewConfirmer creates a confirmer. Donations younger than minAge are left
// alone so the client that submitted them has time to settle.
func NewConfirmer(receipts ReceiptSource, donations DonationStore, minAge time.Duration, batch int) *Confirmer {
	if batch <= 0 {
		batch = 50
	}
	return &Confirmer{receipts: receipts, donations: donations, minAge: minAge, batch: batch, now: time.Now}
}

// ConfirmPending checks up to one batch of pending donations
func (c *Confirmer) ConfirmPending(ctx context.Context) (*ConfirmResult, error) {
	pending, err := c.donations.PendingOnChain(ctx, c.now().Add(-c.minAge), c.batch)
	if err != nil {
		return nil, err
	}

	res := &ConfirmResult{}
	for _, d := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		status, err := c.receipts.TxStatus(ctx, d.TxHash)
		if err != nil {
			logger.Warn("Failed to check donation %s: %v", d.TxHash, err)
			continue
		}

		var next model.DonationStatus
		switch status {
		case TxSucceeded:
			next = model.DonationStatusConfirmed
		case TxReverted:
			next = model.DonationStatusFailed
		default:
			continue
		}
		if _, err := c.donations.UpdateDonationStatus(ctx, d.CampaignId, d.TxHash, next); err != nil {
			return res, fmt.Errorf("update donation %s: %w", d.TxHash, err)
		}
		if next == model.DonationStatusConfirmed {
			res.Confirmed++
		} else {
			res.Failed++
		}
	}
	return res, nil
}
