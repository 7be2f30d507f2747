package ledger

import (
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/shopspring/decimal"
)

// Calculate derives the aggregate block from a donation collection.
// Failed donations count toward TotalDonations but not toward any amount.
func Calculate(donations []model.DonationModel) model.CampaignStats {
	confirmed := decimal.Zero
	pending := decimal.Zero
	donors := make(map[string]struct{})
	var last *time.Time

	for i := range donations {
		d := &donations[i]
		switch d.Status {
		case model.DonationStatusConfirmed:
			confirmed = confirmed.Add(AmountOrZero(d.Amount))
		case model.DonationStatusPending:
			pending = pending.Add(AmountOrZero(d.Amount))
		}
		donors[DonorIdentity(d.DonorAddress, d.Anonymous)] = struct{}{}

		if d.Timestamp.IsZero() {
			continue
		}
		if last == nil || d.Timestamp.After(*last) {
			ts := d.Timestamp
			last = &ts
		}
	}

	return model.CampaignStats{
		TotalDonations:  len(donations),
		TotalAmount:     FormatAmount(confirmed.Add(pending)),
		ConfirmedAmount: FormatAmount(confirmed),
		PendingAmount:   FormatAmount(pending),
		UniqueDonors:    len(donors),
		LastDonationAt:  last,
	}
}
