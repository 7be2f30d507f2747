package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DonationsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "don8",
		Name:      "donations_ingested_total",
		Help:      "Donations appended to a campaign collection.",
	})
	DonationsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "don8",
		Name:      "donations_duplicate_total",
		Help:      "Ingested donations dropped because their tx hash was already known.",
	})
	DonationStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "don8",
		Name:      "donation_status_changes_total",
		Help:      "Donation status changes by new status.",
	}, []string{"status"})
	WithdrawalsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "don8",
		Name:      "withdrawals_recorded_total",
		Help:      "Withdrawals recorded.",
	})
	WithdrawalsBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "don8",
		Name:      "withdrawals_blocked_total",
		Help:      "Withdrawals refused by the reporting policy.",
	})
	SyncMigrated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "don8",
		Name:      "campaign_sync_migrated_total",
		Help:      "Campaign documents created or changed by the sync routine.",
	})
	OutboxDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "don8",
		Name:      "outbox_dispatch_total",
		Help:      "Outbox dispatch attempts by kind and result.",
	}, []string{"kind", "result"})
)
