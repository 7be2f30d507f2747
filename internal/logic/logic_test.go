package logic

import (
	"context"
	"testing"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/database"
	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db           *gorm.DB
	locks        *ledger.KeyedMutex
	campaigns    *CampaignLogic
	donations    *DonationLogic
	sync         *SyncLogic
	withdrawals  *WithdrawalLogic
	applications *ApplicationLogic
	outbox       *OutboxLogic
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	locks := ledger.NewKeyedMutex()
	f := &fixture{
		db:           db,
		locks:        locks,
		campaigns:    NewCampaignLogic(db, locks),
		donations:    NewDonationLogic(db, locks),
		sync:         NewSyncLogic(db, locks),
		withdrawals:  NewWithdrawalLogic(db, locks, ledger.DefaultGraceDays),
		applications: NewApplicationLogic(db, locks),
		outbox:       NewOutboxLogic(db),
	}
	f.applications.hashCost = bcrypt.MinCost
	f.setNow(t0)
	return f
}

func (f *fixture) setNow(now time.Time) {
	clock := func() time.Time { return now }
	f.campaigns.now = clock
	f.donations.now = clock
	f.sync.now = clock
	f.withdrawals.now = clock
	f.applications.now = clock
	f.outbox.now = clock
}

func (f *fixture) createCampaign(t *testing.T, ngoId, title string) *model.CampaignDocumentModel {
	t.Helper()
	doc, err := f.campaigns.CreateCampaign(context.Background(), ngoId, CampaignInput{
		Title:        title,
		TargetAmount: "100",
	})
	require.NoError(t, err)
	return doc
}

// insertLegacy writes a campaign row the way old data exists: no document
func (f *fixture) insertLegacy(t *testing.T, c model.CampaignModel) {
	t.Helper()
	if c.TargetAmount == "" {
		c.TargetAmount = "100"
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = t0
	}
	require.NoError(t, f.db.Create(&c).Error)
}

func (f *fixture) legacy(t *testing.T, id string) model.CampaignModel {
	t.Helper()
	var c model.CampaignModel
	require.NoError(t, f.db.First(&c, "id = ?", id).Error)
	return c
}

func (f *fixture) document(t *testing.T, id string) model.CampaignDocumentModel {
	t.Helper()
	var d model.CampaignDocumentModel
	require.NoError(t, f.db.First(&d, "campaign_id = ?", id).Error)
	return d
}

func (f *fixture) tasks(t *testing.T, kind model.OutboxKind) []model.OutboxTaskModel {
	t.Helper()
	var tasks []model.OutboxTaskModel
	require.NoError(t, f.db.Where("kind = ?", kind).Order("id").Find(&tasks).Error)
	return tasks
}

func hash(n int) string {
	return ledger.NormalizeTxHash("0x" + leftPad(n))
}

func leftPad(n int) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 64)
	for i := range out {
		out[i] = '0'
	}
	for i := 63; n > 0 && i >= 0; i-- {
		out[i] = digits[n%16]
		n /= 16
	}
	return string(out)
}
