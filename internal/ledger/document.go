package ledger

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/model"
)

// BuildDocument folds a legacy campaign record into its comprehensive
// document. Legacy metadata wins; updates and milestones are taken from the
// legacy record only when it has some; reports exist only on the document and
// are kept. existing may be nil. LastUpdated is left for the caller.
func BuildDocument(legacy model.CampaignModel, existing *model.CampaignDocumentModel, stats model.CampaignStats) model.CampaignDocumentModel {
	var doc model.CampaignDocumentModel
	if existing != nil {
		doc = *existing
	}
	doc.CampaignId = legacy.Id
	doc.NgoId = legacy.NgoId
	doc.CreatedAt = legacy.CreatedAt
	doc.Title = legacy.Title
	doc.Description = legacy.Description
	doc.Category = legacy.Category
	doc.ImageURL = legacy.ImageURL
	doc.Images = legacy.Images
	doc.TargetAmount = legacy.TargetAmount
	doc.Status = legacy.Status
	doc.EndDate = legacy.EndDate

	if len(legacy.Updates) > 0 {
		doc.Updates = legacy.Updates
	}
	if len(legacy.Milestones) > 0 {
		doc.Milestones = legacy.Milestones
	}

	doc.Stats = stats
	doc.Donations = nil
	return doc
}

// DocumentsEqual compares two documents ignoring LastUpdated, the embedded
// donation projection and time zone representation.
func DocumentsEqual(a, b model.CampaignDocumentModel) bool {
	ja, errA := canonicalDocument(a)
	jb, errB := canonicalDocument(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// LegacyAggregatesMatch reports whether the cached aggregates on the legacy
// record already reflect stats.
func LegacyAggregatesMatch(c model.CampaignModel, stats model.CampaignStats) bool {
	return c.RaisedAmount == stats.TotalAmount &&
		c.CurrentAmount == stats.TotalAmount &&
		c.DonorCount == stats.TotalDonations
}

func canonicalDocument(d model.CampaignDocumentModel) ([]byte, error) {
	d.LastUpdated = time.Time{}
	d.Donations = nil
	d.CreatedAt = d.CreatedAt.UTC()
	d.EndDate = utcPtr(d.EndDate)
	d.Stats.LastDonationAt = utcPtr(d.Stats.LastDonationAt)
	if len(d.Images) == 0 {
		d.Images = nil
	}

	if len(d.Updates) == 0 {
		d.Updates = nil
	} else {
		updates := make([]model.CampaignUpdate, len(d.Updates))
		for i, u := range d.Updates {
			u.CreatedAt = u.CreatedAt.UTC()
			updates[i] = u
		}
		d.Updates = updates
	}
	if len(d.Reports) == 0 {
		d.Reports = nil
	} else {
		reports := make([]model.CampaignReport, len(d.Reports))
		for i, r := range d.Reports {
			r.UploadedAt = r.UploadedAt.UTC()
			reports[i] = r
		}
		d.Reports = reports
	}
	if len(d.Milestones) == 0 {
		d.Milestones = nil
	}
	return json.Marshal(d)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
