package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignInput fields an NGO supplies when creating a campaign
type CampaignInput struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	ImageURL     string            `json:"imageUrl"`
	Images       []string          `json:"images"`
	TargetAmount AmountInput       `json:"targetAmount"`
	EndDate      *time.Time        `json:"endDate"`
	Milestones   []model.Milestone `json:"milestones"`
}

// UpdateInput an NGO progress post
type UpdateInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// CampaignFilter listing filter; zero values mean no filter
type CampaignFilter struct {
	Status   model.CampaignStatus
	NgoId    string
	Category string
	Page     int
	PageSize int
}

// CampaignPage one page of campaigns
type CampaignPage struct {
	Items    []model.CampaignModel `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
}

// CampaignLogic campaign records in both stores
type CampaignLogic struct {
	db    *gorm.DB
	locks *ledger.KeyedMutex
	now   func() time.Time
}

// NewCampaignLogic creates the campaign logic
func NewCampaignLogic(db *gorm.DB, locks *ledger.KeyedMutex) *CampaignLogic {
	return &CampaignLogic{db: db, locks: locks, now: time.Now}
}

func (c *CampaignLogic) validate(in *CampaignInput) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return "", invalid("title", "is required")
	}
	target, err := ledger.ParseAmount(string(in.TargetAmount))
	if err != nil {
		return "", invalid("targetAmount", err.Error())
	}
	if !target.IsPositive() {
		return "", invalid("targetAmount", "must be greater than zero")
	}
	if in.EndDate != nil {
		if !in.EndDate.After(c.now()) {
			return "", invalid("endDate", "must be in the future")
		}
		end := in.EndDate.UTC()
		in.EndDate = &end
	}
	return ledger.FormatAmount(target), nil
}

// CreateCampaign writes a new campaign to the legacy table and its document
func (c *CampaignLogic) CreateCampaign(ctx context.Context, ngoId string, in CampaignInput) (*model.CampaignDocumentModel, error) {
	if strings.TrimSpace(ngoId) == "" {
		return nil, invalid("ngoId", "is required")
	}
	target, err := c.validate(&in)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	campaign := model.CampaignModel{
		Id:            uuid.NewString(),
		NgoId:         ngoId,
		CreatedAt:     now,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		ImageURL:      in.ImageURL,
		Images:        in.Images,
		TargetAmount:  target,
		Status:        model.CampaignStatusActive,
		EndDate:       in.EndDate,
		Milestones:    in.Milestones,
		RaisedAmount:  "0",
		CurrentAmount: "0",
	}
	doc := ledger.BuildDocument(campaign, nil, ledger.Calculate(nil))
	doc.LastUpdated = now

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return fmt.Errorf("create campaign: %w", err)
		}
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("create campaign document: %w", err)
		}
		return enqueueBackup(tx, "campaigns", doc.CampaignId, doc, now)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("NGO %s created campaign %s", ngoId, campaign.Id)
	doc.Donations = []model.DonationModel{}
	return &doc, nil
}

// GetCampaign returns the legacy campaign record
func (c *CampaignLogic) GetCampaign(ctx context.Context, id string) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error; err != nil {
		return nil, mapNotFound(err, "campaign", id)
	}
	return &campaign, nil
}

// ListCampaigns returns a page of legacy campaign records, newest first
func (c *CampaignLogic) ListCampaigns(ctx context.Context, f CampaignFilter) (*CampaignPage, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}

	query := c.db.WithContext(ctx).Model(&model.CampaignModel{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.NgoId != "" {
		query = query.Where("ngo_id = ?", f.NgoId)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}

	query = query.Session(&gorm.Session{})

	page := CampaignPage{Page: f.Page, PageSize: f.PageSize, Items: []model.CampaignModel{}}
	if err := query.Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("count campaigns: %w", err)
	}
	err := query.Order("created_at DESC").Order("id").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return &page, nil
}

// GetCampaignDocument returns the comprehensive document with its donations
// attached. A campaign not yet synced is served from its legacy record.
func (c *CampaignLogic) GetCampaignDocument(ctx context.Context, id string) (*model.CampaignDocumentModel, error) {
	db := c.db.WithContext(ctx)
	var legacy model.CampaignModel
	if err := db.Where("id = ?", id).First(&legacy).Error; err != nil {
		return nil, mapNotFound(err, "campaign", id)
	}
	doc, donations, err := loadOrBuildDocument(db, legacy)
	if err != nil {
		return nil, err
	}
	doc.Donations = make([]model.DonationModel, len(donations))
	for i, d := range donations {
		doc.Donations[i] = d.PublicView()
	}
	return doc, nil
}

// AddUpdate appends a progress post to the campaign
func (c *CampaignLogic) AddUpdate(ctx context.Context, ngoId, campaignId string, in UpdateInput) (*model.CampaignUpdate, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" && in.Content == "" {
		return nil, invalid("content", "an update needs a title or content")
	}
	if in.Type == "" {
		in.Type = "general"
	}
	update := model.CampaignUpdate{
		Id:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Type:      in.Type,
		CreatedAt: c.now().UTC(),
	}

	err := c.mutate(ctx, ngoId, campaignId, func(legacy *model.CampaignModel, doc *model.CampaignDocumentModel) error {
		legacy.Updates = append(legacy.Updates, update)
		doc.Updates = append(doc.Updates, update)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &update, nil
}

// AddReport records an uploaded report against the campaign document
func (c *CampaignLogic) AddReport(ctx context.Context, ngoId, campaignId string, report model.CampaignReport) (*model.CampaignReport, error) {
	if strings.TrimSpace(report.FilePath) == "" {
		return nil, invalid("filePath", "is required")
	}
	if report.Id == "" {
		report.Id = uuid.NewString()
	}
	if report.UploadedAt.IsZero() {
		report.UploadedAt = c.now().UTC()
	}

	err := c.mutate(ctx, ngoId, campaignId, func(_ *model.CampaignModel, doc *model.CampaignDocumentModel) error {
		doc.Reports = append(doc.Reports, report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// SetStatus changes the campaign status in both stores. An empty ngoId skips
// the ownership check (admin callers). Setting the current status again is a
// no-op; completed campaigns cannot be reopened.
func (c *CampaignLogic) SetStatus(ctx context.Context, ngoId, campaignId string, status model.CampaignStatus) error {
	if _, err := model.ParseCampaignStatus(string(status)); err != nil {
		return invalid("status", err.Error())
	}
	return c.mutate(ctx, ngoId, campaignId, func(legacy *model.CampaignModel, doc *model.CampaignDocumentModel) error {
		if legacy.Status != status && !legacy.Status.CanTransitionTo(status) {
			return fmt.Errorf("campaign %s -> %s: %w", legacy.Status, status, ErrInvalidTransition)
		}
		legacy.Status = status
		doc.Status = status
		return nil
	})
}

// CompleteExpired marks active campaigns whose end date has passed as
// completed and returns how many were changed.
func (c *CampaignLogic) CompleteExpired(ctx context.Context) (int, error) {
	var expired []model.CampaignModel
	err := c.db.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", model.CampaignStatusActive, c.now().UTC()).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("load expired campaigns: %w", err)
	}

	completed := 0
	for _, e := range expired {
		if err := c.SetStatus(ctx, "", e.Id, model.CampaignStatusCompleted); err != nil {
			logger.Error("Failed to complete campaign %s: %v", e.Id, err)
			continue
		}
		completed++
	}
	return completed, nil
}

// mutate applies fn to both representations of a campaign under its lock and
// saves them in one transaction.
func (c *CampaignLogic) mutate(ctx context.Context, ngoId, campaignId string, fn func(*model.CampaignModel, *model.CampaignDocumentModel) error) error {
	unlock := c.locks.Lock(campaignId)
	defer unlock()

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var legacy model.CampaignModel
		if err := tx.Where("id = ?", campaignId).First(&legacy).Error; err != nil {
			return mapNotFound(err, "campaign", campaignId)
		}
		if ngoId != "" && legacy.NgoId != ngoId {
			return fmt.Errorf("campaign %q: %w", campaignId, ErrForbidden)
		}
		doc, _, err := loadOrBuildDocument(tx, legacy)
		if err != nil {
			return err
		}

		if err := fn(&legacy, doc); err != nil {
			return err
		}
		now := c.now()
		doc.LastUpdated = now
		doc.Donations = nil

		if err := tx.Save(&legacy).Error; err != nil {
			return fmt.Errorf("save campaign: %w", err)
		}
		if err := tx.Save(doc).Error; err != nil {
			return fmt.Errorf("save campaign document: %w", err)
		}
		return enqueueBackup(tx, "campaigns", doc.CampaignId, doc, now)
	})
}

// loadOrBuildDocument returns the stored document of legacy, or one built
// from the legacy record when none exists yet, plus the donation collection.
func loadOrBuildDocument(db *gorm.DB, legacy model.CampaignModel) (*model.CampaignDocumentModel, []model.DonationModel, error) {
	donations, err := loadDonations(db, legacy.Id)
	if err != nil {
		return nil, nil, err
	}

	var doc model.CampaignDocumentModel
	err = db.Where("campaign_id = ?", legacy.Id).First(&doc).Error
	switch {
	case err == nil:
		return &doc, donations, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		built := ledger.BuildDocument(legacy, nil, ledger.Calculate(donations))
		built.LastUpdated = legacy.UpdatedAt
		return &built, donations, nil
	default:
		return nil, nil, fmt.Errorf("load campaign document: %w", err)
	}
}
