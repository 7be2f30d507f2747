package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result counts of one import run
type Result struct {
	Campaigns    int               `json:"campaigns"`
	Documents    int               `json:"documents"`
	Donations    int               `json:"donations"`
	Duplicates   int               `json:"duplicates"`
	Withdrawals  int               `json:"withdrawals"`
	Applications int               `json:"applications"`
	Warnings     int               `json:"warnings"`
	Sync         *logic.SyncResult `json:"sync"`
}

// Importer loads the flat-file data directory into the database. Running it
// twice over the same directory changes nothing the second time.
type Importer struct {
	db        *gorm.DB
	donations *logic.DonationLogic
	sync      *logic.SyncLogic
	hashCost  int
	res       *Result
}

func NewImporter(db *gorm.DB, donations *logic.DonationLogic, sync *logic.SyncLogic) *Importer {
	return &Importer{db: db, donations: donations, sync: sync, hashCost: bcrypt.DefaultCost}
}

// Import reads campaigns.json, campaigns/<id>.json, donations/<id>.json,
// withdrawals.json and ngo-applications.json from dir, then syncs the
// campaign stores.
func (im *Importer) Import(ctx context.Context, dir string) (*Result, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("legacy data dir %q is not a directory", dir)
	}
	im.res = &Result{}

	campaigns := readList[campaignRecord](im, filepath.Join(dir, "campaigns.json"), "campaigns")
	documents := im.readDocuments(filepath.Join(dir, "campaigns"))

	if err := im.importCampaigns(ctx, campaigns, documents); err != nil {
		return nil, err
	}
	if err := im.importDocuments(ctx, documents); err != nil {
		return nil, err
	}
	if err := im.importDonations(ctx, filepath.Join(dir, "donations"), documents); err != nil {
		return nil, err
	}
	if err := im.importWithdrawals(ctx, readList[withdrawalRecord](im, filepath.Join(dir, "withdrawals.json"), "withdrawals")); err != nil {
		return nil, err
	}
	if err := im.importApplications(ctx, readList[applicationRecord](im, filepath.Join(dir, "ngo-applications.json"), "applications")); err != nil {
		return nil, err
	}

	syncRes, err := im.sync.SyncCampaignStore(ctx)
	im.res.Sync = syncRes
	if err != nil {
		return im.res, fmt.Errorf("sync after import: %w", err)
	}

	logger.Info("Legacy import from %s: %d campaigns, %d documents, %d donations (%d duplicate), %d withdrawals, %d applications, %d warnings",
		dir, im.res.Campaigns, im.res.Documents, im.res.Donations, im.res.Duplicates,
		im.res.Withdrawals, im.res.Applications, im.res.Warnings)
	return im.res, nil
}

func (im *Importer) warn(format string, args ...interface{}) {
	im.res.Warnings++
	logger.Warn("legacy import: "+format, args...)
}

// readList decodes a file holding either a JSON array or an object with the
// array under key. Missing or unreadable files count as empty.
func readList[T any](im *Importer, path, key string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		im.warn("%s unreadable, treated as empty: %v", path, err)
		return nil
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var items []T
	if data[0] == '[' {
		err = json.Unmarshal(data, &items)
	} else {
		var wrapped map[string]json.RawMessage
		if err = json.Unmarshal(data, &wrapped); err == nil {
			if raw, ok := wrapped[key]; ok {
				err = json.Unmarshal(raw, &items)
			}
		}
	}
	if err != nil {
		im.warn("%s is corrupt, treated as empty: %v", path, err)
		return nil
	}
	return items
}

func (im *Importer) readDocuments(dir string) []campaignRecord {
	paths, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	sort.Strings(paths)

	docs := make([]campaignRecord, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			im.warn("%s unreadable, skipped: %v", path, err)
			continue
		}
		var doc campaignRecord
		if err := json.Unmarshal(data, &doc); err != nil {
			im.warn("%s is corrupt, skipped: %v", path, err)
			continue
		}
		if doc.Id == "" {
			doc.Id = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		docs = append(docs, doc)
	}
	return docs
}

func (im *Importer) amount(raw rawAmount, what string) string {
	if raw == "" {
		return "0"
	}
	amount, err := ledger.CanonicalAmount(string(raw))
	if err != nil {
		im.warn("%s amount %q invalid, imported as 0", what, string(raw))
		return "0"
	}
	return amount
}

func (im *Importer) campaignStatus(s, id string) model.CampaignStatus {
	if s == "" {
		return model.CampaignStatusActive
	}
	status, err := model.ParseCampaignStatus(s)
	if err != nil {
		im.warn("campaign %s status %q unknown, imported as active", id, s)
		return model.CampaignStatusActive
	}
	return status
}

func (im *Importer) toCampaign(r campaignRecord) model.CampaignModel {
	c := model.CampaignModel{
		Id:           r.Id,
		NgoId:        r.NgoId,
		CreatedAt:    r.CreatedAt.Time,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		ImageURL:     r.ImageURL,
		Images:       r.Images,
		TargetAmount: im.amount(r.TargetAmount, "campaign "+r.Id+" target"),
		Status:       im.campaignStatus(r.Status, r.Id),
		EndDate:      r.EndDate.ptr(),
		Updates:      toUpdates(r.Updates),
		Milestones:   im.toMilestones(r.Milestones, r.Id),
	}
	return c
}

func (im *Importer) importCampaigns(ctx context.Context, campaigns, documents []campaignRecord) error {
	seen := map[string]bool{}
	rows := make([]model.CampaignModel, 0, len(campaigns))
	add := func(r campaignRecord) {
		if r.Id == "" {
			im.warn("campaign %q has no id, skipped", r.Title)
			return
		}
		if seen[r.Id] {
			return
		}
		seen[r.Id] = true
		rows = append(rows, im.toCampaign(r))
	}
	for _, r := range campaigns {
		add(r)
	}
	// a document without a flat record still needs one for listings
	for _, r := range documents {
		add(r)
	}
	if len(rows) == 0 {
		return nil
	}

	tx := im.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if tx.Error != nil {
		return fmt.Errorf("import campaigns: %w", tx.Error)
	}
	im.res.Campaigns = int(tx.RowsAffected)
	return nil
}

func (im *Importer) importDocuments(ctx context.Context, documents []campaignRecord) error {
	rows := make([]model.CampaignDocumentModel, 0, len(documents))
	for _, r := range documents {
		c := im.toCampaign(r)
		rows = append(rows, model.CampaignDocumentModel{
			CampaignId:   c.Id,
			NgoId:        c.NgoId,
			CreatedAt:    c.CreatedAt,
			Title:        c.Title,
			Description:  c.Description,
			Category:     c.Category,
			ImageURL:     c.ImageURL,
			Images:       c.Images,
			TargetAmount: c.TargetAmount,
			Status:       c.Status,
			EndDate:      c.EndDate,
			Updates:      c.Updates,
			Milestones:   c.Milestones,
			Reports:      toReports(r.Reports),
			Stats:        ledger.Calculate(nil),
		})
	}
	if len(rows) == 0 {
		return nil
	}

	tx := im.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if tx.Error != nil {
		return fmt.Errorf("import campaign documents: %w", tx.Error)
	}
	im.res.Documents = int(tx.RowsAffected)
	return nil
}

// importDonations merges the donations embedded in documents with the
// per-campaign donation files and ingests them campaign by campaign.
func (im *Importer) importDonations(ctx context.Context, dir string, documents []campaignRecord) error {
	byCampaign := map[string][]donationRecord{}
	for _, doc := range documents {
		byCampaign[doc.Id] = append(byCampaign[doc.Id], doc.Donations...)
	}
	paths, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	for _, path := range paths {
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		byCampaign[id] = append(byCampaign[id], readList[donationRecord](im, path, "donations")...)
	}

	ids := make([]string, 0, len(byCampaign))
	for id := range byCampaign {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		inputs := im.toDonationInputs(id, byCampaign[id])
		if len(inputs) == 0 {
			continue
		}
		res, err := im.donations.IngestDonations(ctx, id, inputs)
		switch {
		case errors.Is(err, logic.ErrNotFound):
			im.warn("donations for unknown campaign %s skipped", id)
			continue
		case err != nil:
			return fmt.Errorf("import donations of campaign %s: %w", id, err)
		}
		im.res.Donations += len(res.Accepted)
		im.res.Duplicates += res.Duplicates
	}
	return nil
}

func (im *Importer) toDonationInputs(campaignId string, records []donationRecord) []logic.DonationInput {
	inputs := make([]logic.DonationInput, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.TxHash) == "" {
			im.warn("donation without txHash in campaign %s skipped", campaignId)
			continue
		}
		status := r.Status
		if _, err := model.ParseDonationStatus(status); err != nil {
			im.warn("donation %s status %q unknown, imported as pending", r.TxHash, status)
			status = string(model.DonationStatusPending)
		}
		inputs = append(inputs, logic.DonationInput{
			TxHash:       r.TxHash,
			Amount:       logic.AmountInput(im.amount(r.Amount, "donation "+r.TxHash)),
			Currency:     r.Currency,
			Status:       status,
			DonorAddress: r.DonorAddress,
			Anonymous:    r.Anonymous,
			Message:      r.Message,
			Timestamp:    r.Timestamp.ptr(),
		})
	}
	return inputs
}

func (im *Importer) importWithdrawals(ctx context.Context, records []withdrawalRecord) error {
	rows := make([]model.WithdrawalModel, 0, len(records))
	for _, r := range records {
		hash := ledger.NormalizeTxHash(r.TxHash)
		if r.NgoId == "" || hash == "" {
			im.warn("withdrawal %q without ngoId or txHash skipped", r.Id)
			continue
		}
		id := r.Id
		if id == "" {
			id = uuid.NewString()
		}
		status := model.WithdrawalStatus(r.Status)
		switch status {
		case model.WithdrawalStatusPending, model.WithdrawalStatusCompleted, model.WithdrawalStatusFailed:
		default:
			status = model.WithdrawalStatusCompleted
		}
		rows = append(rows, model.WithdrawalModel{
			Id:          id,
			NgoId:       r.NgoId,
			Amount:      im.amount(r.Amount, "withdrawal "+hash),
			Destination: ledger.NormalizeAddress(r.Destination),
			TxHash:      hash,
			Status:      status,
			Timestamp:   r.Timestamp.Time,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	tx := im.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if tx.Error != nil {
		return fmt.Errorf("import withdrawals: %w", tx.Error)
	}
	im.res.Withdrawals = int(tx.RowsAffected)
	return nil
}

func (im *Importer) importApplications(ctx context.Context, records []applicationRecord) error {
	rows := make([]model.NGOApplicationModel, 0, len(records))
	for _, r := range records {
		if r.Id == "" {
			im.warn("application from %q has no id, skipped", r.Email)
			continue
		}
		app, err := im.toApplication(r)
		if err != nil {
			return err
		}
		rows = append(rows, app)
	}
	if len(rows) == 0 {
		return nil
	}

	tx := im.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if tx.Error != nil {
		return fmt.Errorf("import applications: %w", tx.Error)
	}
	im.res.Applications = int(tx.RowsAffected)
	return nil
}

// toApplication converts plaintext passwords found in the old files into
// bcrypt hashes. Credentials exist only on approved applications.
func (im *Importer) toApplication(r applicationRecord) (model.NGOApplicationModel, error) {
	status, err := model.ParseApplicationStatus(r.Status)
	if r.Status == "" {
		status, err = model.ApplicationStatusPending, nil
	}
	if err != nil {
		im.warn("application %s status %q unknown, imported as pending", r.Id, r.Status)
		status = model.ApplicationStatusPending
	}

	app := model.NGOApplicationModel{
		Id:                 r.Id,
		CreatedAt:          r.CreatedAt.Time,
		OrganizationName:   r.OrganizationName,
		Email:              strings.ToLower(strings.TrimSpace(r.Email)),
		ContactPerson:      r.ContactPerson,
		Phone:              r.Phone,
		Website:            r.Website,
		Country:            r.Country,
		RegistrationNumber: r.RegistrationNumber,
		WalletAddress:      ledger.NormalizeAddress(r.WalletAddress),
		Description:        r.Description,
		Status:             status,
		ReviewNotes:        r.ReviewNotes,
		ReviewedAt:         r.ReviewedAt.ptr(),
	}

	registration, err := im.hash(r.RegistrationPassword)
	if err != nil {
		return app, err
	}
	if status != model.ApplicationStatusApproved {
		app.RegistrationPassword = registration
		return app, nil
	}

	passwordHash := registration
	if r.Credentials != nil {
		for _, candidate := range []string{r.Credentials.PasswordHash, r.Credentials.Password} {
			if candidate == "" {
				continue
			}
			if passwordHash, err = im.hash(candidate); err != nil {
				return app, err
			}
			break
		}
	}
	if passwordHash == "" {
		im.warn("approved application %s has no password, login disabled until reset", r.Id)
	}
	issued := r.ReviewedAt.Time
	if issued.IsZero() {
		issued = r.CreatedAt.Time
	}
	app.Credentials = &model.NGOCredentials{Email: app.Email, PasswordHash: passwordHash, IssuedAt: issued}
	return app, nil
}

// hash bcrypt-hashes a plaintext password; existing bcrypt hashes pass through
func (im *Importer) hash(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	if _, err := bcrypt.Cost([]byte(password)); err == nil {
		return password, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), im.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash imported password: %w", err)
	}
	return string(hashed), nil
}

func toUpdates(records []updateRecord) []model.CampaignUpdate {
	updates := make([]model.CampaignUpdate, 0, len(records))
	for _, r := range records {
		id := r.Id
		if id == "" {
			id = uuid.NewString()
		}
		kind := r.Type
		if kind == "" {
			kind = "general"
		}
		updates = append(updates, model.CampaignUpdate{
			Id:        id,
			Title:     r.Title,
			Content:   r.Content,
			Type:      kind,
			CreatedAt: r.CreatedAt.Time,
		})
	}
	return updates
}

func (im *Importer) toMilestones(records []milestoneRecord, campaignId string) []model.Milestone {
	milestones := make([]model.Milestone, 0, len(records))
	for _, r := range records {
		milestones = append(milestones, model.Milestone{
			Title:        r.Title,
			TargetAmount: im.amount(r.TargetAmount, "campaign "+campaignId+" milestone"),
			Description:  r.Description,
			Reached:      r.Reached,
		})
	}
	return milestones
}

func toReports(records []reportRecord) []model.CampaignReport {
	reports := make([]model.CampaignReport, 0, len(records))
	for _, r := range records {
		if r.FilePath == "" {
			continue
		}
		id := r.Id
		if id == "" {
			id = uuid.NewString()
		}
		reports = append(reports, model.CampaignReport{
			Id:         id,
			FilePath:   r.FilePath,
			FileType:   r.FileType,
			FileName:   r.FileName,
			UploadedAt: r.UploadedAt.Time,
		})
	}
	return reports
}
