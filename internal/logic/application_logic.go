package logic

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/ledger"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ApplicationInput an NGO registration as submitted
type ApplicationInput struct {
	OrganizationName   string `json:"organizationName"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	ContactPerson      string `json:"contactPerson"`
	Phone              string `json:"phone"`
	Website            string `json:"website"`
	Country            string `json:"country"`
	RegistrationNumber string `json:"registrationNumber"`
	WalletAddress      string `json:"walletAddress"`
	Description        string `json:"description"`
}

// ApplicationLogic NGO application review
type ApplicationLogic struct {
	db       *gorm.DB
	locks    *ledger.KeyedMutex
	hashCost int
	now      func() time.Time
}

// NewApplicationLogic creates the application logic
func NewApplicationLogic(db *gorm.DB, locks *ledger.KeyedMutex) *ApplicationLogic {
	return &ApplicationLogic{db: db, locks: locks, hashCost: bcrypt.DefaultCost, now: time.Now}
}

// SubmitApplication stores a new application in pending state. A supplied
// password is kept only as a bcrypt hash until review.
func (a *ApplicationLogic) SubmitApplication(ctx context.Context, in ApplicationInput) (*model.NGOApplicationModel, error) {
	in.OrganizationName = strings.TrimSpace(in.OrganizationName)
	if in.OrganizationName == "" {
		return nil, invalid("organizationName", "is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, invalid("email", "is not a valid address")
	}
	email := strings.ToLower(addr.Address)

	app := model.NGOApplicationModel{
		Id:                 uuid.NewString(),
		OrganizationName:   in.OrganizationName,
		Email:              email,
		ContactPerson:      in.ContactPerson,
		Phone:              in.Phone,
		Website:            in.Website,
		Country:            in.Country,
		RegistrationNumber: in.RegistrationNumber,
		WalletAddress:      ledger.NormalizeAddress(in.WalletAddress),
		Description:        in.Description,
		Status:             model.ApplicationStatusPending,
	}
	if in.Password != "" {
		if len(in.Password) < 8 {
			return nil, invalid("password", "must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		app.RegistrationPassword = string(hash)
	}

	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&model.NGOApplicationModel{}).
			Where("email = ? AND status <> ?", email, model.ApplicationStatusRejected).
			Count(&n).Error
		if err != nil {
			return fmt.Errorf("look up application: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("application for %s: %w", email, ErrDuplicate)
		}
		if err := tx.Create(&app).Error; err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		return enqueueBackup(tx, "ngo_applications", app.Id, app.Sanitize(), a.now())
	})
	if err != nil {
		return nil, err
	}

	logger.Info("NGO application %s submitted by %s", app.Id, app.OrganizationName)
	clean := app.Sanitize()
	return &clean, nil
}

// GetApplication returns one sanitised application
func (a *ApplicationLogic) GetApplication(ctx context.Context, id string) (*model.NGOApplicationModel, error) {
	var app model.NGOApplicationModel
	if err := a.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, mapNotFound(err, "application", id)
	}
	clean := app.Sanitize()
	return &clean, nil
}

// ListApplications returns sanitised applications, newest first. An empty
// status lists all.
func (a *ApplicationLogic) ListApplications(ctx context.Context, status model.ApplicationStatus) ([]model.NGOApplicationModel, error) {
	query := a.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var apps []model.NGOApplicationModel
	if err := query.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := make([]model.NGOApplicationModel, len(apps))
	for i, app := range apps {
		out[i] = app.Sanitize()
	}
	return out, nil
}

// UpdateApplicationStatus moves an application through review. Approval
// issues credentials; the applicant is notified of every change through the
// outbox. The returned application is sanitised.
func (a *ApplicationLogic) UpdateApplicationStatus(ctx context.Context, id string, next model.ApplicationStatus, notes string) (*model.NGOApplicationModel, error) {
	if _, err := model.ParseApplicationStatus(string(next)); err != nil {
		return nil, invalid("status", err.Error())
	}

	unlock := a.locks.Lock("application:" + id)
	defer unlock()

	var app model.NGOApplicationModel
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&app).Error; err != nil {
			return mapNotFound(err, "application", id)
		}
		if !app.Status.CanTransitionTo(next) {
			return fmt.Errorf("%s -> %s: %w", app.Status, next, ErrInvalidTransition)
		}

		now := a.now().UTC()
		app.Status = next
		app.ReviewNotes = notes
		app.ReviewedAt = &now

		email := model.ApplicationEmailPayload{
			To:      app.Email,
			Status:  next,
			OrgName: app.OrganizationName,
			Notes:   notes,
		}
		switch next {
		case model.ApplicationStatusApproved:
			hash := app.RegistrationPassword
			if hash == "" {
				temp, err := tempPassword()
				if err != nil {
					return err
				}
				raw, err := bcrypt.GenerateFromPassword([]byte(temp), a.hashCost)
				if err != nil {
					return fmt.Errorf("hash password: %w", err)
				}
				hash = string(raw)
				email.TempPassword = temp
			}
			app.Credentials = &model.NGOCredentials{Email: app.Email, PasswordHash: hash, IssuedAt: now}
			app.RegistrationPassword = ""
		case model.ApplicationStatusRejected:
			app.Credentials = nil
			app.RegistrationPassword = ""
		}

		if err := tx.Save(&app).Error; err != nil {
			return fmt.Errorf("save application: %w", err)
		}
		if err := enqueueTask(tx, model.OutboxKindApplicationEmail, email, now); err != nil {
			return err
		}
		return enqueueBackup(tx, "ngo_applications", app.Id, app.Sanitize(), now)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("NGO application %s is now %s", id, next)
	clean := app.Sanitize()
	return &clean, nil
}

// Authenticate checks NGO login credentials and returns the sanitised
// application, whose id is the NGO id.
func (a *ApplicationLogic) Authenticate(ctx context.Context, email, password string) (*model.NGOApplicationModel, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var app model.NGOApplicationModel
	err := a.db.WithContext(ctx).
		Where("email = ? AND status = ?", email, model.ApplicationStatusApproved).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("look up ngo: %w", err)
	}
	if app.Credentials == nil ||
		bcrypt.CompareHashAndPassword([]byte(app.Credentials.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidLogin
	}
	clean := app.Sanitize()
	return &clean, nil
}

func tempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
