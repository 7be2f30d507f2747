package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dev0xiinko/don-8-sub001/internal/config"
)

// ErrNotConfigured no file store credentials were supplied
var ErrNotConfigured = errors.New("file storage not configured")

// Uploaded describes a stored file
type Uploaded struct {
	URL      string
	PublicID string
	Format   string
	Bytes    int
}

// ReportStore uploads campaign report files to Cloudinary
type ReportStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewReportStore creates a report store. Missing credentials yield a store
// whose uploads fail with ErrNotConfigured.
func NewReportStore(cfg config.CloudinaryConfig) (*ReportStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return &ReportStore{folder: cfg.Folder}, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	return &ReportStore{cld: cld, folder: cfg.Folder}, nil
}

// Enabled reports whether uploads can succeed
func (s *ReportStore) Enabled() bool {
	return s.cld != nil
}

// Upload stores a report under <folder>/<campaignId>
func (s *ReportStore) Upload(ctx context.Context, campaignId string, file io.Reader) (*Uploaded, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       s.folder + "/" + campaignId,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("upload error: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("upload error: %s", resp.Error.Message)
	}
	return &Uploaded{URL: resp.SecureURL, PublicID: resp.PublicID, Format: resp.Format, Bytes: resp.Bytes}, nil
}
