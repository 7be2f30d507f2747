package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/config"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/model"
)

// ErrDisabled the collaborator has no configuration and was not called
var ErrDisabled = errors.New("collaborator not configured")

// ZeptoMail request payload
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type toRecipient struct {
	Email emailAddress `json:"email_address"`
}

var statusSubjects = map[model.ApplicationStatus]string{
	model.ApplicationStatusUnderReview: "Your DON-8 application is under review",
	model.ApplicationStatusApproved:    "Your DON-8 application has been approved",
	model.ApplicationStatusRejected:    "Update on your DON-8 application",
}

var statusBody = template.Must(template.New("status").Parse(`<p>Hello {{.OrgName}},</p>
{{- if eq .Status "approved"}}
<p>Your organisation has been approved. You can now sign in with {{.To}}.</p>
{{- if .TempPassword}}
<p>Your temporary password is <strong>{{.TempPassword}}</strong>. Please change it after signing in.</p>
{{- end}}
{{- else if eq .Status "rejected"}}
<p>We are unable to approve your application at this time.</p>
{{- else}}
<p>Your application is now being reviewed by our team.</p>
{{- end}}
{{- if .Notes}}
<p>Reviewer notes: {{.Notes}}</p>
{{- end}}
<p>The DON-8 team</p>`))

// EmailSender sends transactional email through the ZeptoMail HTTP API
type EmailSender struct {
	cfg    config.EmailConfig
	client *http.Client
}

// NewEmailSender creates an email sender
func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg, client: &http.Client{Timeout: 15 * time.Second}}
}

// Enabled reports whether the API is configured
func (s *EmailSender) Enabled() bool {
	return s.cfg.APIURL != "" && s.cfg.APIKey != "" && s.cfg.From != ""
}

// SendApplicationStatusEmail tells an applicant about a review decision
func (s *EmailSender) SendApplicationStatusEmail(ctx context.Context, p model.ApplicationEmailPayload) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	subject, ok := statusSubjects[p.Status]
	if !ok {
		return fmt.Errorf("no email for application status %q", p.Status)
	}
	var body bytes.Buffer
	if err := statusBody.Execute(&body, p); err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	return s.send(ctx, p.To, p.OrgName, subject, body.String())
}

func (s *EmailSender) send(ctx context.Context, to, toName, subject, html string) error {
	payload := emailRequest{
		From:     emailAddress{Address: s.cfg.From, Name: s.cfg.FromName},
		To:       []toRecipient{{Email: emailAddress{Address: to, Name: toName}}},
		Subject:  subject,
		HtmlBody: html,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}
	logger.Debug("Email %q sent to %s", subject, to)
	return nil
}
