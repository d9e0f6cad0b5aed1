package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/LovationAdmin/triptrack-api/utils"
)

const resendEndpoint = "https://api.resend.com/emails"

var ErrEmailNotConfigured = errors.New("RESEND_API_KEY not configured")

// Mailer sends transactional email.
type Mailer interface {
	SendShareLink(ctx context.Context, msg ShareLinkEmail) error
}

type ShareLinkEmail struct {
	To           string
	TravelerName string
	InviterName  string
	TripName     string
	TargetDate   string
	DetailURL    string
	PhotosURL    string
}

type EmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// EmailService sends through the Resend API.
type EmailService struct {
	apiKey    string
	fromEmail string
	endpoint  string
	client    *http.Client
}

func NewEmailService(apiKey, fromEmail string) *EmailService {
	return &EmailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		endpoint:  resendEndpoint,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoint points the service at another Resend-compatible endpoint.
func (s *EmailService) WithEndpoint(endpoint string, client *http.Client) *EmailService {
	s.endpoint = endpoint
	if client != nil {
		s.client = client
	}
	return s
}

var shareLinkTemplate = template.Must(template.New("shareLink").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.TripName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background-color: #f1f5f9;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 32px 0; text-align: center; background: linear-gradient(135deg, #0ea5e9 0%, #14b8a6 100%);">
                <h1 style="margin: 0; color: #ffffff; font-size: 28px;">✈️ TripTrack</h1>
            </td>
        </tr>
        <tr>
            <td style="padding: 32px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
                    <tr>
                        <td style="padding: 32px;">
                            <h2 style="margin: 0 0 16px 0; color: #0f172a;">Hi {{.TravelerName}} 👋</h2>
                            <p style="color: #475569; font-size: 16px; line-height: 1.6;">
                                <strong>{{.InviterName}}</strong> shared the savings progress for <strong>{{.TripName}}</strong>{{if .TargetDate}} (departing {{.TargetDate}}){{end}}.
                            </p>
                            <p style="margin: 24px 0;">
                                <a href="{{.DetailURL}}" style="display: inline-block; padding: 14px 28px; background: #0ea5e9; color: #ffffff; text-decoration: none; border-radius: 8px; font-weight: 600;">View trip progress</a>
                            </p>
                            <p style="color: #64748b; font-size: 14px;">
                                Destination photos: <a href="{{.PhotosURL}}">{{.PhotosURL}}</a>
                            </p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`))

func (s *EmailService) SendShareLink(ctx context.Context, msg ShareLinkEmail) error {
	var body bytes.Buffer
	if err := shareLinkTemplate.Execute(&body, msg); err != nil {
		return fmt.Errorf("render share email: %w", err)
	}

	subject := fmt.Sprintf("%s shared %s with you", msg.InviterName, msg.TripName)
	return s.send(ctx, msg.To, subject, body.String())
}

func (s *EmailService) send(ctx context.Context, to, subject, htmlBody string) error {
	if s.apiKey == "" {
		return ErrEmailNotConfigured
	}

	jsonData, err := json.Marshal(EmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("email API returned status: %d", resp.StatusCode)
	}

	slog.Debug("email sent", "to", utils.MaskEmail(to))
	return nil
}
