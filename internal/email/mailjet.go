// Package email sends transactional mail through the Mailjet HTTP API.
// With no API keys configured the client runs in preview mode: messages
// are logged instead of sent, which keeps local development working
// without credentials.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.mailjet.com"

// Config contains Mailjet API configuration
type Config struct {
	APIKey    string
	APISecret string
	FromEmail string
	FromName  string
	BaseURL   string
}

// Client is a minimal Mailjet v3.1 send client
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	preview    bool
}

// NewClient creates a new Mailjet client. Preview mode is enabled when
// either API credential is missing.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.FromEmail == "" {
		config.FromEmail = "noreply@kidsafe.app"
	}
	if config.FromName == "" {
		config.FromName = "KidSafe"
	}

	preview := config.APIKey == "" || config.APISecret == ""
	if preview {
		logger.Warn("Mailjet API keys not configured, email runs in preview mode",
			"component", "email",
		)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		preview: preview,
	}
}

// SendOTP delivers a verification code to an email address
func (c *Client) SendOTP(ctx context.Context, to, code string) error {
	subject := "Your KidSafe Verification Code"
	text := fmt.Sprintf("Your verification code is: %s. This code will expire in 10 minutes.", code)
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #4a6cf7;">KidSafe Verification</h2>
		<p>Your verification code is:</p>
		<div style="background-color: #f5f5f5; padding: 10px; font-size: 24px; text-align: center; letter-spacing: 5px; font-weight: bold;">%s</div>
		<p>This code will expire in 10 minutes.</p>
		<p>If you didn't request this code, please ignore this email.</p>
	</div>`, code)

	return c.send(ctx, to, subject, text, html)
}

// SendAlert delivers a parental alert about a child
func (c *Client) SendAlert(ctx context.Context, to, childName, message string) error {
	subject := fmt.Sprintf("KidSafe Alert: %s", childName)
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #4a6cf7;">KidSafe Alert</h2>
		<p>%s</p>
		<p>Please check your KidSafe dashboard for more details.</p>
	</div>`, message)

	return c.send(ctx, to, subject, message, html)
}

// Mailjet v3.1 send payload

type sendRequest struct {
	Messages []message `json:"Messages"`
}

type message struct {
	From     party   `json:"From"`
	To       []party `json:"To"`
	Subject  string  `json:"Subject"`
	TextPart string  `json:"TextPart"`
	HTMLPart string  `json:"HTMLPart"`
}

type party struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

func (c *Client) send(ctx context.Context, to, subject, textPart, htmlPart string) error {
	if c.preview {
		c.logger.Info("Email preview",
			"component", "email",
			"to", to,
			"subject", subject,
			"body", textPart,
		)
		return nil
	}

	payload := sendRequest{
		Messages: []message{
			{
				From:     party{Email: c.config.FromEmail, Name: c.config.FromName},
				To:       []party{{Email: to}},
				Subject:  subject,
				TextPart: textPart,
				HTMLPart: htmlPart,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v3.1/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.config.APIKey, c.config.APISecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Mailjet API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailjet API returned status %d", resp.StatusCode)
	}

	c.logger.Info("Email sent",
		"component", "email",
		"to", to,
		"subject", subject,
	)

	return nil
}
