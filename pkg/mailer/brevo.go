package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"top10weather/pkg/logger"
)

// Sender identifies the from-address on outbound mail
type Sender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type recipient struct {
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      Sender      `json:"sender"`
	To          []recipient `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

// BrevoClient sends transactional email through the Brevo SMTP API
type BrevoClient struct {
	baseURL    string
	apiKey     string
	sender     Sender
	httpClient *http.Client
	logger     *logger.Logger
}

// NewBrevoClient creates a new Brevo client
func NewBrevoClient(baseURL, apiKey string, sender Sender, logger *logger.Logger) *BrevoClient {
	return &BrevoClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		sender:  sender,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Send delivers one HTML email to a single recipient
func (c *BrevoClient) Send(ctx context.Context, to, subject, htmlBody string) error {
	payload := sendRequest{
		Sender:      c.sender,
		To:          []recipient{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	url := fmt.Sprintf("%s/v3/smtp/email", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Brevo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Brevo returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.WithField("recipient", to).Debug("Email accepted by Brevo")
	return nil
}
