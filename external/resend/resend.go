package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

type ResendMailer struct {
	apiKey  string
	from    string
	client  *http.Client
	baseURL string
}

func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, errors.New("RESEND_API_KEY not set")
	}

	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: defaultBaseURL,
	}, nil
}

// WithBaseURL points the mailer at another endpoint.
func (m *ResendMailer) WithBaseURL(u string) *ResendMailer {
	m.baseURL = u
	return m
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *ResendMailer) send(ctx context.Context, to, subject, body string) error {
	b, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		return fmt.Errorf("send %q: %s: %s", subject, resp.Status, buf.String())
	}
	return nil
}

func (m *ResendMailer) SendVerificationEmail(ctx context.Context, toEmail, verifyURL string) error {
	return m.send(ctx, toEmail, "Verify your email", `
		<p>Welcome!</p>
		<p>Please verify your email by clicking the link below:</p>
		<p><a href="`+html.EscapeString(verifyURL)+`">Verify Email</a></p>
	`)
}

func (m *ResendMailer) SendOrderConfirmation(ctx context.Context, toEmail string, orderID int64, total float64) error {
	return m.send(ctx, toEmail, fmt.Sprintf("Order #%d confirmed", orderID), fmt.Sprintf(`
		<p>Thanks for your order!</p>
		<p>Order <strong>#%d</strong> has been received. Total: <strong>%.2f</strong>.</p>
		<p>We'll let you know when it ships.</p>
	`, orderID, total))
}

func (m *ResendMailer) SendGiftCard(ctx context.Context, toEmail, code string, amount float64) error {
	return m.send(ctx, toEmail, "You received a gift card", fmt.Sprintf(`
		<p>You have been sent a gift card worth <strong>%.2f</strong>.</p>
		<p>Code: <strong>%s</strong></p>
	`, amount, html.EscapeString(code)))
}

func (m *ResendMailer) SendNewsletterWelcome(ctx context.Context, toEmail, unsubscribeURL string) error {
	return m.send(ctx, toEmail, "You're subscribed", `
		<p>Thanks for subscribing to our newsletter.</p>
		<p><a href="`+html.EscapeString(unsubscribeURL)+`">Unsubscribe</a></p>
	`)
}
