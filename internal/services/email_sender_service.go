package services

import "context"

// EmailSender delivers transactional mail. Sending is best effort: callers
// log failures and carry on.
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, toEmail, verifyURL string) error
	SendOrderConfirmation(ctx context.Context, toEmail string, orderID int64, total float64) error
	SendGiftCard(ctx context.Context, toEmail, code string, amount float64) error
	SendNewsletterWelcome(ctx context.Context, toEmail, unsubscribeURL string) error
}

// NopSender drops every message. Used when no mail provider is configured.
type NopSender struct{}

func (NopSender) SendVerificationEmail(context.Context, string, string) error         { return nil }
func (NopSender) SendOrderConfirmation(context.Context, string, int64, float64) error { return nil }
func (NopSender) SendGiftCard(context.Context, string, string, float64) error         { return nil }
func (NopSender) SendNewsletterWelcome(context.Context, string, string) error         { return nil }
