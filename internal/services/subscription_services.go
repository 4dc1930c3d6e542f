package services

import (
	"context"
	"net/url"
	"strings"

	"StorefrontAPI/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubscriptionService struct {
	Subscriptions SubscriptionStore
	Mailer        EmailSender
	Logger        *zap.Logger

	// BaseURL prefixes the unsubscribe link.
	BaseURL string
}

func NewSubscriptionService(s SubscriptionStore, m EmailSender, baseURL string, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		Subscriptions: s,
		Mailer:        m,
		Logger:        logger,
		BaseURL:       strings.TrimRight(baseURL, "/"),
	}
}

// Subscribe signs the email up for the newsletter. Repeating it for an
// email re-activates the existing subscription. actor may be nil.
func (s *SubscriptionService) Subscribe(ctx context.Context, actor *model.Identity, email string) (*model.Subscription, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, Validation("email is required")
	}
	if !emailRegex.MatchString(email) {
		return nil, Validation("invalid email format")
	}

	var userID *int64
	if actor != nil {
		id := actor.UserID
		userID = &id
	}
	sub, err := s.Subscriptions.Subscribe(ctx, email, userID, uuid.NewString())
	if err != nil {
		return nil, err
	}

	link := s.BaseURL + "/newsletter/unsubscribe?token=" + url.QueryEscape(sub.Token)
	if err := s.Mailer.SendNewsletterWelcome(ctx, email, link); err != nil {
		s.Logger.Warn("newsletter welcome mail failed", zap.String("email", email), zap.Error(err))
	}
	return sub, nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return Validation("token is required")
	}
	return notFoundAs(s.Subscriptions.Unsubscribe(ctx, token), "Subscription not found")
}

func (s *SubscriptionService) List(ctx context.Context, actor *model.Identity, status string) ([]model.Subscription, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	switch status {
	case "", model.SubscriptionActive, model.SubscriptionUnsubscribed:
	default:
		return nil, Validationf("unknown subscription status %q", status)
	}
	out, err := s.Subscriptions.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Subscription{}
	}
	return out, nil
}
