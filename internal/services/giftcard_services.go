package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/events"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GiftCardService struct {
	Cards     GiftCardStore
	Orders    OrderReader
	Mailer    EmailSender
	Publisher events.Publisher
	Views     cache.Views
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewGiftCardService(
	g GiftCardStore,
	o OrderReader,
	m EmailSender,
	pub events.Publisher,
	v cache.Views,
	logger *zap.Logger,
) *GiftCardService {
	return &GiftCardService{
		Cards:     g,
		Orders:    o,
		Mailer:    m,
		Publisher: pub,
		Views:     v,
		Logger:    logger,
		Now:       time.Now,
	}
}

type GiftCardInput struct {
	Amount         float64    `json:"amount"`
	RecipientEmail string     `json:"recipient_email"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// GiftCardStatus is the public view of a card looked up by code.
type GiftCardStatus struct {
	Code      string     `json:"code"`
	Balance   float64    `json:"balance"`
	IsActive  bool       `json:"is_active"`
	Expired   bool       `json:"expired"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RedeemResult is the card after a debit plus what the order still owes.
type RedeemResult struct {
	GiftCardStatus
	AmountDue float64 `json:"amount_due"`
	OrderPaid bool    `json:"order_paid"`
}

// NewGiftCardCode returns GC- followed by 12 upper-case hex characters.
func NewGiftCardCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "GC-" + strings.ToUpper(hex[:12])
}

func (s *GiftCardService) Create(ctx context.Context, actor *model.Identity, in GiftCardInput) (*model.GiftCard, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, Validation("amount must be greater than zero")
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.Now()) {
		return nil, Validation("expires_at must be in the future")
	}
	in.RecipientEmail = normalizeEmail(in.RecipientEmail)
	if in.RecipientEmail != "" && !emailRegex.MatchString(in.RecipientEmail) {
		return nil, Validation("invalid recipient email")
	}

	amount := toFloat(money(in.Amount))
	g := &model.GiftCard{
		Code:           NewGiftCardCode(),
		InitialBalance: amount,
		Balance:        amount,
		IsActive:       true,
		ExpiresAt:      in.ExpiresAt,
		RecipientEmail: in.RecipientEmail,
		CreatedBy:      actor.UserID,
	}
	id, err := s.Cards.Create(ctx, g)
	if err != nil {
		return nil, err
	}
	g.ID = id

	if g.RecipientEmail != "" {
		if err := s.Mailer.SendGiftCard(ctx, g.RecipientEmail, g.Code, g.Balance); err != nil {
			s.Logger.Warn("gift card mail failed", zap.Int64("gift_card_id", id), zap.Error(err))
		}
	}
	return g, nil
}

func (s *GiftCardService) List(ctx context.Context, actor *model.Identity) ([]model.GiftCard, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.Cards.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.GiftCard{}
	}
	return out, nil
}

func (s *GiftCardService) Deactivate(ctx context.Context, actor *model.Identity, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return notFoundAs(s.Cards.Deactivate(ctx, id), "Gift card not found")
}

func (s *GiftCardService) Transactions(ctx context.Context, actor *model.Identity, id int64) ([]model.GiftCardTransaction, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.Cards.Transactions(ctx, id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.GiftCardTransaction{}
	}
	return out, nil
}

func (s *GiftCardService) Check(ctx context.Context, code string) (*GiftCardStatus, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, Validation("code is required")
	}
	g, err := s.Cards.GetByCode(ctx, code)
	if err != nil {
		return nil, notFoundAs(err, "Gift card not found")
	}
	return &GiftCardStatus{
		Code:      g.Code,
		Balance:   g.Balance,
		IsActive:  g.IsActive,
		Expired:   g.ExpiresAt != nil && !g.ExpiresAt.After(s.Now()),
		ExpiresAt: g.ExpiresAt,
	}, nil
}

// Redeem debits the card against one of the caller's Pending, unpaid
// orders. The debit is capped at what the order still owes; covering it in
// full pays the order.
func (s *GiftCardService) Redeem(ctx context.Context, actor *model.Identity, code string, amount float64, orderID int64) (*RedeemResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, Validation("code is required")
	}
	if amount <= 0 {
		return nil, Validation("amount must be greater than zero")
	}

	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundAs(err, "Order not found")
	}
	if o.UserID != actor.UserID {
		return nil, Forbidden("not your order")
	}
	if o.Status != model.OrderPending || o.PaymentStatus == model.PaymentPaid {
		return nil, Business("Gift cards can only be applied to unpaid pending orders")
	}

	now := s.Now()
	red, err := s.Cards.Redeem(ctx, code, toFloat(money(amount)), orderID, now)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, NotFound("Gift card not found")
	case errors.Is(err, repository.ErrGiftCardUnusable):
		return nil, Business("Gift card is inactive or expired")
	case errors.Is(err, repository.ErrGiftCardInsufficient):
		return nil, Business("Insufficient gift card balance")
	case errors.Is(err, repository.ErrNotRedeemable):
		return nil, Business("Gift cards can only be applied to unpaid pending orders")
	case errors.Is(err, repository.ErrPaymentInProgress):
		return nil, Business("Order has a payment in progress")
	case errors.Is(err, repository.ErrExceedsAmountDue):
		return nil, Business("Amount exceeds what the order still owes")
	default:
		return nil, err
	}

	g := red.Card
	s.Views.Invalidate(ctx, cache.AccountOrdersPath(o.UserID), cache.DashboardPath())
	if red.OrderPaid {
		ev := events.Event{
			EventID:   uuid.NewString(),
			Type:      events.TypeOrderPaid,
			OrderID:   orderID,
			UserID:    o.UserID,
			Status:    string(model.OrderProcessing),
			Total:     o.Total,
			Timestamp: now.UTC(),
		}
		if err := s.Publisher.Publish(ctx, ev); err != nil {
			s.Logger.Warn("publish order event failed", zap.String("type", ev.Type), zap.Int64("order_id", orderID), zap.Error(err))
		}
	}

	s.Logger.Info("gift card redeemed",
		zap.Int64("gift_card_id", g.ID),
		zap.Int64("order_id", orderID),
		zap.Float64("amount", amount),
		zap.Float64("amount_due", red.AmountDue),
	)
	return &RedeemResult{
		GiftCardStatus: GiftCardStatus{
			Code:      g.Code,
			Balance:   g.Balance,
			IsActive:  g.IsActive,
			Expired:   g.ExpiresAt != nil && !g.ExpiresAt.After(now),
			ExpiresAt: g.ExpiresAt,
		},
		AmountDue: red.AmountDue,
		OrderPaid: red.OrderPaid,
	}, nil
}
