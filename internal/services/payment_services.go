package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/events"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway is a hosted checkout provider.
type PaymentGateway interface {
	Provider() string
	CreateRedirect(ctx context.Context, ref string, grossAmount int64, email, name string) (redirectURL string, payload []byte, err error)
	VerifySignature(orderRef, statusCode, grossAmount, signature string) bool
}

type PaymentService struct {
	Orders    OrderReader
	Payments  PaymentStore
	Gateway   PaymentGateway
	Publisher events.Publisher
	Views     cache.Views
	Logger    *zap.Logger
}

func NewPaymentService(
	o OrderReader,
	p PaymentStore,
	gw PaymentGateway,
	pub events.Publisher,
	v cache.Views,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		Orders:    o,
		Payments:  p,
		Gateway:   gw,
		Publisher: pub,
		Views:     v,
		Logger:    logger,
	}
}

// CreatePayment opens a hosted payment for what the caller's Pending order
// still owes after gift card redemptions and returns the redirect URL.
func (s *PaymentService) CreatePayment(ctx context.Context, actor *model.Identity, orderID int64) (string, error) {
	if err := requireUser(actor); err != nil {
		return "", err
	}

	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return "", notFoundAs(err, "Order not found")
	}
	if order.UserID != actor.UserID {
		return "", Forbidden("not your order")
	}
	if order.Status != model.OrderPending || order.PaymentStatus == model.PaymentPaid {
		return "", Business("Order cannot be paid")
	}

	existing, err := s.Payments.LatestByOrderID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.Status == model.PaymentStatusPending {
		return "", Conflict("Payment already exists")
	}

	redeemed, err := s.Orders.RedeemedTotal(ctx, orderID)
	if err != nil {
		return "", err
	}
	due := money(order.Total).Sub(money(redeemed))
	if !due.IsPositive() {
		return "", Business("Order is already covered by gift cards")
	}

	ref := fmt.Sprintf("ORDER-%d-%s", orderID, uuid.NewString())
	gross := due.Round(0).IntPart()

	redirectURL, payload, err := s.Gateway.CreateRedirect(ctx, ref, gross, actor.Email, order.ShippingAddress.FullName)
	if err != nil {
		return "", fmt.Errorf("create %s transaction: %w", s.Gateway.Provider(), err)
	}

	if _, err := s.Payments.CreatePending(ctx, orderID, toFloat(due), s.Gateway.Provider(), ref, payload); err != nil {
		return "", err
	}

	s.Logger.Info("payment created",
		zap.Int64("order_id", orderID),
		zap.String("ref", ref),
		zap.Int64("gross_amount", gross),
	)
	return redirectURL, nil
}

// HandleNotification applies a gateway status callback. Replays of an
// already applied status are no-ops.
func (s *PaymentService) HandleNotification(ctx context.Context, payload map[string]any) error {
	ref, _ := payload["order_id"].(string)
	if ref == "" {
		return Validation("missing order_id")
	}

	statusCode, _ := payload["status_code"].(string)
	grossAmount, _ := payload["gross_amount"].(string)
	signature, _ := payload["signature_key"].(string)
	if !s.Gateway.VerifySignature(ref, statusCode, grossAmount, signature) {
		return Forbidden("invalid signature")
	}

	var orderID int64
	if _, err := fmt.Sscanf(ref, "ORDER-%d-", &orderID); err != nil {
		return Validation("invalid order reference")
	}

	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return notFoundAs(err, "Order not found")
	}
	if order.PaymentStatus == model.PaymentPaid {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	transactionStatus, _ := payload["transaction_status"].(string)
	fraudStatus, _ := payload["fraud_status"].(string)

	switch transactionStatus {
	case "settlement":
		return s.settle(ctx, order, ref, raw)
	case "capture":
		if fraudStatus == "accept" {
			return s.settle(ctx, order, ref, raw)
		}
	case "expire", "cancel", "deny":
		if order.PaymentStatus == model.PaymentFailed {
			return nil
		}
		if err := s.Payments.Fail(ctx, orderID, ref, raw); err != nil {
			return err
		}
		s.Views.Invalidate(ctx, cache.AccountOrdersPath(order.UserID))
		s.Logger.Info("payment failed", zap.Int64("order_id", orderID), zap.String("status", transactionStatus))
	}
	return nil
}

func (s *PaymentService) settle(ctx context.Context, order *model.Order, ref string, raw []byte) error {
	if err := s.Payments.Settle(ctx, order.ID, ref, raw); err != nil {
		if errors.Is(err, repository.ErrNotPayable) {
			s.Logger.Error("payment settled for cancelled order, refund required",
				zap.Int64("order_id", order.ID),
				zap.String("ref", ref),
			)
			return Business("Order is cancelled")
		}
		return err
	}
	s.Views.Invalidate(ctx, cache.AccountOrdersPath(order.UserID), cache.DashboardPath())

	ev := events.Event{
		EventID:   uuid.NewString(),
		Type:      events.TypeOrderPaid,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    string(model.OrderProcessing),
		Total:     order.Total,
		Timestamp: time.Now().UTC(),
	}
	if err := s.Publisher.Publish(ctx, ev); err != nil {
		s.Logger.Warn("publish order event failed", zap.String("type", ev.Type), zap.Int64("order_id", order.ID), zap.Error(err))
	}
	s.Logger.Info("payment settled", zap.Int64("order_id", order.ID), zap.String("ref", ref))
	return nil
}
