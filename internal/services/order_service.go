package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/events"
	"StorefrontAPI/internal/metrics"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxIdempotencyKeyLen = 100
	DefaultOrderPageSize = 50
)

type OrderService struct {
	Orders    OrderStore
	Cart      CartStore
	Coupons   CouponStore
	Users     CouponHolder
	Shipping  ShippingStore
	Publisher events.Publisher
	Mailer    EmailSender
	Views     cache.Views
	Logger    *zap.Logger

	TaxRate float64
	Now     func() time.Time
}

func NewOrderService(
	o OrderStore,
	c CartStore,
	cp CouponStore,
	u CouponHolder,
	sh ShippingStore,
	pub events.Publisher,
	m EmailSender,
	v cache.Views,
	taxRate float64,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		Orders:    o,
		Cart:      c,
		Coupons:   cp,
		Users:     u,
		Shipping:  sh,
		Publisher: pub,
		Mailer:    m,
		Views:     v,
		Logger:    logger,
		TaxRate:   taxRate,
		Now:       time.Now,
	}
}

// Quote prices the user's current cart with the applied coupon and the
// selected shipping rate.
func (s *OrderService) Quote(ctx context.Context, actor *model.Identity, shippingRateID *int64) (model.Quote, error) {
	if err := requireUser(actor); err != nil {
		return model.Quote{}, err
	}
	variant := "rate=none"
	if shippingRateID != nil {
		variant = "rate=" + strconv.FormatInt(*shippingRateID, 10)
	}
	return cache.Load(ctx, s.Views, cache.CheckoutPath(actor.UserID), variant, func(ctx context.Context) (model.Quote, error) {
		lines, err := s.Cart.GetLines(ctx, actor.UserID)
		if err != nil {
			return model.Quote{}, err
		}

		var coupon *model.Coupon
		u, err := s.Users.GetByID(ctx, actor.UserID)
		if err != nil {
			return model.Quote{}, notFoundAs(err, "user not found")
		}
		if u.AppliedCouponID != nil {
			coupon, err = s.Coupons.GetByID(ctx, *u.AppliedCouponID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return model.Quote{}, err
			}
		}

		var rate *model.ShippingRate
		if shippingRateID != nil {
			rate, err = s.Shipping.GetRate(ctx, *shippingRateID)
			if err != nil {
				return model.Quote{}, notFoundAs(err, "Shipping rate not found")
			}
		}
		return ComputeQuote(lines, coupon, rate, s.TaxRate, s.Now()), nil
	})
}

func validatePlaceOrder(in *model.PlaceOrderInput) error {
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if in.IdempotencyKey == "" {
		return Validation("idempotency_key is required")
	}
	if len(in.IdempotencyKey) > MaxIdempotencyKeyLen {
		return Validationf("idempotency_key must be at most %d characters", MaxIdempotencyKeyLen)
	}
	if len(in.Items) == 0 {
		return Validation("order must contain at least one item")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return Validation("invalid product id")
		}
		if it.Quantity <= 0 {
			return Validation("quantity must be greater than zero")
		}
		if it.UnitPrice < 0 {
			return Validation("amounts must not be negative")
		}
	}
	if strings.TrimSpace(in.ShippingAddress.Line1) == "" || strings.TrimSpace(in.ShippingAddress.Country) == "" {
		return Validation("shipping address is incomplete")
	}
	return checkTotals(*in)
}

// Place records the checkout. A key the user already used returns the
// existing order with Replayed set and nothing else happens.
func (s *OrderService) Place(ctx context.Context, actor *model.Identity, in model.PlaceOrderInput) (*model.PlaceOrderResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validatePlaceOrder(&in); err != nil {
		return nil, err
	}

	if id, err := s.Orders.FindByIdempotencyKey(ctx, actor.UserID, in.IdempotencyKey); err == nil {
		return &model.PlaceOrderResult{OrderID: id, Replayed: true}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if in.CouponID != nil {
		u, err := s.Users.GetByID(ctx, actor.UserID)
		if err != nil {
			return nil, notFoundAs(err, "user not found")
		}
		if u.AppliedCouponID == nil || *u.AppliedCouponID != *in.CouponID {
			return nil, Business("Coupon is not applied to this cart")
		}
	}

	orderID, err := s.Orders.Place(ctx, actor.UserID, in)
	if err != nil {
		return s.placeFailed(ctx, actor, in, err)
	}

	paths := []string{
		cache.AccountOrdersPath(actor.UserID),
		cache.CartPath(actor.UserID),
		cache.CheckoutPath(actor.UserID),
		cache.ProductsPath(),
		cache.DashboardPath(),
	}
	items := make([]events.Item, 0, len(in.Items))
	for _, it := range in.Items {
		paths = append(paths, cache.ProductPath(it.ProductID))
		items = append(items, events.Item{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	s.Views.Invalidate(ctx, paths...)
	metrics.OrderPlaced()

	s.publish(ctx, events.Event{
		Type:    events.TypeOrderPlaced,
		OrderID: orderID,
		UserID:  actor.UserID,
		Status:  string(model.OrderPending),
		Total:   in.Total,
		Items:   items,
	})

	if actor.Email != "" {
		if err := s.Mailer.SendOrderConfirmation(ctx, actor.Email, orderID, in.Total); err != nil {
			s.Logger.Warn("order confirmation mail failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}

	s.Logger.Info("order placed",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", actor.UserID),
		zap.Float64("total", in.Total),
	)
	return &model.PlaceOrderResult{OrderID: orderID}, nil
}

func (s *OrderService) placeFailed(ctx context.Context, actor *model.Identity, in model.PlaceOrderInput, err error) (*model.PlaceOrderResult, error) {
	var missing *repository.MissingProductError
	var stock *repository.StockError
	switch {
	case errors.Is(err, repository.ErrDuplicateOrder):
		id, lookupErr := s.Orders.FindByIdempotencyKey(ctx, actor.UserID, in.IdempotencyKey)
		if lookupErr != nil {
			return nil, fmt.Errorf("resolve duplicate order: %w", lookupErr)
		}
		return &model.PlaceOrderResult{OrderID: id, Replayed: true}, nil
	case errors.As(err, &missing):
		metrics.OrderFailed("missing_product")
		return nil, Businessf("Product %d not found", missing.ProductID)
	case errors.As(err, &stock):
		metrics.OrderFailed("insufficient_stock")
		return nil, Businessf("Insufficient stock for %s", stock.Title)
	}
	metrics.OrderFailed("internal")
	return nil, fmt.Errorf("place order: %w", err)
}

func (s *OrderService) publish(ctx context.Context, ev events.Event) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.Now().UTC()
	}
	if err := s.Publisher.Publish(ctx, ev); err != nil {
		s.Logger.Warn("publish order event failed",
			zap.String("type", ev.Type),
			zap.Int64("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}

func (s *OrderService) ListMine(ctx context.Context, actor *model.Identity) ([]model.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return cache.Load(ctx, s.Views, cache.AccountOrdersPath(actor.UserID), "", func(ctx context.Context) ([]model.Order, error) {
		orders, err := s.Orders.ListByUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if orders == nil {
			orders = []model.Order{}
		}
		return orders, nil
	})
}

// Get returns the order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, actor *model.Identity, id int64) (*model.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	o, err := s.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Order not found")
	}
	if err := requireOwner(actor, o.UserID, "not your order"); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel lets the owner cancel a Pending order; its stock goes back. An
// order with an open gateway payment cannot be cancelled until the gateway
// reports back.
func (s *OrderService) Cancel(ctx context.Context, actor *model.Identity, id int64) error {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if o.Status != model.OrderPending {
		return Business("Only pending orders can be cancelled")
	}
	if err := s.Orders.Cancel(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotCancellable):
			return Business("Only pending orders can be cancelled")
		case errors.Is(err, repository.ErrPaymentInProgress):
			return Business("Order has a payment in progress")
		}
		return err
	}
	s.cancelled(ctx, o)
	return nil
}

func (s *OrderService) cancelled(ctx context.Context, o *model.Order) {
	paths := []string{
		cache.AccountOrdersPath(o.UserID),
		cache.ProductsPath(),
		cache.DashboardPath(),
	}
	for _, it := range o.Items {
		if it.ProductID != 0 {
			paths = append(paths, cache.ProductPath(it.ProductID))
		}
	}
	s.Views.Invalidate(ctx, paths...)
	s.publish(ctx, events.Event{
		Type:    events.TypeOrderCancelled,
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  string(model.OrderCancelled),
		Total:   o.Total,
	})
}

func (s *OrderService) List(ctx context.Context, actor *model.Identity, f model.OrderListFilter) ([]model.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, Validationf("unknown order status %q", f.Status)
	}
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = DefaultOrderPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	orders, err := s.Orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// UpdateStatus moves an order to any status. Stock is not touched.
func (s *OrderService) UpdateStatus(ctx context.Context, actor *model.Identity, id int64, status model.OrderStatus, tracking *string) (*model.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, Validationf("unknown order status %q", status)
	}
	if tracking != nil {
		t := strings.TrimSpace(*tracking)
		tracking = &t
	}
	if err := s.Orders.UpdateStatus(ctx, id, status, tracking); err != nil {
		return nil, notFoundAs(err, "Order not found")
	}
	o, err := s.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Order not found")
	}

	s.Views.Invalidate(ctx, cache.AccountOrdersPath(o.UserID), cache.DashboardPath())
	s.publish(ctx, events.Event{
		Type:    events.TypeOrderStatusChanged,
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  string(o.Status),
		Total:   o.Total,
	})
	return o, nil
}

// CancelStale cancels unpaid Pending orders older than olderThan that have
// no open payment and returns how many were cancelled.
func (s *OrderService) CancelStale(ctx context.Context, olderThan time.Duration) (int, error) {
	ids, err := s.Orders.StalePending(ctx, s.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		o, err := s.Orders.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return n, err
		}
		if err := s.Orders.Cancel(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotCancellable) ||
				errors.Is(err, repository.ErrPaymentInProgress) ||
				errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return n, err
		}
		s.cancelled(ctx, o)
		n++
	}
	return n, nil
}
