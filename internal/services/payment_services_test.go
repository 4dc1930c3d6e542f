package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"StorefrontAPI/internal/events"
	"StorefrontAPI/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOne(t *testing.T, env *testEnv, user *model.Identity, price float64) int64 {
	t.Helper()
	p := env.db.addProduct("Item", price, 10)
	res, err := env.orders.Place(context.Background(), user, model.PlaceOrderInput{
		IdempotencyKey:  fmt.Sprintf("order-%d", p.ID),
		Items:           []model.LineItemInput{{ProductID: p.ID, Quantity: 1, UnitPrice: price}},
		Subtotal:        price,
		Total:           price,
		ShippingAddress: testAddress,
	})
	require.NoError(t, err)
	return res.OrderID
}

func notification(ref, status string) map[string]any {
	return map[string]any{
		"order_id":           ref,
		"status_code":        "200",
		"gross_amount":       "100.00",
		"signature_key":      "sig",
		"transaction_status": status,
	}
}

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.customer("p@shop.test")
	other := env.customer("o@shop.test")
	orderID := placeOne(t, env, user, 100)

	_, err := env.payments.CreatePayment(ctx, other, orderID)
	assert.Equal(t, KindForbidden, KindOf(err))

	url, err := env.payments.CreatePayment(ctx, user, orderID)
	require.NoError(t, err)
	require.Len(t, env.gateway.refs, 1)
	assert.Equal(t, "https://pay.example/"+env.gateway.refs[0], url)
	assert.Contains(t, env.gateway.refs[0], fmt.Sprintf("ORDER-%d-", orderID))

	_, err = env.payments.CreatePayment(ctx, user, orderID)
	assert.Equal(t, KindConflict, KindOf(err), "one pending payment per order")
}

func TestSettlementNotificationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.customer("s@shop.test")
	orderID := placeOne(t, env, user, 100)

	_, err := env.payments.CreatePayment(ctx, user, orderID)
	require.NoError(t, err)
	ref := env.gateway.refs[0]

	require.NoError(t, env.payments.HandleNotification(ctx, notification(ref, "settlement")))
	o := env.db.orders[orderID]
	assert.Equal(t, model.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, model.OrderProcessing, o.Status)

	require.NoError(t, env.payments.HandleNotification(ctx, notification(ref, "settlement")))
	require.NoError(t, env.payments.HandleNotification(ctx, notification(ref, "expire")))
	assert.Equal(t, model.PaymentPaid, env.db.orders[orderID].PaymentStatus, "a paid order stays paid")

	paid := 0
	for _, typ := range env.publisher.types() {
		if typ == events.TypeOrderPaid {
			paid++
		}
	}
	assert.Equal(t, 1, paid)
}

func TestFailedAndRejectedNotifications(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.customer("f@shop.test")
	orderID := placeOne(t, env, user, 50)
	ref := fmt.Sprintf("ORDER-%d-abc", orderID)

	require.NoError(t, env.payments.HandleNotification(ctx, notification(ref, "deny")))
	assert.Equal(t, model.PaymentFailed, env.db.orders[orderID].PaymentStatus)

	capture := notification(ref, "capture")
	capture["fraud_status"] = "challenge"
	require.NoError(t, env.payments.HandleNotification(ctx, capture))
	assert.Equal(t, model.PaymentFailed, env.db.orders[orderID].PaymentStatus)

	env.gateway.valid = false
	err := env.payments.HandleNotification(ctx, notification(ref, "settlement"))
	assert.Equal(t, KindForbidden, KindOf(err))

	env.gateway.valid = true
	err = env.payments.HandleNotification(ctx, notification("bogus", "settlement"))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestOpenPaymentBlocksCancel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.customer("c@shop.test")
	orderID := placeOne(t, env, user, 40)

	_, err := env.payments.CreatePayment(ctx, user, orderID)
	require.NoError(t, err)
	ref := env.gateway.refs[0]

	err = env.orders.Cancel(ctx, user, orderID)
	assert.Equal(t, KindBusiness, KindOf(err))
	assert.Equal(t, "Order has a payment in progress", Message(err))

	env.db.orders[orderID].CreatedAt = time.Now().Add(-72 * time.Hour)
	n, err := env.orders.CancelStale(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n, "the sweep leaves orders with an open payment alone")

	require.NoError(t, env.payments.HandleNotification(ctx, notification(ref, "settlement")))
	o := env.db.orders[orderID]
	assert.Equal(t, model.OrderProcessing, o.Status)
	assert.Equal(t, model.PaymentPaid, o.PaymentStatus)
}

func TestExpiredPaymentAllowsCancel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.customer("e@shop.test")
	orderID := placeOne(t, env, user, 40)

	_, err := env.payments.CreatePayment(ctx, user, orderID)
	require.NoError(t, err)
	require.NoError(t, env.payments.HandleNotification(ctx, notification(env.gateway.refs[0], "expire")))

	require.NoError(t, env.orders.Cancel(ctx, user, orderID))
	assert.Equal(t, model.OrderCancelled, env.db.orders[orderID].Status)
}

func TestSettlementOfCancelledOrderIsRefused(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.customer("r@shop.test")
	orderID := placeOne(t, env, user, 40)
	require.NoError(t, env.orders.Cancel(ctx, user, orderID))

	err := env.payments.HandleNotification(ctx, notification(fmt.Sprintf("ORDER-%d-late", orderID), "settlement"))
	assert.Equal(t, KindBusiness, KindOf(err))

	o := env.db.orders[orderID]
	assert.Equal(t, model.OrderCancelled, o.Status)
	assert.Equal(t, model.PaymentUnpaid, o.PaymentStatus)
	assert.NotContains(t, env.publisher.types(), events.TypeOrderPaid)
}
