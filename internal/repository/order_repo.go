package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrDuplicateOrder means another order already holds the idempotency key.
	ErrDuplicateOrder    = errors.New("duplicate idempotency key")
	// ErrNotCancellable means the order left Pending before the cancel ran.
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
	// ErrPaymentInProgress means a gateway payment for the order is still open.
	ErrPaymentInProgress = errors.New("order has a pending payment")
	// ErrNotPayable means the order was cancelled before the payment settled.
	ErrNotPayable        = errors.New("order is not payable")
)

// MissingProductError aborts placement when a line references no product.
type MissingProductError struct {
	ProductID int64
}

func (e *MissingProductError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// StockError aborts placement when a product cannot cover its lines.
type StockError struct {
	ProductID int64
	Title     string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested", e.Title, e.Available, e.Requested)
}

type OrderRepository struct {
	DB DB
}

func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

const orderColumns = `id, user_id, status, subtotal, tax, shipping_cost, discount, total, shipping_address, billing_address,
	shipping_method, payment_method, coupon_id, payment_status, tracking_number, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	var ship, bill []byte
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.Tax, &o.ShippingCost, &o.Discount, &o.Total, &ship, &bill,
		&o.ShippingMethod, &o.PaymentMethod, &o.CouponID, &o.PaymentStatus, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(ship, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := decodeJSON(bill, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	return &o, nil
}

// FindByIdempotencyKey returns the id of the user's order created with key.
func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE user_id = $1 AND idempotency_key = $2`, userID, key).Scan(&id)
	if err != nil {
		return 0, notFound(err)
	}
	return id, nil
}

// Place records the order, decrements stock, empties the cart and detaches
// the applied coupon in one transaction. Product rows are locked in id order
// so concurrent checkouts of the same product serialize; the loser sees the
// decremented stock and fails with *StockError.
func (r *OrderRepository) Place(ctx context.Context, userID int64, in model.PlaceOrderInput) (int64, error) {
	wanted := make(map[int64]int, len(in.Items))
	for _, it := range in.Items {
		wanted[it.ProductID] += it.Quantity
	}
	ids := make([]int64, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ship, err := encodeJSON(in.ShippingAddress)
	if err != nil {
		return 0, err
	}
	bill, err := encodeJSON(in.BillingAddress)
	if err != nil {
		return 0, err
	}

	var orderID int64
	err = withTx(ctx, r.DB, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id, title, stock FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
		if err != nil {
			return err
		}
		type stockRow struct {
			title string
			stock int
		}
		found := make(map[int64]stockRow, len(ids))
		for rows.Next() {
			var id int64
			var s stockRow
			if err := rows.Scan(&id, &s.title, &s.stock); err != nil {
				rows.Close()
				return err
			}
			found[id] = s
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			s, ok := found[id]
			if !ok {
				return &MissingProductError{ProductID: id}
			}
			if s.stock < wanted[id] {
				return &StockError{ProductID: id, Title: s.title, Available: s.stock, Requested: wanted[id]}
			}
		}

		now := time.Now()
		query := `
			INSERT INTO orders (user_id, status, subtotal, tax, shipping_cost, discount, total, shipping_address, billing_address,
			                    shipping_method, payment_method, coupon_id, payment_status, idempotency_key, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
			RETURNING id
		`
		err = tx.QueryRow(ctx, query, userID, model.OrderPending, in.Subtotal, in.Tax, in.ShippingCost, in.Discount, in.Total,
			ship, bill, in.ShippingMethod, in.PaymentMethod, in.CouponID, model.PaymentUnpaid, in.IdempotencyKey, now).Scan(&orderID)
		if err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicateOrder
			}
			return err
		}

		for _, it := range in.Items {
			opts, err := encodeJSON(it.Options)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO order_items (order_id, product_id, title, quantity, unit_price, options)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, orderID, it.ProductID, found[it.ProductID].title, it.Quantity, it.UnitPrice, opts)
			if err != nil {
				return err
			}
		}

		for _, id := range ids {
			if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3`, wanted[id], now, id); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return err
		}
		if in.CouponID != nil {
			if _, err := tx.Exec(ctx, `UPDATE users SET applied_coupon_id = NULL WHERE id = $1 AND applied_coupon_id = $2`, userID, *in.CouponID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func (r *OrderRepository) items(ctx context.Context, q querier, orderID int64) ([]model.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, COALESCE(product_id, 0), title, quantity, unit_price, options
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		var opts []byte
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.Quantity, &it.UnitPrice, &opts); err != nil {
			return nil, err
		}
		if err := decodeJSON(opts, &it.Options); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetByID returns the order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	if o.Items, err = r.items(ctx, r.DB, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// ListByUser returns the user's order history, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

// List is the admin listing, optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, f model.OrderListFilter) ([]model.Order, error) {
	if f.Status != "" {
		return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
			f.Status, f.Limit, f.Offset)
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, f.Limit, f.Offset)
}

// UpdateStatus sets any status; transitions are not constrained here.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus, tracking *string) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE orders SET status = $1, tracking_number = COALESCE($2, tracking_number), updated_at = $3
		WHERE id = $4
	`, status, tracking, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// cancelTx flips a Pending order to Cancelled and puts its units back.
func (r *OrderRepository) cancelTx(ctx context.Context, tx pgx.Tx, orderID int64) error {
	var status model.OrderStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status); err != nil {
		return notFound(err)
	}
	if status != model.OrderPending {
		return ErrNotCancellable
	}
	var open bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1 AND status = $2)`,
		orderID, model.PaymentStatusPending,
	).Scan(&open); err != nil {
		return err
	}
	if open {
		return ErrPaymentInProgress
	}
	_, err := tx.Exec(ctx, `
		UPDATE products p SET stock = p.stock + oi.qty, updated_at = $2
		FROM (SELECT product_id, SUM(quantity) AS qty FROM order_items WHERE order_id = $1 AND product_id IS NOT NULL GROUP BY product_id) oi
		WHERE p.id = oi.product_id
	`, orderID, time.Now())
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`, model.OrderCancelled, time.Now(), orderID)
	return err
}

// Cancel cancels a Pending order and restores its stock.
func (r *OrderRepository) Cancel(ctx context.Context, orderID int64) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		return r.cancelTx(ctx, tx, orderID)
	})
}

// StalePending lists Pending orders created before cutoff that were never
// paid and have no open payment.
func (r *OrderRepository) StalePending(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id FROM orders o
		WHERE o.status = $1 AND o.payment_status <> $2 AND o.created_at < $3
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.order_id = o.id AND p.status = $4)
		ORDER BY o.id
	`, model.OrderPending, model.PaymentPaid, cutoff, model.PaymentStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkPaidTx records a settled payment on the order inside the caller's tx.
// A cancelled order is refused with ErrNotPayable.
func (r *OrderRepository) MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID int64) error {
	var status model.OrderStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status); err != nil {
		return notFound(err)
	}
	if status == model.OrderCancelled {
		return ErrNotPayable
	}
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $1,
		    status = CASE WHEN status = $2 THEN $3 ELSE status END,
		    updated_at = $4
		WHERE id = $5
	`, model.PaymentPaid, model.OrderPending, model.OrderProcessing, time.Now(), orderID)
	return err
}

func (r *OrderRepository) MarkPaymentFailedTx(ctx context.Context, tx pgx.Tx, orderID int64) error {
	_, err := tx.Exec(ctx, `UPDATE orders SET payment_status = $1, updated_at = $2 WHERE id = $3 AND payment_status <> $4`,
		model.PaymentFailed, time.Now(), orderID, model.PaymentPaid)
	return err
}

// RedeemedTotal sums the gift card debits recorded against the order.
func (r *OrderRepository) RedeemedTotal(ctx context.Context, orderID int64) (float64, error) {
	var total float64
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM gift_card_transactions WHERE order_id = $1`, orderID,
	).Scan(&total)
	return total, err
}

// HasDeliveredPurchase reports whether the user received the product in a
// Delivered order.
func (r *OrderRepository) HasDeliveredPurchase(ctx context.Context, userID, productID int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders o JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status = $3
		)
	`, userID, productID, model.OrderDelivered).Scan(&ok)
	return ok, err
}
