package repository

import (
	"context"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

type PaymentRepository struct {
	DB     DB
	Orders *OrderRepository
}

func NewPaymentRepository(db DB, orders *OrderRepository) *PaymentRepository {
	return &PaymentRepository{DB: db, Orders: orders}
}

func (r *PaymentRepository) CreatePending(
	ctx context.Context,
	orderID int64,
	amount float64,
	provider string,
	providerRef string,
	payload []byte,
) (int64, error) {

	var paymentID int64
	q := `
		INSERT INTO payments
			(order_id, amount, status, provider, provider_ref, provider_payload, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRow(
		ctx, q,
		orderID, amount, model.PaymentStatusPending, provider, providerRef, payload, time.Now(),
	).Scan(&paymentID)

	return paymentID, err
}

// LatestByOrderID returns the most recent payment attempt for the order, or
// nil when there is none.
func (r *PaymentRepository) LatestByOrderID(
	ctx context.Context,
	orderID int64,
) (*model.Payment, error) {

	var p model.Payment

	q := `
		SELECT id, order_id, amount, status, provider, provider_ref, provider_payload, created_at, paid_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	err := r.DB.QueryRow(ctx, q, orderID).Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&p.Status,
		&p.Provider,
		&p.ProviderRef,
		&p.ProviderPayload,
		&p.CreatedAt,
		&p.PaidAt,
	)
	if err != nil {
		if err = notFound(err); err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

func (r *PaymentRepository) MarkPaidTx(
	ctx context.Context,
	tx pgx.Tx,
	providerRef string,
	payload []byte,
) error {

	_, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $2,
		    provider_payload = $3,
		    paid_at = $4
		WHERE provider_ref = $1 AND status = $5
	`, providerRef, model.PaymentStatusPaid, payload, time.Now(), model.PaymentStatusPending)

	return err
}

func (r *PaymentRepository) MarkFailedTx(
	ctx context.Context,
	tx pgx.Tx,
	providerRef string,
	payload []byte,
) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $2,
		    provider_payload = $3
		WHERE provider_ref = $1
		  AND status = $4
	`, providerRef, model.PaymentStatusFailed, payload, model.PaymentStatusPending)
	return err
}

// Settle marks the payment paid and the order paid/processing together.
// The order row is locked first, the same order Cancel takes its locks in.
func (r *PaymentRepository) Settle(ctx context.Context, orderID int64, providerRef string, payload []byte) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := r.Orders.MarkPaidTx(ctx, tx, orderID); err != nil {
			return err
		}
		return r.MarkPaidTx(ctx, tx, providerRef, payload)
	})
}

// Fail marks the payment and the order's payment status failed together.
func (r *PaymentRepository) Fail(ctx context.Context, orderID int64, providerRef string, payload []byte) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := r.MarkFailedTx(ctx, tx, providerRef, payload); err != nil {
			return err
		}
		return r.Orders.MarkPaymentFailedTx(ctx, tx, orderID)
	})
}
