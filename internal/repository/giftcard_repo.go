package repository

import (
	"context"
	"errors"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	ErrGiftCardUnusable     = errors.New("gift card is inactive or expired")
	ErrGiftCardInsufficient = errors.New("gift card balance is insufficient")
	// ErrNotRedeemable means the order is no longer Pending or is already paid.
	ErrNotRedeemable        = errors.New("order cannot take a gift card")
	// ErrExceedsAmountDue means the debit is larger than what the order still owes.
	ErrExceedsAmountDue     = errors.New("redemption exceeds amount due")
)

type GiftCardRepository struct {
	DB DB
}

func NewGiftCardRepository(db DB) *GiftCardRepository {
	return &GiftCardRepository{DB: db}
}

const giftCardColumns = `id, code, initial_balance, balance, is_active, expires_at, COALESCE(recipient_email, ''), created_by, created_at`

func scanGiftCard(row pgx.Row) (*model.GiftCard, error) {
	var g model.GiftCard
	err := row.Scan(&g.ID, &g.Code, &g.InitialBalance, &g.Balance, &g.IsActive, &g.ExpiresAt, &g.RecipientEmail, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *GiftCardRepository) Create(ctx context.Context, g *model.GiftCard) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO gift_cards (code, initial_balance, balance, is_active, expires_at, recipient_email, created_by, created_at)
		VALUES ($1, $2, $2, TRUE, $3, NULLIF($4, ''), $5, $6)
		RETURNING id
	`, g.Code, g.InitialBalance, g.ExpiresAt, g.RecipientEmail, g.CreatedBy, time.Now()).Scan(&id)
	return id, err
}

func (r *GiftCardRepository) GetByCode(ctx context.Context, code string) (*model.GiftCard, error) {
	return scanGiftCard(r.DB.QueryRow(ctx, `SELECT `+giftCardColumns+` FROM gift_cards WHERE code = upper($1)`, code))
}

func (r *GiftCardRepository) List(ctx context.Context) ([]model.GiftCard, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+giftCardColumns+` FROM gift_cards ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.GiftCard{}
	for rows.Next() {
		g, err := scanGiftCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *GiftCardRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `UPDATE gift_cards SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Redemption is the outcome of a gift card debit against an order.
type Redemption struct {
	Card      *model.GiftCard
	AmountDue float64
	OrderPaid bool
}

// Redeem debits amount from the card against a Pending, unpaid order. The
// order row is locked before the card so redemptions, cancellations and
// settlements on the same order serialize. When the redemptions cover the
// whole total the order is marked paid in the same transaction.
func (r *GiftCardRepository) Redeem(ctx context.Context, code string, amount float64, orderID int64, now time.Time) (*Redemption, error) {
	var out *Redemption
	err := withTx(ctx, r.DB, func(tx pgx.Tx) error {
		var (
			status        model.OrderStatus
			paymentStatus string
			total         float64
		)
		err := tx.QueryRow(ctx,
			`SELECT status, payment_status, total FROM orders WHERE id = $1 FOR UPDATE`, orderID,
		).Scan(&status, &paymentStatus, &total)
		if err != nil {
			return notFound(err)
		}
		if status != model.OrderPending || paymentStatus == model.PaymentPaid {
			return ErrNotRedeemable
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

		g, err := scanGiftCard(tx.QueryRow(ctx, `SELECT `+giftCardColumns+` FROM gift_cards WHERE code = upper($1) FOR UPDATE`, code))
		if err != nil {
			return err
		}
		if !g.Usable(now) {
			return ErrGiftCardUnusable
		}
		if g.Balance < amount {
			return ErrGiftCardInsufficient
		}

		var redeemed float64
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM gift_card_transactions WHERE order_id = $1`, orderID,
		).Scan(&redeemed); err != nil {
			return err
		}
		due := decimal.NewFromFloat(total).Sub(decimal.NewFromFloat(redeemed)).Round(2)
		debit := decimal.NewFromFloat(amount).Round(2)
		if debit.GreaterThan(due) {
			return ErrExceedsAmountDue
		}

		if _, err := tx.Exec(ctx, `UPDATE gift_cards SET balance = balance - $1 WHERE id = $2`, amount, g.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO gift_card_transactions (gift_card_id, order_id, amount, created_at) VALUES ($1, $2, $3, $4)
		`, g.ID, orderID, amount, now); err != nil {
			return err
		}

		left := due.Sub(debit)
		paid := !left.IsPositive()
		if paid {
			if _, err := tx.Exec(ctx, `
				UPDATE orders SET payment_status = $1, status = $2, updated_at = $3 WHERE id = $4
			`, model.PaymentPaid, model.OrderProcessing, now, orderID); err != nil {
				return err
			}
		}

		g.Balance -= amount
		amountDue, _ := left.Float64()
		out = &Redemption{Card: g, AmountDue: amountDue, OrderPaid: paid}
		return nil
	})
	return out, err
}

func (r *GiftCardRepository) Transactions(ctx context.Context, giftCardID int64) ([]model.GiftCardTransaction, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, gift_card_id, order_id, amount, created_at FROM gift_card_transactions
		WHERE gift_card_id = $1 ORDER BY created_at DESC, id DESC
	`, giftCardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.GiftCardTransaction{}
	for rows.Next() {
		var t model.GiftCardTransaction
		if err := rows.Scan(&t.ID, &t.GiftCardID, &t.OrderID, &t.Amount, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
