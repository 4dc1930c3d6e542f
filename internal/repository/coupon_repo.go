package repository

import (
	"context"
	"strings"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

type CouponRepository struct {
	DB DB
}

func NewCouponRepository(db DB) *CouponRepository {
	return &CouponRepository{DB: db}
}

const couponColumns = `id, code, discount_type, discount_value, min_order_amount, is_active, expires_at, created_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	if err := row.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MinOrderAmount, &c.IsActive, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create stores the code upper-cased.
func (r *CouponRepository) Create(ctx context.Context, c *model.Coupon) (int64, error) {
	var id int64
	query := `
		INSERT INTO coupons (code, discount_type, discount_value, min_order_amount, is_active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if err := r.DB.QueryRow(ctx, query, strings.ToUpper(c.Code), c.DiscountType, c.DiscountValue, c.MinOrderAmount, c.IsActive, c.ExpiresAt, time.Now()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// GetByCode matches case-insensitively.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	c, err := scanCoupon(r.DB.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE upper(code) = upper($1)`, strings.TrimSpace(code)))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*model.Coupon, error) {
	c, err := scanCoupon(r.DB.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *CouponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CouponRepository) Update(ctx context.Context, c *model.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $1, discount_type = $2, discount_value = $3, min_order_amount = $4, is_active = $5, expires_at = $6
		WHERE id = $7
	`
	tag, err := r.DB.Exec(ctx, query, strings.ToUpper(c.Code), c.DiscountType, c.DiscountValue, c.MinOrderAmount, c.IsActive, c.ExpiresAt, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete detaches the coupon from any user holding it, then removes it.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE users SET applied_coupon_id = NULL WHERE applied_coupon_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeactivateExpired flips is_active off for coupons past their expiry.
func (r *CouponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `UPDATE coupons SET is_active = FALSE WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
