package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	DB DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, password_hash, name, role, email_verified, applied_coupon_id, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.EmailVerified, &u.AppliedCouponID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts a new user and returns its id.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash, name, role string) (int64, error) {
	var id int64
	query := `INSERT INTO users (email, password_hash, name, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`
	if err := r.DB.QueryRow(ctx, query, strings.ToLower(email), passwordHash, name, role, time.Now()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.DB.QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRow(ctx, query, id))
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	if err := r.DB.QueryRow(ctx, query, strings.ToLower(email)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) UpdateName(ctx context.Context, id int64, name string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET name = $1, updated_at = $2 WHERE id = $3`, name, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`, role, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetEmailVerified(ctx context.Context, id int64) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET email_verified = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now())
	return err
}

// SetAppliedCoupon attaches a coupon to the user; nil detaches.
func (r *UserRepository) SetAppliedCoupon(ctx context.Context, userID int64, couponID *int64) error {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET applied_coupon_id = $1, updated_at = $2 WHERE id = $3`, couponID, time.Now(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HoldersOf returns the ids of users who have the coupon applied.
func (r *UserRepository) HoldersOf(ctx context.Context, couponID int64) ([]int64, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM users WHERE applied_coupon_id = $1 ORDER BY id`, couponID)
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

// List returns every user with their order count (admin use).
func (r *UserRepository) List(ctx context.Context) ([]model.UserSummary, error) {
	q := `
		SELECT u.id, u.email, u.name, u.role, u.created_at,
		       (SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id) AS order_count
		FROM users u
		ORDER BY u.id
	`
	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.UserSummary{}
	for rows.Next() {
		var m model.UserSummary
		if err := rows.Scan(&m.ID, &m.Email, &m.Name, &m.Role, &m.CreatedAt, &m.OrderCount); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ErrUserHasOrders blocks deleting a user whose order history must be kept.
var ErrUserHasOrders = errors.New("user has orders")

// Delete removes the user and the rows that only make sense while the
// account exists, in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		var orders int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, id).Scan(&orders); err != nil {
			return err
		}
		if orders > 0 {
			return ErrUserHasOrders
		}
		for _, q := range []string{
			`DELETE FROM cart_items WHERE user_id = $1`,
			`DELETE FROM saved_items WHERE user_id = $1`,
			`DELETE FROM wishlist_items WHERE user_id = $1`,
			`DELETE FROM addresses WHERE user_id = $1`,
			`DELETE FROM email_verifications WHERE user_id = $1`,
		} {
			if _, err := tx.Exec(ctx, q, id); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
