package repository

import (
	"context"
	"fmt"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

type CartRepository struct {
	DB DB
}

func NewCartRepository(db DB) *CartRepository {
	return &CartRepository{DB: db}
}

// GetLines returns the user's cart joined with current product data.
func (r *CartRepository) GetLines(ctx context.Context, userID int64) ([]model.CartLine, error) {
	query := `
		SELECT ci.id, ci.product_id, p.title, p.image_url, p.price, p.stock, ci.quantity, ci.options
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at, ci.id
	`
	rows, err := r.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.CartLine{}
	for rows.Next() {
		var it model.CartLine
		var opts []byte
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Title, &it.ImageURL, &it.Price, &it.Stock, &it.Quantity, &opts); err != nil {
			return nil, err
		}
		if err := decodeJSON(opts, &it.Options); err != nil {
			return nil, fmt.Errorf("decode cart options: %w", err)
		}
		it.LineTotal = it.Price * float64(it.Quantity)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *CartRepository) GetItem(ctx context.Context, itemID int64) (*model.CartItem, error) {
	var it model.CartItem
	var opts []byte
	query := `SELECT id, user_id, product_id, quantity, options, created_at FROM cart_items WHERE id = $1`
	if err := r.DB.QueryRow(ctx, query, itemID).Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &opts, &it.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	if err := decodeJSON(opts, &it.Options); err != nil {
		return nil, err
	}
	return &it, nil
}

// FindLine returns the line for (user, product, options) or ErrNotFound.
func (r *CartRepository) FindLine(ctx context.Context, userID, productID int64, optionsKey string) (*model.CartItem, error) {
	var it model.CartItem
	var opts []byte
	query := `
		SELECT id, user_id, product_id, quantity, options, created_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND options_key = $3
	`
	if err := r.DB.QueryRow(ctx, query, userID, productID, optionsKey).Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &opts, &it.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	if err := decodeJSON(opts, &it.Options); err != nil {
		return nil, err
	}
	return &it, nil
}

// UpsertLine inserts or sets the quantity of the line keyed by
// (user, product, options).
func (r *CartRepository) UpsertLine(ctx context.Context, userID, productID int64, qty int, options map[string]string) error {
	opts, err := encodeJSON(options)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, options, options_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, product_id, options_key)
		DO UPDATE SET quantity = EXCLUDED.quantity
	`
	_, err = r.DB.Exec(ctx, query, userID, productID, qty, opts, model.OptionsKey(options), time.Now())
	return err
}

// SetQuantity sets exact quantity for a cart line
func (r *CartRepository) SetQuantity(ctx context.Context, itemID int64, qty int) error {
	tag, err := r.DB.Exec(ctx, `UPDATE cart_items SET quantity = $1 WHERE id = $2`, qty, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartRepository) RemoveItem(ctx context.Context, itemID int64) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	return err
}

// Clear clears all items for a user
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

// SaveForLater moves a cart line into saved_items in one transaction.
func (r *CartRepository) SaveForLater(ctx context.Context, item *model.CartItem) (int64, error) {
	opts, err := encodeJSON(item.Options)
	if err != nil {
		return 0, err
	}
	var savedID int64
	err = withTx(ctx, r.DB, func(tx pgx.Tx) error {
		query := `
			INSERT INTO saved_items (user_id, product_id, options, options_key, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, product_id, options_key) DO UPDATE SET created_at = EXCLUDED.created_at
			RETURNING id
		`
		if err := tx.QueryRow(ctx, query, item.UserID, item.ProductID, opts, model.OptionsKey(item.Options), time.Now()).Scan(&savedID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, item.ID)
		return err
	})
	return savedID, err
}

func (r *CartRepository) ListSaved(ctx context.Context, userID int64) ([]model.SavedItem, error) {
	query := `
		SELECT s.id, s.user_id, s.product_id, p.title, p.price, s.options, s.created_at
		FROM saved_items s
		JOIN products p ON p.id = s.product_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`
	rows, err := r.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SavedItem{}
	for rows.Next() {
		var s model.SavedItem
		var opts []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProductID, &s.Title, &s.Price, &opts, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeJSON(opts, &s.Options); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *CartRepository) GetSaved(ctx context.Context, savedID int64) (*model.SavedItem, error) {
	var s model.SavedItem
	var opts []byte
	query := `SELECT id, user_id, product_id, options, created_at FROM saved_items WHERE id = $1`
	if err := r.DB.QueryRow(ctx, query, savedID).Scan(&s.ID, &s.UserID, &s.ProductID, &opts, &s.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	if err := decodeJSON(opts, &s.Options); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CartRepository) RemoveSaved(ctx context.Context, savedID int64) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM saved_items WHERE id = $1`, savedID)
	return err
}

// ToggleWishlist adds the product when absent and removes it when present.
// It reports whether the product is on the wishlist afterwards.
func (r *CartRepository) ToggleWishlist(ctx context.Context, userID, productID int64) (bool, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, userID, productID, time.Now())
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *CartRepository) ListWishlist(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	query := `
		SELECT w.product_id, p.title, p.price, p.image_url, p.stock, w.created_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC
	`
	rows, err := r.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WishlistItem{}
	for rows.Next() {
		var w model.WishlistItem
		if err := rows.Scan(&w.ProductID, &w.Title, &w.Price, &w.ImageURL, &w.Stock, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
