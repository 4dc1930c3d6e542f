package repository

import (
	"context"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

// ReviewRepository writes reviews and re-aggregates the product's rating
// and review count from all of its reviews in the same transaction.
type ReviewRepository struct {
	DB DB
}

func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

func recomputeRating(ctx context.Context, tx pgx.Tx, productID int64) (model.RatingSummary, error) {
	var s model.RatingSummary
	err := tx.QueryRow(ctx, `
		UPDATE products
		SET rating = COALESCE((SELECT AVG(rating)::float8 FROM reviews WHERE product_id = $1), 0),
		    review_count = (SELECT COUNT(*) FROM reviews WHERE product_id = $1)
		WHERE id = $1
		RETURNING rating, review_count
	`, productID).Scan(&s.Rating, &s.ReviewCount)
	return s, notFound(err)
}

// Upsert creates the user's review of the product or rewrites it in place.
func (r *ReviewRepository) Upsert(ctx context.Context, rv *model.Review) (int64, model.RatingSummary, error) {
	var id int64
	var summary model.RatingSummary
	err := withTx(ctx, r.DB, func(tx pgx.Tx) error {
		now := time.Now()
		err := tx.QueryRow(ctx, `
			INSERT INTO reviews (user_id, product_id, rating, title, body, verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (user_id, product_id)
			DO UPDATE SET rating = EXCLUDED.rating, title = EXCLUDED.title, body = EXCLUDED.body,
			              verified = EXCLUDED.verified, updated_at = EXCLUDED.updated_at
			RETURNING id
		`, rv.UserID, rv.ProductID, rv.Rating, rv.Title, rv.Body, rv.Verified, now).Scan(&id)
		if err != nil {
			return err
		}
		summary, err = recomputeRating(ctx, tx, rv.ProductID)
		return err
	})
	return id, summary, err
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	var rv model.Review
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, product_id, rating, title, body, verified, created_at, updated_at
		FROM reviews WHERE id = $1
	`, id).Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Title, &rv.Body, &rv.Verified, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &rv, nil
}

// Delete removes the review and re-aggregates its product.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) (model.RatingSummary, error) {
	var summary model.RatingSummary
	err := withTx(ctx, r.DB, func(tx pgx.Tx) error {
		var productID int64
		if err := tx.QueryRow(ctx, `DELETE FROM reviews WHERE id = $1 RETURNING product_id`, id).Scan(&productID); err != nil {
			return notFound(err)
		}
		var err error
		summary, err = recomputeRating(ctx, tx, productID)
		return err
	})
	return summary, err
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT rv.id, rv.user_id, u.name, rv.product_id, rv.rating, rv.title, rv.body, rv.verified, rv.created_at, rv.updated_at
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id = $1
		ORDER BY rv.updated_at DESC, rv.id DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.UserName, &rv.ProductID, &rv.Rating, &rv.Title, &rv.Body, &rv.Verified, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
