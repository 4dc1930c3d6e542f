package repository

import (
	"context"
	"time"

	"StorefrontAPI/internal/model"
)

type SubscriptionRepository struct {
	DB DB
}

func NewSubscriptionRepository(db DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

// Subscribe inserts the email or re-activates an existing row. The token
// of an existing row is kept so earlier unsubscribe links stay valid.
func (r *SubscriptionRepository) Subscribe(ctx context.Context, email string, userID *int64, token string) (*model.Subscription, error) {
	var s model.Subscription
	now := time.Now()
	err := r.DB.QueryRow(ctx, `
		INSERT INTO subscriptions (email, user_id, status, token, created_at, updated_at)
		VALUES (lower($1), $2, 'active', $3, $4, $4)
		ON CONFLICT (email)
		DO UPDATE SET status = 'active', user_id = COALESCE(EXCLUDED.user_id, subscriptions.user_id), updated_at = EXCLUDED.updated_at
		RETURNING id, email, user_id, status, token, created_at, updated_at
	`, email, userID, token, now).Scan(&s.ID, &s.Email, &s.UserID, &s.Status, &s.Token, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, token string) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE subscriptions SET status = 'unsubscribed', updated_at = $2 WHERE token = $1
	`, token, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepository) List(ctx context.Context, status string) ([]model.Subscription, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, email, user_id, status, token, created_at, updated_at FROM subscriptions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.Email, &s.UserID, &s.Status, &s.Token, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
