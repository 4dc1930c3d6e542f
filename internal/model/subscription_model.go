package model

import "time"

const (
	SubscriptionActive       = "active"
	SubscriptionUnsubscribed = "unsubscribed"
)

// Subscription is a newsletter sign-up.
type Subscription struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	UserID    *int64    `json:"user_id,omitempty"`
	Status    string    `json:"status"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
