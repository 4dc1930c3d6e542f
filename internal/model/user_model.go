package model

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"` // never JSON-encode
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	EmailVerified   bool      `json:"email_verified"`
	AppliedCouponID *int64    `json:"applied_coupon_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Identity is the caller as resolved for the current request. The role is
// read from the users table, not from the session token.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type EmailVerification struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

// UserSummary is the admin listing row.
type UserSummary struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	OrderCount int       `json:"order_count"`
	CreatedAt  time.Time `json:"created_at"`
}
