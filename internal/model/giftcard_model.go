package model

import "time"

type GiftCard struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	InitialBalance float64    `json:"initial_balance"`
	Balance        float64    `json:"balance"`
	IsActive       bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (g *GiftCard) Usable(now time.Time) bool {
	if !g.IsActive {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}

type GiftCardTransaction struct {
	ID         int64     `json:"id"`
	GiftCardID int64     `json:"gift_card_id"`
	OrderID    *int64    `json:"order_id,omitempty"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}
