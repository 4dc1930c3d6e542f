package model

import (
	"sort"
	"strings"
	"time"
)

// CartItem is a row in cart_items. The same product with different option
// selections is a distinct line.
type CartItem struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	ProductID int64             `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// CartLine is what the API exposes (joined with products).
type CartLine struct {
	ID        int64             `json:"id"`
	ProductID int64             `json:"product_id"`
	Title     string            `json:"title"`
	ImageURL  string            `json:"image_url"`
	Price     float64           `json:"price"`
	Stock     int               `json:"stock"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
	LineTotal float64           `json:"line_total"`
}

type CartView struct {
	Items     []CartLine `json:"items"`
	ItemCount int        `json:"item_count"`
	Subtotal  float64    `json:"subtotal"`
}

type SavedItem struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	ProductID int64             `json:"product_id"`
	Title     string            `json:"title,omitempty"`
	Price     float64           `json:"price,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type WishlistItem struct {
	ProductID int64     `json:"product_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"image_url"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

// OptionsKey renders selected options in a canonical order so that equal
// selections map to the same cart line.
func OptionsKey(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(opts[k])
	}
	return b.String()
}
