package model

import "time"

type Product struct {
	ID          int64               `json:"id"`
	CategoryID  *int64              `json:"category_id,omitempty"`
	Category    string              `json:"category,omitempty"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Brand       string              `json:"brand"`
	Price       float64             `json:"price"`
	Stock       int                 `json:"stock"`
	ImageURL    string              `json:"image_url"`
	Options     map[string][]string `json:"options,omitempty"`
	Rating      float64             `json:"rating"`
	ReviewCount int                 `json:"review_count"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// ProductFilter drives the public catalog listing.
type ProductFilter struct {
	Query      string   `json:"query,omitempty"`
	CategoryID *int64   `json:"category_id,omitempty"`
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	InStock    bool     `json:"in_stock,omitempty"`
	Sort       string   `json:"sort,omitempty"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}

type ProductPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
