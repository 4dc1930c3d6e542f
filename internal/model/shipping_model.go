package model

type ShippingZone struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Countries []string       `json:"countries"`
	Rates     []ShippingRate `json:"rates,omitempty"`
}

type ShippingRate struct {
	ID       int64    `json:"id"`
	ZoneID   int64    `json:"zone_id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	FreeOver *float64 `json:"free_over,omitempty"`
	MinDays  int      `json:"min_days"`
	MaxDays  int      `json:"max_days"`
}

// RestOfWorldZone is the fallback zone name for unlisted countries.
const RestOfWorldZone = "Rest of World"

// ShippingQuote is a rate priced for a concrete subtotal.
type ShippingQuote struct {
	RateID  int64   `json:"rate_id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	MinDays int     `json:"min_days"`
	MaxDays int     `json:"max_days"`
}
