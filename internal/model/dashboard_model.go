package model

type Dashboard struct {
	Revenue        float64             `json:"revenue"`
	OrderCount     int                 `json:"order_count"`
	CustomerCount  int                 `json:"customer_count"`
	ProductCount   int                 `json:"product_count"`
	OrdersByStatus map[OrderStatus]int `json:"orders_by_status"`
	LowStock       []Product           `json:"low_stock"`
	RecentOrders   []Order             `json:"recent_orders"`
}
