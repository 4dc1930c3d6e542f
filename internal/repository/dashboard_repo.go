package repository

import (
	"context"
	"fmt"

	"StorefrontAPI/internal/model"
)

// DashboardRepository aggregates the admin overview.
type DashboardRepository struct {
	DB       DB
	Products *ProductRepository
	Orders   *OrderRepository
}

func NewDashboardRepository(db DB, products *ProductRepository, orders *OrderRepository) *DashboardRepository {
	return &DashboardRepository{DB: db, Products: products, Orders: orders}
}

func (r *DashboardRepository) Load(ctx context.Context, lowStockThreshold int) (*model.Dashboard, error) {
	d := &model.Dashboard{OrdersByStatus: map[model.OrderStatus]int{}}

	err := r.DB.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(total) FROM orders WHERE status <> $1), 0)::float8,
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users WHERE role = $2),
			(SELECT COUNT(*) FROM products)
	`, model.OrderCancelled, model.RoleCustomer).Scan(&d.Revenue, &d.OrderCount, &d.CustomerCount, &d.ProductCount)
	if err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}

	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("dashboard statuses: %w", err)
	}
	for rows.Next() {
		var s model.OrderStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			rows.Close()
			return nil, err
		}
		d.OrdersByStatus[s] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if d.LowStock, err = r.Products.LowStock(ctx, lowStockThreshold, 10); err != nil {
		return nil, fmt.Errorf("dashboard low stock: %w", err)
	}
	if d.RecentOrders, err = r.Orders.List(ctx, model.OrderListFilter{Limit: 5}); err != nil {
		return nil, fmt.Errorf("dashboard recent orders: %w", err)
	}
	return d, nil
}
