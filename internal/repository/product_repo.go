package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

type ProductRepository struct {
	DB DB
}

func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{DB: db}
}

const productColumns = `p.id, p.category_id, COALESCE(c.name, ''), p.title, p.description, p.brand, p.price, p.stock,
	p.image_url, p.options, p.rating, p.review_count, p.created_at, p.updated_at`

const productFrom = ` FROM products p LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	var opts []byte
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Category, &p.Title, &p.Description, &p.Brand, &p.Price, &p.Stock,
		&p.ImageURL, &opts, &p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(opts, &p.Options); err != nil {
		return nil, fmt.Errorf("decode product options: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) (int64, error) {
	opts, err := encodeJSON(p.Options)
	if err != nil {
		return 0, err
	}
	var id int64
	query := `
		INSERT INTO products (category_id, title, description, brand, price, stock, image_url, options, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id
	`
	if err := r.DB.QueryRow(ctx, query, p.CategoryID, p.Title, p.Description, p.Brand, p.Price, p.Stock, p.ImageURL, opts, time.Now()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = $1`
	p, err := scanProduct(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// List returns one page of products matching f together with the total
// number of matches.
func (r *ProductRepository) List(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + q + "%")
		where = append(where, fmt.Sprintf("(p.title ILIKE %s OR p.description ILIKE %s OR p.brand ILIKE %s)", p, p, p))
	}
	if f.CategoryID != nil {
		where = append(where, "p.category_id = "+arg(*f.CategoryID))
	}
	if f.MinPrice != nil {
		where = append(where, "p.price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(*f.MaxPrice))
	}
	if f.InStock {
		where = append(where, "p.stock > 0")
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "p.created_at DESC, p.id DESC"
	switch f.Sort {
	case model.SortPriceAsc:
		order = "p.price ASC, p.id"
	case model.SortPriceDesc:
		order = "p.price DESC, p.id"
	case model.SortRating:
		order = "p.rating DESC, p.review_count DESC, p.id"
	}

	query := `SELECT ` + productColumns + productFrom + cond +
		` ORDER BY ` + order + ` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset)
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	opts, err := encodeJSON(p.Options)
	if err != nil {
		return err
	}
	query := `
		UPDATE products
		SET category_id = $1, title = $2, description = $3, brand = $4, price = $5, stock = $6,
		    image_url = $7, options = $8, updated_at = $9
		WHERE id = $10
	`
	tag, err := r.DB.Exec(ctx, query, p.CategoryID, p.Title, p.Description, p.Brand, p.Price, p.Stock, p.ImageURL, opts, time.Now(), p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) SetStock(ctx context.Context, id int64, stock int) error {
	tag, err := r.DB.Exec(ctx, `UPDATE products SET stock = $1, updated_at = $2 WHERE id = $3`, stock, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product together with the cart, saved and wishlist rows
// that point at it. Products already ordered stay referenced by order items
// through their captured title and price, so the FK there is SET NULL.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		for _, q := range []string{
			`DELETE FROM cart_items WHERE product_id = $1`,
			`DELETE FROM saved_items WHERE product_id = $1`,
			`DELETE FROM wishlist_items WHERE product_id = $1`,
		} {
			if _, err := tx.Exec(ctx, q, id); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// LowStock lists products at or below threshold units.
func (r *ProductRepository) LowStock(ctx context.Context, threshold, limit int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.stock <= $1 ORDER BY p.stock, p.id LIMIT $2`
	rows, err := r.DB.Query(ctx, query, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}
