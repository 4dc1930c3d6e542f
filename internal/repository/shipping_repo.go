package repository

import (
	"context"
	"strings"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

type ShippingRepository struct {
	DB DB
}

func NewShippingRepository(db DB) *ShippingRepository {
	return &ShippingRepository{DB: db}
}

func (r *ShippingRepository) CreateZone(ctx context.Context, z *model.ShippingZone) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO shipping_zones (name, countries) VALUES ($1, $2) RETURNING id
	`, z.Name, upperAll(z.Countries)).Scan(&id)
	return id, err
}

func (r *ShippingRepository) UpdateZone(ctx context.Context, z *model.ShippingZone) error {
	tag, err := r.DB.Exec(ctx, `UPDATE shipping_zones SET name = $1, countries = $2 WHERE id = $3`, z.Name, upperAll(z.Countries), z.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ShippingRepository) DeleteZone(ctx context.Context, id int64) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM shipping_rates WHERE zone_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM shipping_zones WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *ShippingRepository) ListZones(ctx context.Context) ([]model.ShippingZone, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, countries FROM shipping_zones ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ShippingZone{}
	for rows.Next() {
		var z model.ShippingZone
		if err := rows.Scan(&z.ID, &z.Name, &z.Countries); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		rates, err := r.RatesForZone(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Rates = rates
	}
	return out, nil
}

// ZoneForCountry resolves the zone listing country, falling back to the
// "Rest of World" zone. It returns ErrNotFound when neither exists.
func (r *ShippingRepository) ZoneForCountry(ctx context.Context, country string) (*model.ShippingZone, error) {
	var z model.ShippingZone
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, countries FROM shipping_zones
		WHERE upper($1) = ANY(countries) OR name = $2
		ORDER BY (upper($1) = ANY(countries)) DESC, id
		LIMIT 1
	`, country, model.RestOfWorldZone).Scan(&z.ID, &z.Name, &z.Countries)
	if err != nil {
		return nil, notFound(err)
	}
	return &z, nil
}

func (r *ShippingRepository) CreateRate(ctx context.Context, rt *model.ShippingRate) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO shipping_rates (zone_id, name, price, free_over, min_days, max_days)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
	`, rt.ZoneID, rt.Name, rt.Price, rt.FreeOver, rt.MinDays, rt.MaxDays).Scan(&id)
	return id, err
}

func (r *ShippingRepository) UpdateRate(ctx context.Context, rt *model.ShippingRate) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE shipping_rates SET name = $1, price = $2, free_over = $3, min_days = $4, max_days = $5 WHERE id = $6
	`, rt.Name, rt.Price, rt.FreeOver, rt.MinDays, rt.MaxDays, rt.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ShippingRepository) DeleteRate(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM shipping_rates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ShippingRepository) GetRate(ctx context.Context, id int64) (*model.ShippingRate, error) {
	var rt model.ShippingRate
	err := r.DB.QueryRow(ctx, `
		SELECT id, zone_id, name, price, free_over, min_days, max_days FROM shipping_rates WHERE id = $1
	`, id).Scan(&rt.ID, &rt.ZoneID, &rt.Name, &rt.Price, &rt.FreeOver, &rt.MinDays, &rt.MaxDays)
	if err != nil {
		return nil, notFound(err)
	}
	return &rt, nil
}

func (r *ShippingRepository) RatesForZone(ctx context.Context, zoneID int64) ([]model.ShippingRate, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, zone_id, name, price, free_over, min_days, max_days FROM shipping_rates
		WHERE zone_id = $1 ORDER BY price, id
	`, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ShippingRate{}
	for rows.Next() {
		var rt model.ShippingRate
		if err := rows.Scan(&rt.ID, &rt.ZoneID, &rt.Name, &rt.Price, &rt.FreeOver, &rt.MinDays, &rt.MaxDays); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToUpper(strings.TrimSpace(s)))
	}
	return out
}
