package services

import (
	"context"
	"errors"
	"strings"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/shopspring/decimal"
)

type ShippingService struct {
	Shipping ShippingStore
}

func NewShippingService(s ShippingStore) *ShippingService {
	return &ShippingService{Shipping: s}
}

// RatesFor prices every rate of the zone serving country. Unknown
// countries fall back to the Rest of World zone; with no zone the list is
// empty.
func (s *ShippingService) RatesFor(ctx context.Context, country string, subtotal float64) ([]model.ShippingQuote, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, Validation("country is required")
	}
	if subtotal < 0 {
		return nil, Validation("subtotal must be >= 0")
	}
	zone, err := s.Shipping.ZoneForCountry(ctx, country)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []model.ShippingQuote{}, nil
		}
		return nil, err
	}
	rates, err := s.Shipping.RatesForZone(ctx, zone.ID)
	if err != nil {
		return nil, err
	}

	sub := decimal.NewFromFloat(subtotal)
	out := make([]model.ShippingQuote, 0, len(rates))
	for i := range rates {
		out = append(out, model.ShippingQuote{
			RateID:  rates[i].ID,
			Name:    rates[i].Name,
			Price:   toFloat(ShippingPrice(&rates[i], sub)),
			MinDays: rates[i].MinDays,
			MaxDays: rates[i].MaxDays,
		})
	}
	return out, nil
}

func (s *ShippingService) ListZones(ctx context.Context, actor *model.Identity) ([]model.ShippingZone, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Shipping.ListZones(ctx)
}

func validateZone(z *model.ShippingZone) error {
	z.Name = strings.TrimSpace(z.Name)
	if z.Name == "" {
		return Validation("zone name is required")
	}
	if len(z.Countries) == 0 && z.Name != model.RestOfWorldZone {
		return Validation("zone needs at least one country")
	}
	return nil
}

func (s *ShippingService) CreateZone(ctx context.Context, actor *model.Identity, z *model.ShippingZone) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if err := validateZone(z); err != nil {
		return 0, err
	}
	id, err := s.Shipping.CreateZone(ctx, z)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return 0, Conflict("zone name already exists")
		}
		return 0, err
	}
	return id, nil
}

func (s *ShippingService) UpdateZone(ctx context.Context, actor *model.Identity, z *model.ShippingZone) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := validateZone(z); err != nil {
		return err
	}
	if err := s.Shipping.UpdateZone(ctx, z); err != nil {
		if repository.IsUniqueViolation(err) {
			return Conflict("zone name already exists")
		}
		return notFoundAs(err, "Shipping zone not found")
	}
	return nil
}

func (s *ShippingService) DeleteZone(ctx context.Context, actor *model.Identity, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return notFoundAs(s.Shipping.DeleteZone(ctx, id), "Shipping zone not found")
}

func validateRate(rt *model.ShippingRate) error {
	rt.Name = strings.TrimSpace(rt.Name)
	if rt.Name == "" {
		return Validation("rate name is required")
	}
	if rt.Price < 0 {
		return Validation("price must be >= 0")
	}
	if rt.FreeOver != nil && *rt.FreeOver < 0 {
		return Validation("free_over must be >= 0")
	}
	if rt.MinDays < 0 || rt.MaxDays < rt.MinDays {
		return Validation("delivery window is invalid")
	}
	return nil
}

func (s *ShippingService) CreateRate(ctx context.Context, actor *model.Identity, rt *model.ShippingRate) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if err := validateRate(rt); err != nil {
		return 0, err
	}
	id, err := s.Shipping.CreateRate(ctx, rt)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return 0, NotFound("Shipping zone not found")
		}
		return 0, err
	}
	return id, nil
}

func (s *ShippingService) UpdateRate(ctx context.Context, actor *model.Identity, rt *model.ShippingRate) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := validateRate(rt); err != nil {
		return err
	}
	return notFoundAs(s.Shipping.UpdateRate(ctx, rt), "Shipping rate not found")
}

func (s *ShippingService) DeleteRate(ctx context.Context, actor *model.Identity, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return notFoundAs(s.Shipping.DeleteRate(ctx, id), "Shipping rate not found")
}
