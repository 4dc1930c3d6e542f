package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"
	"StorefrontAPI/internal/services"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type categoryStore interface {
	Create(ctx context.Context, name, slug string) (int64, error)
	List(ctx context.Context) ([]model.Category, error)
}

type productStore interface {
	Create(ctx context.Context, p *model.Product) (int64, error)
	List(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error)
}

type couponStore interface {
	Create(ctx context.Context, c *model.Coupon) (int64, error)
}

type shippingStore interface {
	CreateZone(ctx context.Context, z *model.ShippingZone) (int64, error)
	CreateRate(ctx context.Context, rt *model.ShippingRate) (int64, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, email, passwordHash, name, role string) (int64, error)
	UpdateRole(ctx context.Context, id int64, role string) error
}

// Seeder writes a Catalog. Rows that already exist are left alone, so
// running it twice is safe.
type Seeder struct {
	Categories categoryStore
	Products   productStore
	Coupons    couponStore
	Shipping   shippingStore
	Users      userStore
	Logger     *zap.Logger
	Cost       int
}

type Report struct {
	Categories int
	Products   int
	Coupons    int
	Zones      int
	Rates      int
	Admin      bool
}

func (s *Seeder) Seed(ctx context.Context, c *Catalog) (Report, error) {
	var rep Report

	categoryIDs, err := s.seedCategories(ctx, c.Categories, &rep)
	if err != nil {
		return rep, err
	}
	if err := s.seedProducts(ctx, c.Products, categoryIDs, &rep); err != nil {
		return rep, err
	}

	for _, cp := range c.Coupons {
		_, err := s.Coupons.Create(ctx, &model.Coupon{
			Code:           strings.ToUpper(strings.TrimSpace(cp.Code)),
			DiscountType:   cp.Type,
			DiscountValue:  cp.Value,
			MinOrderAmount: cp.MinOrderAmount,
			IsActive:       true,
			ExpiresAt:      cp.ExpiresAt,
		})
		if repository.IsUniqueViolation(err) {
			s.Logger.Info("coupon exists", zap.String("code", cp.Code))
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("coupon %q: %w", cp.Code, err)
		}
		rep.Coupons++
	}

	for _, z := range c.Zones {
		zoneID, err := s.Shipping.CreateZone(ctx, &model.ShippingZone{Name: z.Name, Countries: z.Countries})
		if repository.IsUniqueViolation(err) {
			s.Logger.Info("shipping zone exists", zap.String("zone", z.Name))
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("zone %q: %w", z.Name, err)
		}
		rep.Zones++
		for _, r := range z.Rates {
			_, err := s.Shipping.CreateRate(ctx, &model.ShippingRate{
				ZoneID:   zoneID,
				Name:     r.Name,
				Price:    r.Price,
				FreeOver: r.FreeOver,
				MinDays:  r.MinDays,
				MaxDays:  r.MaxDays,
			})
			if err != nil {
				return rep, fmt.Errorf("rate %q in zone %q: %w", r.Name, z.Name, err)
			}
			rep.Rates++
		}
	}

	if c.Admin != nil {
		created, err := s.seedAdmin(ctx, c.Admin)
		if err != nil {
			return rep, err
		}
		rep.Admin = created
	}
	return rep, nil
}

func (s *Seeder) seedCategories(ctx context.Context, names []string, rep *Report) (map[string]int64, error) {
	existing, err := s.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	ids := make(map[string]int64, len(existing)+len(names))
	for _, c := range existing {
		ids[c.Slug] = c.ID
	}
	for _, name := range names {
		slug := services.Slugify(name)
		if _, ok := ids[slug]; ok {
			continue
		}
		id, err := s.Categories.Create(ctx, strings.TrimSpace(name), slug)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		ids[slug] = id
		rep.Categories++
	}
	return ids, nil
}

func (s *Seeder) seedProducts(ctx context.Context, products []ProductSeed, categoryIDs map[string]int64, rep *Report) error {
	if len(products) == 0 {
		return nil
	}
	_, total, err := s.Products.List(ctx, model.ProductFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if total > 0 {
		s.Logger.Info("catalog already has products, skipping", zap.Int("existing", total))
		return nil
	}

	for _, p := range products {
		prod := &model.Product{
			Title:       p.Title,
			Description: p.Description,
			Brand:       p.Brand,
			Price:       p.Price,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
			Options:     p.Options,
		}
		if p.Category != "" {
			id := categoryIDs[services.Slugify(p.Category)]
			prod.CategoryID = &id
		}
		if _, err := s.Products.Create(ctx, prod); err != nil {
			return fmt.Errorf("product %q: %w", p.Title, err)
		}
		rep.Products++
	}
	return nil
}

// seedAdmin creates the admin account, or promotes it when the email is
// already registered.
func (s *Seeder) seedAdmin(ctx context.Context, a *AdminSeed) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	u, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == model.RoleAdmin {
			return false, nil
		}
		return false, s.Users.UpdateRole(ctx, u.ID, model.RoleAdmin)
	case !errors.Is(err, repository.ErrNotFound):
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), s.Cost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	name := a.Name
	if name == "" {
		name = "Administrator"
	}
	if _, err := s.Users.Create(ctx, email, string(hash), name, model.RoleAdmin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
