package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"StorefrontAPI/internal/model"

	"gopkg.in/yaml.v3"
)

// Catalog is the fixture file layout.
type Catalog struct {
	Categories []string      `yaml:"categories"`
	Products   []ProductSeed `yaml:"products"`
	Coupons    []CouponSeed  `yaml:"coupons"`
	Zones      []ZoneSeed    `yaml:"shipping_zones"`
	Admin      *AdminSeed    `yaml:"admin"`
}

type ProductSeed struct {
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Brand       string              `yaml:"brand"`
	Category    string              `yaml:"category"`
	Price       float64             `yaml:"price"`
	Stock       int                 `yaml:"stock"`
	ImageURL    string              `yaml:"image_url"`
	Options     map[string][]string `yaml:"options"`
}

type CouponSeed struct {
	Code           string     `yaml:"code"`
	Type           string     `yaml:"type"`
	Value          float64    `yaml:"value"`
	MinOrderAmount float64    `yaml:"min_order_amount"`
	ExpiresAt      *time.Time `yaml:"expires_at"`
}

type ZoneSeed struct {
	Name      string     `yaml:"name"`
	Countries []string   `yaml:"countries"`
	Rates     []RateSeed `yaml:"rates"`
}

type RateSeed struct {
	Name     string   `yaml:"name"`
	Price    float64  `yaml:"price"`
	FreeOver *float64 `yaml:"free_over"`
	MinDays  int      `yaml:"min_days"`
	MaxDays  int      `yaml:"max_days"`
}

type AdminSeed struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LoadCatalog decodes and checks a fixture file. Unknown keys are errors.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	known := make(map[string]bool, len(c.Categories))
	for _, name := range c.Categories {
		known[strings.ToLower(name)] = true
	}
	for i, p := range c.Products {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("product %d: title is required", i)
		}
		if p.Price < 0 || p.Stock < 0 {
			return fmt.Errorf("product %q: price and stock must not be negative", p.Title)
		}
		if p.Category != "" && !known[strings.ToLower(p.Category)] {
			return fmt.Errorf("product %q: unknown category %q", p.Title, p.Category)
		}
	}
	for _, cp := range c.Coupons {
		switch cp.Type {
		case model.DiscountPercentage:
			if cp.Value <= 0 || cp.Value > 100 {
				return fmt.Errorf("coupon %q: percentage must be in (0, 100]", cp.Code)
			}
		case model.DiscountFixed:
			if cp.Value <= 0 {
				return fmt.Errorf("coupon %q: value must be positive", cp.Code)
			}
		default:
			return fmt.Errorf("coupon %q: unknown type %q", cp.Code, cp.Type)
		}
	}
	for _, z := range c.Zones {
		if z.Name == "" {
			return errors.New("shipping zone without name")
		}
	}
	if c.Admin != nil && (c.Admin.Email == "" || len(c.Admin.Password) < 8) {
		return errors.New("admin needs an email and a password of at least 8 characters")
	}
	return nil
}
