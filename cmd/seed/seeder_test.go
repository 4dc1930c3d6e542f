package main

import (
	"context"
	"os"
	"strings"
	"testing"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	nextID     int64
	categories []model.Category
	products   []model.Product
	coupons    map[string]bool
	zones      map[string]bool
	rates      []model.ShippingRate
	users      map[string]*model.User
}

func newMemStore() *memStore {
	return &memStore{coupons: map[string]bool{}, zones: map[string]bool{}, users: map[string]*model.User{}}
}

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

type memCategories struct{ *memStore }

func (m memCategories) Create(_ context.Context, name, slug string) (int64, error) {
	c := model.Category{ID: m.id(), Name: name, Slug: slug}
	m.categories = append(m.categories, c)
	return c.ID, nil
}

func (m memCategories) List(context.Context) ([]model.Category, error) { return m.categories, nil }

type memProducts struct{ *memStore }

func (m memProducts) Create(_ context.Context, p *model.Product) (int64, error) {
	c := *p
	c.ID = m.id()
	m.products = append(m.products, c)
	return c.ID, nil
}

func (m memProducts) List(context.Context, model.ProductFilter) ([]model.Product, int, error) {
	return m.products, len(m.products), nil
}

type memCoupons struct{ *memStore }

func (m memCoupons) Create(_ context.Context, c *model.Coupon) (int64, error) {
	if m.coupons[c.Code] {
		return 0, &pgconn.PgError{Code: "23505"}
	}
	m.coupons[c.Code] = true
	return m.id(), nil
}

type memShipping struct{ *memStore }

func (m memShipping) CreateZone(_ context.Context, z *model.ShippingZone) (int64, error) {
	if m.zones[z.Name] {
		return 0, &pgconn.PgError{Code: "23505"}
	}
	m.zones[z.Name] = true
	return m.id(), nil
}

func (m memShipping) CreateRate(_ context.Context, rt *model.ShippingRate) (int64, error) {
	m.rates = append(m.rates, *rt)
	return m.id(), nil
}

type memUsers struct{ *memStore }

func (m memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m memUsers) Create(_ context.Context, email, hash, name, role string) (int64, error) {
	u := &model.User{ID: m.id(), Email: email, PasswordHash: hash, Name: name, Role: role}
	m.users[email] = u
	return u.ID, nil
}

func (m memUsers) UpdateRole(_ context.Context, id int64, role string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.Role = role
		}
	}
	return nil
}

func newSeeder(m *memStore) *Seeder {
	return &Seeder{
		Categories: memCategories{m},
		Products:   memProducts{m},
		Coupons:    memCoupons{m},
		Shipping:   memShipping{m},
		Users:      memUsers{m},
		Logger:     zap.NewNop(),
		Cost:       bcrypt.MinCost,
	}
}

func TestBundledCatalogLoads(t *testing.T) {
	f, err := os.Open("catalog.yaml")
	require.NoError(t, err)
	defer f.Close()

	c, err := LoadCatalog(f)
	require.NoError(t, err)
	assert.Len(t, c.Categories, 3)
	assert.Len(t, c.Products, 3)
	assert.Equal(t, []string{"S", "M", "L", "XL"}, c.Products[0].Options["size"])
	require.Len(t, c.Zones, 2)
	require.NotNil(t, c.Zones[0].Rates[0].FreeOver)
	assert.Equal(t, 50.0, *c.Zones[0].Rates[0].FreeOver)
	require.NotNil(t, c.Admin)
}

func TestLoadCatalogRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "categorys: [A]\n",
		"unknown category": "products:\n  - title: X\n    category: Nope\n    price: 1\n",
		"negative price":   "products:\n  - title: X\n    price: -1\n",
		"bad coupon type":  "coupons:\n  - code: A\n    type: bogus\n    value: 1\n",
		"percentage > 100": "coupons:\n  - code: A\n    type: percentage\n    value: 150\n",
		"weak admin":       "admin:\n  email: a@b.co\n  password: short\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	f, err := os.Open("catalog.yaml")
	require.NoError(t, err)
	defer f.Close()
	c, err := LoadCatalog(f)
	require.NoError(t, err)

	m := newMemStore()
	s := newSeeder(m)
	ctx := context.Background()

	rep, err := s.Seed(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, Report{Categories: 3, Products: 3, Coupons: 2, Zones: 2, Rates: 3, Admin: true}, rep)

	mug := m.products[1]
	require.NotNil(t, mug.CategoryID)
	assert.Equal(t, "home-garden", m.categories[*mug.CategoryID-1].Slug)
	assert.Equal(t, model.RoleAdmin, m.users["admin@storefront.local"].Role)

	rep, err = s.Seed(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
	assert.Len(t, m.products, 3)
}

func TestSeedPromotesExistingAdmin(t *testing.T) {
	m := newMemStore()
	m.users["boss@shop.test"] = &model.User{ID: 99, Email: "boss@shop.test", Role: model.RoleCustomer}

	rep, err := newSeeder(m).Seed(context.Background(), &Catalog{Admin: &AdminSeed{Email: "Boss@Shop.test", Password: "long enough"}})
	require.NoError(t, err)
	assert.False(t, rep.Admin)
	assert.Equal(t, model.RoleAdmin, m.users["boss@shop.test"].Role)
}
