package services

import (
	"context"
	"testing"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.adminUser()

	_, err := env.products.Create(ctx, admin, &model.Product{Title: " ", Price: 1})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = env.products.Create(ctx, admin, &model.Product{Title: "Bad", Price: -1})
	assert.Equal(t, KindValidation, KindOf(err))

	id, err := env.products.Create(ctx, admin, &model.Product{Title: "Chair", Price: 49.5, Stock: 3})
	require.NoError(t, err)

	p, err := env.products.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Chair", p.Title)

	before := env.views.Version(cache.ProductPath(id))
	require.NoError(t, env.products.UpdateStock(ctx, admin, id, 7))
	assert.Greater(t, env.views.Version(cache.ProductPath(id)), before)

	p, err = env.products.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock, "stale view is not served after invalidation")

	page, err := env.products.List(ctx, model.ProductFilter{Query: "cha"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = env.products.List(ctx, model.ProductFilter{Sort: "random"})
	assert.Equal(t, KindValidation, KindOf(err))

	require.NoError(t, env.products.Delete(ctx, admin, id))
	_, err = env.products.Get(ctx, id)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.adminUser()

	id, err := env.products.CreateCategory(ctx, admin, "Home & Garden")
	require.NoError(t, err)
	assert.Equal(t, "home-garden", env.db.categories[id].Slug)

	_, err = env.products.CreateCategory(ctx, admin, "home & garden")
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = env.products.Create(ctx, admin, &model.Product{Title: "Hose", CategoryID: func() *int64 { v := int64(999); return &v }()})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "men-s-shoes", Slugify("  Men's Shoes "))
	assert.Equal(t, "tv-audio", Slugify("TV / Audio"))
}

func TestCartOptionsSaveForLaterAndWishlist(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.customer("cart@shop.test")
	other := env.customer("other@shop.test")
	p := env.db.addProduct("T-Shirt", 15, 4)
	env.db.products[p.ID].Options = map[string][]string{"size": {"S", "M"}}

	err := env.cart.Add(ctx, user, p.ID, 1, map[string]string{"size": "XL"})
	assert.Equal(t, KindValidation, KindOf(err))

	require.NoError(t, env.cart.Add(ctx, user, p.ID, 1, map[string]string{"size": "S"}))
	require.NoError(t, env.cart.Add(ctx, user, p.ID, 1, map[string]string{"size": "M"}))
	require.NoError(t, env.cart.Add(ctx, user, p.ID, 1, map[string]string{"size": "S"}))

	view, err := env.cart.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, view.Items, 2, "options make distinct lines")
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, 45.0, view.Subtotal)

	err = env.cart.Add(ctx, user, p.ID, 3, map[string]string{"size": "S"})
	assert.Equal(t, "Only 4 items available", Message(err))

	err = env.cart.Remove(ctx, other, view.Items[0].ID)
	assert.Equal(t, KindForbidden, KindOf(err))

	savedID, err := env.cart.SaveForLater(ctx, user, view.Items[0].ID)
	require.NoError(t, err)
	view, err = env.cart.Get(ctx, user)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	require.NoError(t, env.cart.MoveToCart(ctx, user, savedID, 0))
	saved, err := env.cart.ListSaved(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, saved)

	on, err := env.cart.ToggleWishlist(ctx, user, p.ID)
	require.NoError(t, err)
	assert.True(t, on)
	wl, err := env.cart.ListWishlist(ctx, user)
	require.NoError(t, err)
	assert.Len(t, wl, 1)
	on, err = env.cart.ToggleWishlist(ctx, user, p.ID)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, env.cart.Clear(ctx, user))
	view, err = env.cart.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestAddOutOfStock(t *testing.T) {
	env := newTestEnv(t)
	user := env.customer("oos@shop.test")
	p := env.db.addProduct("Sold Out", 10, 0)

	err := env.cart.Add(context.Background(), user, p.ID, 1, nil)
	assert.Equal(t, "Product is out of stock", Message(err))
}

func TestShippingRates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.adminUser()
	freeOver := 75.0

	uk, err := env.shipping.CreateZone(ctx, admin, &model.ShippingZone{Name: "UK", Countries: []string{"GB"}})
	require.NoError(t, err)
	_, err = env.shipping.CreateRate(ctx, admin, &model.ShippingRate{ZoneID: uk, Name: "Standard", Price: 4.99, FreeOver: &freeOver, MinDays: 2, MaxDays: 4})
	require.NoError(t, err)
	_, err = env.shipping.CreateRate(ctx, admin, &model.ShippingRate{ZoneID: uk, Name: "Express", Price: 9.99, MinDays: 1, MaxDays: 1})
	require.NoError(t, err)

	quotes, err := env.shipping.RatesFor(ctx, "gb", 80)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 0.0, quotes[0].Price, "free over threshold")
	assert.Equal(t, 9.99, quotes[1].Price)

	quotes, err = env.shipping.RatesFor(ctx, "FR", 10)
	require.NoError(t, err)
	assert.Empty(t, quotes, "no zone and no Rest of World")

	row, err := env.shipping.CreateZone(ctx, admin, &model.ShippingZone{Name: model.RestOfWorldZone})
	require.NoError(t, err)
	_, err = env.shipping.CreateRate(ctx, admin, &model.ShippingRate{ZoneID: row, Name: "International", Price: 19, MinDays: 5, MaxDays: 10})
	require.NoError(t, err)

	quotes, err = env.shipping.RatesFor(ctx, "FR", 10)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "International", quotes[0].Name)

	_, err = env.shipping.CreateRate(ctx, admin, &model.ShippingRate{ZoneID: uk, Name: "Bad", MinDays: 3, MaxDays: 1})
	assert.Equal(t, KindValidation, KindOf(err))
}
