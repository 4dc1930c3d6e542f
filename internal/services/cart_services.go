package services

import (
	"context"
	"errors"
	"slices"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/shopspring/decimal"
)

type CartService struct {
	Cart     CartStore
	Products ProductReader
	Views    cache.Views
}

func NewCartService(c CartStore, p ProductReader, v cache.Views) *CartService {
	return &CartService{Cart: c, Products: p, Views: v}
}

func (s *CartService) invalidate(ctx context.Context, userID int64) {
	s.Views.Invalidate(ctx, cache.CartPath(userID), cache.CheckoutPath(userID))
}

func stockError(p *model.Product) error {
	if p.Stock <= 0 {
		return Business("Product is out of stock")
	}
	return Businessf("Only %d items available", p.Stock)
}

func validateOptions(p *model.Product, selected map[string]string) error {
	for name, value := range selected {
		allowed, ok := p.Options[name]
		if !ok {
			return Validationf("unknown option %q", name)
		}
		if !slices.Contains(allowed, value) {
			return Validationf("invalid value %q for option %q", value, name)
		}
	}
	return nil
}

// Get returns the cart with current prices and stock.
func (s *CartService) Get(ctx context.Context, actor *model.Identity) (*model.CartView, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	view, err := cache.Load(ctx, s.Views, cache.CartPath(actor.UserID), "", func(ctx context.Context) (model.CartView, error) {
		lines, err := s.Cart.GetLines(ctx, actor.UserID)
		if err != nil {
			return model.CartView{}, err
		}
		return buildCartView(lines), nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func buildCartView(lines []model.CartLine) model.CartView {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		subtotal = subtotal.Add(money(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
		count += l.Quantity
	}
	if lines == nil {
		lines = []model.CartLine{}
	}
	return model.CartView{Items: lines, ItemCount: count, Subtotal: toFloat(subtotal)}
}

// Add puts quantity units of the product on the line keyed by (product,
// options), merging with an existing line. The merged quantity must fit the
// product's stock.
func (s *CartService) Add(ctx context.Context, actor *model.Identity, productID int64, quantity int, options map[string]string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if quantity < 1 {
		return Validation("quantity must be at least 1")
	}

	p, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		return notFoundAs(err, "Product not found")
	}
	if err := validateOptions(p, options); err != nil {
		return err
	}
	if p.Stock <= 0 {
		return Business("Product is out of stock")
	}

	want := quantity
	existing, err := s.Cart.FindLine(ctx, actor.UserID, productID, model.OptionsKey(options))
	switch {
	case err == nil:
		want += existing.Quantity
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}
	if want > p.Stock {
		return stockError(p)
	}

	if err := s.Cart.UpsertLine(ctx, actor.UserID, productID, want, options); err != nil {
		return err
	}
	s.invalidate(ctx, actor.UserID)
	return nil
}

func (s *CartService) ownedItem(ctx context.Context, actor *model.Identity, itemID int64) (*model.CartItem, error) {
	item, err := s.Cart.GetItem(ctx, itemID)
	if err != nil {
		return nil, notFoundAs(err, "Cart item not found")
	}
	if item.UserID != actor.UserID {
		return nil, Forbidden("cart item belongs to another user")
	}
	return item, nil
}

// UpdateQuantity sets an exact quantity; zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, actor *model.Identity, itemID int64, quantity int) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if quantity < 0 {
		return Validation("quantity must not be negative")
	}
	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}

	if quantity == 0 {
		if err := s.Cart.RemoveItem(ctx, item.ID); err != nil {
			return err
		}
		s.invalidate(ctx, actor.UserID)
		return nil
	}

	p, err := s.Products.GetByID(ctx, item.ProductID)
	if err != nil {
		return notFoundAs(err, "Product not found")
	}
	if quantity > p.Stock {
		return stockError(p)
	}
	if err := s.Cart.SetQuantity(ctx, item.ID, quantity); err != nil {
		return notFoundAs(err, "Cart item not found")
	}
	s.invalidate(ctx, actor.UserID)
	return nil
}

func (s *CartService) Remove(ctx context.Context, actor *model.Identity, itemID int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}
	if err := s.Cart.RemoveItem(ctx, item.ID); err != nil {
		return err
	}
	s.invalidate(ctx, actor.UserID)
	return nil
}

func (s *CartService) Clear(ctx context.Context, actor *model.Identity) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if err := s.Cart.Clear(ctx, actor.UserID); err != nil {
		return err
	}
	s.invalidate(ctx, actor.UserID)
	return nil
}

// SaveForLater moves a cart line to the saved list.
func (s *CartService) SaveForLater(ctx context.Context, actor *model.Identity, itemID int64) (int64, error) {
	if err := requireUser(actor); err != nil {
		return 0, err
	}
	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return 0, err
	}
	id, err := s.Cart.SaveForLater(ctx, item)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, actor.UserID)
	return id, nil
}

func (s *CartService) ListSaved(ctx context.Context, actor *model.Identity) ([]model.SavedItem, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.Cart.ListSaved(ctx, actor.UserID)
}

func (s *CartService) ownedSaved(ctx context.Context, actor *model.Identity, savedID int64) (*model.SavedItem, error) {
	saved, err := s.Cart.GetSaved(ctx, savedID)
	if err != nil {
		return nil, notFoundAs(err, "Saved item not found")
	}
	if saved.UserID != actor.UserID {
		return nil, Forbidden("saved item belongs to another user")
	}
	return saved, nil
}

// MoveToCart adds the saved item to the cart through Add, so the stock
// rules apply, and drops it from the saved list.
func (s *CartService) MoveToCart(ctx context.Context, actor *model.Identity, savedID int64, quantity int) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	saved, err := s.ownedSaved(ctx, actor, savedID)
	if err != nil {
		return err
	}
	if quantity == 0 {
		quantity = 1
	}
	if err := s.Add(ctx, actor, saved.ProductID, quantity, saved.Options); err != nil {
		return err
	}
	return s.Cart.RemoveSaved(ctx, saved.ID)
}

func (s *CartService) RemoveSaved(ctx context.Context, actor *model.Identity, savedID int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	saved, err := s.ownedSaved(ctx, actor, savedID)
	if err != nil {
		return err
	}
	return s.Cart.RemoveSaved(ctx, saved.ID)
}

// ToggleWishlist adds or removes the product and reports whether it is now
// on the list.
func (s *CartService) ToggleWishlist(ctx context.Context, actor *model.Identity, productID int64) (bool, error) {
	if err := requireUser(actor); err != nil {
		return false, err
	}
	if _, err := s.Products.GetByID(ctx, productID); err != nil {
		return false, notFoundAs(err, "Product not found")
	}
	return s.Cart.ToggleWishlist(ctx, actor.UserID, productID)
}

func (s *CartService) ListWishlist(ctx context.Context, actor *model.Identity) ([]model.WishlistItem, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.Cart.ListWishlist(ctx, actor.UserID)
}
