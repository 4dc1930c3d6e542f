package services

import (
	"context"
	"time"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"
)

// Store interfaces are satisfied by the repository package; tests use
// in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (int64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateName(ctx context.Context, id int64, name string) error
	SetEmailVerified(ctx context.Context, id int64) error
}

type VerificationStore interface {
	Create(ctx context.Context, userID int64, token string, exp time.Time) error
	GetUserID(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}

type ProductStore interface {
	Create(ctx context.Context, p *model.Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error)
	Update(ctx context.Context, p *model.Product) error
	SetStock(ctx context.Context, id int64, stock int) error
	Delete(ctx context.Context, id int64) error
}

type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

type CategoryStore interface {
	Create(ctx context.Context, name, slug string) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, id int64, name, slug string) error
	Delete(ctx context.Context, id int64) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type CartStore interface {
	GetLines(ctx context.Context, userID int64) ([]model.CartLine, error)
	GetItem(ctx context.Context, itemID int64) (*model.CartItem, error)
	FindLine(ctx context.Context, userID, productID int64, optionsKey string) (*model.CartItem, error)
	UpsertLine(ctx context.Context, userID, productID int64, qty int, options map[string]string) error
	SetQuantity(ctx context.Context, itemID int64, qty int) error
	RemoveItem(ctx context.Context, itemID int64) error
	Clear(ctx context.Context, userID int64) error
	SaveForLater(ctx context.Context, item *model.CartItem) (int64, error)
	ListSaved(ctx context.Context, userID int64) ([]model.SavedItem, error)
	GetSaved(ctx context.Context, savedID int64) (*model.SavedItem, error)
	RemoveSaved(ctx context.Context, savedID int64) error
	ToggleWishlist(ctx context.Context, userID, productID int64) (bool, error)
	ListWishlist(ctx context.Context, userID int64) ([]model.WishlistItem, error)
}

type AddressStore interface {
	List(ctx context.Context, userID int64) ([]model.Address, error)
	GetByID(ctx context.Context, id int64) (*model.Address, error)
	GetDefault(ctx context.Context, userID int64, addrType string) (*model.Address, error)
	Create(ctx context.Context, a *model.Address) (int64, error)
	Update(ctx context.Context, a *model.Address) error
	SetDefault(ctx context.Context, userID, addressID int64) error
	Delete(ctx context.Context, userID, addressID int64) error
}

type CouponStore interface {
	Create(ctx context.Context, c *model.Coupon) (int64, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByID(ctx context.Context, id int64) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	Update(ctx context.Context, c *model.Coupon) error
	Delete(ctx context.Context, id int64) error
}

type CouponHolder interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetAppliedCoupon(ctx context.Context, userID int64, couponID *int64) error
	HoldersOf(ctx context.Context, couponID int64) ([]int64, error)
}

type OrderStore interface {
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (int64, error)
	Place(ctx context.Context, userID int64, in model.PlaceOrderInput) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	List(ctx context.Context, f model.OrderListFilter) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus, tracking *string) error
	Cancel(ctx context.Context, orderID int64) error
	StalePending(ctx context.Context, cutoff time.Time) ([]int64, error)
}

type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	RedeemedTotal(ctx context.Context, orderID int64) (float64, error)
}

type PaymentStore interface {
	CreatePending(ctx context.Context, orderID int64, amount float64, provider, providerRef string, payload []byte) (int64, error)
	LatestByOrderID(ctx context.Context, orderID int64) (*model.Payment, error)
	Settle(ctx context.Context, orderID int64, providerRef string, payload []byte) error
	Fail(ctx context.Context, orderID int64, providerRef string, payload []byte) error
}

type ShippingStore interface {
	CreateZone(ctx context.Context, z *model.ShippingZone) (int64, error)
	UpdateZone(ctx context.Context, z *model.ShippingZone) error
	DeleteZone(ctx context.Context, id int64) error
	ListZones(ctx context.Context) ([]model.ShippingZone, error)
	ZoneForCountry(ctx context.Context, country string) (*model.ShippingZone, error)
	CreateRate(ctx context.Context, rt *model.ShippingRate) (int64, error)
	UpdateRate(ctx context.Context, rt *model.ShippingRate) error
	DeleteRate(ctx context.Context, id int64) error
	GetRate(ctx context.Context, id int64) (*model.ShippingRate, error)
	RatesForZone(ctx context.Context, zoneID int64) ([]model.ShippingRate, error)
}

type ReviewStore interface {
	Upsert(ctx context.Context, rv *model.Review) (int64, model.RatingSummary, error)
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	Delete(ctx context.Context, id int64) (model.RatingSummary, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.Review, error)
}

type PurchaseChecker interface {
	HasDeliveredPurchase(ctx context.Context, userID, productID int64) (bool, error)
}

type QuestionStore interface {
	Create(ctx context.Context, productID, userID int64, body string) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Question, error)
	Answer(ctx context.Context, questionID, userID int64, body string, official bool) (int64, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.Question, error)
	Delete(ctx context.Context, id int64) error
}

type GiftCardStore interface {
	Create(ctx context.Context, g *model.GiftCard) (int64, error)
	GetByCode(ctx context.Context, code string) (*model.GiftCard, error)
	List(ctx context.Context) ([]model.GiftCard, error)
	Deactivate(ctx context.Context, id int64) error
	Redeem(ctx context.Context, code string, amount float64, orderID int64, now time.Time) (*repository.Redemption, error)
	Transactions(ctx context.Context, giftCardID int64) ([]model.GiftCardTransaction, error)
}

type SubscriptionStore interface {
	Subscribe(ctx context.Context, email string, userID *int64, token string) (*model.Subscription, error)
	Unsubscribe(ctx context.Context, token string) error
	List(ctx context.Context, status string) ([]model.Subscription, error)
}

type UserAdminStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.UserSummary, error)
	UpdateRole(ctx context.Context, id int64, role string) error
	Delete(ctx context.Context, id int64) error
}

type DashboardStore interface {
	Load(ctx context.Context, lowStockThreshold int) (*model.Dashboard, error)
}
