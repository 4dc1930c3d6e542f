package services

import (
	"context"
	"testing"
	"time"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/model"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	db        *memDB
	views     *cache.MemoryViews
	publisher *recordingPublisher
	mailer    *recordingMailer
	gateway   *fakeGateway

	auth          *AuthService
	products      *ProductService
	cart          *CartService
	addresses     *AddressService
	coupons       *CouponService
	orders        *OrderService
	payments      *PaymentService
	shipping      *ShippingService
	reviews       *ReviewService
	questions     *QuestionService
	giftCards     *GiftCardService
	subscriptions *SubscriptionService
	admin         *AdminService
}

type fakeDashboard struct{ db *memDB }

func (f fakeDashboard) Load(_ context.Context, threshold int) (*model.Dashboard, error) {
	defer f.db.enter()()
	d := &model.Dashboard{OrdersByStatus: map[model.OrderStatus]int{}}
	for _, o := range f.db.orders {
		d.OrderCount++
		d.OrdersByStatus[o.Status]++
		if o.Status != model.OrderCancelled {
			d.Revenue += o.Total
		}
	}
	for _, p := range f.db.products {
		d.ProductCount++
		if p.Stock <= threshold {
			d.LowStock = append(d.LowStock, *p)
		}
	}
	for _, u := range f.db.users {
		if u.Role == model.RoleCustomer {
			d.CustomerCount++
		}
	}
	return d, nil
}

const testTaxRate = 0.08

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	views := cache.NewMemoryViews(time.Minute)
	pub := &recordingPublisher{}
	mailer := &recordingMailer{}
	gw := &fakeGateway{valid: true}
	logger := zap.NewNop()

	users := fakeUsers{db}
	products := fakeProducts{db}
	cart := fakeCart{db}
	coupons := fakeCoupons{db}
	orders := fakeOrders{db}
	shipping := fakeShipping{db}

	auth := NewAuthService(users, fakeVerifications{db}, NewLocalValidator(), mailer, "http://shop.test", logger)
	auth.Cost = bcrypt.MinCost

	return &testEnv{
		db:        db,
		views:     views,
		publisher: pub,
		mailer:    mailer,
		gateway:   gw,

		auth:          auth,
		products:      NewProductService(products, fakeCategories{db}, views),
		cart:          NewCartService(cart, products, views),
		addresses:     NewAddressService(fakeAddresses{db}, views),
		coupons:       NewCouponService(coupons, users, views),
		orders:        NewOrderService(orders, cart, coupons, users, shipping, pub, mailer, views, testTaxRate, logger),
		payments:      NewPaymentService(orders, fakePayments{db}, gw, pub, views, logger),
		shipping:      NewShippingService(shipping),
		reviews:       NewReviewService(fakeReviews{db}, products, orders, views),
		questions:     NewQuestionService(fakeQuestions{db}, products),
		giftCards:     NewGiftCardService(fakeGiftCards{db}, orders, mailer, pub, views, logger),
		subscriptions: NewSubscriptionService(fakeSubscriptions{db}, mailer, "http://shop.test", logger),
		admin:         NewAdminService(users, fakeDashboard{db}, views, 5),
	}
}

func (e *testEnv) customer(email string) *model.Identity {
	u := e.db.addUser(email, model.RoleCustomer)
	return &model.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (e *testEnv) adminUser() *model.Identity {
	u := e.db.addUser("admin@shop.test", model.RoleAdmin)
	return &model.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

var testAddress = model.AddressSnapshot{
	FullName:   "Ada Lovelace",
	Line1:      "1 Analytical Way",
	City:       "London",
	PostalCode: "N1 1AA",
	Country:    "GB",
}

// orderFromQuote turns a server quote into a checkout submission.
func orderFromQuote(key string, q model.Quote) model.PlaceOrderInput {
	in := model.PlaceOrderInput{
		IdempotencyKey:  key,
		Subtotal:        q.Subtotal,
		Tax:             q.Tax,
		ShippingCost:    q.ShippingCost,
		Discount:        q.Discount,
		Total:           q.Total,
		ShippingAddress: testAddress,
		BillingAddress:  testAddress,
		ShippingMethod:  q.ShippingMethod,
		PaymentMethod:   "card",
		CouponID:        q.CouponID,
	}
	for _, l := range q.Items {
		in.Items = append(in.Items, model.LineItemInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.Price,
			Options:   l.Options,
		})
	}
	return in
}
