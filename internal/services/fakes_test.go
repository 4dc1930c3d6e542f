package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"StorefrontAPI/internal/events"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// memDB is an in-memory stand-in for Postgres shared by the store fakes.
type memDB struct {
	mu     sync.Mutex
	calls  int
	nextID int64

	users         map[int64]*model.User
	verifications map[string]int64
	products      map[int64]*model.Product
	categories    map[int64]*model.Category
	cart          map[int64]*model.CartItem
	saved         map[int64]*model.SavedItem
	wishlist      map[[2]int64]time.Time
	addresses     map[int64]*model.Address
	coupons       map[int64]*model.Coupon
	orders        map[int64]*model.Order
	orderKeys     map[string]int64
	payments      []*model.Payment
	reviews       map[int64]*model.Review
	questions     map[int64]*model.Question
	giftCards     map[int64]*model.GiftCard
	giftCardTxs   []model.GiftCardTransaction
	subs          map[string]*model.Subscription
	zones         map[int64]*model.ShippingZone
	rates         map[int64]*model.ShippingRate
}

func newMemDB() *memDB {
	return &memDB{
		users:         map[int64]*model.User{},
		verifications: map[string]int64{},
		products:      map[int64]*model.Product{},
		categories:    map[int64]*model.Category{},
		cart:          map[int64]*model.CartItem{},
		saved:         map[int64]*model.SavedItem{},
		wishlist:      map[[2]int64]time.Time{},
		addresses:     map[int64]*model.Address{},
		coupons:       map[int64]*model.Coupon{},
		orders:        map[int64]*model.Order{},
		orderKeys:     map[string]int64{},
		reviews:       map[int64]*model.Review{},
		questions:     map[int64]*model.Question{},
		giftCards:     map[int64]*model.GiftCard{},
		subs:          map[string]*model.Subscription{},
		zones:         map[int64]*model.ShippingZone{},
		rates:         map[int64]*model.ShippingRate{},
	}
}

// enter locks the store and counts the call. Usage: defer d.enter()().
func (d *memDB) enter() func() {
	d.mu.Lock()
	d.calls++
	return d.mu.Unlock
}

func (d *memDB) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *memDB) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// seeding helpers, not counted as calls

func (d *memDB) addUser(email, role string) *model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := &model.User{ID: d.id(), Email: email, Name: "Test", Role: role}
	d.users[u.ID] = u
	return u
}

func (d *memDB) addProduct(title string, price float64, stock int) *model.Product {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := &model.Product{ID: d.id(), Title: title, Price: price, Stock: stock}
	d.products[p.ID] = p
	return p
}

func (d *memDB) addCoupon(c model.Coupon) *model.Coupon {
	d.mu.Lock()
	defer d.mu.Unlock()
	c.ID = d.id()
	c.Code = strings.ToUpper(c.Code)
	d.coupons[c.ID] = &c
	return &c
}

// addRate creates a zone for GB holding one flat rate.
func (d *memDB) addRate(price float64) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	z := &model.ShippingZone{ID: d.id(), Name: "UK", Countries: []string{"GB"}}
	d.zones[z.ID] = z
	rt := &model.ShippingRate{ID: d.id(), ZoneID: z.ID, Name: "Standard", Price: price, MinDays: 2, MaxDays: 4}
	d.rates[rt.ID] = rt
	return rt.ID
}

func (d *memDB) stock(id int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.products[id].Stock
}

func (d *memDB) cartLen(userID int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, it := range d.cart {
		if it.UserID == userID {
			n++
		}
	}
	return n
}

// users

type fakeUsers struct{ db *memDB }

func (f fakeUsers) Create(_ context.Context, email, hash, name, role string) (int64, error) {
	defer f.db.enter()()
	u := &model.User{ID: f.db.id(), Email: email, PasswordHash: hash, Name: name, Role: role}
	f.db.users[u.ID] = u
	return u.ID, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	defer f.db.enter()()
	for _, u := range f.db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	defer f.db.enter()()
	u, ok := f.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	defer f.db.enter()()
	for _, u := range f.db.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) UpdateName(_ context.Context, id int64, name string) error {
	defer f.db.enter()()
	u, ok := f.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Name = name
	return nil
}

func (f fakeUsers) SetEmailVerified(_ context.Context, id int64) error {
	defer f.db.enter()()
	u, ok := f.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

func (f fakeUsers) SetAppliedCoupon(_ context.Context, userID int64, couponID *int64) error {
	defer f.db.enter()()
	u, ok := f.db.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.AppliedCouponID = couponID
	return nil
}

func (f fakeUsers) HoldersOf(_ context.Context, couponID int64) ([]int64, error) {
	defer f.db.enter()()
	var ids []int64
	for _, u := range f.db.users {
		if u.AppliedCouponID != nil && *u.AppliedCouponID == couponID {
			ids = append(ids, u.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f fakeUsers) List(context.Context) ([]model.UserSummary, error) {
	defer f.db.enter()()
	var out []model.UserSummary
	for _, u := range f.db.users {
		out = append(out, model.UserSummary{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeUsers) UpdateRole(_ context.Context, id int64, role string) error {
	defer f.db.enter()()
	u, ok := f.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f fakeUsers) Delete(_ context.Context, id int64) error {
	defer f.db.enter()()
	if _, ok := f.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, o := range f.db.orders {
		if o.UserID == id {
			return repository.ErrUserHasOrders
		}
	}
	for _, g := range f.db.giftCards {
		if g.CreatedBy == id {
			return &pgconn.PgError{Code: "23503", ConstraintName: "gift_cards_created_by_fkey"}
		}
	}
	delete(f.db.users, id)
	return nil
}

type fakeVerifications struct{ db *memDB }

func (f fakeVerifications) Create(_ context.Context, userID int64, token string, _ time.Time) error {
	defer f.db.enter()()
	f.db.verifications[token] = userID
	return nil
}

func (f fakeVerifications) GetUserID(_ context.Context, token string) (int64, error) {
	defer f.db.enter()()
	id, ok := f.db.verifications[token]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (f fakeVerifications) Delete(_ context.Context, token string) error {
	defer f.db.enter()()
	delete(f.db.verifications, token)
	return nil
}

// products

type fakeProducts struct{ db *memDB }

func (f fakeProducts) Create(_ context.Context, p *model.Product) (int64, error) {
	defer f.db.enter()()
	c := *p
	c.ID = f.db.id()
	f.db.products[c.ID] = &c
	return c.ID, nil
}

func (f fakeProducts) GetByID(_ context.Context, id int64) (*model.Product, error) {
	defer f.db.enter()()
	p, ok := f.db.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f fakeProducts) List(_ context.Context, flt model.ProductFilter) ([]model.Product, int, error) {
	defer f.db.enter()()
	var out []model.Product
	for _, p := range f.db.products {
		if flt.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(flt.Query)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f fakeProducts) Update(_ context.Context, p *model.Product) error {
	defer f.db.enter()()
	if _, ok := f.db.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *p
	f.db.products[p.ID] = &c
	return nil
}

func (f fakeProducts) SetStock(_ context.Context, id int64, stock int) error {
	defer f.db.enter()()
	p, ok := f.db.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock = stock
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id int64) error {
	defer f.db.enter()()
	if _, ok := f.db.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.products, id)
	return nil
}

type fakeCategories struct{ db *memDB }

func (f fakeCategories) Create(_ context.Context, name, slug string) (int64, error) {
	defer f.db.enter()()
	c := &model.Category{ID: f.db.id(), Name: name, Slug: slug}
	f.db.categories[c.ID] = c
	return c.ID, nil
}

func (f fakeCategories) GetByID(_ context.Context, id int64) (*model.Category, error) {
	defer f.db.enter()()
	c, ok := f.db.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeCategories) List(context.Context) ([]model.Category, error) {
	defer f.db.enter()()
	var out []model.Category
	for _, c := range f.db.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeCategories) Update(_ context.Context, id int64, name, slug string) error {
	defer f.db.enter()()
	c, ok := f.db.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Name, c.Slug = name, slug
	return nil
}

func (f fakeCategories) Delete(_ context.Context, id int64) error {
	defer f.db.enter()()
	if _, ok := f.db.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.categories, id)
	return nil
}

func (f fakeCategories) ExistsByName(_ context.Context, name string) (bool, error) {
	defer f.db.enter()()
	for _, c := range f.db.categories {
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// cart

type fakeCart struct{ db *memDB }

func (f fakeCart) GetLines(_ context.Context, userID int64) ([]model.CartLine, error) {
	defer f.db.enter()()
	var out []model.CartLine
	for _, it := range f.db.cart {
		if it.UserID != userID {
			continue
		}
		p := f.db.products[it.ProductID]
		out = append(out, model.CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Title:     p.Title,
			Price:     p.Price,
			Stock:     p.Stock,
			Quantity:  it.Quantity,
			Options:   it.Options,
			LineTotal: p.Price * float64(it.Quantity),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeCart) GetItem(_ context.Context, itemID int64) (*model.CartItem, error) {
	defer f.db.enter()()
	it, ok := f.db.cart[itemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *it
	return &c, nil
}

func (f fakeCart) FindLine(_ context.Context, userID, productID int64, key string) (*model.CartItem, error) {
	defer f.db.enter()()
	for _, it := range f.db.cart {
		if it.UserID == userID && it.ProductID == productID && model.OptionsKey(it.Options) == key {
			c := *it
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeCart) UpsertLine(_ context.Context, userID, productID int64, qty int, options map[string]string) error {
	defer f.db.enter()()
	key := model.OptionsKey(options)
	for _, it := range f.db.cart {
		if it.UserID == userID && it.ProductID == productID && model.OptionsKey(it.Options) == key {
			it.Quantity = qty
			return nil
		}
	}
	it := &model.CartItem{ID: f.db.id(), UserID: userID, ProductID: productID, Quantity: qty, Options: options}
	f.db.cart[it.ID] = it
	return nil
}

func (f fakeCart) SetQuantity(_ context.Context, itemID int64, qty int) error {
	defer f.db.enter()()
	it, ok := f.db.cart[itemID]
	if !ok {
		return repository.ErrNotFound
	}
	it.Quantity = qty
	return nil
}

func (f fakeCart) RemoveItem(_ context.Context, itemID int64) error {
	defer f.db.enter()()
	delete(f.db.cart, itemID)
	return nil
}

func (f fakeCart) Clear(_ context.Context, userID int64) error {
	defer f.db.enter()()
	for id, it := range f.db.cart {
		if it.UserID == userID {
			delete(f.db.cart, id)
		}
	}
	return nil
}

func (f fakeCart) SaveForLater(_ context.Context, item *model.CartItem) (int64, error) {
	defer f.db.enter()()
	s := &model.SavedItem{ID: f.db.id(), UserID: item.UserID, ProductID: item.ProductID, Options: item.Options}
	f.db.saved[s.ID] = s
	delete(f.db.cart, item.ID)
	return s.ID, nil
}

func (f fakeCart) ListSaved(_ context.Context, userID int64) ([]model.SavedItem, error) {
	defer f.db.enter()()
	out := []model.SavedItem{}
	for _, s := range f.db.saved {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f fakeCart) GetSaved(_ context.Context, savedID int64) (*model.SavedItem, error) {
	defer f.db.enter()()
	s, ok := f.db.saved[savedID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f fakeCart) RemoveSaved(_ context.Context, savedID int64) error {
	defer f.db.enter()()
	delete(f.db.saved, savedID)
	return nil
}

func (f fakeCart) ToggleWishlist(_ context.Context, userID, productID int64) (bool, error) {
	defer f.db.enter()()
	k := [2]int64{userID, productID}
	if _, ok := f.db.wishlist[k]; ok {
		delete(f.db.wishlist, k)
		return false, nil
	}
	f.db.wishlist[k] = time.Now()
	return true, nil
}

func (f fakeCart) ListWishlist(_ context.Context, userID int64) ([]model.WishlistItem, error) {
	defer f.db.enter()()
	out := []model.WishlistItem{}
	for k, at := range f.db.wishlist {
		if k[0] != userID {
			continue
		}
		p := f.db.products[k[1]]
		out = append(out, model.WishlistItem{ProductID: p.ID, Title: p.Title, Price: p.Price, Stock: p.Stock, CreatedAt: at})
	}
	return out, nil
}

// addresses

type fakeAddresses struct{ db *memDB }

func overlaps(a, b string) bool {
	return a == b || a == model.AddressBoth || b == model.AddressBoth
}

func (f fakeAddresses) clearDefaults(userID int64, t string, except int64) {
	for _, a := range f.db.addresses {
		if a.UserID == userID && a.ID != except && a.IsDefault && overlaps(a.Type, t) {
			a.IsDefault = false
		}
	}
}

func (f fakeAddresses) List(_ context.Context, userID int64) ([]model.Address, error) {
	defer f.db.enter()()
	out := []model.Address{}
	for _, a := range f.db.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeAddresses) GetByID(_ context.Context, id int64) (*model.Address, error) {
	defer f.db.enter()()
	a, ok := f.db.addresses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f fakeAddresses) GetDefault(_ context.Context, userID int64, t string) (*model.Address, error) {
	defer f.db.enter()()
	for _, a := range f.db.addresses {
		if a.UserID == userID && a.IsDefault && overlaps(a.Type, t) {
			c := *a
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeAddresses) Create(_ context.Context, a *model.Address) (int64, error) {
	defer f.db.enter()()
	c := *a
	c.ID = f.db.id()
	first := true
	for _, x := range f.db.addresses {
		if x.UserID == a.UserID {
			first = false
		}
	}
	if first {
		c.IsDefault = true
	}
	if c.IsDefault {
		f.clearDefaults(c.UserID, c.Type, 0)
	}
	f.db.addresses[c.ID] = &c
	return c.ID, nil
}

func (f fakeAddresses) Update(_ context.Context, a *model.Address) error {
	defer f.db.enter()()
	if _, ok := f.db.addresses[a.ID]; !ok {
		return repository.ErrNotFound
	}
	if a.IsDefault {
		f.clearDefaults(a.UserID, a.Type, a.ID)
	}
	c := *a
	f.db.addresses[a.ID] = &c
	return nil
}

func (f fakeAddresses) SetDefault(_ context.Context, userID, id int64) error {
	defer f.db.enter()()
	a, ok := f.db.addresses[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	f.clearDefaults(userID, a.Type, id)
	a.IsDefault = true
	return nil
}

func (f fakeAddresses) Delete(_ context.Context, userID, id int64) error {
	defer f.db.enter()()
	a, ok := f.db.addresses[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.db.addresses, id)
	if !a.IsDefault {
		return nil
	}
	var best *model.Address
	for _, c := range f.db.addresses {
		if c.UserID != userID {
			continue
		}
		blocked := false
		for _, d := range f.db.addresses {
			if d.UserID == userID && d.IsDefault && overlaps(d.Type, c.Type) {
				blocked = true
			}
		}
		if !blocked && (best == nil || c.ID > best.ID) {
			best = c
		}
	}
	if best != nil {
		best.IsDefault = true
	}
	return nil
}

// coupons

type fakeCoupons struct{ db *memDB }

func (f fakeCoupons) Create(_ context.Context, c *model.Coupon) (int64, error) {
	defer f.db.enter()()
	cp := *c
	cp.ID = f.db.id()
	f.db.coupons[cp.ID] = &cp
	return cp.ID, nil
}

func (f fakeCoupons) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	defer f.db.enter()()
	for _, c := range f.db.coupons {
		if strings.EqualFold(c.Code, code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeCoupons) GetByID(_ context.Context, id int64) (*model.Coupon, error) {
	defer f.db.enter()()
	c, ok := f.db.coupons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeCoupons) List(context.Context) ([]model.Coupon, error) {
	defer f.db.enter()()
	var out []model.Coupon
	for _, c := range f.db.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (f fakeCoupons) Update(_ context.Context, c *model.Coupon) error {
	defer f.db.enter()()
	if _, ok := f.db.coupons[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	f.db.coupons[c.ID] = &cp
	return nil
}

func (f fakeCoupons) Delete(_ context.Context, id int64) error {
	defer f.db.enter()()
	if _, ok := f.db.coupons[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.coupons, id)
	for _, u := range f.db.users {
		if u.AppliedCouponID != nil && *u.AppliedCouponID == id {
			u.AppliedCouponID = nil
		}
	}
	return nil
}

// orders

type fakeOrders struct{ db *memDB }

func orderKey(userID int64, key string) string {
	return strconv.FormatInt(userID, 10) + "|" + key
}

func (f fakeOrders) FindByIdempotencyKey(_ context.Context, userID int64, key string) (int64, error) {
	defer f.db.enter()()
	id, ok := f.db.orderKeys[orderKey(userID, key)]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (f fakeOrders) Place(_ context.Context, userID int64, in model.PlaceOrderInput) (int64, error) {
	defer f.db.enter()()
	if _, dup := f.db.orderKeys[orderKey(userID, in.IdempotencyKey)]; dup {
		return 0, repository.ErrDuplicateOrder
	}
	wanted := map[int64]int{}
	for _, it := range in.Items {
		wanted[it.ProductID] += it.Quantity
	}
	for id, qty := range wanted {
		p, ok := f.db.products[id]
		if !ok {
			return 0, &repository.MissingProductError{ProductID: id}
		}
		if p.Stock < qty {
			return 0, &repository.StockError{ProductID: id, Title: p.Title, Available: p.Stock, Requested: qty}
		}
	}

	o := &model.Order{
		ID:              f.db.id(),
		UserID:          userID,
		Status:          model.OrderPending,
		Subtotal:        in.Subtotal,
		Tax:             in.Tax,
		ShippingCost:    in.ShippingCost,
		Discount:        in.Discount,
		Total:           in.Total,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		ShippingMethod:  in.ShippingMethod,
		PaymentMethod:   in.PaymentMethod,
		CouponID:        in.CouponID,
		PaymentStatus:   model.PaymentUnpaid,
		CreatedAt:       time.Now(),
	}
	for _, it := range in.Items {
		o.Items = append(o.Items, model.OrderItem{
			ID:        f.db.id(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Title:     f.db.products[it.ProductID].Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Options:   it.Options,
		})
	}
	for id, qty := range wanted {
		f.db.products[id].Stock -= qty
	}
	for id, it := range f.db.cart {
		if it.UserID == userID {
			delete(f.db.cart, id)
		}
	}
	if in.CouponID != nil {
		if u := f.db.users[userID]; u.AppliedCouponID != nil && *u.AppliedCouponID == *in.CouponID {
			u.AppliedCouponID = nil
		}
	}
	f.db.orders[o.ID] = o
	f.db.orderKeys[orderKey(userID, in.IdempotencyKey)] = o.ID
	return o.ID, nil
}

func (f fakeOrders) GetByID(_ context.Context, id int64) (*model.Order, error) {
	defer f.db.enter()()
	o, ok := f.db.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (f fakeOrders) ListByUser(_ context.Context, userID int64) ([]model.Order, error) {
	defer f.db.enter()()
	var out []model.Order
	for _, o := range f.db.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeOrders) List(_ context.Context, flt model.OrderListFilter) ([]model.Order, error) {
	defer f.db.enter()()
	var out []model.Order
	for _, o := range f.db.orders {
		if flt.Status == "" || o.Status == flt.Status {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeOrders) UpdateStatus(_ context.Context, id int64, status model.OrderStatus, tracking *string) error {
	defer f.db.enter()()
	o, ok := f.db.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	if tracking != nil {
		o.TrackingNumber = *tracking
	}
	return nil
}

func (f fakeOrders) Cancel(_ context.Context, id int64) error {
	defer f.db.enter()()
	o, ok := f.db.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != model.OrderPending {
		return repository.ErrNotCancellable
	}
	if f.db.openPayment(id) {
		return repository.ErrPaymentInProgress
	}
	for _, it := range o.Items {
		if p, ok := f.db.products[it.ProductID]; ok {
			p.Stock += it.Quantity
		}
	}
	o.Status = model.OrderCancelled
	return nil
}

func (f fakeOrders) StalePending(_ context.Context, cutoff time.Time) ([]int64, error) {
	defer f.db.enter()()
	var ids []int64
	for _, o := range f.db.orders {
		if o.Status == model.OrderPending && o.PaymentStatus != model.PaymentPaid && o.CreatedAt.Before(cutoff) && !f.db.openPayment(o.ID) {
			ids = append(ids, o.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f fakeOrders) RedeemedTotal(_ context.Context, orderID int64) (float64, error) {
	defer f.db.enter()()
	return f.db.redeemed(orderID), nil
}

func (f fakeOrders) HasDeliveredPurchase(_ context.Context, userID, productID int64) (bool, error) {
	defer f.db.enter()()
	for _, o := range f.db.orders {
		if o.UserID != userID || o.Status != model.OrderDelivered {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// payments

type fakePayments struct{ db *memDB }

func (f fakePayments) CreatePending(_ context.Context, orderID int64, amount float64, provider, ref string, payload []byte) (int64, error) {
	defer f.db.enter()()
	p := &model.Payment{
		ID:              f.db.id(),
		OrderID:         orderID,
		Amount:          amount,
		Status:          model.PaymentStatusPending,
		Provider:        provider,
		ProviderRef:     ref,
		ProviderPayload: payload,
	}
	f.db.payments = append(f.db.payments, p)
	return p.ID, nil
}

func (f fakePayments) LatestByOrderID(_ context.Context, orderID int64) (*model.Payment, error) {
	defer f.db.enter()()
	for i := len(f.db.payments) - 1; i >= 0; i-- {
		if p := f.db.payments[i]; p.OrderID == orderID {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (d *memDB) openPayment(orderID int64) bool {
	for _, p := range d.payments {
		if p.OrderID == orderID && p.Status == model.PaymentStatusPending {
			return true
		}
	}
	return false
}

func (f fakePayments) setStatus(ref, status string) {
	for _, p := range f.db.payments {
		if p.ProviderRef == ref && p.Status == model.PaymentStatusPending {
			p.Status = status
		}
	}
}

func (f fakePayments) Settle(_ context.Context, orderID int64, ref string, _ []byte) error {
	defer f.db.enter()()
	o := f.db.orders[orderID]
	if o.Status == model.OrderCancelled {
		return repository.ErrNotPayable
	}
	f.setStatus(ref, model.PaymentStatusPaid)
	o.PaymentStatus = model.PaymentPaid
	if o.Status == model.OrderPending {
		o.Status = model.OrderProcessing
	}
	return nil
}

func (f fakePayments) Fail(_ context.Context, orderID int64, ref string, _ []byte) error {
	defer f.db.enter()()
	f.setStatus(ref, model.PaymentStatusFailed)
	if o := f.db.orders[orderID]; o.PaymentStatus != model.PaymentPaid {
		o.PaymentStatus = model.PaymentFailed
	}
	return nil
}

// shipping

type fakeShipping struct{ db *memDB }

func (f fakeShipping) CreateZone(_ context.Context, z *model.ShippingZone) (int64, error) {
	defer f.db.enter()()
	c := *z
	c.ID = f.db.id()
	f.db.zones[c.ID] = &c
	return c.ID, nil
}

func (f fakeShipping) UpdateZone(_ context.Context, z *model.ShippingZone) error {
	defer f.db.enter()()
	if _, ok := f.db.zones[z.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *z
	f.db.zones[z.ID] = &c
	return nil
}

func (f fakeShipping) DeleteZone(_ context.Context, id int64) error {
	defer f.db.enter()()
	if _, ok := f.db.zones[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.zones, id)
	return nil
}

func (f fakeShipping) ListZones(context.Context) ([]model.ShippingZone, error) {
	defer f.db.enter()()
	var out []model.ShippingZone
	for _, z := range f.db.zones {
		out = append(out, *z)
	}
	return out, nil
}

func (f fakeShipping) ZoneForCountry(_ context.Context, country string) (*model.ShippingZone, error) {
	defer f.db.enter()()
	var fallback *model.ShippingZone
	for _, z := range f.db.zones {
		for _, c := range z.Countries {
			if strings.EqualFold(c, country) {
				cp := *z
				return &cp, nil
			}
		}
		if z.Name == model.RestOfWorldZone {
			fallback = z
		}
	}
	if fallback == nil {
		return nil, repository.ErrNotFound
	}
	cp := *fallback
	return &cp, nil
}

func (f fakeShipping) CreateRate(_ context.Context, rt *model.ShippingRate) (int64, error) {
	defer f.db.enter()()
	c := *rt
	c.ID = f.db.id()
	f.db.rates[c.ID] = &c
	return c.ID, nil
}

func (f fakeShipping) UpdateRate(_ context.Context, rt *model.ShippingRate) error {
	defer f.db.enter()()
	if _, ok := f.db.rates[rt.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *rt
	f.db.rates[rt.ID] = &c
	return nil
}

func (f fakeShipping) DeleteRate(_ context.Context, id int64) error {
	defer f.db.enter()()
	if _, ok := f.db.rates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.rates, id)
	return nil
}

func (f fakeShipping) GetRate(_ context.Context, id int64) (*model.ShippingRate, error) {
	defer f.db.enter()()
	rt, ok := f.db.rates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *rt
	return &c, nil
}

func (f fakeShipping) RatesForZone(_ context.Context, zoneID int64) ([]model.ShippingRate, error) {
	defer f.db.enter()()
	var out []model.ShippingRate
	for _, rt := range f.db.rates {
		if rt.ZoneID == zoneID {
			out = append(out, *rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

// reviews

type fakeReviews struct{ db *memDB }

func (f fakeReviews) recompute(productID int64) model.RatingSummary {
	sum, n := 0, 0
	for _, rv := range f.db.reviews {
		if rv.ProductID == productID {
			sum += rv.Rating
			n++
		}
	}
	s := model.RatingSummary{ReviewCount: n}
	if n > 0 {
		s.Rating = float64(sum) / float64(n)
	}
	if p, ok := f.db.products[productID]; ok {
		p.Rating, p.ReviewCount = s.Rating, s.ReviewCount
	}
	return s
}

func (f fakeReviews) Upsert(_ context.Context, rv *model.Review) (int64, model.RatingSummary, error) {
	defer f.db.enter()()
	for _, x := range f.db.reviews {
		if x.UserID == rv.UserID && x.ProductID == rv.ProductID {
			x.Rating, x.Title, x.Body, x.Verified = rv.Rating, rv.Title, rv.Body, rv.Verified
			return x.ID, f.recompute(rv.ProductID), nil
		}
	}
	c := *rv
	c.ID = f.db.id()
	f.db.reviews[c.ID] = &c
	return c.ID, f.recompute(rv.ProductID), nil
}

func (f fakeReviews) GetByID(_ context.Context, id int64) (*model.Review, error) {
	defer f.db.enter()()
	rv, ok := f.db.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *rv
	return &c, nil
}

func (f fakeReviews) Delete(_ context.Context, id int64) (model.RatingSummary, error) {
	defer f.db.enter()()
	rv, ok := f.db.reviews[id]
	if !ok {
		return model.RatingSummary{}, repository.ErrNotFound
	}
	delete(f.db.reviews, id)
	return f.recompute(rv.ProductID), nil
}

func (f fakeReviews) ListByProduct(_ context.Context, productID int64) ([]model.Review, error) {
	defer f.db.enter()()
	var out []model.Review
	for _, rv := range f.db.reviews {
		if rv.ProductID == productID {
			out = append(out, *rv)
		}
	}
	return out, nil
}

// questions

type fakeQuestions struct{ db *memDB }

func (f fakeQuestions) Create(_ context.Context, productID, userID int64, body string) (int64, error) {
	defer f.db.enter()()
	q := &model.Question{ID: f.db.id(), ProductID: productID, UserID: userID, Body: body, Answers: []model.Answer{}}
	f.db.questions[q.ID] = q
	return q.ID, nil
}

func (f fakeQuestions) GetByID(_ context.Context, id int64) (*model.Question, error) {
	defer f.db.enter()()
	q, ok := f.db.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *q
	return &c, nil
}

func (f fakeQuestions) Answer(_ context.Context, questionID, userID int64, body string, official bool) (int64, error) {
	defer f.db.enter()()
	q, ok := f.db.questions[questionID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	a := model.Answer{ID: f.db.id(), QuestionID: questionID, UserID: userID, Body: body, IsOfficial: official}
	q.Answers = append(q.Answers, a)
	return a.ID, nil
}

func (f fakeQuestions) ListByProduct(_ context.Context, productID int64) ([]model.Question, error) {
	defer f.db.enter()()
	var out []model.Question
	for _, q := range f.db.questions {
		if q.ProductID == productID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f fakeQuestions) Delete(_ context.Context, id int64) error {
	defer f.db.enter()()
	if _, ok := f.db.questions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.questions, id)
	return nil
}

// gift cards

type fakeGiftCards struct{ db *memDB }

func (f fakeGiftCards) Create(_ context.Context, g *model.GiftCard) (int64, error) {
	defer f.db.enter()()
	c := *g
	c.ID = f.db.id()
	f.db.giftCards[c.ID] = &c
	return c.ID, nil
}

func (f fakeGiftCards) byCode(code string) *model.GiftCard {
	for _, g := range f.db.giftCards {
		if strings.EqualFold(g.Code, code) {
			return g
		}
	}
	return nil
}

func (f fakeGiftCards) GetByCode(_ context.Context, code string) (*model.GiftCard, error) {
	defer f.db.enter()()
	g := f.byCode(code)
	if g == nil {
		return nil, repository.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (f fakeGiftCards) List(context.Context) ([]model.GiftCard, error) {
	defer f.db.enter()()
	var out []model.GiftCard
	for _, g := range f.db.giftCards {
		out = append(out, *g)
	}
	return out, nil
}

func (f fakeGiftCards) Deactivate(_ context.Context, id int64) error {
	defer f.db.enter()()
	g, ok := f.db.giftCards[id]
	if !ok {
		return repository.ErrNotFound
	}
	g.IsActive = false
	return nil
}

func (f fakeGiftCards) Redeem(_ context.Context, code string, amount float64, orderID int64, now time.Time) (*repository.Redemption, error) {
	defer f.db.enter()()
	o, ok := f.db.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if o.Status != model.OrderPending || o.PaymentStatus == model.PaymentPaid {
		return nil, repository.ErrNotRedeemable
	}
	if f.db.openPayment(orderID) {
		return nil, repository.ErrPaymentInProgress
	}
	g := f.byCode(code)
	if g == nil {
		return nil, repository.ErrNotFound
	}
	if !g.Usable(now) {
		return nil, repository.ErrGiftCardUnusable
	}
	if g.Balance < amount {
		return nil, repository.ErrGiftCardInsufficient
	}
	due := o.Total - f.db.redeemed(orderID)
	if amount > due+0.001 {
		return nil, repository.ErrExceedsAmountDue
	}
	g.Balance -= amount
	oid := orderID
	f.db.giftCardTxs = append(f.db.giftCardTxs, model.GiftCardTransaction{ID: f.db.id(), GiftCardID: g.ID, OrderID: &oid, Amount: amount})
	left := due - amount
	paid := left < 0.005
	if paid {
		o.PaymentStatus = model.PaymentPaid
		o.Status = model.OrderProcessing
		left = 0
	}
	c := *g
	return &repository.Redemption{Card: &c, AmountDue: left, OrderPaid: paid}, nil
}

func (d *memDB) redeemed(orderID int64) float64 {
	var sum float64
	for _, t := range d.giftCardTxs {
		if t.OrderID != nil && *t.OrderID == orderID {
			sum += t.Amount
		}
	}
	return sum
}

func (f fakeGiftCards) Transactions(_ context.Context, id int64) ([]model.GiftCardTransaction, error) {
	defer f.db.enter()()
	var out []model.GiftCardTransaction
	for _, t := range f.db.giftCardTxs {
		if t.GiftCardID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

// subscriptions

type fakeSubscriptions struct{ db *memDB }

func (f fakeSubscriptions) Subscribe(_ context.Context, email string, userID *int64, token string) (*model.Subscription, error) {
	defer f.db.enter()()
	if s, ok := f.db.subs[email]; ok {
		s.Status = model.SubscriptionActive
		c := *s
		return &c, nil
	}
	s := &model.Subscription{ID: f.db.id(), Email: email, UserID: userID, Status: model.SubscriptionActive, Token: token}
	f.db.subs[email] = s
	c := *s
	return &c, nil
}

func (f fakeSubscriptions) Unsubscribe(_ context.Context, token string) error {
	defer f.db.enter()()
	for _, s := range f.db.subs {
		if s.Token == token {
			s.Status = model.SubscriptionUnsubscribed
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f fakeSubscriptions) List(_ context.Context, status string) ([]model.Subscription, error) {
	defer f.db.enter()()
	var out []model.Subscription
	for _, s := range f.db.subs {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

// collaborators

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingMailer struct {
	NopSender
	mu           sync.Mutex
	verification []string
	orders       []int64
	giftCards    []string
	welcomes     []string
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, _, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verification = append(m.verification, url)
	return nil
}

func (m *recordingMailer) SendOrderConfirmation(_ context.Context, _ string, orderID int64, _ float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, orderID)
	return nil
}

func (m *recordingMailer) SendGiftCard(_ context.Context, _, code string, _ float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.giftCards = append(m.giftCards, code)
	return nil
}

func (m *recordingMailer) SendNewsletterWelcome(_ context.Context, _, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, url)
	return nil
}

type fakeGateway struct {
	refs    []string
	grosses []int64
	valid   bool
}

func (g *fakeGateway) Provider() string { return "fake" }

func (g *fakeGateway) CreateRedirect(_ context.Context, ref string, gross int64, _, _ string) (string, []byte, error) {
	g.refs = append(g.refs, ref)
	g.grosses = append(g.grosses, gross)
	return "https://pay.example/" + ref, []byte(`{}`), nil
}

func (g *fakeGateway) VerifySignature(_, _, _, _ string) bool { return g.valid }
