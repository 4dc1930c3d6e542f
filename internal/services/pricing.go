package services

import (
	"time"

	"StorefrontAPI/internal/model"

	"github.com/shopspring/decimal"
)

// tolerance is how far client-computed money may drift from the server's.
var tolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// CouponDiscount returns the discount the coupon grants on subtotal, zero
// when the coupon is unusable or the subtotal is under its minimum.
func CouponDiscount(c *model.Coupon, subtotal decimal.Decimal, now time.Time) decimal.Decimal {
	if c == nil || !c.Usable(now) {
		return decimal.Zero
	}
	if subtotal.LessThan(money(c.MinOrderAmount)) {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch c.DiscountType {
	case model.DiscountPercentage:
		d = subtotal.Mul(decimal.NewFromFloat(c.DiscountValue)).Div(hundred)
	case model.DiscountFixed:
		d = decimal.Min(money(c.DiscountValue), subtotal)
	default:
		return decimal.Zero
	}
	return d.Round(2)
}

// ShippingPrice is the rate's price, or zero once subtotal reaches the
// free-shipping threshold.
func ShippingPrice(rt *model.ShippingRate, subtotal decimal.Decimal) decimal.Decimal {
	if rt == nil {
		return decimal.Zero
	}
	if rt.FreeOver != nil && subtotal.GreaterThanOrEqual(money(*rt.FreeOver)) {
		return decimal.Zero
	}
	return money(rt.Price)
}

// ComputeQuote prices the cart lines. Tax applies to the discounted
// subtotal.
func ComputeQuote(lines []model.CartLine, coupon *model.Coupon, rate *model.ShippingRate, taxRate float64, now time.Time) model.Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(money(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	discount := CouponDiscount(coupon, subtotal, now)
	tax := subtotal.Sub(discount).Mul(decimal.NewFromFloat(taxRate)).Round(2)
	shipping := ShippingPrice(rate, subtotal)
	total := subtotal.Sub(discount).Add(tax).Add(shipping)

	q := model.Quote{
		Items:        lines,
		Subtotal:     toFloat(subtotal),
		Discount:     toFloat(discount),
		Tax:          toFloat(tax),
		ShippingCost: toFloat(shipping),
		Total:        toFloat(total),
	}
	if coupon != nil && discount.IsPositive() {
		q.CouponCode = coupon.Code
		id := coupon.ID
		q.CouponID = &id
	}
	if rate != nil {
		q.ShippingMethod = rate.Name
	}
	if q.Items == nil {
		q.Items = []model.CartLine{}
	}
	return q
}

// checkTotals verifies the client's arithmetic on a checkout submission.
func checkTotals(in model.PlaceOrderInput) error {
	for _, v := range []float64{in.Subtotal, in.Tax, in.ShippingCost, in.Discount, in.Total} {
		if v < 0 {
			return Validation("amounts must not be negative")
		}
	}

	sum := decimal.Zero
	for _, it := range in.Items {
		sum = sum.Add(money(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if sum.Sub(money(in.Subtotal)).Abs().GreaterThan(tolerance) {
		return Validation("subtotal does not match line items")
	}

	want := money(in.Subtotal).Sub(money(in.Discount)).Add(money(in.Tax)).Add(money(in.ShippingCost))
	if want.Sub(money(in.Total)).Abs().GreaterThan(tolerance) {
		return Validation("total does not match subtotal, discount, tax and shipping")
	}
	return nil
}
