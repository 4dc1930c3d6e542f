package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"
)

type CouponService struct {
	Coupons CouponStore
	Users   CouponHolder
	Views   cache.Views
	Now     func() time.Time
}

func NewCouponService(c CouponStore, u CouponHolder, v cache.Views) *CouponService {
	return &CouponService{Coupons: c, Users: u, Views: v, Now: time.Now}
}

// Apply attaches the coupon to the user, replacing any earlier one. The
// code matches case-insensitively. Unknown, inactive or expired codes
// leave the user untouched.
func (s *CouponService) Apply(ctx context.Context, actor *model.Identity, code string) (*model.Coupon, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, Validation("coupon code is required")
	}
	c, err := s.Coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, notFoundAsBusiness(err, "Invalid coupon code")
	}
	if !c.IsActive {
		return nil, Business("Coupon is no longer active")
	}
	if !c.Usable(s.Now()) {
		return nil, Business("Coupon has expired")
	}
	id := c.ID
	if err := s.Users.SetAppliedCoupon(ctx, actor.UserID, &id); err != nil {
		return nil, err
	}
	s.Views.Invalidate(ctx, cache.CheckoutPath(actor.UserID))
	return c, nil
}

func notFoundAsBusiness(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return Business(msg)
	}
	return err
}

func (s *CouponService) Remove(ctx context.Context, actor *model.Identity) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if err := s.Users.SetAppliedCoupon(ctx, actor.UserID, nil); err != nil {
		return err
	}
	s.Views.Invalidate(ctx, cache.CheckoutPath(actor.UserID))
	return nil
}

// Applied returns the user's coupon, or nil when none is attached.
func (s *CouponService) Applied(ctx context.Context, actor *model.Identity) (*model.Coupon, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, "user not found")
	}
	if u.AppliedCouponID == nil {
		return nil, nil
	}
	c, err := s.Coupons.GetByID(ctx, *u.AppliedCouponID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func validateCoupon(c *model.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return Validation("code is required")
	}
	switch c.DiscountType {
	case model.DiscountPercentage:
		if c.DiscountValue <= 0 || c.DiscountValue > 100 {
			return Validation("percentage discount must be in (0, 100]")
		}
	case model.DiscountFixed:
		if c.DiscountValue <= 0 {
			return Validation("fixed discount must be > 0")
		}
	default:
		return Validation("discount_type must be percentage or fixed")
	}
	if c.MinOrderAmount < 0 {
		return Validation("min_order_amount must be >= 0")
	}
	return nil
}

func (s *CouponService) Create(ctx context.Context, actor *model.Identity, c *model.Coupon) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if err := validateCoupon(c); err != nil {
		return 0, err
	}
	id, err := s.Coupons.Create(ctx, c)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return 0, Conflict("coupon code already exists")
		}
		return 0, err
	}
	return id, nil
}

func (s *CouponService) List(ctx context.Context, actor *model.Identity) ([]model.Coupon, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Coupons.List(ctx)
}

func (s *CouponService) Update(ctx context.Context, actor *model.Identity, c *model.Coupon) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := validateCoupon(c); err != nil {
		return err
	}
	holders, err := s.Users.HoldersOf(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := s.Coupons.Update(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return Conflict("coupon code already exists")
		}
		return notFoundAs(err, "Coupon not found")
	}
	s.invalidateHolders(ctx, holders)
	return nil
}

func (s *CouponService) Delete(ctx context.Context, actor *model.Identity, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	holders, err := s.Users.HoldersOf(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Coupons.Delete(ctx, id); err != nil {
		return notFoundAs(err, "Coupon not found")
	}
	s.invalidateHolders(ctx, holders)
	return nil
}

// invalidateHolders drops the cached quotes of users holding a changed coupon.
func (s *CouponService) invalidateHolders(ctx context.Context, userIDs []int64) {
	if len(userIDs) == 0 {
		return
	}
	paths := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		paths = append(paths, cache.CheckoutPath(id))
	}
	s.Views.Invalidate(ctx, paths...)
}
