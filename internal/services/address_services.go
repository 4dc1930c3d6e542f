package services

import (
	"context"
	"strings"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/model"
)

type AddressService struct {
	Addresses AddressStore
	Views     cache.Views
}

func NewAddressService(a AddressStore, v cache.Views) *AddressService {
	return &AddressService{Addresses: a, Views: v}
}

func validAddressType(t string) bool {
	switch t {
	case model.AddressShipping, model.AddressBilling, model.AddressBoth:
		return true
	}
	return false
}

func validateAddress(a *model.Address) error {
	a.Type = strings.ToUpper(strings.TrimSpace(a.Type))
	if !validAddressType(a.Type) {
		return Validation("type must be SHIPPING, BILLING or BOTH")
	}
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	for field, v := range map[string]string{
		"full_name":   a.FullName,
		"line1":       a.Line1,
		"city":        a.City,
		"postal_code": a.PostalCode,
		"country":     a.Country,
	} {
		if strings.TrimSpace(v) == "" {
			return Validationf("%s is required", field)
		}
	}
	return nil
}

func (s *AddressService) List(ctx context.Context, actor *model.Identity) ([]model.Address, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.Addresses.List(ctx, actor.UserID)
}

// GetDefault returns the default address serving addrType lookups.
func (s *AddressService) GetDefault(ctx context.Context, actor *model.Identity, addrType string) (*model.Address, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	addrType = strings.ToUpper(addrType)
	if addrType != model.AddressShipping && addrType != model.AddressBilling {
		return nil, Validation("type must be SHIPPING or BILLING")
	}
	a, err := s.Addresses.GetDefault(ctx, actor.UserID, addrType)
	if err != nil {
		return nil, notFoundAs(err, "No default address")
	}
	return a, nil
}

func (s *AddressService) owned(ctx context.Context, actor *model.Identity, id int64) (*model.Address, error) {
	a, err := s.Addresses.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Address not found")
	}
	if a.UserID != actor.UserID {
		return nil, Forbidden("address belongs to another user")
	}
	return a, nil
}

func (s *AddressService) Create(ctx context.Context, actor *model.Identity, a *model.Address) (int64, error) {
	if err := requireUser(actor); err != nil {
		return 0, err
	}
	if err := validateAddress(a); err != nil {
		return 0, err
	}
	a.UserID = actor.UserID
	id, err := s.Addresses.Create(ctx, a)
	if err != nil {
		return 0, err
	}
	s.Views.Invalidate(ctx, cache.CheckoutPath(actor.UserID))
	return id, nil
}

func (s *AddressService) Update(ctx context.Context, actor *model.Identity, a *model.Address) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, a.ID); err != nil {
		return err
	}
	if err := validateAddress(a); err != nil {
		return err
	}
	a.UserID = actor.UserID
	if err := s.Addresses.Update(ctx, a); err != nil {
		return notFoundAs(err, "Address not found")
	}
	s.Views.Invalidate(ctx, cache.CheckoutPath(actor.UserID))
	return nil
}

func (s *AddressService) SetDefault(ctx context.Context, actor *model.Identity, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Addresses.SetDefault(ctx, actor.UserID, id); err != nil {
		return notFoundAs(err, "Address not found")
	}
	s.Views.Invalidate(ctx, cache.CheckoutPath(actor.UserID))
	return nil
}

func (s *AddressService) Delete(ctx context.Context, actor *model.Identity, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Addresses.Delete(ctx, actor.UserID, id); err != nil {
		return notFoundAs(err, "Address not found")
	}
	s.Views.Invalidate(ctx, cache.CheckoutPath(actor.UserID))
	return nil
}
