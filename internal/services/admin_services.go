package services

import (
	"context"
	"errors"
	"strconv"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"
)

type AdminService struct {
	Users     UserAdminStore
	Dashboard DashboardStore
	Views     cache.Views

	LowStockThreshold int
}

func NewAdminService(u UserAdminStore, d DashboardStore, v cache.Views, lowStock int) *AdminService {
	return &AdminService{Users: u, Dashboard: d, Views: v, LowStockThreshold: lowStock}
}

func (s *AdminService) ListUsers(ctx context.Context, actor *model.Identity) ([]model.UserSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.UserSummary{}
	}
	return out, nil
}

// UpdateUserRole changes a user's role. Admins cannot demote themselves.
func (s *AdminService) UpdateUserRole(ctx context.Context, actor *model.Identity, userID int64, role string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if role != model.RoleCustomer && role != model.RoleAdmin {
		return Validationf("unknown role %q", role)
	}
	if userID == actor.UserID && role != model.RoleAdmin {
		return Business("You cannot remove your own admin role")
	}
	if err := s.Users.UpdateRole(ctx, userID, role); err != nil {
		return notFoundAs(err, "User not found")
	}
	s.Views.Invalidate(ctx, cache.DashboardPath())
	return nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor *model.Identity, userID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.UserID {
		return Business("You cannot delete your own account")
	}
	if err := s.Users.Delete(ctx, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserHasOrders):
			return Conflict("User has orders and cannot be deleted")
		case repository.IsForeignKeyViolation(err):
			return Conflict("User is still referenced by other records and cannot be deleted")
		}
		return notFoundAs(err, "User not found")
	}
	s.Views.Invalidate(ctx, cache.DashboardPath())
	return nil
}

func (s *AdminService) GetDashboard(ctx context.Context, actor *model.Identity) (*model.Dashboard, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	variant := "low=" + strconv.Itoa(s.LowStockThreshold)
	return cache.Load(ctx, s.Views, cache.DashboardPath(), variant, func(ctx context.Context) (*model.Dashboard, error) {
		return s.Dashboard.Load(ctx, s.LowStockThreshold)
	})
}
