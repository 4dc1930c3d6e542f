package services

import (
	"errors"
	"fmt"
	"testing"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Unauthorized())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, "authentication required", Message(err))

	assert.False(t, errors.Is(Forbidden("nope"), ErrUnauthorized))
	assert.Equal(t, Kind(0), KindOf(errors.New("boom")))
	assert.Equal(t, "", Message(errors.New("boom")))
}

func TestNotFoundAs(t *testing.T) {
	err := notFoundAs(repository.ErrNotFound, "Order not found")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Order not found", Message(err))

	other := errors.New("conn reset")
	assert.Same(t, other, notFoundAs(other, "x"))
}

func TestAccessChecks(t *testing.T) {
	customer := &model.Identity{UserID: 1, Role: model.RoleCustomer}
	admin := &model.Identity{UserID: 2, Role: model.RoleAdmin}

	assert.ErrorIs(t, requireUser(nil), ErrUnauthorized)
	assert.NoError(t, requireUser(customer))

	assert.ErrorIs(t, requireAdmin(nil), ErrUnauthorized)
	assert.Equal(t, KindForbidden, KindOf(requireAdmin(customer)))
	assert.NoError(t, requireAdmin(admin))

	assert.NoError(t, requireOwner(customer, 1, "x"))
	assert.NoError(t, requireOwner(admin, 1, "x"))
	assert.Equal(t, KindForbidden, KindOf(requireOwner(customer, 3, "x")))
	assert.ErrorIs(t, requireOwner(nil, 1, "x"), ErrUnauthorized)
}
