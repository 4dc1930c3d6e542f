package main

import (
	"net/http"

	"StorefrontAPI/internal/model"

	"github.com/labstack/echo/v4"
)

const idempotencyHeader = "Idempotency-Key"

func (a *api) quote(c echo.Context) error {
	q, err := a.orders.Quote(c.Request().Context(), actor(c), queryID(c, "shipping_rate_id"))
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "", q)
}

func (a *api) placeOrder(c echo.Context) error {
	var in model.PlaceOrderInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request")
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = c.Request().Header.Get(idempotencyHeader)
	}
	res, err := a.orders.Place(c.Request().Context(), actor(c), in)
	if err != nil {
		return a.fail(c, err)
	}
	if res.Replayed {
		return ok(c, http.StatusOK, "order already placed", res)
	}
	return ok(c, http.StatusCreated, "order placed", res)
}

func registerOrderRoutes(g *echo.Group, a *api) {
	g.GET("/checkout/quote", a.quote)
	g.POST("/checkout/orders", a.placeOrder)

	g.GET("/account/orders", func(c echo.Context) error {
		out, err := a.orders.ListMine(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	g.GET("/orders/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid order id")
		}
		o, err := a.orders.Get(c.Request().Context(), actor(c), id)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", o)
	})

	g.POST("/orders/:id/cancel", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid order id")
		}
		if err := a.orders.Cancel(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "order cancelled", nil)
	})
}
