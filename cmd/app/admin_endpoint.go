package main

import (
	"net/http"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/services"

	"github.com/labstack/echo/v4"
)

type statusRequest struct {
	Status         model.OrderStatus `json:"status"`
	TrackingNumber *string           `json:"tracking_number"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func registerAdminRoutes(g *echo.Group, a *api) {
	// catalog
	g.POST("/products", a.createProduct)
	g.PUT("/products/:id", a.updateProduct)
	g.PATCH("/products/:id/stock", a.updateStock)
	g.DELETE("/products/:id", a.deleteProduct)
	g.POST("/categories", a.createCategory)
	g.PUT("/categories/:id", a.updateCategory)
	g.DELETE("/categories/:id", a.deleteCategory)

	registerAdminCouponRoutes(g, a)
	registerAdminOrderRoutes(g, a)
	registerAdminGiftCardRoutes(g, a)
	registerAdminShippingRoutes(g, a)

	g.GET("/subscriptions", func(c echo.Context) error {
		out, err := a.subscriptions.List(c.Request().Context(), actor(c), c.QueryParam("status"))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	// users
	g.GET("/users", func(c echo.Context) error {
		out, err := a.admin.ListUsers(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	g.PATCH("/users/:id/role", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid user id")
		}
		var req roleRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		if err := a.admin.UpdateUserRole(c.Request().Context(), actor(c), id, req.Role); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "role updated", nil)
	})

	g.DELETE("/users/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid user id")
		}
		if err := a.admin.DeleteUser(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "user deleted", nil)
	})

	g.GET("/dashboard", func(c echo.Context) error {
		d, err := a.admin.GetDashboard(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", d)
	})
}

func registerAdminCouponRoutes(g *echo.Group, a *api) {
	g.GET("/coupons", func(c echo.Context) error {
		out, err := a.coupons.List(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	g.POST("/coupons", func(c echo.Context) error {
		var cp model.Coupon
		if err := c.Bind(&cp); err != nil {
			return badRequest(c, "invalid request")
		}
		id, err := a.coupons.Create(c.Request().Context(), actor(c), &cp)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusCreated, "coupon created", echo.Map{"id": id})
	})

	g.PUT("/coupons/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid coupon id")
		}
		var cp model.Coupon
		if err := c.Bind(&cp); err != nil {
			return badRequest(c, "invalid request")
		}
		cp.ID = id
		if err := a.coupons.Update(c.Request().Context(), actor(c), &cp); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "coupon updated", nil)
	})

	g.DELETE("/coupons/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid coupon id")
		}
		if err := a.coupons.Delete(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "coupon deleted", nil)
	})
}

func registerAdminOrderRoutes(g *echo.Group, a *api) {
	g.GET("/orders", func(c echo.Context) error {
		f := model.OrderListFilter{
			Status: model.OrderStatus(c.QueryParam("status")),
			Limit:  queryInt(c, "limit", 0),
			Offset: queryInt(c, "offset", 0),
		}
		out, err := a.orders.List(c.Request().Context(), actor(c), f)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	g.PATCH("/orders/:id/status", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid order id")
		}
		var req statusRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		o, err := a.orders.UpdateStatus(c.Request().Context(), actor(c), id, req.Status, req.TrackingNumber)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "order status updated", o)
	})
}

func registerAdminGiftCardRoutes(g *echo.Group, a *api) {
	g.GET("/gift-cards", func(c echo.Context) error {
		out, err := a.giftCards.List(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	g.POST("/gift-cards", func(c echo.Context) error {
		var in services.GiftCardInput
		if err := c.Bind(&in); err != nil {
			return badRequest(c, "invalid request")
		}
		card, err := a.giftCards.Create(c.Request().Context(), actor(c), in)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusCreated, "gift card created", card)
	})

	g.POST("/gift-cards/:id/deactivate", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid gift card id")
		}
		if err := a.giftCards.Deactivate(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "gift card deactivated", nil)
	})

	g.GET("/gift-cards/:id/transactions", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid gift card id")
		}
		out, err := a.giftCards.Transactions(c.Request().Context(), actor(c), id)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})
}

func registerAdminShippingRoutes(g *echo.Group, a *api) {
	g.GET("/shipping/zones", func(c echo.Context) error {
		out, err := a.shipping.ListZones(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	g.POST("/shipping/zones", func(c echo.Context) error {
		var z model.ShippingZone
		if err := c.Bind(&z); err != nil {
			return badRequest(c, "invalid request")
		}
		id, err := a.shipping.CreateZone(c.Request().Context(), actor(c), &z)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusCreated, "zone created", echo.Map{"id": id})
	})

	g.PUT("/shipping/zones/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid zone id")
		}
		var z model.ShippingZone
		if err := c.Bind(&z); err != nil {
			return badRequest(c, "invalid request")
		}
		z.ID = id
		if err := a.shipping.UpdateZone(c.Request().Context(), actor(c), &z); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "zone updated", nil)
	})

	g.DELETE("/shipping/zones/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid zone id")
		}
		if err := a.shipping.DeleteZone(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "zone deleted", nil)
	})

	g.POST("/shipping/zones/:id/rates", func(c echo.Context) error {
		zoneID, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid zone id")
		}
		var rt model.ShippingRate
		if err := c.Bind(&rt); err != nil {
			return badRequest(c, "invalid request")
		}
		rt.ZoneID = zoneID
		id, err := a.shipping.CreateRate(c.Request().Context(), actor(c), &rt)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusCreated, "rate created", echo.Map{"id": id})
	})

	g.PUT("/shipping/rates/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid rate id")
		}
		var rt model.ShippingRate
		if err := c.Bind(&rt); err != nil {
			return badRequest(c, "invalid request")
		}
		rt.ID = id
		if err := a.shipping.UpdateRate(c.Request().Context(), actor(c), &rt); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "rate updated", nil)
	})

	g.DELETE("/shipping/rates/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid rate id")
		}
		if err := a.shipping.DeleteRate(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "rate deleted", nil)
	})
}
