package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerCouponRoutes(g *echo.Group, a *api) {
	g.POST("/cart/coupon", func(c echo.Context) error {
		var req struct {
			Code string `json:"code"`
		}
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		cp, err := a.coupons.Apply(c.Request().Context(), actor(c), req.Code)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "coupon applied", cp)
	})

	g.GET("/cart/coupon", func(c echo.Context) error {
		cp, err := a.coupons.Applied(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", cp)
	})

	g.DELETE("/cart/coupon", func(c echo.Context) error {
		if err := a.coupons.Remove(c.Request().Context(), actor(c)); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "coupon removed", nil)
	})
}
