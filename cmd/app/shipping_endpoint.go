package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerShippingRoutes(g *echo.Group, a *api) {
	g.GET("/shipping/rates", func(c echo.Context) error {
		var subtotal float64
		if v := queryFloat(c, "subtotal"); v != nil {
			subtotal = *v
		}
		out, err := a.shipping.RatesFor(c.Request().Context(), c.QueryParam("country"), subtotal)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})
}
