package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type redeemRequest struct {
	Code    string  `json:"code"`
	Amount  float64 `json:"amount"`
	OrderID int64   `json:"order_id"`
}

func registerGiftCardRoutes(g *echo.Group, a *api) {
	g.GET("/gift-cards/:code", func(c echo.Context) error {
		st, err := a.giftCards.Check(c.Request().Context(), c.Param("code"))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", st)
	})

	g.POST("/gift-cards/redeem", func(c echo.Context) error {
		var req redeemRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		st, err := a.giftCards.Redeem(c.Request().Context(), actor(c), req.Code, req.Amount, req.OrderID)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "gift card redeemed", st)
	})
}
