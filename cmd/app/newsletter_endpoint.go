package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerNewsletterRoutes(g *echo.Group, a *api) {
	g.POST("/newsletter/subscribe", func(c echo.Context) error {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		sub, err := a.subscriptions.Subscribe(c.Request().Context(), actor(c), req.Email)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "subscribed", echo.Map{"email": sub.Email, "status": sub.Status})
	})

	// linked from the welcome mail, hence GET
	g.GET("/newsletter/unsubscribe", func(c echo.Context) error {
		if err := a.subscriptions.Unsubscribe(c.Request().Context(), c.QueryParam("token")); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "unsubscribed", nil)
	})
}
