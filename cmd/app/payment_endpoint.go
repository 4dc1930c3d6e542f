package main

import (
	"net/http"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func registerPaymentRoutes(g *echo.Group, a *api) {
	p := g.Group("/payments")

	// ============================
	// GATEWAY NOTIFICATION
	// (public; always 200 or the gateway keeps retrying)
	// ============================
	p.POST("/notification", func(c echo.Context) error {
		var payload map[string]any
		if err := c.Bind(&payload); err != nil {
			return c.JSON(http.StatusOK, model.Envelope{Success: false, Error: "invalid payload"})
		}
		if err := a.payments.HandleNotification(c.Request().Context(), payload); err != nil {
			msg := services.Message(err)
			if services.KindOf(err) == 0 {
				a.log.Error("payment notification failed", zap.Error(err))
				msg = genericError
			}
			return c.JSON(http.StatusOK, model.Envelope{Success: false, Error: msg})
		}
		return ok(c, http.StatusOK, "notification processed", nil)
	})

	p.POST("/:orderId", func(c echo.Context) error {
		orderID, valid := pathID(c, "orderId")
		if !valid {
			return badRequest(c, "invalid order id")
		}
		redirectURL, err := a.payments.CreatePayment(c.Request().Context(), actor(c), orderID)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", echo.Map{"redirect_url": redirectURL})
	})
}
