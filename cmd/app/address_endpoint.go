package main

import (
	"net/http"

	"StorefrontAPI/internal/model"

	"github.com/labstack/echo/v4"
)

func registerAddressRoutes(g *echo.Group, a *api) {
	p := g.Group("/addresses")

	p.GET("", func(c echo.Context) error {
		out, err := a.addresses.List(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	p.GET("/default", func(c echo.Context) error {
		addr, err := a.addresses.GetDefault(c.Request().Context(), actor(c), c.QueryParam("type"))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", addr)
	})

	p.POST("", func(c echo.Context) error {
		var addr model.Address
		if err := c.Bind(&addr); err != nil {
			return badRequest(c, "invalid request")
		}
		id, err := a.addresses.Create(c.Request().Context(), actor(c), &addr)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusCreated, "address created", echo.Map{"id": id})
	})

	p.PUT("/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid address id")
		}
		var addr model.Address
		if err := c.Bind(&addr); err != nil {
			return badRequest(c, "invalid request")
		}
		addr.ID = id
		if err := a.addresses.Update(c.Request().Context(), actor(c), &addr); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "address updated", nil)
	})

	p.PUT("/:id/default", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid address id")
		}
		if err := a.addresses.SetDefault(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "default address updated", nil)
	})

	p.DELETE("/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid address id")
		}
		if err := a.addresses.Delete(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "address deleted", nil)
	})
}
