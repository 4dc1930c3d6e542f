package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type addToCartRequest struct {
	ProductID int64             `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func registerCartRoutes(g *echo.Group, a *api) {
	cart := g.Group("/cart")

	cart.GET("", func(c echo.Context) error {
		view, err := a.cart.Get(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", view)
	})

	cart.POST("/items", func(c echo.Context) error {
		var req addToCartRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if err := a.cart.Add(c.Request().Context(), actor(c), req.ProductID, req.Quantity, req.Options); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusCreated, "added to cart", nil)
	})

	cart.PATCH("/items/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid cart item id")
		}
		var req quantityRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		if err := a.cart.UpdateQuantity(c.Request().Context(), actor(c), id, req.Quantity); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "cart updated", nil)
	})

	cart.DELETE("/items/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid cart item id")
		}
		if err := a.cart.Remove(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "removed from cart", nil)
	})

	cart.DELETE("", func(c echo.Context) error {
		if err := a.cart.Clear(c.Request().Context(), actor(c)); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "cart cleared", nil)
	})

	cart.POST("/items/:id/save", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid cart item id")
		}
		savedID, err := a.cart.SaveForLater(c.Request().Context(), actor(c), id)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "saved for later", echo.Map{"id": savedID})
	})

	saved := g.Group("/saved")

	saved.GET("", func(c echo.Context) error {
		out, err := a.cart.ListSaved(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	saved.POST("/:id/move", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid saved item id")
		}
		req := quantityRequest{Quantity: 1}
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		if err := a.cart.MoveToCart(c.Request().Context(), actor(c), id, req.Quantity); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "moved to cart", nil)
	})

	saved.DELETE("/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid saved item id")
		}
		if err := a.cart.RemoveSaved(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "removed", nil)
	})

	g.GET("/wishlist", func(c echo.Context) error {
		out, err := a.cart.ListWishlist(c.Request().Context(), actor(c))
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	g.POST("/wishlist/:productId", func(c echo.Context) error {
		id, valid := pathID(c, "productId")
		if !valid {
			return badRequest(c, "invalid product id")
		}
		added, err := a.cart.ToggleWishlist(c.Request().Context(), actor(c), id)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", echo.Map{"in_wishlist": added})
	})
}
