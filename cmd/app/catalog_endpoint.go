package main

import (
	"net/http"

	"StorefrontAPI/internal/model"

	"github.com/labstack/echo/v4"
)

func (a *api) listProducts(c echo.Context) error {
	f := model.ProductFilter{
		Query:      c.QueryParam("q"),
		CategoryID: queryID(c, "category_id"),
		MinPrice:   queryFloat(c, "min_price"),
		MaxPrice:   queryFloat(c, "max_price"),
		InStock:    c.QueryParam("in_stock") == "true",
		Sort:       c.QueryParam("sort"),
		Limit:      queryInt(c, "limit", 0),
		Offset:     queryInt(c, "offset", 0),
	}
	page, err := a.products.List(c.Request().Context(), f)
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "", page)
}

func (a *api) getProduct(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, "invalid product id")
	}
	p, err := a.products.Get(c.Request().Context(), id)
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "", p)
}

func (a *api) listCategories(c echo.Context) error {
	cats, err := a.products.ListCategories(c.Request().Context())
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "", cats)
}

func (a *api) createProduct(c echo.Context) error {
	var p model.Product
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid request")
	}
	id, err := a.products.Create(c.Request().Context(), actor(c), &p)
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusCreated, "product created", echo.Map{"id": id})
}

func (a *api) updateProduct(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, "invalid product id")
	}
	var p model.Product
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid request")
	}
	p.ID = id
	if err := a.products.Update(c.Request().Context(), actor(c), &p); err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "product updated", nil)
}

func (a *api) updateStock(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, "invalid product id")
	}
	var req struct {
		Stock int `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := a.products.UpdateStock(c.Request().Context(), actor(c), id, req.Stock); err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "stock updated", nil)
}

func (a *api) deleteProduct(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, "invalid product id")
	}
	if err := a.products.Delete(c.Request().Context(), actor(c), id); err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "product deleted", nil)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (a *api) createCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	id, err := a.products.CreateCategory(c.Request().Context(), actor(c), req.Name)
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusCreated, "category created", echo.Map{"id": id})
}

func (a *api) updateCategory(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, "invalid category id")
	}
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := a.products.UpdateCategory(c.Request().Context(), actor(c), id, req.Name); err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "category updated", nil)
}

func (a *api) deleteCategory(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, "invalid category id")
	}
	if err := a.products.DeleteCategory(c.Request().Context(), actor(c), id); err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "category deleted", nil)
}

func registerCatalogRoutes(g *echo.Group, a *api) {
	g.GET("/products", a.listProducts)
	g.GET("/products/:id", a.getProduct)
	g.GET("/categories", a.listCategories)
}
