package main

import (
	"net/http"

	"StorefrontAPI/internal/services"

	"github.com/labstack/echo/v4"
)

type bodyRequest struct {
	Body string `json:"body"`
}

func registerReviewRoutes(g *echo.Group, a *api) {
	g.GET("/products/:id/reviews", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid product id")
		}
		out, err := a.reviews.List(c.Request().Context(), id)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	// one review per user and product; posting again replaces it
	g.PUT("/products/:id/reviews", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid product id")
		}
		var in services.ReviewInput
		if err := c.Bind(&in); err != nil {
			return badRequest(c, "invalid request")
		}
		r, summary, err := a.reviews.Upsert(c.Request().Context(), actor(c), id, in)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "review saved", echo.Map{"review": r, "summary": summary})
	})

	g.DELETE("/reviews/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid review id")
		}
		summary, err := a.reviews.Delete(c.Request().Context(), actor(c), id)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "review deleted", echo.Map{"summary": summary})
	})

	g.GET("/products/:id/questions", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid product id")
		}
		out, err := a.questions.List(c.Request().Context(), id)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "", out)
	})

	g.POST("/products/:id/questions", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid product id")
		}
		var req bodyRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		qid, err := a.questions.Ask(c.Request().Context(), actor(c), id, req.Body)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusCreated, "question posted", echo.Map{"id": qid})
	})

	g.POST("/questions/:id/answers", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid question id")
		}
		var req bodyRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request")
		}
		aid, err := a.questions.Answer(c.Request().Context(), actor(c), id, req.Body)
		if err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusCreated, "answer posted", echo.Map{"id": aid})
	})

	g.DELETE("/questions/:id", func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return badRequest(c, "invalid question id")
		}
		if err := a.questions.Delete(c.Request().Context(), actor(c), id); err != nil {
			return a.fail(c, err)
		}
		return ok(c, http.StatusOK, "question deleted", nil)
	})
}
