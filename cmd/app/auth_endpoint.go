package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	u, err := a.auth.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusCreated, "registration successful, please check your email", u)
}

func (a *api) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	u, err := a.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return a.fail(c, err)
	}
	token, exp, err := a.tokens.Issue(u)
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"token":      token,
		"expires_at": exp,
		"user":       u,
	})
}

func (a *api) verifyEmail(c echo.Context) error {
	if err := a.auth.VerifyEmail(c.Request().Context(), c.QueryParam("token")); err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "email verified", nil)
}

func (a *api) resendVerification(c echo.Context) error {
	if err := a.auth.ResendVerification(c.Request().Context(), actor(c)); err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "verification email sent", nil)
}

func (a *api) me(c echo.Context) error {
	u, err := a.auth.Me(c.Request().Context(), actor(c))
	if err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "", u)
}

func (a *api) updateProfile(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := a.auth.UpdateProfile(c.Request().Context(), actor(c), req.Name); err != nil {
		return a.fail(c, err)
	}
	return ok(c, http.StatusOK, "profile updated", nil)
}

func registerAuthRoutes(g *echo.Group, a *api) {
	auth := g.Group("/auth")

	// public, throttled
	auth.POST("/register", a.register, a.limit.Middleware())
	auth.POST("/login", a.login, a.limit.Middleware())
	auth.GET("/verify", a.verifyEmail)

	auth.POST("/resend-verification", a.resendVerification)
	auth.GET("/me", a.me)
	g.PUT("/account/profile", a.updateProfile)
}
