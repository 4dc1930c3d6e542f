package main

import (
	"errors"
	"net/http"
	"strconv"

	"StorefrontAPI/internal/middleware"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const genericError = "something went wrong"

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindBusiness:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, model.Envelope{Success: true, Message: message, Data: data})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, model.Envelope{Success: false, Error: msg})
}

// fail writes err as an envelope. Unclassified errors are logged and
// replaced by a generic message.
func (a *api) fail(c echo.Context, err error) error {
	var se *services.Error
	if errors.As(err, &se) {
		return c.JSON(statusFor(se.Kind), model.Envelope{Success: false, Error: se.Msg})
	}
	a.log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, model.Envelope{Success: false, Error: genericError})
}

func actor(c echo.Context) *model.Identity {
	return middleware.Identity(c)
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}

func queryFloat(c echo.Context, name string) *float64 {
	v, err := strconv.ParseFloat(c.QueryParam(name), 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryID(c echo.Context, name string) *int64 {
	v, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
