package main

import (
	"net/http"
	"time"

	"StorefrontAPI/internal/metrics"
	"StorefrontAPI/internal/middleware"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// api holds what the handlers need.
type api struct {
	log    *zap.Logger
	tokens *middleware.TokenIssuer
	users  middleware.UserLookup
	limit  *middleware.RateLimiter

	auth          *services.AuthService
	products      *services.ProductService
	cart          *services.CartService
	addresses     *services.AddressService
	coupons       *services.CouponService
	orders        *services.OrderService
	payments      *services.PaymentService
	reviews       *services.ReviewService
	questions     *services.QuestionService
	giftCards     *services.GiftCardService
	subscriptions *services.SubscriptionService
	shipping      *services.ShippingService
	admin         *services.AdminService
}

func newServer(a *api) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = a.httpError

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			a.log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(metrics.Middleware())

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return ok(c, http.StatusOK, "ok", echo.Map{"time": time.Now().UTC()})
	})

	g := e.Group("/api")
	g.Use(middleware.Authenticate(a.tokens, a.users))

	// ======================
	// ROUTES
	// ======================
	registerAuthRoutes(g, a)
	registerCatalogRoutes(g, a)
	registerReviewRoutes(g, a)
	registerCartRoutes(g, a)
	registerAddressRoutes(g, a)
	registerCouponRoutes(g, a)
	registerOrderRoutes(g, a)
	registerPaymentRoutes(g, a)
	registerGiftCardRoutes(g, a)
	registerNewsletterRoutes(g, a)
	registerShippingRoutes(g, a)

	adm := g.Group("/admin", middleware.RequireAuth)
	registerAdminRoutes(adm, a)

	return e
}

// httpError renders echo's own errors (404 route, 405, bind failures) in
// the envelope.
func (a *api) httpError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := genericError
	if he, isHTTP := err.(*echo.HTTPError); isHTTP {
		status = he.Code
		msg = http.StatusText(he.Code)
	} else {
		a.log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}
	if err := c.JSON(status, model.Envelope{Success: false, Error: msg}); err != nil {
		a.log.Warn("write error response", zap.Error(err))
	}
}
