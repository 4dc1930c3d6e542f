package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StorefrontAPI/external/abstractapi"
	"StorefrontAPI/external/midtrans"
	"StorefrontAPI/external/resend"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/config"
	"StorefrontAPI/internal/db"
	"StorefrontAPI/internal/events"
	"StorefrontAPI/internal/jobs"
	"StorefrontAPI/internal/logger"
	"StorefrontAPI/internal/middleware"
	"StorefrontAPI/internal/repository"
	"StorefrontAPI/internal/services"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()

	// ======================
	// INFRA
	// ======================
	if cfg.MigrateOnStart {
		version, err := db.Migrate(cfg.DatabaseURL)
		if err != nil {
			lg.Fatal("migrate", zap.Error(err))
		}
		lg.Info("schema ready", zap.Uint("version", version))
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		lg.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()

	var views cache.Views
	if cfg.RedisURL != "" {
		client, err := cache.Dial(ctx, cfg.RedisURL)
		if err != nil {
			lg.Fatal("connect redis", zap.Error(err))
		}
		defer client.Close()
		views = cache.NewRedisViews(client, cfg.ViewCacheTTL, lg)
	} else {
		views = cache.NewMemoryViews(cfg.ViewCacheTTL)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.KafkaOrderTopic, lg)
	}
	defer publisher.Close()

	// ======================
	// EXTERNALS
	// ======================
	var emailValidator services.EmailValidator = services.NewLocalValidator()
	if cfg.UseEmailReputation {
		emailValidator, err = abstractapi.NewAbstractReputationValidator(cfg.AbstractEmailAPIKey)
		if err != nil {
			lg.Fatal("email reputation validator", zap.Error(err))
		}
	}

	var mailer services.EmailSender = services.NopSender{}
	if cfg.ResendAPIKey != "" {
		mailer, err = resend.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
		if err != nil {
			lg.Fatal("mailer", zap.Error(err))
		}
	} else {
		lg.Warn("RESEND_API_KEY not set, outgoing mail is dropped")
	}

	gateway := midtrans.NewSnapGateway(cfg.MidtransServerKey, cfg.MidtransProduction)

	// ======================
	// REPOSITORIES
	// ======================
	userRepo := repository.NewUserRepository(pool)
	verifyRepo := repository.NewEmailVerificationRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	addressRepo := repository.NewAddressRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool, orderRepo)
	shippingRepo := repository.NewShippingRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	giftCardRepo := repository.NewGiftCardRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool, productRepo, orderRepo)

	// ======================
	// SERVICES
	// ======================
	orderSvc := services.NewOrderService(orderRepo, cartRepo, couponRepo, userRepo, shippingRepo, publisher, mailer, views, cfg.TaxRate, lg)

	a := &api{
		log:    lg,
		tokens: middleware.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour),
		users:  userRepo,
		limit:  middleware.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginBurst, lg),

		auth:          services.NewAuthService(userRepo, verifyRepo, emailValidator, mailer, cfg.PublicBaseURL, lg),
		products:      services.NewProductService(productRepo, categoryRepo, views),
		cart:          services.NewCartService(cartRepo, productRepo, views),
		addresses:     services.NewAddressService(addressRepo, views),
		coupons:       services.NewCouponService(couponRepo, userRepo, views),
		orders:        orderSvc,
		payments:      services.NewPaymentService(orderRepo, paymentRepo, gateway, publisher, views, lg),
		reviews:       services.NewReviewService(reviewRepo, productRepo, orderRepo, views),
		questions:     services.NewQuestionService(questionRepo, productRepo),
		giftCards:     services.NewGiftCardService(giftCardRepo, orderRepo, mailer, publisher, views, lg),
		subscriptions: services.NewSubscriptionService(subscriptionRepo, mailer, cfg.PublicBaseURL, lg),
		shipping:      services.NewShippingService(shippingRepo),
		admin:         services.NewAdminService(userRepo, dashboardRepo, views, cfg.LowStockThreshold),
	}

	stopCleanup := make(chan struct{})
	a.limit.StartCleanup(5*time.Minute, stopCleanup)

	// ======================
	// JOBS
	// ======================
	scheduler := jobs.NewScheduler(couponRepo, orderSvc, verifyRepo, cfg.StaleOrderAfter, lg)
	if err := scheduler.Register(); err != nil {
		lg.Fatal("register jobs", zap.Error(err))
	}
	scheduler.Start()

	// ======================
	// SERVER
	// ======================
	e := newServer(a)
	go func() {
		lg.Info("http server listening", zap.String("port", cfg.Port), zap.Int("routes", len(e.Routes())))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("http server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	close(stopCleanup)
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown failed", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
	lg.Info("stopped")
}
