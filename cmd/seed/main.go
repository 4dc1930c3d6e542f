package main

import (
	"context"
	"flag"
	"log"
	"os"

	"StorefrontAPI/internal/config"
	"StorefrontAPI/internal/db"
	"StorefrontAPI/internal/logger"
	"StorefrontAPI/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	file := flag.String("file", "cmd/seed/catalog.yaml", "catalog fixture to load")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer lg.Sync()

	f, err := os.Open(*file)
	if err != nil {
		lg.Fatal("open catalog", zap.Error(err))
	}
	defer f.Close()

	catalog, err := LoadCatalog(f)
	if err != nil {
		lg.Fatal("load catalog", zap.Error(err))
	}

	if _, err := db.Migrate(cfg.DatabaseURL); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		lg.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()

	s := &Seeder{
		Categories: repository.NewCategoryRepository(pool),
		Products:   repository.NewProductRepository(pool),
		Coupons:    repository.NewCouponRepository(pool),
		Shipping:   repository.NewShippingRepository(pool),
		Users:      repository.NewUserRepository(pool),
		Logger:     lg,
		Cost:       bcrypt.DefaultCost,
	}
	rep, err := s.Seed(ctx, catalog)
	if err != nil {
		lg.Fatal("seed", zap.Error(err))
	}
	lg.Info("seed complete",
		zap.Int("categories", rep.Categories),
		zap.Int("products", rep.Products),
		zap.Int("coupons", rep.Coupons),
		zap.Int("zones", rep.Zones),
		zap.Int("rates", rep.Rates),
		zap.Bool("admin_created", rep.Admin),
	)
}
