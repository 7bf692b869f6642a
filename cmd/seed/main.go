package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"stockpilot/internal/auth"
	"stockpilot/internal/cache"
	"stockpilot/internal/config"
	"stockpilot/internal/db"
	"stockpilot/internal/logger"
	"stockpilot/internal/mail"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/internal/service"
)

// sampleProducts is used when SEED_FILE is not set.
const sampleProducts = `[
	{"name": "A5 Notebook", "description": "Ruled, 96 pages", "cost_price": "1.80", "selling_price": "3.50", "category": "stationary", "stock_available": 240, "units_sold": 75, "customer_rating": "4.40"},
	{"name": "Gel Pen (Blue)", "cost_price": "0.35", "selling_price": "1.20", "category": "stationary", "stock_available": 800, "units_sold": 410},
	{"name": "USB-C Charger 30W", "description": "GaN, foldable plug", "cost_price": "9.50", "selling_price": "24.99", "category": "electronics", "stock_available": 60, "units_sold": 18, "customer_rating": "4.70"},
	{"name": "Cotton T-Shirt", "cost_price": "3.10", "selling_price": "12.00", "category": "clothing", "stock_available": 150, "units_sold": 42},
	{"name": "The Go Programming Language", "cost_price": "22.00", "selling_price": "39.90", "category": "books", "stock_available": 12, "units_sold": 9, "customer_rating": "4.90"},
	{"name": "Ceramic Mug", "description": "350 ml", "cost_price": "2.20", "selling_price": "7.50", "category": "home", "stock_available": 90, "units_sold": 33},
	{"name": "Yoga Mat", "cost_price": "6.00", "selling_price": "19.00", "category": "sports", "stock_available": 35, "units_sold": 11, "customer_rating": "3.90"}
]`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, db.GormLogLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, log)
	defer cacheClient.Close()

	userRepo := repository.NewUserRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, jwtService,
		auth.NewOTPStore(cacheClient, cfg.VerificationCodeTTL), mail.New(cfg, log), log)
	productService := service.NewProductService(productRepo, cacheClient, log)

	owner, err := demoUser(ctx, userRepo, authService, log)
	if err != nil {
		return err
	}

	inputs, err := loadProducts(os.Getenv("SEED_FILE"))
	if err != nil {
		return err
	}

	existing, err := productRepo.ListByOwner(ctx, owner.ID, repository.ProductFilter{})
	if err != nil {
		return fmt.Errorf("list existing products: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name] = true
	}

	created, skipped := 0, 0
	for i, input := range inputs {
		var name string
		_ = json.Unmarshal(input["name"], &name)
		if seen[name] {
			skipped++
			continue
		}
		if _, err := productService.Create(ctx, owner.ID, input); err != nil {
			log.Warn("skipping invalid product", zap.Int("index", i), zap.String("name", name), zap.Error(err))
			skipped++
			continue
		}
		seen[name] = true
		created++
	}

	log.Info("seed complete",
		zap.String("username", owner.Username),
		zap.Int("created", created),
		zap.Int("skipped", skipped),
	)
	return nil
}

// demoUser returns the SEED_USERNAME account, registering it on first run.
func demoUser(ctx context.Context, users repository.UserRepository, authService service.AuthService, log *zap.Logger) (*model.User, error) {
	username := getEnv("SEED_USERNAME", "demo")
	user, err := users.FindByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find demo user: %w", err)
	}

	password := getEnv("SEED_PASSWORD", "demo-password")
	user, err = authService.Register(ctx, username, getEnv("SEED_EMAIL", username+"@example.com"), password)
	if err != nil {
		return nil, fmt.Errorf("register demo user: %w", err)
	}
	log.Info("registered demo user", zap.String("username", username))
	return user, nil
}

func loadProducts(path string) ([]service.ProductInput, error) {
	data := []byte(sampleProducts)
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	}
	var inputs []service.ProductInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("decode seed products: %w", err)
	}
	return inputs, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
