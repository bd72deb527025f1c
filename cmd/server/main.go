package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/smartcity/navigation/internal/config"
	"github.com/smartcity/navigation/internal/delivery/http"
	"github.com/smartcity/navigation/internal/repository/postgres"
	"github.com/smartcity/navigation/internal/repository/redis"
	"github.com/smartcity/navigation/internal/service"
	"github.com/smartcity/navigation/internal/stream"
)

func main() {
	// Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var dataRepo service.DataRepository
	pool, err := connectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("Warning: Could not connect to database: %v", err)
		log.Println("Running with in-memory storage only")
		dataRepo = postgres.NewMockRepository()
	} else {
		defer pool.Close()
		log.Println("Connected to PostgreSQL")
		dataRepo = postgres.NewPostgresRepository(pool)
	}

	// Redis is optional: route cache and cross-instance streaming
	rdb := connectRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	app, navSvc, hub := newApp(cfg, dataRepo, rdb)
	defer hub.Close()

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	navSvc.WaitBackground()
	log.Println("Server exited gracefully")
}

// newApp wires services and routes onto a fiber app. rdb may be nil.
func newApp(cfg config.Config, dataRepo service.DataRepository, rdb *goredis.Client) (*fiber.App, *service.NavigationService, *stream.Hub) {
	// Dependency Injection: Services
	hub := stream.NewHub(rdb)
	routeCache := redis.NewRouteCache(rdb, cfg.RouteCacheTTL())
	routingSvc := service.NewRoutingService(cfg.OSRMBaseURL, routeCache)
	alertSvc := service.NewAlertService(dataRepo, hub, cfg.AlertWebhookURL)
	etaSvc := service.NewETAService(rand.NewSource(time.Now().UnixNano()))
	navSvc := service.NewNavigationService(routingSvc, hub, alertSvc, etaSvc, dataRepo, service.NavigationConfig{
		Thresholds: cfg.Thresholds(),
		Incident:   cfg.Incident(),
	})
	vehicleSvc := service.NewVehicleService(routingSvc)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "SmartCity Navigation API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	if cfg.Env != "test" {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, http.NewHandler(navSvc, vehicleSvc, alertSvc, dataRepo), hub)

	return app, navSvc, hub
}

func connectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func connectRedis(ctx context.Context, cfg config.Config) *goredis.Client {
	if cfg.RedisAddr == "" {
		log.Println("Redis address not provided, caching and stream relay disabled")
		return nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Could not connect to Redis: %v, caching disabled", err)
		_ = rdb.Close()
		return nil
	}
	log.Println("Connected to Redis")
	return rdb
}
