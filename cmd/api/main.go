package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/luminis-shop/luminis-api/internal/auth"
	"github.com/luminis-shop/luminis-api/internal/catalog"
	"github.com/luminis-shop/luminis-api/internal/config"
	"github.com/luminis-shop/luminis-api/internal/econt"
	"github.com/luminis-shop/luminis-api/internal/httpx"
	kafkax "github.com/luminis-shop/luminis-api/internal/kafka"
	"github.com/luminis-shop/luminis-api/internal/orders"
	"github.com/luminis-shop/luminis-api/internal/postgres"
	"github.com/luminis-shop/luminis-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for order notifications
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, logger)
	prod.Start(ctx)

	authSvc := &auth.Service{DB: db, Secret: []byte(cfg.JWTSecret)}

	router := httpx.NewRouter(logger)
	(&httpx.AuthHandler{Auth: authSvc, Log: logger}).Register(router)
	(&httpx.OrdersHandler{
		Repo:     &orders.Repo{DB: db},
		Producer: prod,
		Service:  cfg.ServiceName,
		Log:      logger,
	}).Register(router, authSvc.Middleware)
	(&httpx.ProductsHandler{
		Catalog:      &catalog.Repo{DB: db},
		ImageBaseURL: cfg.ImageBaseURL,
		Log:          logger,
	}).Register(router, authSvc.Middleware)
	(&httpx.EcontHandler{
		Client: econt.New(cfg.EcontURL, rdb, logger),
		Log:    logger,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
