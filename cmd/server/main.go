package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gidimart-be/internal/cache"
	"gidimart-be/internal/cart"
	"gidimart-be/internal/config"
	"gidimart-be/internal/db"
	"gidimart-be/internal/httpapi"
	"gidimart-be/internal/logger"
	"gidimart-be/internal/notification"
	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"
	"gidimart-be/internal/product"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := db.InitDB(cfg)
	defer database.Close()

	redisClient, err := cache.InitRedis(cfg)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	productRepo := product.NewRepository(database)

	cartRepo := cart.NewRepository(redisClient)
	cartSvc := cart.NewService(cartRepo, productRepo)

	gateway := payment.NewPaystackGateway(cfg.PaystackSecretKey, cfg.PaystackPublicKey)
	payRepo := payment.NewRepository(database)

	notifier := notification.NewTermiiNotifier(cfg.TermiiAPIKey, cfg.TermiiSenderID, cfg.MerchantPhone)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, payRepo, gateway, cartSvc, notifier)

	router := httpapi.NewRouter(cfg, orderSvc, cartSvc, productRepo, gateway)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
