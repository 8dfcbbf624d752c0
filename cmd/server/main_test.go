package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gidimart-be/internal/cart"
	"gidimart-be/internal/config"
	"gidimart-be/internal/httpapi"
	"gidimart-be/internal/notification"
	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"
	"gidimart-be/internal/product"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Covers the full dependency wiring without a real database or redis.
func TestRouterWiring(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{
		AppPort:           "8080",
		AppEnv:            "test",
		JWTSecret:         "test-secret",
		PaystackSecretKey: "sk_test_x",
		PaystackPublicKey: "pk_test_x",
	}

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})

	productRepo := product.NewRepository(db)
	cartSvc := cart.NewService(cart.NewRepository(rdb), productRepo)
	gateway := payment.NewPaystackGateway(cfg.PaystackSecretKey, cfg.PaystackPublicKey)
	notifier := notification.NewTermiiNotifier("", "GidiMart", "")
	orderSvc := order.NewService(order.NewRepository(db), payment.NewRepository(db), gateway, cartSvc, notifier)

	router := httpapi.NewRouter(cfg, orderSvc, cartSvc, productRepo, gateway)
	require.NotNil(t, router)

	t.Run("HealthCheck", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/healthz", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "ok")
	})

	t.Run("MetricsExposed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/metrics", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("CheckoutRequiresAuth", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/checkout", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("WebhookRejectsUnsignedBody", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/webhook/payment", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
