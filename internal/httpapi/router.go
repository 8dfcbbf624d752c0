package httpapi

import (
	"net/http"

	"gidimart-be/internal/cart"
	"gidimart-be/internal/config"
	"gidimart-be/internal/logger"
	"gidimart-be/internal/metrics"
	"gidimart-be/internal/middleware"
	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"
	"gidimart-be/internal/payment/webhook"
	"gidimart-be/internal/product"

	"github.com/gin-gonic/gin"
)

// NewRouter assembles the HTTP surface. Checkout and payment endpoints sit
// behind the strict rate limit tier; the webhook is unauthenticated because
// the signature check is its authentication.
func NewRouter(
	cfg *config.Config,
	orderSvc order.Service,
	cartSvc cart.Service,
	productRepo product.Repository,
	gateway payment.Gateway,
) *gin.Engine {

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestID(), logger.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	r.POST("/webhook/payment", webhook.NewHandler(gateway, orderSvc).Handle)

	orders := NewOrderHandler(orderSvc)
	carts := NewCartHandler(cartSvc)
	products := NewProductHandler(productRepo)

	api := r.Group("/api")
	{
		api.GET("/products", middleware.RateLimit("general"), products.ListProducts)
		api.GET("/products/:id", middleware.RateLimit("general"), products.GetProduct)

		authed := api.Group("", middleware.RequireAuth(cfg.JWTSecret))
		{
			general := authed.Group("", middleware.RateLimit("general"))
			{
				general.GET("/cart", carts.GetCart)
				general.POST("/cart/items", carts.AddItem)
				general.PATCH("/cart/items/:productID", carts.UpdateQuantity)
				general.DELETE("/cart/items/:productID", carts.RemoveItem)
				general.DELETE("/cart", carts.ClearCart)

				general.GET("/orders", orders.ListOrders)
				general.GET("/orders/:orderNumber", orders.GetOrder)
			}

			strict := authed.Group("", middleware.RateLimit("strict"))
			{
				strict.POST("/checkout", orders.Checkout)
				strict.POST("/orders/:orderNumber/pay", orders.ReinitiatePayment)
				strict.POST("/payments/callback", orders.PaymentCallback)
				strict.GET("/payments/verify", orders.VerifyPayment)
			}

			admin := authed.Group("/admin", middleware.RequireAdmin(), middleware.RateLimit("general"))
			{
				admin.PATCH("/orders/:orderNumber/status", orders.UpdateOrderStatus)
			}
		}
	}

	return r
}
