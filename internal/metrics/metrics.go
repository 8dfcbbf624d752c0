package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CheckoutTotal counts checkout attempts by payment method and outcome
	// (completed, initiated, cancelled, verification_failed, error).
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by payment method and outcome",
	}, []string{"method", "outcome"})

	PaymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Gateway verification calls by result",
	}, []string{"result"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook events received by type",
	}, []string{"event"})

	SMSDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sms_deliveries_total",
		Help: "SMS notification attempts by kind and outcome",
	}, []string{"kind", "outcome"})
)

// Handler exposes the prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
