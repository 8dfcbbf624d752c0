package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gidimart-be/internal/logger"
	"gidimart-be/internal/metrics"
	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const signatureHeader = "x-paystack-signature"

type event struct {
	Event string    `json:"event"`
	Data  eventData `json:"data"`
}

type eventData struct {
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	GatewayResponse string `json:"gateway_response"`
}

// Handler receives the provider's server-to-server events. The signature
// check is the only authentication; an event is never trusted without it.
type Handler struct {
	gateway  payment.Gateway
	orderSvc order.Service
}

func NewHandler(gateway payment.Gateway, orderSvc order.Service) *Handler {
	return &Handler{gateway: gateway, orderSvc: orderSvc}
}

func (h *Handler) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx).With(zap.String("layer", "webhook"))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := h.gateway.VerifyWebhookSignature(body, c.GetHeader(signatureHeader)); err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		metrics.WebhookEvents.WithLabelValues("bad_signature").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var ev event
	if err := json.Unmarshal(body, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
		return
	}

	log = log.With(zap.String("event", ev.Event), zap.String("reference", ev.Data.Reference))
	metrics.WebhookEvents.WithLabelValues(ev.Event).Inc()

	switch ev.Event {
	case "charge.success":
		err := h.orderSvc.ReconcilePayment(ctx, ev.Data.Reference)
		switch {
		case err == nil:
			log.Info("payment reconciled from webhook")
		case errors.Is(err, order.ErrOrderNotFound):
			// no local order for this reference; retrying will not create one
			log.Warn("webhook references unknown order")
		default:
			// non-2xx so the provider retries; reconciliation is idempotent
			log.Error("failed to reconcile payment", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
			return
		}

	case "charge.failed":
		reason := ev.Data.GatewayResponse
		if reason == "" {
			reason = ev.Data.Status
		}
		err := h.orderSvc.FailPaymentByReference(ctx, ev.Data.Reference, reason)
		if err != nil && !errors.Is(err, order.ErrOrderNotFound) {
			log.Error("failed to record payment failure", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}

	default:
		// transfer, subscription and other events are acknowledged unhandled
		log.Info("ignoring webhook event")
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
