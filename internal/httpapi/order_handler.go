package httpapi

import (
	"errors"
	"net/http"
	"time"

	"gidimart-be/internal/logger"
	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"
	"gidimart-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type addressPayload struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
}

func (p addressPayload) toAddress() order.Address {
	return order.Address{
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      p.Email,
		Phone:      utils.NormalizePhoneNG(p.Phone),
		Street:     p.Street,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
	}
}

type checkoutRequest struct {
	ShippingAddress addressPayload  `json:"shipping_address" binding:"required"`
	BillingAddress  *addressPayload `json:"billing_address"`
	PaymentMethod   string          `json:"payment_method" binding:"required,oneof=gateway cash_on_delivery"`
	Protocol        string          `json:"protocol" binding:"omitempty,oneof=inline redirect"`
	Channels        []string        `json:"channels"`
}

type orderItemResponse struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type orderResponse struct {
	OrderNumber      string              `json:"order_number"`
	TotalAmount      float64             `json:"total_amount"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	PaymentMethod    string              `json:"payment_method"`
	PaymentReference *string             `json:"payment_reference,omitempty"`
	ShippingAddress  order.Address       `json:"shipping_address"`
	Items            []orderItemResponse `json:"items,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		OrderNumber:      o.OrderNumber,
		TotalAmount:      o.TotalAmount,
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		PaymentMethod:    string(o.PaymentMethod),
		PaymentReference: o.PaymentReference,
		ShippingAddress:  o.ShippingAddress,
		CreatedAt:        o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	return resp
}

func paymentMethodFrom(s string) order.PaymentMethod {
	if s == "cash_on_delivery" {
		return order.MethodCashOnDelivery
	}
	return order.MethodGateway
}

// Checkout places an order from the caller's cart. For gateway payments the
// response carries what the client needs to collect payment; the order
// itself stays pending until verification.
func (h *OrderHandler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := order.CheckoutInput{
		ShippingAddress: req.ShippingAddress.toAddress(),
		PaymentMethod:   paymentMethodFrom(req.PaymentMethod),
		Protocol:        req.Protocol,
	}
	if input.Protocol == "" {
		input.Protocol = "inline"
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.toAddress()
		input.BillingAddress = &billing
	}
	for _, ch := range req.Channels {
		input.Channels = append(input.Channels, payment.Channel(ch))
	}

	res, err := h.svc.Checkout(ctx, userID, input)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, checkoutResponse(res))
}

func checkoutResponse(res *order.CheckoutResult) gin.H {
	body := gin.H{"order": toOrderResponse(res.Order)}

	switch {
	case res.Final:
		body["status"] = "completed"
	case res.Redirect != nil:
		body["status"] = "pending"
		body["authorization_url"] = res.Redirect.AuthorizationURL
		body["reference"] = res.Redirect.Reference
	default:
		body["status"] = "pending"
		body["payment"] = res.Inline
	}

	return body
}

type callbackRequest struct {
	Reference string `json:"reference" binding:"required"`
	Event     string `json:"event" binding:"required,oneof=success close"`
}

// PaymentCallback receives the in-page widget's outcome. A success event
// triggers server-side verification; a close event only releases the
// attempt so checkout can be retried.
func (h *OrderHandler) PaymentCallback(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Event == "close" {
		o, err := h.svc.CancelGatewayPayment(ctx, userID, req.Reference)
		if err != nil {
			h.writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled", "order": toOrderResponse(o)})
		return
	}

	o, err := h.svc.ConfirmGatewayPayment(ctx, userID, req.Reference)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed", "order": toOrderResponse(o)})
}

// VerifyPayment is the redirect landing: the provider sends the buyer back
// with ?reference=. Without a reference nothing is verified and no
// provider call is made.
func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	reference := c.Query("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}

	o, err := h.svc.CompleteOrder(ctx, userID, reference)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed", "order": toOrderResponse(o)})
}

type reinitiateRequest struct {
	Protocol string `json:"protocol" binding:"omitempty,oneof=inline redirect"`
}

func (h *OrderHandler) ReinitiatePayment(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	// body is optional; an empty one means the inline default
	var req reinitiateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Protocol == "" {
		req.Protocol = "inline"
	}

	res, err := h.svc.ReinitiatePayment(ctx, userID, c.Param("orderNumber"), req.Protocol)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, checkoutResponse(res))
}

type listOrdersQuery struct {
	Limit int32 `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Page  int32 `form:"page,default=1" binding:"omitempty,min=1"`
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	var q listOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orders, err := h.svc.GetOrders(ctx, userID, q.Limit, q.Page)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	o, err := h.svc.GetOrderDetail(ctx, userID, c.Param("orderNumber"), utils.IsAdminContext(ctx))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(o)})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PROCESSING SHIPPED DELIVERED"`
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.UpdateOrderStatus(ctx, c.Param("orderNumber"), order.OrderStatus(req.Status))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *OrderHandler) writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrVerificationFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment Verification Failed"})
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, payment.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, order.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, order.ErrReferenceRequired),
		errors.Is(err, order.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrPaymentInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.FromCtx(c.Request.Context()).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	}
}
