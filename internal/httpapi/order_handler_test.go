package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gidimart-be/internal/order"
	"gidimart-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, userID uint, input order.CheckoutInput) (*order.CheckoutResult, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CheckoutResult), args.Error(1)
}

func (m *MockOrderService) ReinitiatePayment(ctx context.Context, userID uint, orderNumber, protocol string) (*order.CheckoutResult, error) {
	args := m.Called(ctx, userID, orderNumber, protocol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CheckoutResult), args.Error(1)
}

func (m *MockOrderService) ConfirmGatewayPayment(ctx context.Context, userID uint, reference string) (*order.Order, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) CancelGatewayPayment(ctx context.Context, userID uint, reference string) (*order.Order, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) CompleteOrder(ctx context.Context, userID uint, reference string) (*order.Order, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ReconcilePayment(ctx context.Context, reference string) error {
	return m.Called(ctx, reference).Error(0)
}

func (m *MockOrderService) FailPaymentByReference(ctx context.Context, reference, reason string) error {
	return m.Called(ctx, reference, reason).Error(0)
}

func (m *MockOrderService) GetOrders(ctx context.Context, userID uint, limit, page int32) ([]*order.Order, error) {
	args := m.Called(ctx, userID, limit, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderDetail(ctx context.Context, userID uint, orderNumber string, isAdmin bool) (*order.Order, error) {
	args := m.Called(ctx, userID, orderNumber, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderNumber string, status order.OrderStatus) error {
	return m.Called(ctx, orderNumber, status).Error(0)
}

// asUser stands in for the auth middleware in tests.
func asUser(userID uint, email, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.SetUserContext(c.Request.Context(), userID, email, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newOrderTestRouter(svc *MockOrderService, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(svc)

	r := gin.New()
	r.Use(asUser(7, "ada@example.com", role))
	r.POST("/api/checkout", h.Checkout)
	r.POST("/api/payments/callback", h.PaymentCallback)
	r.GET("/api/payments/verify", h.VerifyPayment)
	r.GET("/api/orders", h.ListOrders)
	r.GET("/api/orders/:orderNumber", h.GetOrder)
	r.PATCH("/api/admin/orders/:orderNumber/status", h.UpdateOrderStatus)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validCheckoutBody = `{
	"shipping_address": {
		"first_name": "Ada", "last_name": "Obi",
		"email": "ada@example.com", "phone": "08012345678",
		"street": "12 Allen Avenue", "city": "Ikeja", "state": "Lagos",
		"postal_code": "100001"
	},
	"payment_method": "cash_on_delivery"
}`

func completedOrder() *order.Order {
	return &order.Order{
		ID: 1, UserID: 7, OrderNumber: "ORD-1", TotalAmount: 200,
		Status: order.StatusProcessing, PaymentStatus: order.PaymentCompleted,
		PaymentMethod: order.MethodGateway,
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	t.Run("CashOnDelivery", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		o := completedOrder()
		o.PaymentMethod = order.MethodCashOnDelivery
		o.PaymentStatus = order.PaymentPending
		svc.On("Checkout", mock.Anything, uint(7), mock.AnythingOfType("order.CheckoutInput")).
			Return(&order.CheckoutResult{Order: o, Final: true}, nil)

		w := doJSON(r, "POST", "/api/checkout", validCheckoutBody)

		assert.Equal(t, http.StatusCreated, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "completed", body["status"])

		// the phone was normalized before reaching the service
		input := svc.Calls[0].Arguments.Get(2).(order.CheckoutInput)
		assert.Equal(t, "+2348012345678", input.ShippingAddress.Phone)
	})

	t.Run("MissingPhoneRejected", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		w := doJSON(r, "POST", "/api/checkout", `{
			"shipping_address": {
				"first_name": "Ada", "last_name": "Obi",
				"email": "ada@example.com",
				"street": "12 Allen Avenue", "city": "Ikeja", "state": "Lagos",
				"postal_code": "100001"
			},
			"payment_method": "gateway"
		}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownPaymentMethodRejected", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		w := doJSON(r, "POST", "/api/checkout", `{
			"shipping_address": {
				"first_name": "Ada", "last_name": "Obi",
				"email": "ada@example.com", "phone": "08012345678",
				"street": "12 Allen Avenue", "city": "Ikeja", "state": "Lagos",
				"postal_code": "100001"
			},
			"payment_method": "wire"
		}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		svc.On("Checkout", mock.Anything, uint(7), mock.Anything).
			Return(nil, order.ErrEmptyCart)

		w := doJSON(r, "POST", "/api/checkout", validCheckoutBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentCallbackEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		svc.On("ConfirmGatewayPayment", mock.Anything, uint(7), "ORD-1").
			Return(completedOrder(), nil)

		w := doJSON(r, "POST", "/api/payments/callback", `{"reference":"ORD-1","event":"success"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "completed", body["status"])
	})

	t.Run("VerificationFailed", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		svc.On("ConfirmGatewayPayment", mock.Anything, uint(7), "ORD-1").
			Return(nil, order.ErrVerificationFailed)

		w := doJSON(r, "POST", "/api/payments/callback", `{"reference":"ORD-1","event":"success"}`)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Contains(t, w.Body.String(), "Payment Verification Failed")
	})

	t.Run("Close", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		o := completedOrder()
		o.Status = order.StatusPending
		o.PaymentStatus = order.PaymentPending
		svc.On("CancelGatewayPayment", mock.Anything, uint(7), "ORD-1").Return(o, nil)

		w := doJSON(r, "POST", "/api/payments/callback", `{"reference":"ORD-1","event":"close"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "cancelled", body["status"])
		svc.AssertNotCalled(t, "ConfirmGatewayPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingReference", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		w := doJSON(r, "POST", "/api/payments/callback", `{"event":"success"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ConfirmGatewayPayment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	t.Run("MissingReference", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		w := doJSON(r, "GET", "/api/payments/verify", "")

		// no reference means no verification and no provider call at all
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CompleteOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Settles", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		svc.On("CompleteOrder", mock.Anything, uint(7), "ORD-1").
			Return(completedOrder(), nil)

		w := doJSON(r, "GET", "/api/payments/verify?reference=ORD-1", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetOrderEndpoint(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		svc.On("GetOrderDetail", mock.Anything, uint(7), "ORD-MISSING", false).
			Return(nil, order.ErrOrderNotFound)

		w := doJSON(r, "GET", "/api/orders/ORD-MISSING", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("OtherUsersOrderForbidden", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "customer")

		svc.On("GetOrderDetail", mock.Anything, uint(7), "ORD-2", false).
			Return(nil, order.ErrUnauthorized)

		w := doJSON(r, "GET", "/api/orders/ORD-2", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	t.Run("Ships", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "admin")

		svc.On("UpdateOrderStatus", mock.Anything, "ORD-1", order.StatusShipped).Return(nil)

		w := doJSON(r, "PATCH", "/api/admin/orders/ORD-1/status", `{"status":"SHIPPED"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("UnknownStatusRejectedByBinding", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "admin")

		w := doJSON(r, "PATCH", "/api/admin/orders/ORD-1/status", `{"status":"LOST"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnpaidGatewayOrder", func(t *testing.T) {
		svc := new(MockOrderService)
		r := newOrderTestRouter(svc, "admin")

		svc.On("UpdateOrderStatus", mock.Anything, "ORD-1", order.StatusShipped).
			Return(order.ErrInvalidStatus)

		w := doJSON(r, "PATCH", "/api/admin/orders/ORD-1/status", `{"status":"SHIPPED"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
