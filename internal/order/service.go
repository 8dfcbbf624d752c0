package order

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gidimart-be/internal/cart"
	"gidimart-be/internal/logger"
	"gidimart-be/internal/metrics"
	"gidimart-be/internal/notification"
	"gidimart-be/internal/payment"
	"gidimart-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	Checkout(ctx context.Context, userID uint, input CheckoutInput) (*CheckoutResult, error)
	ReinitiatePayment(ctx context.Context, userID uint, orderNumber, protocol string) (*CheckoutResult, error)
	ConfirmGatewayPayment(ctx context.Context, userID uint, reference string) (*Order, error)
	CancelGatewayPayment(ctx context.Context, userID uint, reference string) (*Order, error)
	CompleteOrder(ctx context.Context, userID uint, reference string) (*Order, error)
	ReconcilePayment(ctx context.Context, reference string) error
	FailPaymentByReference(ctx context.Context, reference, reason string) error
	GetOrders(ctx context.Context, userID uint, limit, page int32) ([]*Order, error)
	GetOrderDetail(ctx context.Context, userID uint, orderNumber string, isAdmin bool) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderNumber string, status OrderStatus) error
}

type service struct {
	repo     Repository
	payRepo  payment.Repository
	gateway  payment.Gateway
	cartSvc  cart.Service
	notifier notification.Notifier
}

func NewService(
	repo Repository,
	payRepo payment.Repository,
	gateway payment.Gateway,
	cartSvc cart.Service,
	notifier notification.Notifier,
) Service {
	return &service{
		repo:     repo,
		payRepo:  payRepo,
		gateway:  gateway,
		cartSvc:  cartSvc,
		notifier: notifier,
	}
}

var defaultChannels = []payment.Channel{
	payment.ChannelCard,
	payment.ChannelBank,
	payment.ChannelUSSD,
	payment.ChannelTransfer,
}

// Checkout turns the cart snapshot plus the shipping form into a durable
// order. The order row always exists before any gateway interaction so a
// reference can never exist without a backing order.
func (s *service) Checkout(ctx context.Context, userID uint, input CheckoutInput) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("user_id", userID),
		zap.String("payment_method", string(input.PaymentMethod)),
	)

	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if input.PaymentMethod != MethodGateway && input.PaymentMethod != MethodCashOnDelivery {
		return nil, ErrInvalidPaymentMethod
	}

	snap, err := s.cartSvc.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if snap.Empty() {
		return nil, ErrEmptyCart
	}

	o := s.buildOrder(userID, input, snap)

	log = log.With(
		zap.String("order_number", o.OrderNumber),
		zap.Float64("total_amount", o.TotalAmount),
		zap.Int("item_count", len(o.Items)),
	)

	if err := s.repo.CreateOrderTx(ctx, o); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		metrics.CheckoutTotal.WithLabelValues(string(input.PaymentMethod), "error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	log.Info("order persisted")

	if input.PaymentMethod == MethodCashOnDelivery {
		return s.finalizeCashOnDelivery(ctx, o, log)
	}

	return s.initiateGatewayPayment(ctx, o, o.OrderNumber, input.Protocol, input.Channels, log)
}

func (s *service) buildOrder(userID uint, input CheckoutInput, snap cart.Snapshot) *Order {
	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	o := &Order{
		UserID:          userID,
		OrderNumber:     utils.GenerateOrderNumber(),
		TotalAmount:     snap.Total,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billing,
	}

	for _, it := range snap.Items {
		o.Items = append(o.Items, OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}

	return o
}

// Cash on delivery skips the gateway entirely: once the order row exists it
// is final no matter what the notifications do.
func (s *service) finalizeCashOnDelivery(ctx context.Context, o *Order, log *zap.Logger) (*CheckoutResult, error) {
	if err := s.repo.MarkProcessing(ctx, o.ID); err != nil {
		log.Error("failed to mark order processing", zap.Error(err))
		metrics.CheckoutTotal.WithLabelValues(string(MethodCashOnDelivery), "error").Inc()
		return nil, fmt.Errorf("failed to finalize order: %w", err)
	}
	o.Status = StatusProcessing

	s.notify(ctx, o)
	s.clearCart(ctx, o.UserID)

	metrics.CheckoutTotal.WithLabelValues(string(MethodCashOnDelivery), "completed").Inc()
	log.Info("cash on delivery order finalized")

	return &CheckoutResult{Order: o, Final: true}, nil
}

func (s *service) initiateGatewayPayment(
	ctx context.Context,
	o *Order,
	reference, protocol string,
	channels []payment.Channel,
	log *zap.Logger,
) (*CheckoutResult, error) {

	if len(channels) == 0 {
		channels = defaultChannels
	}

	attempt := &payment.Attempt{
		OrderID:     o.ID,
		Reference:   reference,
		AmountMinor: o.AmountMinor(),
		Channel:     string(channels[0]),
	}
	if err := s.payRepo.CreateAttempt(ctx, attempt); err != nil {
		log.Error("failed to record payment attempt", zap.Error(err))
		metrics.CheckoutTotal.WithLabelValues(string(MethodGateway), "error").Inc()
		return nil, fmt.Errorf("failed to record payment attempt: %w", err)
	}

	result := &CheckoutResult{Order: o}

	if protocol == "redirect" {
		init, err := s.gateway.InitializeTransaction(ctx, reference, o.ShippingAddress.Email, o.AmountMinor(), channels)
		if err != nil {
			log.Error("gateway initialization failed", zap.Error(err))
			reason := "gateway initialization failed"
			_ = s.payRepo.TransitionState(ctx, reference, payment.AttemptInitiated, payment.AttemptFailed, &reason)
			metrics.CheckoutTotal.WithLabelValues(string(MethodGateway), "error").Inc()
			return nil, fmt.Errorf("failed to initialize payment: %w", err)
		}
		result.Redirect = init
	} else {
		result.Inline = &InlineCheckout{
			Reference:   reference,
			Email:       o.ShippingAddress.Email,
			AmountMinor: o.AmountMinor(),
			Currency:    "NGN",
			Channels:    channels,
			PublicKey:   s.gateway.PublicKey(),
		}
	}

	metrics.CheckoutTotal.WithLabelValues(string(MethodGateway), "initiated").Inc()
	log.Info("gateway payment initiated", zap.String("protocol", protocol))

	return result, nil
}

// ReinitiatePayment opens a fresh attempt for an existing pending order,
// for example after the buyer dismissed the widget. While a previous
// attempt's callback is still outstanding the request is refused.
func (s *service) ReinitiatePayment(ctx context.Context, userID uint, orderNumber, protocol string) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ReinitiatePayment"),
		zap.String("order_number", orderNumber),
	)

	o, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrUnauthorized
	}
	if o.PaymentMethod != MethodGateway {
		return nil, ErrInvalidPaymentMethod
	}
	if o.PaymentStatus == PaymentCompleted {
		return &CheckoutResult{Order: o, Final: true}, nil
	}

	active, err := s.payRepo.GetActiveByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		log.Warn("payment attempt already outstanding", zap.String("reference", active.Reference))
		return nil, ErrPaymentInFlight
	}

	// Each attempt needs its own reference; the gateway rejects reuse.
	reference := utils.GenerateOrderNumber()

	return s.initiateGatewayPayment(ctx, o, reference, protocol, nil, log)
}

// ConfirmGatewayPayment handles the widget's success callback. The
// client-reported success is only a trigger: the verification call decides.
func (s *service) ConfirmGatewayPayment(ctx context.Context, userID uint, reference string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ConfirmGatewayPayment"),
		zap.String("reference", reference),
	)

	attempt, err := s.payRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, attempt.OrderID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && o.UserID != userID {
		return nil, ErrUnauthorized
	}
	if o.PaymentStatus == PaymentCompleted {
		return o, nil
	}

	if err := s.payRepo.TransitionState(ctx, reference, payment.AttemptInitiated, payment.AttemptVerifying, nil); err != nil {
		if errors.Is(err, payment.ErrInvalidTransition) {
			return nil, ErrPaymentInFlight
		}
		return nil, err
	}

	res, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		log.Error("verification call failed", zap.Error(err))
		s.failAttempt(ctx, reference, "verification call failed")
		metrics.PaymentVerifications.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if !res.Success {
		log.Warn("verification reported non-success", zap.String("status", res.Status))
		s.failAttempt(ctx, reference, "provider status: "+res.Status)
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		return nil, ErrVerificationFailed
	}

	if res.AmountMinor != o.AmountMinor() {
		log.Error("verified amount does not match order total",
			zap.Int64("verified_amount", res.AmountMinor),
			zap.Int64("expected_amount", o.AmountMinor()),
		)
		s.failAttempt(ctx, reference, "amount mismatch")
		metrics.PaymentVerifications.WithLabelValues("amount_mismatch").Inc()
		return nil, ErrVerificationFailed
	}

	if err := s.repo.MarkPaid(ctx, o.ID, reference); err != nil {
		log.Error("failed to record payment on order", zap.Error(err))
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	_ = s.payRepo.TransitionState(ctx, reference, payment.AttemptVerifying, payment.AttemptSucceeded, nil)

	o.PaymentStatus = PaymentCompleted
	o.Status = StatusProcessing
	o.PaymentReference = &reference

	s.notify(ctx, o)
	s.clearCart(ctx, o.UserID)

	metrics.PaymentVerifications.WithLabelValues("success").Inc()
	metrics.CheckoutTotal.WithLabelValues(string(MethodGateway), "completed").Inc()
	log.Info("payment verified and order completed")

	return o, nil
}

// CancelGatewayPayment handles the widget's close callback: the buyer
// dismissed the widget. No verification call is made and the order keeps
// its pending/pending state so checkout can be retried.
func (s *service) CancelGatewayPayment(ctx context.Context, userID uint, reference string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CancelGatewayPayment"),
		zap.String("reference", reference),
	)

	attempt, err := s.payRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, attempt.OrderID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && o.UserID != userID {
		return nil, ErrUnauthorized
	}

	reason := "widget closed by buyer"
	err = s.payRepo.TransitionState(ctx, reference, payment.AttemptInitiated, payment.AttemptAbandoned, &reason)
	if err != nil && !errors.Is(err, payment.ErrInvalidTransition) {
		return nil, err
	}

	metrics.CheckoutTotal.WithLabelValues(string(MethodGateway), "cancelled").Inc()
	log.Info("payment cancelled by buyer")

	return o, nil
}

// CompleteOrder is the redirect-landing operation: given only a reference
// it verifies with the provider and settles the matching order, creating it
// from the recoverable cart state when no row exists yet. Idempotent per
// reference.
func (s *service) CompleteOrder(ctx context.Context, userID uint, reference string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CompleteOrder"),
		zap.String("reference", reference),
	)

	if reference == "" {
		return nil, ErrReferenceRequired
	}

	res, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		log.Error("verification call failed", zap.Error(err))
		metrics.PaymentVerifications.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if !res.Success {
		log.Warn("verification reported non-success", zap.String("status", res.Status))
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		return nil, ErrVerificationFailed
	}

	o, err := s.repo.GetByReference(ctx, reference)
	switch {
	case err == nil:
		return s.settleExistingOrder(ctx, o, reference, res, userID, log)
	case errors.Is(err, ErrOrderNotFound):
		return s.materializeOrder(ctx, userID, reference, res, log)
	default:
		return nil, err
	}
}

func (s *service) settleExistingOrder(
	ctx context.Context,
	o *Order,
	reference string,
	res *payment.VerifyResult,
	userID uint,
	log *zap.Logger,
) (*Order, error) {

	if userID != 0 && o.UserID != userID {
		return nil, ErrUnauthorized
	}

	// Second call with the same reference: nothing left to do.
	if o.PaymentStatus == PaymentCompleted {
		log.Info("order already completed for reference")
		return o, nil
	}

	if res.AmountMinor != o.AmountMinor() {
		log.Error("verified amount does not match order total",
			zap.Int64("verified_amount", res.AmountMinor),
			zap.Int64("expected_amount", o.AmountMinor()),
		)
		metrics.PaymentVerifications.WithLabelValues("amount_mismatch").Inc()
		return nil, ErrVerificationFailed
	}

	if err := s.repo.MarkPaid(ctx, o.ID, reference); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	// Settle the attempt row whichever non-terminal state it is in.
	if err := s.payRepo.TransitionState(ctx, reference, payment.AttemptInitiated, payment.AttemptSucceeded, nil); err != nil {
		_ = s.payRepo.TransitionState(ctx, reference, payment.AttemptVerifying, payment.AttemptSucceeded, nil)
	}

	o.PaymentStatus = PaymentCompleted
	o.Status = StatusProcessing
	o.PaymentReference = &reference

	s.notify(ctx, o)
	s.clearCart(ctx, o.UserID)

	metrics.PaymentVerifications.WithLabelValues("success").Inc()
	metrics.CheckoutTotal.WithLabelValues(string(MethodGateway), "completed").Inc()
	log.Info("order settled from redirect landing")

	return o, nil
}

// materializeOrder synthesizes the order row when payment happened on the
// provider's page before any local order existed. Only the cart is
// recoverable at this point; the address fields stay empty and are flagged
// for follow-up by support.
func (s *service) materializeOrder(
	ctx context.Context,
	userID uint,
	reference string,
	res *payment.VerifyResult,
	log *zap.Logger,
) (*Order, error) {

	if userID == 0 {
		return nil, ErrOrderNotFound
	}

	snap, err := s.cartSvc.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if snap.Empty() {
		log.Warn("verified payment with no matching order and empty cart")
		return nil, ErrOrderNotFound
	}

	if int64(math.Round(snap.Total*100)) != res.AmountMinor {
		log.Error("cart total does not match verified amount",
			zap.Int64("verified_amount", res.AmountMinor),
			zap.Float64("cart_total", snap.Total),
		)
		metrics.PaymentVerifications.WithLabelValues("amount_mismatch").Inc()
		return nil, ErrVerificationFailed
	}

	email, _ := utils.GetUserEmailFromContext(ctx)
	o := &Order{
		UserID:           userID,
		OrderNumber:      reference,
		TotalAmount:      snap.Total,
		PaymentMethod:    MethodGateway,
		PaymentReference: &reference,
		ShippingAddress:  Address{Email: email},
		BillingAddress:   Address{Email: email},
	}
	for _, it := range snap.Items {
		o.Items = append(o.Items, OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}

	if err := s.repo.CreateCompletedOrderTx(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to materialize order: %w", err)
	}
	if o.ID == 0 {
		// Lost the race: another caller materialized this reference.
		return s.repo.GetByReference(ctx, reference)
	}

	log.Warn("order materialized from cart for verified payment",
		zap.String("order_number", o.OrderNumber),
	)

	s.notify(ctx, o)
	s.clearCart(ctx, userID)

	metrics.PaymentVerifications.WithLabelValues("success").Inc()
	metrics.CheckoutTotal.WithLabelValues(string(MethodGateway), "completed").Inc()

	return o, nil
}

// ReconcilePayment is the webhook's charge.success path. No buyer context:
// it settles an existing order only, never materializes one.
func (s *service) ReconcilePayment(ctx context.Context, reference string) error {
	_, err := s.CompleteOrder(ctx, 0, reference)
	return err
}

// FailPaymentByReference records a provider-reported failure (webhook
// charge.failed). A completed order is never downgraded.
func (s *service) FailPaymentByReference(ctx context.Context, reference, reason string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "FailPaymentByReference"),
		zap.String("reference", reference),
	)

	o, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	if o.PaymentStatus == PaymentCompleted {
		log.Warn("ignoring failure event for completed order")
		return nil
	}

	if err := s.repo.MarkPaymentFailed(ctx, o.ID); err != nil {
		return err
	}
	s.failAttempt(ctx, reference, reason)

	log.Info("payment marked failed", zap.String("reason", reason))
	return nil
}

func (s *service) failAttempt(ctx context.Context, reference, reason string) {
	if err := s.payRepo.TransitionState(ctx, reference, payment.AttemptVerifying, payment.AttemptFailed, &reason); err != nil {
		_ = s.payRepo.TransitionState(ctx, reference, payment.AttemptInitiated, payment.AttemptFailed, &reason)
	}
}

func (s *service) GetOrders(ctx context.Context, userID uint, limit, page int32) ([]*Order, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	return s.repo.FetchOrders(ctx, userID, limit, (page-1)*limit)
}

func (s *service) GetOrderDetail(ctx context.Context, userID uint, orderNumber string, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if !isAdmin && o.UserID != userID {
		return nil, ErrUnauthorized
	}

	return o, nil
}

// UpdateOrderStatus advances the fulfilment axis (admin only). Gateway
// orders cannot move past pending until their payment completed.
func (s *service) UpdateOrderStatus(ctx context.Context, orderNumber string, status OrderStatus) error {
	validStatuses := map[OrderStatus]bool{
		StatusProcessing: true,
		StatusShipped:    true,
		StatusDelivered:  true,
	}
	if !validStatuses[status] {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	o, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return err
	}

	if o.PaymentMethod == MethodGateway && o.PaymentStatus != PaymentCompleted {
		return fmt.Errorf("%w: payment not completed", ErrInvalidStatus)
	}

	return s.repo.UpdateFulfilmentStatus(ctx, o.ID, status)
}

// notify sends the buyer and merchant SMS. Each send is wrapped on its own:
// a failure is logged and counted, never returned, and never rolls back the
// order.
func (s *service) notify(ctx context.Context, o *Order) {
	log := logger.FromCtx(ctx).With(zap.String("order_number", o.OrderNumber))
	addr := o.ShippingAddress

	if err := s.notifier.SendOrderConfirmation(ctx, addr.Phone, o.OrderNumber, o.TotalAmount, addr.FirstName); err != nil {
		metrics.SMSDeliveries.WithLabelValues("buyer_confirmation", "error").Inc()
		log.Warn("buyer confirmation SMS failed", zap.Error(err))
	} else {
		metrics.SMSDeliveries.WithLabelValues("buyer_confirmation", "sent").Inc()
	}

	if err := s.notifier.SendMerchantAlert(ctx, o.OrderNumber, o.TotalAmount, addr.FullName(), addr.Phone); err != nil {
		metrics.SMSDeliveries.WithLabelValues("merchant_alert", "error").Inc()
		log.Warn("merchant alert SMS failed", zap.Error(err))
	} else {
		metrics.SMSDeliveries.WithLabelValues("merchant_alert", "sent").Inc()
	}
}

func (s *service) clearCart(ctx context.Context, userID uint) {
	if err := s.cartSvc.Clear(ctx, userID); err != nil {
		logger.FromCtx(ctx).Warn("failed to clear cart after order finality",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
	}
}
