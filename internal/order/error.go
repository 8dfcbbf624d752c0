package order

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrReferenceRequired    = errors.New("payment reference is required")
	ErrPaymentInFlight      = errors.New("a payment attempt is already in progress")
	ErrVerificationFailed   = errors.New("payment verification failed")
	ErrInvalidStatus        = errors.New("invalid order status transition")
)
