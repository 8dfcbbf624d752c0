package payment

import "errors"

var (
	ErrAttemptNotFound   = errors.New("payment attempt not found")
	ErrInvalidTransition = errors.New("invalid payment attempt transition")
	ErrBadSignature      = errors.New("invalid webhook signature")
)
