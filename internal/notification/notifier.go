package notification

import "context"

// Notifier sends the two SMS messages that accompany a finalized order.
// Both are best-effort: the orchestrator logs failures and moves on.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, phone, orderNumber string, amount float64, firstName string) error
	SendMerchantAlert(ctx context.Context, orderNumber string, amount float64, fullName, phone string) error
}
