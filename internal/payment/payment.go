package payment

import "context"

// Gateway wraps the payment provider's server-side API. VerifyTransaction
// is the trusted re-check that gates every payment_status upgrade.
type Gateway interface {
	InitializeTransaction(ctx context.Context, reference, email string, amountMinor int64, channels []Channel) (*InitResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error)
	VerifyWebhookSignature(body []byte, signature string) error
	PublicKey() string
}
