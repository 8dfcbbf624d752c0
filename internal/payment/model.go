package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AttemptState tracks one payment attempt from widget invocation to its
// terminal outcome. Exactly one non-terminal attempt may exist per order.
type AttemptState string

const (
	AttemptInitiated AttemptState = "INITIATED"
	AttemptVerifying AttemptState = "VERIFYING"
	AttemptSucceeded AttemptState = "SUCCEEDED"
	AttemptFailed    AttemptState = "FAILED"
	AttemptAbandoned AttemptState = "ABANDONED"
)

func (s AttemptState) Terminal() bool {
	switch s {
	case AttemptSucceeded, AttemptFailed, AttemptAbandoned:
		return true
	}
	return false
}

type Attempt struct {
	ID          uuid.UUID
	OrderID     uint
	Reference   string
	AmountMinor int64
	Channel     string
	State       AttemptState
	FailReason  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Channel string

const (
	ChannelCard     Channel = "card"
	ChannelBank     Channel = "bank"
	ChannelUSSD     Channel = "ussd"
	ChannelTransfer Channel = "bank_transfer"
	ChannelMobile   Channel = "mobile_money"
)

// InitResponse is what the redirect protocol needs: a hosted payment page
// URL plus the reference the provider will echo back.
type InitResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the authoritative answer for one reference. Callers must
// check Success and Status; a nil error alone never means paid.
type VerifyResult struct {
	Success     bool
	Status      string
	AmountMinor int64
	Currency    string
	Channel     string
	PaidAt      *time.Time
	Raw         json.RawMessage
}
