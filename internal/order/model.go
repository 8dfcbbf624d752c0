package order

import (
	"math"
	"strings"
	"time"

	"gidimart-be/internal/payment"
)

// Fulfilment and payment lifecycles are independent axes. They are kept as
// two fields so illegal combinations (shipped but unpaid) can be rejected,
// never encoded as one status string.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	// PaymentFailed is a webhook-reported terminal for gateway orders; it
	// never appears on the success path.
	PaymentFailed PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	MethodGateway        PaymentMethod = "GATEWAY"
	MethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

// Address is the buyer-entered address snapshotted onto the order. It is
// not a reference to a profile; later profile edits do not touch it.
type Address struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type Order struct {
	ID               uint
	UserID           uint
	OrderNumber      string
	TotalAmount      float64
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentMethod    PaymentMethod
	PaymentReference *string
	ShippingAddress  Address
	BillingAddress   Address
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Items            []OrderItem
}

// AmountMinor is the order total in kobo, as the gateway expects it.
func (o *Order) AmountMinor() int64 {
	return int64(math.Round(o.TotalAmount * 100))
}

// OrderItem is an immutable per-line snapshot taken from the cart at order
// time; catalog changes never rewrite it.
type OrderItem struct {
	ID          uint
	OrderID     uint
	ProductID   uint
	ProductName string
	Quantity    int
	Price       float64
}

type CheckoutInput struct {
	ShippingAddress Address
	BillingAddress  *Address
	PaymentMethod   PaymentMethod
	Protocol        string // "inline" or "redirect"; ignored for cash on delivery
	Channels        []payment.Channel
}

// InlineCheckout is everything the in-page widget needs to open.
type InlineCheckout struct {
	Reference   string            `json:"reference"`
	Email       string            `json:"email"`
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Channels    []payment.Channel `json:"channels"`
	PublicKey   string            `json:"public_key"`
}

type CheckoutResult struct {
	Order *Order
	// Final is true when no gateway interaction is pending (cash on delivery).
	Final    bool
	Inline   *InlineCheckout
	Redirect *payment.InitResponse
}
