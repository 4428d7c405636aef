// Package payments defines the hosted payment gateway boundary. Amounts
// cross this boundary in integer minor units only.
package payments

import "context"

// Session payment states reported by the gateway.
const (
	SessionPaid   = "paid"
	SessionUnpaid = "unpaid"
)

// LineItem is one priced line on a hosted checkout session.
type LineItem struct {
	Name            string
	Quantity        int64
	UnitAmountCents int64
}

// CreateSessionInput carries everything needed to open a hosted session.
type CreateSessionInput struct {
	OrderID    uint
	Currency   string
	SuccessURL string
	CancelURL  string
	LineItems  []LineItem
}

// Session is the gateway's view of a hosted checkout session.
type Session struct {
	ID              string
	URL             string
	PaymentIntentID string
	PaymentStatus   string
}

// RefundInput requests a refund against a captured payment.
type RefundInput struct {
	PaymentIntentID string
	AmountCents     int64
}

// Refund reports the outcome of a refund request.
type Refund struct {
	ID     string
	Status string
}

// Gateway abstracts the hosted payment provider. Implementations wrap
// provider failures in a dependency-coded error.
type Gateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	CreateRefund(ctx context.Context, in RefundInput) (*Refund, error)
}
