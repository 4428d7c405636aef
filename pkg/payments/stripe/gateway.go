package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/refund"

	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/payments"
)

// gateway adapts Stripe Checkout to the payments.Gateway boundary.
type gateway struct {
	client *Client
}

// NewGateway wires the Stripe client into the payment gateway boundary.
func NewGateway(client *Client) (payments.Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe gateway: client is required")
	}
	return &gateway{client: client}, nil
}

func (g *gateway) CreateSession(ctx context.Context, in payments.CreateSessionInput) (*payments.Session, error) {
	if len(in.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session requires at least one line item")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		ClientReferenceID: stripe.String(fmt.Sprintf("%d", in.OrderID)),
	}
	params.Context = ctx

	for _, item := range in.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(in.Currency),
				UnitAmount: stripe.Int64(item.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: create checkout session")
	}
	return mapSession(sess), nil
}

func (g *gateway) GetSession(ctx context.Context, id string) (*payments.Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(id, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: fetch checkout session")
	}
	return mapSession(sess), nil
}

func (g *gateway) CreateRefund(ctx context.Context, in payments.RefundInput) (*payments.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(in.PaymentIntentID),
	}
	if in.AmountCents > 0 {
		params.Amount = stripe.Int64(in.AmountCents)
	}
	params.Context = ctx

	ref, err := refund.New(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: create refund")
	}
	return &payments.Refund{ID: ref.ID, Status: string(ref.Status)}, nil
}

func mapSession(sess *stripe.CheckoutSession) *payments.Session {
	out := &payments.Session{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out
}
