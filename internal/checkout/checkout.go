// Package checkout wraps the Stripe checkout-session API behind a small
// interface so the payment flow can be exercised without the real provider.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// Gateway is what the handlers and the reconciliation flow consume.
type Gateway interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Session(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

// Client is the Stripe-backed Gateway.
type Client struct {
	cl *client.API
}

// NewClient builds a Gateway from a Stripe secret key.
func NewClient(secretKey string) *Client {
	cl := &client.API{}
	cl.Init(secretKey, nil)
	return &Client{cl: cl}
}

// CreateSession creates a hosted checkout session.
func (c *Client) CreateSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return c.cl.CheckoutSessions.New(params)
}

// Session retrieves a checkout session by id.
func (c *Client) Session(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	return c.cl.CheckoutSessions.Get(id, nil)
}

// SessionRequest carries the order details a checkout session is built from.
type SessionRequest struct {
	OrderID       string
	BookName      string
	CustomerEmail string
	Amount        float64 // decimal currency units, e.g. 12.50
}

// Metadata keys carried on the session so the callback can find the order.
const (
	MetadataOrderID     = "orderId"
	MetadataProductName = "productName"
)

// BuildSessionParams assembles the session parameters: a single line item
// priced in minor units, the customer's email, and metadata linking back to
// the order. Redirect URLs are built from the public site origin.
func BuildSessionParams(req SessionRequest, siteOrigin string) *stripe.CheckoutSessionParams {
	minorUnits := decimal.NewFromFloat(req.Amount).Shift(2).IntPart()

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(siteOrigin + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(siteOrigin + "/dashboard/payment-cancelled"),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(req.OrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(minorUnits),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Please pay for: " + req.BookName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}

	params.AddMetadata(MetadataOrderID, req.OrderID)
	params.AddMetadata(MetadataProductName, req.BookName)

	return params
}

// AmountFromMinorUnits converts the session's integer amount back into
// decimal currency units.
func AmountFromMinorUnits(minor int64) float64 {
	f, _ := decimal.NewFromInt(minor).Shift(-2).Float64()
	return f
}
