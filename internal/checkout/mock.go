package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v72"
)

// MockGateway implements Gateway with overridable functions for tests.
type MockGateway struct {
	FnCreateSession func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	FnSession       func(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

func (m *MockGateway) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if m.FnCreateSession == nil {
		result := &stripe.CheckoutSession{
			ID:  "cs_test_id",
			URL: "https://checkout.stripe.test/pay/cs_test_id",
		}
		return result, nil
	}

	return m.FnCreateSession(ctx, params)
}

func (m *MockGateway) Session(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	if m.FnSession == nil {
		result := &stripe.CheckoutSession{
			ID:            id,
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			PaymentIntent: &stripe.PaymentIntent{ID: "pi_test_id"},
		}
		return result, nil
	}

	return m.FnSession(ctx, id)
}
