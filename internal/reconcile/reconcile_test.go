package reconcile

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v72"

	"github.com/bookcourier/server/internal/checkout"
	"github.com/bookcourier/server/internal/orders"
	"github.com/bookcourier/server/internal/payments"
)

const (
	ordersTable   = "orders"
	paymentsTable = "payments"
)

var trackingPattern = regexp.MustCompile(`^LIB-\d{8}-[0-9A-F]{6}$`)

func newFlow(mock *mockDynamo, gateway checkout.Gateway) *Flow {
	return New(Config{
		Gateway:  gateway,
		Orders:   orders.NewStore(mock, ordersTable),
		Payments: payments.NewStore(mock, paymentsTable),
		Logger:   zerolog.Nop(),
	})
}

func seedOrder(t *testing.T, mock *mockDynamo, orderID string) {
	t.Helper()
	store := orders.NewStore(mock, ordersTable)
	err := store.Create(context.Background(), orders.Order{
		OrderID:       orderID,
		CustomerEmail: "reader@example.com",
		BookID:        "book-1",
		BookName:      "X",
		Amount:        500,
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func paidSession(orderID string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
		AmountTotal:   50000,
		Currency:      stripe.CurrencyUSD,
		CustomerEmail: "reader@example.com",
		Metadata: map[string]string{
			checkout.MetadataOrderID:     orderID,
			checkout.MetadataProductName: "X",
		},
	}
}

func orderItem(t *testing.T, mock *mockDynamo, orderID string) orders.Order {
	t.Helper()
	item, ok := mock.tables[ordersTable][orderID]
	if !ok {
		t.Fatalf("order %s missing from mock", orderID)
	}
	var o orders.Order
	if err := attributevalue.UnmarshalMap(item, &o); err != nil {
		t.Fatalf("unmarshal order: %v", err)
	}
	return o
}

func TestConfirm_PaidSession_RecordsPaymentAndMarksOrderPaid(t *testing.T) {
	mock := newMockDynamo()
	seedOrder(t, mock, "order-1")

	gateway := &checkout.MockGateway{
		FnSession: func(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
			return paidSession("order-1"), nil
		},
	}

	res, err := newFlow(mock, gateway).Confirm(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if res.AlreadyRecorded {
		t.Fatalf("expected fresh confirmation, got already-recorded")
	}
	if !res.OrderUpdated || !res.PaymentRecorded {
		t.Fatalf("expected both writes applied, got %+v", res)
	}
	if !trackingPattern.MatchString(res.TrackingID) {
		t.Fatalf("tracking id %q has wrong format", res.TrackingID)
	}
	if res.TransactionID != "pi_1" {
		t.Fatalf("transaction id mismatch: %s", res.TransactionID)
	}

	o := orderItem(t, mock, "order-1")
	if o.PaymentStatus != orders.PaymentPaid {
		t.Fatalf("order payment status = %s, want paid", o.PaymentStatus)
	}
	if o.TrackingID != res.TrackingID {
		t.Fatalf("order tracking id %q != result %q", o.TrackingID, res.TrackingID)
	}

	item, ok := mock.tables[paymentsTable]["pi_1"]
	if !ok {
		t.Fatalf("payment record not stored")
	}
	var p payments.Payment
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		t.Fatalf("unmarshal payment: %v", err)
	}
	if p.Amount != 500 {
		t.Fatalf("payment amount = %v, want 500", p.Amount)
	}
	if p.OrderID != "order-1" || p.BookName != "X" {
		t.Fatalf("payment fields wrong: %+v", p)
	}
	if p.TrackingID != res.TrackingID {
		t.Fatalf("payment tracking id mismatch")
	}
}

func TestConfirm_Twice_IsIdempotent(t *testing.T) {
	mock := newMockDynamo()
	seedOrder(t, mock, "order-1")

	gateway := &checkout.MockGateway{
		FnSession: func(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
			return paidSession("order-1"), nil
		},
	}
	flow := newFlow(mock, gateway)

	first, err := flow.Confirm(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("first Confirm error: %v", err)
	}
	second, err := flow.Confirm(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("second Confirm error: %v", err)
	}

	if !second.AlreadyRecorded {
		t.Fatalf("expected already-recorded on replay")
	}
	if second.TrackingID != first.TrackingID {
		t.Fatalf("replay tracking id %q != original %q", second.TrackingID, first.TrackingID)
	}
	if len(mock.tables[paymentsTable]) != 1 {
		t.Fatalf("expected exactly one payment record, got %d", len(mock.tables[paymentsTable]))
	}
}

func TestConfirm_UnpaidSession_NoMutation(t *testing.T) {
	mock := newMockDynamo()
	seedOrder(t, mock, "order-1")

	gateway := &checkout.MockGateway{
		FnSession: func(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
			sess := paidSession("order-1")
			sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
			return sess, nil
		},
	}

	_, err := newFlow(mock, gateway).Confirm(context.Background(), "cs_1")
	if !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatalf("expected ErrPaymentNotCompleted, got %v", err)
	}

	o := orderItem(t, mock, "order-1")
	if o.PaymentStatus != orders.PaymentUnpaid {
		t.Fatalf("order mutated: payment status %s", o.PaymentStatus)
	}
	if o.TrackingID != "" {
		t.Fatalf("order mutated: tracking id %q", o.TrackingID)
	}
	if len(mock.tables[paymentsTable]) != 0 {
		t.Fatalf("payment created for unpaid session")
	}
}

func TestConfirm_CancelledOrder_StillRecordsPayment(t *testing.T) {
	mock := newMockDynamo()
	seedOrder(t, mock, "order-1")
	if err := orders.NewStore(mock, ordersTable).Cancel(context.Background(), "order-1"); err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	gateway := &checkout.MockGateway{
		FnSession: func(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
			return paidSession("order-1"), nil
		},
	}

	res, err := newFlow(mock, gateway).Confirm(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if !res.PaymentRecorded {
		t.Fatalf("expected payment recorded for cancelled order")
	}

	o := orderItem(t, mock, "order-1")
	if o.OrderStatus != orders.StatusCancelled {
		t.Fatalf("order status = %s, want cancelled", o.OrderStatus)
	}
	if o.PaymentStatus != orders.PaymentPaid {
		t.Fatalf("payment status = %s, want paid", o.PaymentStatus)
	}
}

func TestConfirm_SessionNotFound(t *testing.T) {
	mock := newMockDynamo()

	gateway := &checkout.MockGateway{
		FnSession: func(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
			return nil, &stripe.Error{
				HTTPStatusCode: 404,
				Code:           stripe.ErrorCodeResourceMissing,
			}
		},
	}

	_, err := newFlow(mock, gateway).Confirm(context.Background(), "cs_gone")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestConfirm_GatewayDown(t *testing.T) {
	mock := newMockDynamo()

	gateway := &checkout.MockGateway{
		FnSession: func(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, err := newFlow(mock, gateway).Confirm(context.Background(), "cs_1")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestConfirm_OrderMissing(t *testing.T) {
	mock := newMockDynamo()

	gateway := &checkout.MockGateway{
		FnSession: func(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
			return paidSession("order-404"), nil
		},
	}

	_, err := newFlow(mock, gateway).Confirm(context.Background(), "cs_1")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if len(mock.tables[paymentsTable]) != 0 {
		t.Fatalf("payment created for missing order")
	}
}

func TestConfirm_ConcurrentDuplicate_ReturnsWinner(t *testing.T) {
	mock := newMockDynamo()
	seedOrder(t, mock, "order-1")

	// a competing confirmation commits between our pre-check and our write
	mock.preTransact = func(m *mockDynamo) {
		item, _ := attributevalue.MarshalMap(payments.Payment{
			TransactionID: "pi_1",
			OrderID:       "order-1",
			Amount:        500,
			TrackingID:    "LIB-20260101-ABC123",
			PaidAt:        time.Now(),
		})
		m.mu.Lock()
		m.ensureTable(paymentsTable)
		m.tables[paymentsTable]["pi_1"] = item
		m.mu.Unlock()
	}

	gateway := &checkout.MockGateway{
		FnSession: func(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
			return paidSession("order-1"), nil
		},
	}

	res, err := newFlow(mock, gateway).Confirm(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if !res.AlreadyRecorded {
		t.Fatalf("expected already-recorded after losing the race")
	}
	if res.TrackingID != "LIB-20260101-ABC123" {
		t.Fatalf("expected winner's tracking id, got %q", res.TrackingID)
	}
	if len(mock.tables[paymentsTable]) != 1 {
		t.Fatalf("expected one payment record, got %d", len(mock.tables[paymentsTable]))
	}
}
