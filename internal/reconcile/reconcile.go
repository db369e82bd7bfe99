// Package reconcile confirms external checkout sessions and applies their
// effects to local order and payment state exactly once.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v72"

	"github.com/bookcourier/server/internal/aws"
	"github.com/bookcourier/server/internal/checkout"
	"github.com/bookcourier/server/internal/orders"
	"github.com/bookcourier/server/internal/payments"
	"github.com/bookcourier/server/internal/tracking"
)

var (
	// ErrSessionNotFound indicates the session id is unknown or expired.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrUpstreamUnavailable indicates the gateway could not be reached or
	// answered with a server-side failure.
	ErrUpstreamUnavailable = errors.New("payment gateway unavailable")
	// ErrPaymentNotCompleted indicates the session is not in the paid state.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	// ErrOrderNotFound indicates the session metadata references an order
	// that does not exist.
	ErrOrderNotFound = errors.New("order not found")
)

// gatewayTimeout bounds the session retrieval; a timeout classifies as
// upstream-unavailable.
const gatewayTimeout = 10 * time.Second

// Result is the structured outcome of a confirmation.
type Result struct {
	AlreadyRecorded bool   `json:"alreadyRecorded"`
	TrackingID      string `json:"trackingId"`
	TransactionID   string `json:"transactionId"`
	OrderUpdated    bool   `json:"orderUpdated"`
	PaymentRecorded bool   `json:"paymentRecorded"`
}

// Config groups the flow's collaborators. Publisher and Metrics are
// optional; when nil the flow simply skips them.
type Config struct {
	Gateway   checkout.Gateway
	Orders    *orders.Store
	Payments  *payments.Store
	Publisher *aws.Publisher
	Metrics   *aws.Metrics
	Logger    zerolog.Logger
}

// Flow orchestrates payment confirmation.
type Flow struct {
	gateway   checkout.Gateway
	orders    *orders.Store
	payments  *payments.Store
	publisher *aws.Publisher
	metrics   *aws.Metrics
	log       zerolog.Logger

	newTrackingID func() string
	nowFunc       func() time.Time
}

// New returns a configured Flow.
func New(cfg Config) *Flow {
	return &Flow{
		gateway:       cfg.Gateway,
		orders:        cfg.Orders,
		payments:      cfg.Payments,
		publisher:     cfg.Publisher,
		metrics:       cfg.Metrics,
		log:           cfg.Logger,
		newTrackingID: tracking.NewID,
		nowFunc:       time.Now,
	}
}

// Confirm retrieves the checkout session and, if it is paid and not yet
// recorded, marks the order paid and inserts the payment record in one
// transaction. Invoking it again for the same transaction returns the
// original tracking id with AlreadyRecorded set.
func (f *Flow) Confirm(ctx context.Context, sessionID string) (*Result, error) {
	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	sess, err := f.gateway.Session(gctx, sessionID)
	if err != nil {
		return nil, classifyGatewayError(err)
	}

	var txID string
	if sess.PaymentIntent != nil {
		txID = sess.PaymentIntent.ID
	}

	// Idempotency pre-check. Must happen before any mutation so replays
	// and duplicate callbacks never write twice.
	if txID != "" {
		existing, err := f.payments.GetByTransactionID(ctx, txID)
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		if existing != nil {
			f.count(ctx, aws.MetricReconcileDuplicate)
			return &Result{
				AlreadyRecorded: true,
				TrackingID:      existing.TrackingID,
				TransactionID:   txID,
			}, nil
		}
	}

	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		f.count(ctx, aws.MetricReconcileNotPaid)
		return nil, ErrPaymentNotCompleted
	}
	if txID == "" {
		return nil, fmt.Errorf("%w: session %s is paid but carries no payment intent", ErrUpstreamUnavailable, sessionID)
	}

	orderID := sess.Metadata[checkout.MetadataOrderID]
	if orderID == "" {
		return nil, ErrOrderNotFound
	}
	order, err := f.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.OrderStatus == orders.StatusCancelled {
		// Cancelled orders remain payable: the money was taken, so the
		// payment is recorded and fulfillment is left to refuse the order.
		f.log.Warn().
			Str("order_id", orderID).
			Str("transaction_id", txID).
			Msg("recording payment for a cancelled order")
	}

	trackingID := f.newTrackingID()
	payment := payments.Payment{
		TransactionID: txID,
		OrderID:       orderID,
		Amount:        checkout.AmountFromMinorUnits(sess.AmountTotal),
		Currency:      string(sess.Currency),
		CustomerEmail: customerEmail(sess),
		BookName:      sess.Metadata[checkout.MetadataProductName],
		PaymentStatus: string(sess.PaymentStatus),
		TrackingID:    trackingID,
		PaidAt:        f.nowFunc(),
	}

	err = f.payments.RecordWithOrderPaid(ctx, payment, f.orders.TableName())
	if errors.Is(err, payments.ErrDuplicateTransaction) {
		// A concurrent confirmation for the same transaction won the race;
		// answer with the winner's tracking id.
		existing, gerr := f.payments.GetByTransactionID(ctx, txID)
		if gerr != nil {
			return nil, fmt.Errorf("duplicate payment lookup: %w", gerr)
		}
		if existing == nil {
			return nil, fmt.Errorf("payment insert rejected as duplicate but no record found for transaction %s", txID)
		}
		f.count(ctx, aws.MetricReconcileDuplicate)
		return &Result{
			AlreadyRecorded: true,
			TrackingID:      existing.TrackingID,
			TransactionID:   txID,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	f.publishConfirmed(ctx, orderID, txID, trackingID)
	f.count(ctx, aws.MetricReconcileSucceeded)

	f.log.Info().
		Str("order_id", orderID).
		Str("transaction_id", txID).
		Str("tracking_id", trackingID).
		Msg("payment reconciled")

	return &Result{
		TrackingID:      trackingID,
		TransactionID:   txID,
		OrderUpdated:    true,
		PaymentRecorded: true,
	}, nil
}

// publishConfirmed hands the order to the fulfillment queue. Best-effort:
// the payment is already durable, so a publish failure only logs.
func (f *Flow) publishConfirmed(ctx context.Context, orderID, txID, trackingID string) {
	if f.publisher == nil {
		return
	}
	ev := aws.PaymentConfirmedEvent{
		OrderID:       orderID,
		TransactionID: txID,
		TrackingID:    trackingID,
	}
	if err := f.publisher.PublishPaymentConfirmed(ctx, ev); err != nil {
		f.log.Warn().Err(err).
			Str("order_id", orderID).
			Msg("failed to publish payment-confirmed event")
	}
}

func (f *Flow) count(ctx context.Context, metric string) {
	if f.metrics == nil {
		return
	}
	if err := f.metrics.Count(ctx, metric); err != nil {
		f.log.Debug().Err(err).Str("metric", metric).Msg("metric emit failed")
	}
}

// customerEmail prefers the completed-payment customer record, then the
// email the session was created with.
func customerEmail(sess *stripe.CheckoutSession) string {
	if sess.Customer != nil && sess.Customer.Email != "" {
		return sess.Customer.Email
	}
	if sess.CustomerEmail != "" {
		return sess.CustomerEmail
	}
	if sess.CustomerDetails != nil {
		return sess.CustomerDetails.Email
	}
	return ""
}

func classifyGatewayError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		if serr.HTTPStatusCode == http.StatusNotFound || serr.Code == stripe.ErrorCodeResourceMissing {
			return ErrSessionNotFound
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
