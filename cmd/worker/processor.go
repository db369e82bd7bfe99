package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/bookcourier/server/internal/aws"
	"github.com/bookcourier/server/internal/orders"
)

// Processor consumes payment-confirmed events and kicks off fulfillment.
type Processor struct {
	orderStore *orders.Store
	log        zerolog.Logger
}

// NewProcessor creates a worker processor bound to the orders table.
func NewProcessor(dynamo aws.DynamoDBAPI, ordersTable string, log zerolog.Logger) *Processor {
	return &Processor{
		orderStore: orders.NewStore(dynamo, ordersTable),
		log:        log,
	}
}

// Handle receives an SQS batch event and processes each message.
// Returning an error makes Lambda retry the batch; repeated failures land
// in the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error().Err(err).Msg("worker error")
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg PaymentConfirmedMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	p.log.Info().
		Str("order_id", msg.OrderID).
		Str("transaction_id", msg.TransactionID).
		Msg("payment confirmed, starting fulfillment")

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("fetch order: %w", err)
	}
	if order == nil {
		// reconciliation verified the order before publishing, so this
		// means it was deleted afterwards; DLQ for inspection
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	if order.OrderStatus == orders.StatusCancelled {
		// the payment is recorded, but a cancelled order is not shipped
		p.log.Warn().
			Str("order_id", msg.OrderID).
			Msg("paid order is cancelled, skipping fulfillment")
		return nil
	}

	err = p.orderStore.AdvanceStatus(ctx, msg.OrderID, orders.StatusPending, orders.StatusProcessing)
	if errors.Is(err, orders.ErrStatusMismatch) {
		o2, err := p.orderStore.Get(ctx, msg.OrderID)
		if err != nil {
			return fmt.Errorf("re-fetch order: %w", err)
		}
		if o2 == nil {
			return fmt.Errorf("order %s deleted while starting fulfillment", msg.OrderID)
		}
		switch o2.OrderStatus {
		case orders.StatusProcessing, orders.StatusShipped, orders.StatusDelivered:
			// duplicate event, fulfillment already underway
			p.log.Info().
				Str("order_id", msg.OrderID).
				Str("order_status", o2.OrderStatus).
				Msg("duplicate fulfillment event")
			return nil
		case orders.StatusCancelled:
			p.log.Warn().
				Str("order_id", msg.OrderID).
				Msg("order cancelled while starting fulfillment")
			return nil
		default:
			return fmt.Errorf("unexpected status for order %s: %s", msg.OrderID, o2.OrderStatus)
		}
	}
	if err != nil {
		return fmt.Errorf("advance order status: %w", err)
	}

	p.log.Info().
		Str("order_id", msg.OrderID).
		Str("tracking_id", msg.TrackingID).
		Msg("fulfillment started")
	return nil
}
