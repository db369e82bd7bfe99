package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// PaymentConfirmedEvent is published after a payment is reconciled so the
// fulfillment worker can pick the order up.
type PaymentConfirmedEvent struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	TrackingID    string `json:"trackingId"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Publisher sends payment events to the fulfillment queue.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishPaymentConfirmed serializes the event and sends it. The order and
// transaction ids ride along as message attributes for filtering.
func (p *Publisher) PublishPaymentConfirmed(ctx context.Context, ev PaymentConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	messageBody := string(body)

	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"order_id": {
				DataType:    awsString("String"),
				StringValue: &ev.OrderID,
			},
			"transaction_id": {
				DataType:    awsString("String"),
				StringValue: &ev.TransactionID,
			},
		},
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
