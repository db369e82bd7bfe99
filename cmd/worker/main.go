package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/bookcourier/server/internal/aws"
	"github.com/bookcourier/server/internal/logging"
)

func main() {
	logger := logging.New("worker", os.Getenv("LOG_LEVEL"))

	clients, err := aws.NewClients(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init aws clients")
	}

	ordersTable := os.Getenv("ORDERS_TABLE")
	if ordersTable == "" {
		ordersTable = "orders"
	}

	p := NewProcessor(clients.DynamoDB, ordersTable, logger)

	// RUN_LOCAL simulates a single event for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"orderId":"local-order-1","transactionId":"pi_local","trackingId":"LIB-20260101-AAAAAA"}`
		}
		ev := events.SQSEvent{
			Records: []events.SQSMessage{{Body: body}},
		}
		if err := p.Handle(context.Background(), ev); err != nil {
			logger.Fatal().Err(err).Msg("local handler error")
		}
		return
	}

	lambda.Start(p.Handle)
}
