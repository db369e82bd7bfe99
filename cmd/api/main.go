package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookcourier/server/internal/aws"
	"github.com/bookcourier/server/internal/books"
	"github.com/bookcourier/server/internal/checkout"
	"github.com/bookcourier/server/internal/config"
	"github.com/bookcourier/server/internal/handlers"
	"github.com/bookcourier/server/internal/logging"
	"github.com/bookcourier/server/internal/orders"
	"github.com/bookcourier/server/internal/payments"
	"github.com/bookcourier/server/internal/reconcile"
	"github.com/bookcourier/server/internal/users"
)

const metricsNamespace = "BookCourier"

func setupRouter(cfg handlers.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(requestID())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "book courier server is running")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.Register(r, cfg)

	return r
}

// requestID tags every request so log lines and SQS messages correlate.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Request-Id") == "" {
			c.Request.Header.Set("X-Request-Id", uuid.NewString())
		}
		c.Header("X-Request-Id", c.GetHeader("X-Request-Id"))
		c.Next()
	}
}

func main() {
	appCfg, err := config.Load()
	if err != nil {
		startupLog := logging.New("api", "info")
		startupLog.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New("api", appCfg.LogLevel)

	clients, err := aws.NewClients(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init aws clients")
	}

	ordersStore := orders.NewStore(clients.DynamoDB, appCfg.OrdersTable)
	paymentsStore := payments.NewStore(clients.DynamoDB, appCfg.PaymentsTable)
	gateway := checkout.NewClient(appCfg.StripeSecretKey)

	var publisher *aws.Publisher
	if appCfg.PaymentEventsQueueURL != "" {
		publisher = aws.NewPublisher(clients.SQS, appCfg.PaymentEventsQueueURL)
	} else {
		logger.Warn().Msg("PAYMENT_EVENTS_QUEUE_URL not set, fulfillment events disabled")
	}

	flow := reconcile.New(reconcile.Config{
		Gateway:   gateway,
		Orders:    ordersStore,
		Payments:  paymentsStore,
		Publisher: publisher,
		Metrics:   aws.NewMetrics(clients.CloudWatch, metricsNamespace),
		Logger:    logger.With().Str("component", "reconcile").Logger(),
	})

	cfg := handlers.Config{
		Users:      users.NewStore(clients.DynamoDB, appCfg.UsersTable),
		Books:      books.NewStore(clients.DynamoDB, appCfg.BooksTable),
		Orders:     ordersStore,
		Payments:   paymentsStore,
		Gateway:    gateway,
		Flow:       flow,
		SiteOrigin: appCfg.SiteOrigin,
		Logger:     logger,
	}

	r := setupRouter(cfg)

	if appCfg.RunLocal {
		addr := ":" + appCfg.Port
		logger.Info().Str("addr", addr).Msg("running local server")
		if err := r.Run(addr); err != nil {
			logger.Fatal().Err(err).Msg("server exited")
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
