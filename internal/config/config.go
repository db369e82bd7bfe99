package config

import (
	"fmt"
	"os"
)

// Config holds everything the service reads from the environment at startup.
type Config struct {
	UsersTable    string
	BooksTable    string
	OrdersTable   string
	PaymentsTable string

	PaymentEventsQueueURL string

	StripeSecretKey string
	SiteOrigin      string

	Port     string
	RunLocal bool
	LogLevel string
}

// Load reads configuration from environment variables. Table names and the
// listen port fall back to sensible defaults; the Stripe key and site origin
// are required because checkout cannot work without them.
func Load() (Config, error) {
	cfg := Config{
		UsersTable:            getEnv("USERS_TABLE", "users"),
		BooksTable:            getEnv("BOOKS_TABLE", "books"),
		OrdersTable:           getEnv("ORDERS_TABLE", "orders"),
		PaymentsTable:         getEnv("PAYMENTS_TABLE", "payments"),
		PaymentEventsQueueURL: os.Getenv("PAYMENT_EVENTS_QUEUE_URL"),
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		SiteOrigin:            os.Getenv("SITE_ORIGIN"),
		Port:                  getEnv("PORT", "8080"),
		RunLocal:              os.Getenv("RUN_LOCAL") == "true",
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}

	if cfg.StripeSecretKey == "" {
		return cfg, fmt.Errorf("STRIPE_SECRET_KEY is not set")
	}
	if cfg.SiteOrigin == "" {
		return cfg, fmt.Errorf("SITE_ORIGIN is not set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
