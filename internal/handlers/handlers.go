// Package handlers wires the HTTP routes to the stores and the payment flow.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bookcourier/server/internal/books"
	"github.com/bookcourier/server/internal/checkout"
	"github.com/bookcourier/server/internal/orders"
	"github.com/bookcourier/server/internal/payments"
	"github.com/bookcourier/server/internal/reconcile"
	"github.com/bookcourier/server/internal/users"
	"github.com/bookcourier/server/internal/validation"
)

// Config groups dependencies for the route handlers.
type Config struct {
	Users    *users.Store
	Books    *books.Store
	Orders   *orders.Store
	Payments *payments.Store

	Gateway checkout.Gateway
	Flow    *reconcile.Flow

	SiteOrigin string
	Logger     zerolog.Logger
}

// Register attaches all routes to the engine.
func Register(r *gin.Engine, cfg Config) {
	v := validation.New()

	registerUserRoutes(r, cfg, v)
	registerBookRoutes(r, cfg, v)
	registerOrderRoutes(r, cfg, v)
	registerPaymentRoutes(r, cfg, v)
}
