package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bookcourier/server/internal/orders"
	"github.com/bookcourier/server/internal/validation"
)

func registerOrderRoutes(r *gin.Engine, cfg Config, v *validatorv10.Validate) {
	r.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		order := orders.Order{
			OrderID:        uuid.NewString(),
			CustomerEmail:  req.CustomerEmail,
			CustomerName:   req.CustomerName,
			BookID:         req.BookID,
			BookName:       req.BookName,
			LibrarianEmail: req.LibrarianEmail,
			Amount:         req.Amount,
		}
		if err := cfg.Orders.Create(ctx, order); err != nil {
			cfg.Logger.Error().Err(err).Msg("order create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":       order.OrderID,
			"orderStatus":   orders.StatusPending,
			"paymentStatus": orders.PaymentUnpaid,
		})
	})

	r.GET("/orders/customer", func(c *gin.Context) {
		result, err := cfg.Orders.ListByCustomer(c.Request.Context(), c.Query("email"))
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("customer order listing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/orders", func(c *gin.Context) {
		result, err := cfg.Orders.ListByLibrarian(c.Request.Context(), c.Query("librarianEmail"))
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("librarian order listing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.PATCH("/orders/cancel/:id", func(c *gin.Context) {
		err := cfg.Orders.Cancel(c.Request.Context(), c.Param("id"))
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("order cancel failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orderStatus": orders.StatusCancelled})
	})

	r.PATCH("/orders/:id", func(c *gin.Context) {
		var req validation.UpdateOrderStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		err := cfg.Orders.SetOrderStatus(c.Request.Context(), c.Param("id"), req.OrderStatus)
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("order status update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orderStatus": req.OrderStatus})
	})

	r.DELETE("/orders/:id", func(c *gin.Context) {
		err := cfg.Orders.Delete(c.Request.Context(), c.Param("id"))
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("order delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}
