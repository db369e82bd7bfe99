package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/bookcourier/server/internal/checkout"
	"github.com/bookcourier/server/internal/reconcile"
	"github.com/bookcourier/server/internal/validation"
)

func registerPaymentRoutes(r *gin.Engine, cfg Config, v *validatorv10.Validate) {
	r.POST("/create-checkout-session", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateCheckoutSessionRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		// the session metadata is trusted on callback, so the pairing is
		// verified here against the stored order instead
		order, err := cfg.Orders.Get(ctx, req.OrderID)
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("order lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order_lookup_failed"})
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		if order.Amount != req.Amount {
			c.JSON(http.StatusConflict, gin.H{"error": "amount_mismatch"})
			return
		}

		params := checkout.BuildSessionParams(checkout.SessionRequest{
			OrderID:       req.OrderID,
			BookName:      req.BookName,
			CustomerEmail: req.CustomerEmail,
			Amount:        req.Amount,
		}, cfg.SiteOrigin)

		sess, err := cfg.Gateway.CreateSession(ctx, params)
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("checkout session create failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "gateway_unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": sess.URL})
	})

	r.PATCH("/payment-success", func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session_id"})
			return
		}

		res, err := cfg.Flow.Confirm(c.Request.Context(), sessionID)
		switch {
		case errors.Is(err, reconcile.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "session_not_found"})
			return
		case errors.Is(err, reconcile.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order_not_found"})
			return
		case errors.Is(err, reconcile.ErrPaymentNotCompleted):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "payment_not_completed"})
			return
		case errors.Is(err, reconcile.ErrUpstreamUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "gateway_unavailable"})
			return
		case err != nil:
			cfg.Logger.Error().Err(err).Str("session_id", sessionID).Msg("reconciliation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reconciliation_failed"})
			return
		}

		if res.AlreadyRecorded {
			c.JSON(http.StatusOK, gin.H{
				"message":       "Already exist this payment",
				"transactionId": res.TransactionID,
				"trackingId":    res.TrackingID,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"trackingId":      res.TrackingID,
			"transactionId":   res.TransactionID,
			"orderUpdated":    res.OrderUpdated,
			"paymentRecorded": res.PaymentRecorded,
		})
	})

	r.GET("/payments", func(c *gin.Context) {
		result, err := cfg.Payments.ListByCustomer(c.Request.Context(), c.Query("email"))
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("payment listing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})
}
