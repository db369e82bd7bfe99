package main

// PaymentConfirmedMessage is the payload published by the API after a
// payment is reconciled.
type PaymentConfirmedMessage struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	TrackingID    string `json:"trackingId"`
	CorrelationID string `json:"correlationId,omitempty"`
}
