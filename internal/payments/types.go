package payments

import "time"

// Payment is the immutable record of a completed transaction, keyed by the
// provider-assigned transaction id. At most one record exists per
// transaction id; the table's primary key enforces it.
type Payment struct {
	TransactionID string    `dynamodbav:"transaction_id" json:"transactionId"` // PK
	OrderID       string    `dynamodbav:"order_id" json:"orderId"`
	Amount        float64   `dynamodbav:"amount" json:"amount"`
	Currency      string    `dynamodbav:"currency" json:"currency"`
	CustomerEmail string    `dynamodbav:"customer_email" json:"customerEmail"`
	BookName      string    `dynamodbav:"book_name" json:"bookName"`
	PaymentStatus string    `dynamodbav:"payment_status" json:"paymentStatus"`
	TrackingID    string    `dynamodbav:"tracking_id" json:"trackingId"`
	PaidAt        time.Time `dynamodbav:"paid_at" json:"paidAt"`
}
