package orders

import "time"

// Order statuses. An order starts pending and either moves through the
// fulfillment states or is cancelled.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Order is the item stored in the orders table. TrackingID is set if and
// only if PaymentStatus is paid.
type Order struct {
	OrderID        string    `dynamodbav:"order_id" json:"orderId"` // PK
	CustomerEmail  string    `dynamodbav:"customer_email" json:"customerEmail"`
	CustomerName   string    `dynamodbav:"customer_name,omitempty" json:"customerName,omitempty"`
	BookID         string    `dynamodbav:"book_id" json:"bookId"`
	BookName       string    `dynamodbav:"book_name" json:"bookName"`
	LibrarianEmail string    `dynamodbav:"librarian_email,omitempty" json:"librarianEmail,omitempty"`
	Amount         float64   `dynamodbav:"amount" json:"amount"`
	OrderStatus    string    `dynamodbav:"order_status" json:"orderStatus"`
	PaymentStatus  string    `dynamodbav:"payment_status" json:"paymentStatus"`
	TrackingID     string    `dynamodbav:"tracking_id,omitempty" json:"trackingId,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `dynamodbav:"updated_at" json:"updatedAt"`
}
