package validation

// CreateUserRequest is the payload for POST /users.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name,omitempty"`
	PhotoURL string `json:"photoURL,omitempty" validate:"omitempty,url"`
}

// CreateBookRequest is the payload for POST /books.
type CreateBookRequest struct {
	Name           string  `json:"name" validate:"required"`
	Author         string  `json:"author,omitempty"`
	Description    string  `json:"description,omitempty"`
	CoverURL       string  `json:"coverURL,omitempty" validate:"omitempty,url"`
	Price          float64 `json:"price" validate:"required,gt=0"`
	BookStatus     string  `json:"bookStatus,omitempty" validate:"omitempty,oneof=Published Unpublished"`
	LibrarianEmail string  `json:"librarianEmail,omitempty" validate:"omitempty,email"`
}

// UpdateBookRequest is the payload for PATCH /all-books/:id. All fields are
// optional; only the ones present are merged into the stored book.
type UpdateBookRequest struct {
	Name        *string  `json:"name,omitempty"`
	Author      *string  `json:"author,omitempty"`
	Description *string  `json:"description,omitempty"`
	CoverURL    *string  `json:"coverURL,omitempty" validate:"omitempty,url"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	BookStatus  *string  `json:"bookStatus,omitempty" validate:"omitempty,oneof=Published Unpublished"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	CustomerEmail  string  `json:"customerEmail" validate:"required,email"`
	CustomerName   string  `json:"customerName,omitempty"`
	BookID         string  `json:"bookId" validate:"required"`
	BookName       string  `json:"bookName" validate:"required"`
	LibrarianEmail string  `json:"librarianEmail,omitempty" validate:"omitempty,email"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
}

// UpdateOrderStatusRequest is the payload for PATCH /orders/:id.
type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// CreateCheckoutSessionRequest is the payload for POST /create-checkout-session.
// Amount is in decimal currency units; the gateway is paid in minor units.
type CreateCheckoutSessionRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	BookName      string  `json:"bookName" validate:"required"`
	CustomerEmail string  `json:"customerEmail" validate:"required,email"`
	OrderID       string  `json:"orderId" validate:"required"`
}
