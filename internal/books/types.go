package books

import "time"

// Book statuses. Only published books are visible to customers.
const (
	StatusPublished   = "Published"
	StatusUnpublished = "Unpublished"
)

// Book is the item stored in the books table.
type Book struct {
	BookID         string    `dynamodbav:"book_id" json:"bookId"` // PK
	Name           string    `dynamodbav:"name" json:"name"`
	Author         string    `dynamodbav:"author,omitempty" json:"author,omitempty"`
	Description    string    `dynamodbav:"description,omitempty" json:"description,omitempty"`
	CoverURL       string    `dynamodbav:"cover_url,omitempty" json:"coverURL,omitempty"`
	Price          float64   `dynamodbav:"price" json:"price"`
	BookStatus     string    `dynamodbav:"book_status" json:"bookStatus"`
	LibrarianEmail string    `dynamodbav:"librarian_email,omitempty" json:"librarianEmail,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at" json:"createdAt"`
}
