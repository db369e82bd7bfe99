package users

import "time"

// DefaultRole is assigned to every registration.
const DefaultRole = "user"

// User is the item stored in the users table, keyed by email.
type User struct {
	Email     string    `dynamodbav:"email" json:"email"` // PK
	Name      string    `dynamodbav:"name,omitempty" json:"name,omitempty"`
	PhotoURL  string    `dynamodbav:"photo_url,omitempty" json:"photoURL,omitempty"`
	Role      string    `dynamodbav:"role" json:"role"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"createdAt"`
}
