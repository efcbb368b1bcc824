package models

import "time"

// Review is the model for the 'reviews' table
type Review struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Flattened for UI convenience
	UserName string `json:"user_name,omitempty" db:"-"`
}

// NewsletterSubscription is the model for the 'newsletter_subscriptions' table
type NewsletterSubscription struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
