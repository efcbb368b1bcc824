package models

import "time"

// CartItem defines the struct for the 'cart_items' table.
// Lines are unique per (user, product, variant).
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	VariantID *int64    `json:"variant_id" db:"variant_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joins (Not in DB table, populated manually)
	Product   *Product        `json:"product,omitempty" db:"-"`
	Variant   *ProductVariant `json:"variant,omitempty" db:"-"`
	UnitPrice float64         `json:"unit_price" db:"-"`
	LineTotal float64         `json:"line_total" db:"-"`
}

// CartSummary is the priced view of a cart.
type CartSummary struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}
