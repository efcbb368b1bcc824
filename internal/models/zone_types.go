package models

import "time"

// Zone is a named shipping region with a fixed delivery price.
type Zone struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	ShippingPrice float64   `json:"shipping_price" db:"shipping_price"`
	AddressCount  int       `json:"addresses_count" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Address belongs to a user and references at most one zone.
type Address struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	ZoneID      *int64    `json:"zone_id" db:"zone_id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	FullAddress string    `json:"full_address" db:"full_address"`
	MoreDetails *string   `json:"more_details,omitempty" db:"more_details"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Joins (Not in DB table, populated manually)
	Zone *Zone `json:"zone,omitempty" db:"-"`
}
