package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderDelivered  OrderStatus = "delivered"
)

var orderStatusRank = map[OrderStatus]int{
	OrderPending:    0,
	OrderProcessing: 1,
	OrderDelivered:  2,
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderStatusRank[st]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether an admin may move an order from s to
// next. Transitions only move forward; there is no way back to pending.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// PaymentMethod is a closed set of accepted payment methods.
type PaymentMethod struct {
	code string
}

// PaymentCash is currently the only accepted method.
var PaymentCash = PaymentMethod{code: "cash"}

var paymentMethods = map[string]PaymentMethod{
	PaymentCash.code: PaymentCash,
}

// ParsePaymentMethod maps a request code onto a PaymentMethod.
func ParsePaymentMethod(code string) (PaymentMethod, error) {
	pm, ok := paymentMethods[code]
	if !ok {
		return PaymentMethod{}, fmt.Errorf("%w: %q", ErrUnsupportedPayment, code)
	}
	return pm, nil
}

func (p PaymentMethod) String() string { return p.code }

// IsZero reports whether p was never assigned.
func (p PaymentMethod) IsZero() bool { return p.code == "" }

func (p PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.code)
}

// Order is the model for the 'orders' table. All money fields are a
// snapshot taken at placement time.
type Order struct {
	ID          int64       `json:"id" db:"id"`
	UserID      int64       `json:"user_id" db:"user_id"`
	AddressID   int64       `json:"address_id" db:"address_id"`
	Subtotal    float64     `json:"subtotal" db:"subtotal"`
	Shipping    float64     `json:"shipping" db:"shipping"`
	Total       float64     `json:"total" db:"total"`
	PaymentCode string      `json:"payment_code" db:"payment_code"`
	Status      OrderStatus `json:"order_status" db:"status"`
	CreatedAt   time.Time   `json:"date_added" db:"created_at"`
	UpdatedAt   time.Time   `json:"date_modified" db:"updated_at"`

	// Joins (Not in DB table, populated manually)
	User    *User       `json:"user,omitempty" db:"-"`
	Address *Address    `json:"address,omitempty" db:"-"`
	Lines   []OrderLine `json:"order_products,omitempty" db:"-"`
}

// Clone returns a copy of o whose joined user, address and lines can be
// changed without touching o.
func (o *Order) Clone() *Order {
	c := *o
	if o.User != nil {
		u := *o.User
		c.User = &u
	}
	if o.Address != nil {
		a := *o.Address
		if a.Zone != nil {
			z := *a.Zone
			a.Zone = &z
		}
		c.Address = &a
	}
	if o.Lines != nil {
		c.Lines = make([]OrderLine, len(o.Lines))
		for i, l := range o.Lines {
			if l.Product != nil {
				p := *l.Product
				p.Variants = append([]ProductVariant(nil), p.Variants...)
				l.Product = &p
			}
			if l.Variant != nil {
				v := *l.Variant
				l.Variant = &v
			}
			c.Lines[i] = l
		}
	}
	return &c
}

// OrderLine is the model for the 'order_lines' table. It is a historical
// record and does not follow later product changes.
type OrderLine struct {
	ID          int64     `json:"id" db:"id"`
	OrderID     int64     `json:"order_id" db:"order_id"`
	ProductID   int64     `json:"product_id" db:"product_id"`
	VariantID   *int64    `json:"variant_id" db:"variant_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	UnitPrice   float64   `json:"price" db:"unit_price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	LineTotal   float64   `json:"total" db:"line_total"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Live rows, nil once deleted.
	Product *Product        `json:"product,omitempty" db:"-"`
	Variant *ProductVariant `json:"variant,omitempty" db:"-"`
}

// Order event types
const (
	EventOrderPlaced = "order.placed"
)

// OrderEvent is the model for the 'order_events' outbox table.
type OrderEvent struct {
	ID           int64      `json:"id" db:"id"`
	EventID      string     `json:"event_id" db:"event_id"`
	OrderID      int64      `json:"order_id" db:"order_id"`
	Type         string     `json:"type" db:"event_type"`
	Payload      string     `json:"payload" db:"payload"`
	Attempts     int        `json:"attempts" db:"attempts"`
	LastError    *string    `json:"last_error,omitempty" db:"last_error"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty" db:"dispatched_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
