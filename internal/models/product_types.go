package models

import (
	"math"
	"time"
)

// Product is the model for the 'products' table.
// Nullable columns are pointers so they serialize cleanly.
type Product struct {
	ID            int64   `json:"id" db:"id"`
	CategoryID    *int64  `json:"category_id,omitempty" db:"category_id"`
	SubcategoryID *int64  `json:"subcategory_id,omitempty" db:"subcategory_id"`
	BrandID       *int64  `json:"brand_id,omitempty" db:"brand_id"`
	Name          string  `json:"name" db:"name"`
	Slug          string  `json:"slug" db:"slug"`
	Description   string  `json:"description" db:"description"`
	Image         *string `json:"image,omitempty" db:"image"`

	// --- Pricing & Stock ---
	BuyingPrice  *float64 `json:"buying_price,omitempty" db:"buying_price"`
	RegularPrice float64  `json:"regular_price" db:"regular_price"`
	Discount     float64  `json:"discount" db:"discount"`
	SellingPrice float64  `json:"selling_price" db:"selling_price"`
	// Quantity is derived from variants when the product has any.
	Quantity int `json:"quantity" db:"quantity"`

	IsTrending bool `json:"is_trending" db:"is_trending"`
	IsNew      bool `json:"is_new" db:"is_new"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joins (Not in DB table, populated manually)
	Variants []ProductVariant `json:"variants,omitempty" db:"-"`
}

// HideCost strips the internal buying price for non-admin callers.
func (p *Product) HideCost() {
	p.BuyingPrice = nil
	for i := range p.Variants {
		p.Variants[i].BuyingPrice = nil
	}
}

// ProductVariant is the model for the 'product_variants' table.
// A nil price field means "inherit from the parent product".
type ProductVariant struct {
	ID           int64     `json:"id" db:"id"`
	ProductID    int64     `json:"product_id" db:"product_id"`
	Color        string    `json:"color" db:"color"`
	HexColor     *string   `json:"hex_color,omitempty" db:"hex_color"`
	Size         *string   `json:"size,omitempty" db:"size"`
	BuyingPrice  *float64  `json:"buying_price,omitempty" db:"buying_price"`
	RegularPrice *float64  `json:"regular_price,omitempty" db:"regular_price"`
	Discount     *float64  `json:"discount,omitempty" db:"discount"`
	SellingPrice *float64  `json:"selling_price,omitempty" db:"selling_price"`
	Weight       *string   `json:"weight,omitempty" db:"weight"`
	Quantity     int       `json:"quantity" db:"quantity"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// SellingPrice derives the selling price from a regular price and a
// discount percentage.
func SellingPrice(regular, discount float64) float64 {
	return RoundMoney(regular * (1 - discount/100))
}

// EffectiveUnitPrice resolves the price a customer pays for a product,
// optionally narrowed to one of its variants. Unset variant fields fall
// back to the product.
func EffectiveUnitPrice(p *Product, v *ProductVariant) float64 {
	if v == nil {
		return p.SellingPrice
	}
	if v.SellingPrice != nil {
		return *v.SellingPrice
	}
	if v.RegularPrice != nil {
		discount := p.Discount
		if v.Discount != nil {
			discount = *v.Discount
		}
		return SellingPrice(*v.RegularPrice, discount)
	}
	return p.SellingPrice
}

// EffectiveBuyingPrice resolves the internal cost the same way.
func EffectiveBuyingPrice(p *Product, v *ProductVariant) float64 {
	if v != nil && v.BuyingPrice != nil {
		return *v.BuyingPrice
	}
	if p.BuyingPrice != nil {
		return *p.BuyingPrice
	}
	return 0
}
