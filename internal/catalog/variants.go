package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
)

// VariantInput is the writable part of a variant. Nil prices inherit from
// the product.
type VariantInput struct {
	Color        string
	HexColor     *string
	Size         *string
	BuyingPrice  *float64
	RegularPrice *float64
	Discount     *float64
	SellingPrice *float64
	Weight       *string
	Quantity     int
}

const variantColumns = `
	SELECT id, product_id, color, hex_color, size, buying_price, regular_price, discount,
		selling_price, weight, quantity, created_at, updated_at
	FROM product_variants`

func scanVariant(row interface{ Scan(...any) error }) (*models.ProductVariant, error) {
	var (
		v                                  models.ProductVariant
		hex, size, weight                  sql.NullString
		buying, regular, discount, selling sql.NullFloat64
	)
	err := row.Scan(&v.ID, &v.ProductID, &v.Color, &hex, &size, &buying, &regular, &discount,
		&selling, &weight, &v.Quantity, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.HexColor = database.StringPtr(hex)
	v.Size = database.StringPtr(size)
	v.BuyingPrice = database.FloatPtr(buying)
	v.RegularPrice = database.FloatPtr(regular)
	v.Discount = database.FloatPtr(discount)
	v.SellingPrice = database.FloatPtr(selling)
	v.Weight = database.StringPtr(weight)
	return &v, nil
}

// Variants lists a product's variants in insertion order.
func (s *Products) Variants(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	rows, err := s.DB.QueryContext(ctx, variantColumns+" WHERE product_id = ? ORDER BY id ASC", productID)
	if err != nil {
		return nil, fmt.Errorf("list variants of product %d: %w", productID, err)
	}
	defer rows.Close()

	variants := []models.ProductVariant{}
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, *v)
	}
	return variants, rows.Err()
}

func (s *Products) variant(ctx context.Context, q database.Querier, id int64) (*models.ProductVariant, error) {
	v, err := scanVariant(q.QueryRowContext(ctx, variantColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("variant %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get variant %d: %w", id, err)
	}
	return v, nil
}

// CreateVariant adds a variant and re-derives the product quantity.
func (s *Products) CreateVariant(ctx context.Context, productID int64, in VariantInput) (*models.ProductVariant, error) {
	if err := validateVariant(in); err != nil {
		return nil, err
	}

	var id int64
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "products", productID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
		}

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO product_variants (product_id, color, hex_color, size, buying_price, regular_price,
				discount, selling_price, weight, quantity, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			productID, in.Color, in.HexColor, in.Size, in.BuyingPrice, in.RegularPrice,
			in.Discount, in.SellingPrice, in.Weight, in.Quantity, now, now)
		if err != nil {
			return fmt.Errorf("create variant: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return s.Stock.SyncProductQuantityFromVariants(ctx, tx, productID)
	})
	if err != nil {
		return nil, err
	}
	return s.variant(ctx, s.DB, id)
}

// UpdateVariant replaces a variant and re-derives the product quantity.
func (s *Products) UpdateVariant(ctx context.Context, id int64, in VariantInput) (*models.ProductVariant, error) {
	if err := validateVariant(in); err != nil {
		return nil, err
	}

	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		v, err := s.variant(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE product_variants SET color = ?, hex_color = ?, size = ?, buying_price = ?,
				regular_price = ?, discount = ?, selling_price = ?, weight = ?, quantity = ?, updated_at = ?
			WHERE id = ?`,
			in.Color, in.HexColor, in.Size, in.BuyingPrice, in.RegularPrice, in.Discount,
			in.SellingPrice, in.Weight, in.Quantity, time.Now().UTC(), id); err != nil {
			return fmt.Errorf("update variant %d: %w", id, err)
		}
		return s.Stock.SyncProductQuantityFromVariants(ctx, tx, v.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return s.variant(ctx, s.DB, id)
}

// DeleteVariant removes a variant. When it was the last one the product
// keeps the quantity last derived from it.
func (s *Products) DeleteVariant(ctx context.Context, id int64) error {
	return database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		v, err := s.variant(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM product_variants WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete variant %d: %w", id, err)
		}
		return s.Stock.SyncProductQuantityFromVariants(ctx, tx, v.ProductID)
	})
}

func validateVariant(in VariantInput) error {
	verr := &models.ValidationError{Fields: map[string]string{}}
	switch color := strings.TrimSpace(in.Color); {
	case color == "":
		verr.Fields["color"] = "The color field is required."
	case len(color) > 50:
		verr.Fields["color"] = "The color may not be greater than 50 characters."
	}
	if in.HexColor != nil {
		verr.Check("hex_color", *in.HexColor, "len=7,hexcolor", "The hex color format is invalid.")
	}
	if in.Weight != nil {
		verr.Check("weight", *in.Weight, "max=100", "The weight may not be greater than 100 characters.")
	}
	if in.Discount != nil && (*in.Discount < 0 || *in.Discount > 100) {
		verr.Fields["discount"] = "The discount must be between 0 and 100."
	}
	if in.Quantity < 0 {
		verr.Fields["quantity"] = "The quantity must be at least 0."
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
