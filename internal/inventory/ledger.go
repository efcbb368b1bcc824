// Package inventory keeps product and variant stock. When a product has
// variants, each variant's quantity is authoritative and the product's
// quantity is a derived sum kept in sync by SyncProductQuantityFromVariants.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
)

// Ledger is stateless; every call runs on the Querier it is given so it can
// join the caller's transaction.
type Ledger struct{}

// Decrement takes qty units from the variant when variantID is set, else
// from the product. The update only applies while enough stock remains; a
// zero-row update reports models.ErrInsufficientStock.
func (Ledger) Decrement(ctx context.Context, q database.Querier, productID int64, variantID *int64, qty int) error {
	now := time.Now().UTC()

	if variantID != nil {
		res, err := q.ExecContext(ctx, `
			UPDATE product_variants
			SET quantity = quantity - ?, updated_at = ?
			WHERE id = ? AND product_id = ? AND quantity >= ?`,
			qty, now, *variantID, productID, qty)
		if err != nil {
			return fmt.Errorf("decrement variant %d: %w", *variantID, err)
		}
		return database.RowsAffectedOne(res,
			fmt.Errorf("variant %d: %w", *variantID, models.ErrInsufficientStock))
	}

	res, err := q.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity - ?, updated_at = ?
		WHERE id = ? AND quantity >= ?`,
		qty, now, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement product %d: %w", productID, err)
	}
	return database.RowsAffectedOne(res,
		fmt.Errorf("product %d: %w", productID, models.ErrInsufficientStock))
}

// HasVariants reports whether the product has at least one variant.
func (Ledger) HasVariants(ctx context.Context, q database.Querier, productID int64) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM product_variants WHERE product_id = ?", productID).Scan(&n); err != nil {
		return false, fmt.Errorf("count variants of product %d: %w", productID, err)
	}
	return n > 0, nil
}

// SyncProductQuantityFromVariants sets the product's quantity to the sum of
// its variants' quantities. Products without variants keep their own
// quantity untouched. It must run after every write that changes a
// variant's quantity, inside the same transaction.
func (l Ledger) SyncProductQuantityFromVariants(ctx context.Context, q database.Querier, productID int64) error {
	has, err := l.HasVariants(ctx, q, productID)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}

	var total int
	if err := q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(quantity), 0) FROM product_variants WHERE product_id = ?", productID).Scan(&total); err != nil {
		return fmt.Errorf("sum variants of product %d: %w", productID, err)
	}

	if _, err := q.ExecContext(ctx,
		"UPDATE products SET quantity = ?, updated_at = ? WHERE id = ?",
		total, time.Now().UTC(), productID); err != nil {
		return fmt.Errorf("sync quantity of product %d: %w", productID, err)
	}
	return nil
}
