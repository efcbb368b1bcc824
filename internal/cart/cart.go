// Package cart manages each user's pending selections. Lines are unique per
// (user, product, variant); adding an existing combination replaces its
// quantity.
package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/inventory"
	"github.com/01moynul/storefront-golang/internal/models"
)

type Store struct {
	DB *sql.DB
}

const lineQuery = `
	SELECT ci.id, ci.user_id, ci.product_id, ci.variant_id, ci.quantity, ci.created_at, ci.updated_at,
		p.name, p.slug, p.description, p.image, p.buying_price, p.regular_price, p.discount,
		p.selling_price, p.quantity,
		v.id, v.color, v.hex_color, v.size, v.buying_price, v.regular_price, v.discount,
		v.selling_price, v.quantity
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	LEFT JOIN product_variants v ON v.id = ci.variant_id`

// upsertLine inserts a line or replaces the quantity of the existing one,
// relying on the unique (user_id, product_id, variant_key) key.
var upsertLine = map[string]string{
	database.DriverMySQL: `
		INSERT INTO cart_items (user_id, product_id, variant_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), updated_at = VALUES(updated_at)`,
	database.DriverSQLite: `
		INSERT INTO cart_items (user_id, product_id, variant_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, product_id, variant_key)
		DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`,
}

// variantCols holds the nullable side of the variant join.
type variantCols struct {
	id           sql.NullInt64
	color        sql.NullString
	hexColor     sql.NullString
	size         sql.NullString
	buyingPrice  sql.NullFloat64
	regularPrice sql.NullFloat64
	discount     sql.NullFloat64
	sellingPrice sql.NullFloat64
	quantity     sql.NullInt64
}

func (v variantCols) toModel(productID int64) *models.ProductVariant {
	if !v.id.Valid {
		return nil
	}
	return &models.ProductVariant{
		ID:           v.id.Int64,
		ProductID:    productID,
		Color:        v.color.String,
		HexColor:     database.StringPtr(v.hexColor),
		Size:         database.StringPtr(v.size),
		BuyingPrice:  database.FloatPtr(v.buyingPrice),
		RegularPrice: database.FloatPtr(v.regularPrice),
		Discount:     database.FloatPtr(v.discount),
		SellingPrice: database.FloatPtr(v.sellingPrice),
		Quantity:     int(v.quantity.Int64),
	}
}

func scanLine(rows *sql.Rows) (models.CartItem, error) {
	var (
		item      models.CartItem
		variantID sql.NullInt64
		p         models.Product
		image     sql.NullString
		buying    sql.NullFloat64
		v         variantCols
	)
	err := rows.Scan(
		&item.ID, &item.UserID, &item.ProductID, &variantID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
		&p.Name, &p.Slug, &p.Description, &image, &buying, &p.RegularPrice, &p.Discount,
		&p.SellingPrice, &p.Quantity,
		&v.id, &v.color, &v.hexColor, &v.size, &v.buyingPrice, &v.regularPrice, &v.discount,
		&v.sellingPrice, &v.quantity,
	)
	if err != nil {
		return item, err
	}

	p.ID = item.ProductID
	p.Image = database.StringPtr(image)
	p.BuyingPrice = database.FloatPtr(buying)
	item.VariantID = database.Int64Ptr(variantID)
	item.Product = &p
	item.Variant = v.toModel(p.ID)
	item.UnitPrice = models.EffectiveUnitPrice(item.Product, item.Variant)
	item.LineTotal = models.RoundMoney(item.UnitPrice * float64(item.Quantity))
	return item, nil
}

// Load returns the user's cart lines in insertion order, each with its
// product and variant snapshot and resolved unit price.
func Load(ctx context.Context, q database.Querier, userID int64) ([]models.CartItem, error) {
	return load(ctx, q, userID, "")
}

// LoadLocked is Load inside a transaction, appending lock (see
// database.LockClause) so the lines stay put until commit.
func LoadLocked(ctx context.Context, tx *sql.Tx, userID int64, lock string) ([]models.CartItem, error) {
	return load(ctx, tx, userID, lock)
}

func load(ctx context.Context, q database.Querier, userID int64, lock string) ([]models.CartItem, error) {
	rows, err := q.QueryContext(ctx, lineQuery+" WHERE ci.user_id = ? ORDER BY ci.id ASC"+lock, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart of user %d: %w", userID, err)
	}
	defer rows.Close()

	lines := []models.CartItem{}
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return lines, nil
}

// Subtotal sums quantity times the effective unit price of every line,
// resolving each line's variant on its own.
func Subtotal(lines []models.CartItem) float64 {
	var sum float64
	for _, l := range lines {
		sum += models.EffectiveUnitPrice(l.Product, l.Variant) * float64(l.Quantity)
	}
	return models.RoundMoney(sum)
}

// Summary prices a cart for display.
func Summary(lines []models.CartItem, shipping float64) models.CartSummary {
	subtotal := Subtotal(lines)
	return models.CartSummary{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    models.RoundMoney(subtotal + shipping),
	}
}

// ClearLines deletes the given lines of the user's cart. Lines added after
// they were loaded stay in the cart.
func ClearLines(ctx context.Context, q database.Querier, userID int64, lines []models.CartItem) error {
	for _, l := range lines {
		if _, err := q.ExecContext(ctx,
			"DELETE FROM cart_items WHERE id = ? AND user_id = ?", l.ID, userID); err != nil {
			return fmt.Errorf("clear cart line %d of user %d: %w", l.ID, userID, err)
		}
	}
	return nil
}

// Load is the Store form of the package-level Load.
func (s *Store) Load(ctx context.Context, userID int64) ([]models.CartItem, error) {
	return Load(ctx, s.DB, userID)
}

// Upsert sets the quantity of the (user, product, variant) line, creating
// it when missing, and returns the stored line.
func (s *Store) Upsert(ctx context.Context, userID, productID int64, variantID *int64, qty int) (*models.CartItem, error) {
	// 1. --- Validate input ---
	if qty < 1 {
		return nil, models.NewValidationError("quantity", "The quantity must be at least 1.")
	}
	if err := s.checkProduct(ctx, productID, variantID); err != nil {
		return nil, err
	}

	// 2. --- Update or insert the line ---
	var lineID int64
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, upsertLine[database.Dialect(s.DB)],
			userID, productID, variantID, qty, now, now); err != nil {
			return fmt.Errorf("upsert cart line: %w", err)
		}
		id, err := findLine(ctx, tx, userID, productID, variantID)
		if err != nil {
			return fmt.Errorf("find cart line: %w", err)
		}
		lineID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3. --- Reload with product data ---
	return s.line(ctx, lineID)
}

// UpdateQuantity changes the quantity of an existing line only.
func (s *Store) UpdateQuantity(ctx context.Context, userID, productID int64, variantID *int64, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, models.NewValidationError("quantity", "The quantity must be at least 1.")
	}
	if err := s.checkVariantExists(ctx, variantID); err != nil {
		return nil, err
	}

	id, err := findLine(ctx, s.DB, userID, productID, variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product not found in cart: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.DB.ExecContext(ctx,
		"UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?",
		qty, time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("update cart line %d: %w", id, err)
	}
	return s.line(ctx, id)
}

// Remove deletes one line.
func (s *Store) Remove(ctx context.Context, userID, productID int64, variantID *int64) error {
	if err := s.checkVariantExists(ctx, variantID); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = ? AND product_id = ? AND variant_key = ?",
		userID, productID, variantKey(variantID))
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return database.RowsAffectedOne(res, fmt.Errorf("product not found in cart: %w", models.ErrNotFound))
}

func (s *Store) line(ctx context.Context, id int64) (*models.CartItem, error) {
	rows, err := s.DB.QueryContext(ctx, lineQuery+" WHERE ci.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("load cart line %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("cart line %d: %w", id, models.ErrNotFound)
	}
	line, err := scanLine(rows)
	if err != nil {
		return nil, fmt.Errorf("scan cart line %d: %w", id, err)
	}
	return &line, nil
}

// checkProduct enforces that the product exists and that the variant, when
// given, exists and belongs to it. A product with variants needs one.
func (s *Store) checkProduct(ctx context.Context, productID int64, variantID *int64) error {
	var one int
	err := s.DB.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ?", productID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewValidationError("product_id", "The selected product id is invalid.")
	}
	if err != nil {
		return fmt.Errorf("check product %d: %w", productID, err)
	}

	if variantID == nil {
		has, err := inventory.Ledger{}.HasVariants(ctx, s.DB, productID)
		if err != nil {
			return err
		}
		if has {
			return models.NewValidationError("variant_id", "The variant id field is required for this product.")
		}
		return nil
	}
	var owner int64
	err = s.DB.QueryRowContext(ctx, "SELECT product_id FROM product_variants WHERE id = ?", *variantID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewValidationError("variant_id", "The selected variant id is invalid.")
	}
	if err != nil {
		return fmt.Errorf("check variant %d: %w", *variantID, err)
	}
	if owner != productID {
		return models.ErrVariantMismatch
	}
	return nil
}

func (s *Store) checkVariantExists(ctx context.Context, variantID *int64) error {
	if variantID == nil {
		return nil
	}
	var one int
	err := s.DB.QueryRowContext(ctx, "SELECT 1 FROM product_variants WHERE id = ?", *variantID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewValidationError("variant_id", "The selected variant id is invalid.")
	}
	if err != nil {
		return fmt.Errorf("check variant %d: %w", *variantID, err)
	}
	return nil
}

func findLine(ctx context.Context, q database.Querier, userID, productID int64, variantID *int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM cart_items
		WHERE user_id = ? AND product_id = ? AND variant_key = ?`,
		userID, productID, variantKey(variantID)).Scan(&id)
	return id, err
}

// variantKey mirrors the variant_key column: "no variant" is 0.
func variantKey(variantID *int64) int64 {
	if variantID == nil {
		return 0
	}
	return *variantID
}
