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
	"github.com/gosimple/slug"
)

const DefaultPerPage = 12

// ProductInput is the writable part of a product. SellingPrice is always
// derived from RegularPrice and Discount.
type ProductInput struct {
	CategoryID    *int64
	SubcategoryID *int64
	BrandID       *int64
	Name          string
	Description   string
	Image         *string
	BuyingPrice   *float64
	RegularPrice  float64
	Discount      float64
	Quantity      int
	IsTrending    bool
	IsNew         bool
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products    []models.Product `json:"data"`
	CurrentPage int              `json:"current_page"`
	PerPage     int              `json:"per_page"`
	Total       int              `json:"total"`
}

// Stock keeps a product's quantity in line with its variants.
type Stock interface {
	HasVariants(ctx context.Context, q database.Querier, productID int64) (bool, error)
	SyncProductQuantityFromVariants(ctx context.Context, q database.Querier, productID int64) error
}

// Products stores products and their variants.
type Products struct {
	DB    *sql.DB
	Stock Stock
}

const productColumns = `
	SELECT id, category_id, subcategory_id, brand_id, name, slug, description, image,
		buying_price, regular_price, discount, selling_price, quantity, is_trending, is_new,
		created_at, updated_at
	FROM products`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var (
		p                          models.Product
		categoryID, subID, brandID sql.NullInt64
		image                      sql.NullString
		buyingPrice                sql.NullFloat64
	)
	err := row.Scan(&p.ID, &categoryID, &subID, &brandID, &p.Name, &p.Slug, &p.Description, &image,
		&buyingPrice, &p.RegularPrice, &p.Discount, &p.SellingPrice, &p.Quantity, &p.IsTrending, &p.IsNew,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryID = database.Int64Ptr(categoryID)
	p.SubcategoryID = database.Int64Ptr(subID)
	p.BrandID = database.Int64Ptr(brandID)
	p.Image = database.StringPtr(image)
	p.BuyingPrice = database.FloatPtr(buyingPrice)
	return &p, nil
}

// List returns a page of products, newest first. Variants are not loaded.
func (s *Products) List(ctx context.Context, page, perPage int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	out := &ProductPage{Products: []models.Product{}, CurrentPage: page, PerPage: perPage}
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&out.Total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, productColumns+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out.Products = append(out.Products, *p)
	}
	return out, rows.Err()
}

// Get returns a product with its variants.
func (s *Products) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(s.DB.QueryRowContext(ctx, productColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	if p.Variants, err = s.Variants(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a product.
func (s *Products) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO products (category_id, subcategory_id, brand_id, name, slug, description, image,
			buying_price, regular_price, discount, selling_price, quantity, is_trending, is_new,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.CategoryID, in.SubcategoryID, in.BrandID, in.Name, slug.Make(in.Name), in.Description, in.Image,
		in.BuyingPrice, in.RegularPrice, in.Discount, models.SellingPrice(in.RegularPrice, in.Discount),
		in.Quantity, in.IsTrending, in.IsNew, now, now)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Update replaces a product. The quantity of a product that has variants
// is derived from them, so in.Quantity is ignored for it.
func (s *Products) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "products", id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET category_id = ?, subcategory_id = ?, brand_id = ?, name = ?, slug = ?,
				description = ?, image = ?, buying_price = ?, regular_price = ?, discount = ?,
				selling_price = ?, quantity = ?, is_trending = ?, is_new = ?, updated_at = ?
			WHERE id = ?`,
			in.CategoryID, in.SubcategoryID, in.BrandID, in.Name, slug.Make(in.Name), in.Description, in.Image,
			in.BuyingPrice, in.RegularPrice, in.Discount, models.SellingPrice(in.RegularPrice, in.Discount),
			in.Quantity, in.IsTrending, in.IsNew, time.Now().UTC(), id); err != nil {
			return fmt.Errorf("update product %d: %w", id, err)
		}
		// Overwrites the quantity written above when variants exist.
		return s.Stock.SyncProductQuantityFromVariants(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a product together with its variants, cart lines and
// reviews. Order lines keep their snapshot.
func (s *Products) Delete(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return database.RowsAffectedOne(res, fmt.Errorf("product %d: %w", id, models.ErrNotFound))
}

func (s *Products) validate(ctx context.Context, in ProductInput) error {
	verr := &models.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(in.Name) == "" {
		verr.Fields["name"] = "The name field is required."
	}
	if in.BuyingPrice == nil {
		verr.Fields["buying_price"] = "The buying price field is required."
	} else if *in.BuyingPrice < 0 {
		verr.Fields["buying_price"] = "The buying price must be at least 0."
	}
	if in.RegularPrice < 0 {
		verr.Fields["regular_price"] = "The regular price must be at least 0."
	}
	if in.Discount < 0 || in.Discount > 100 {
		verr.Fields["discount"] = "The discount must be between 0 and 100."
	}
	if in.Quantity < 0 {
		verr.Fields["quantity"] = "The quantity must be at least 0."
	}

	refs := []struct {
		field, table string
		id           *int64
	}{
		{"category_id", "categories", in.CategoryID},
		{"subcategory_id", "subcategories", in.SubcategoryID},
		{"brand_id", "brands", in.BrandID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		ok, err := exists(ctx, s.DB, ref.table, *ref.id)
		if err != nil {
			return err
		}
		if !ok {
			verr.Fields[ref.field] = "The selected " + strings.ReplaceAll(ref.field, "_", " ") + " is invalid."
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Count returns the number of products.
func (s *Products) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
