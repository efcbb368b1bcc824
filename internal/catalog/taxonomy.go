package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
)

// Taxonomy stores categories, subcategories and brands.
type Taxonomy struct {
	DB *sql.DB
}

//
// --- Categories ---
//

// ListCategories returns every category with its subcategories.
func (t *Taxonomy) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := t.DB.QueryContext(ctx,
		"SELECT id, name, slug, image, created_at, updated_at FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range categories {
		if categories[i].Subcategories, err = t.ListSubcategories(ctx, categories[i].ID); err != nil {
			return nil, err
		}
	}
	return categories, nil
}

// GetCategory returns one category with its subcategories.
func (t *Taxonomy) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(t.DB.QueryRowContext(ctx,
		"SELECT id, name, slug, image, created_at, updated_at FROM categories WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	if c.Subcategories, err = t.ListSubcategories(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (t *Taxonomy) CreateCategory(ctx context.Context, name string, image *string) (*models.Category, error) {
	if name == "" {
		return nil, models.NewValidationError("name", "The name field is required.")
	}
	s, err := uniqueSlug(ctx, t.DB, "categories", name, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := t.DB.ExecContext(ctx,
		"INSERT INTO categories (name, slug, image, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		name, s, image, now, now)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetCategory(ctx, id)
}

func (t *Taxonomy) UpdateCategory(ctx context.Context, id int64, name string, image *string) (*models.Category, error) {
	if name == "" {
		return nil, models.NewValidationError("name", "The name field is required.")
	}
	if _, err := t.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	s, err := uniqueSlug(ctx, t.DB, "categories", name, id)
	if err != nil {
		return nil, err
	}
	if _, err := t.DB.ExecContext(ctx,
		"UPDATE categories SET name = ?, slug = ?, image = ?, updated_at = ? WHERE id = ?",
		name, s, image, time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}
	return t.GetCategory(ctx, id)
}

// DeleteCategory removes a category and its subcategories. Categories that
// products still reference are kept and models.ErrConflict is returned.
func (t *Taxonomy) DeleteCategory(ctx context.Context, id int64) error {
	return t.deleteUnreferenced(ctx, "categories", id, `
		SELECT COUNT(*) FROM products
		WHERE category_id = ? OR subcategory_id IN (SELECT id FROM subcategories WHERE category_id = ?)`, id, id)
}

func scanCategory(row interface{ Scan(...any) error }) (*models.Category, error) {
	var (
		c     models.Category
		image sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &image, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Image = database.StringPtr(image)
	return &c, nil
}

//
// --- Subcategories ---
//

func (t *Taxonomy) ListSubcategories(ctx context.Context, categoryID int64) ([]models.Subcategory, error) {
	rows, err := t.DB.QueryContext(ctx, `
		SELECT id, category_id, name, slug, created_at, updated_at
		FROM subcategories WHERE category_id = ? ORDER BY name ASC`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	subs := []models.Subcategory{}
	for rows.Next() {
		var s models.Subcategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Slug, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (t *Taxonomy) GetSubcategory(ctx context.Context, id int64) (*models.Subcategory, error) {
	var s models.Subcategory
	err := t.DB.QueryRowContext(ctx, `
		SELECT id, category_id, name, slug, created_at, updated_at
		FROM subcategories WHERE id = ?`, id).
		Scan(&s.ID, &s.CategoryID, &s.Name, &s.Slug, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subcategory %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subcategory %d: %w", id, err)
	}
	return &s, nil
}

func (t *Taxonomy) CreateSubcategory(ctx context.Context, categoryID int64, name string) (*models.Subcategory, error) {
	if err := t.validateSubcategory(ctx, categoryID, name); err != nil {
		return nil, err
	}
	s, err := uniqueSlug(ctx, t.DB, "subcategories", name, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := t.DB.ExecContext(ctx,
		"INSERT INTO subcategories (category_id, name, slug, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		categoryID, name, s, now, now)
	if err != nil {
		return nil, fmt.Errorf("create subcategory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetSubcategory(ctx, id)
}

func (t *Taxonomy) UpdateSubcategory(ctx context.Context, id, categoryID int64, name string) (*models.Subcategory, error) {
	if _, err := t.GetSubcategory(ctx, id); err != nil {
		return nil, err
	}
	if err := t.validateSubcategory(ctx, categoryID, name); err != nil {
		return nil, err
	}
	s, err := uniqueSlug(ctx, t.DB, "subcategories", name, id)
	if err != nil {
		return nil, err
	}
	if _, err := t.DB.ExecContext(ctx,
		"UPDATE subcategories SET category_id = ?, name = ?, slug = ?, updated_at = ? WHERE id = ?",
		categoryID, name, s, time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("update subcategory %d: %w", id, err)
	}
	return t.GetSubcategory(ctx, id)
}

func (t *Taxonomy) DeleteSubcategory(ctx context.Context, id int64) error {
	return t.deleteUnreferenced(ctx, "subcategories", id,
		"SELECT COUNT(*) FROM products WHERE subcategory_id = ?", id)
}

func (t *Taxonomy) validateSubcategory(ctx context.Context, categoryID int64, name string) error {
	verr := &models.ValidationError{Fields: map[string]string{}}
	if name == "" {
		verr.Fields["name"] = "The name field is required."
	}
	ok, err := exists(ctx, t.DB, "categories", categoryID)
	if err != nil {
		return err
	}
	if !ok {
		verr.Fields["category_id"] = "The selected category id is invalid."
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

//
// --- Brands ---
//

func (t *Taxonomy) ListBrands(ctx context.Context) ([]models.Brand, error) {
	rows, err := t.DB.QueryContext(ctx,
		"SELECT id, name, slug, created_at, updated_at FROM brands ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	brands := []models.Brand{}
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (t *Taxonomy) GetBrand(ctx context.Context, id int64) (*models.Brand, error) {
	var b models.Brand
	err := t.DB.QueryRowContext(ctx,
		"SELECT id, name, slug, created_at, updated_at FROM brands WHERE id = ?", id).
		Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("brand %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get brand %d: %w", id, err)
	}
	return &b, nil
}

func (t *Taxonomy) CreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	if name == "" {
		return nil, models.NewValidationError("name", "The name field is required.")
	}
	s, err := uniqueSlug(ctx, t.DB, "brands", name, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := t.DB.ExecContext(ctx,
		"INSERT INTO brands (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)", name, s, now, now)
	if err != nil {
		return nil, fmt.Errorf("create brand: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetBrand(ctx, id)
}

func (t *Taxonomy) UpdateBrand(ctx context.Context, id int64, name string) (*models.Brand, error) {
	if name == "" {
		return nil, models.NewValidationError("name", "The name field is required.")
	}
	if _, err := t.GetBrand(ctx, id); err != nil {
		return nil, err
	}
	s, err := uniqueSlug(ctx, t.DB, "brands", name, id)
	if err != nil {
		return nil, err
	}
	if _, err := t.DB.ExecContext(ctx,
		"UPDATE brands SET name = ?, slug = ?, updated_at = ? WHERE id = ?",
		name, s, time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("update brand %d: %w", id, err)
	}
	return t.GetBrand(ctx, id)
}

func (t *Taxonomy) DeleteBrand(ctx context.Context, id int64) error {
	return t.deleteUnreferenced(ctx, "brands", id,
		"SELECT COUNT(*) FROM products WHERE brand_id = ?", id)
}

// deleteUnreferenced deletes table row id unless countRefs, run with args,
// finds products pointing at it.
func (t *Taxonomy) deleteUnreferenced(ctx context.Context, table string, id int64, countRefs string, args ...any) error {
	return database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, table, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s %d: %w", table, id, models.ErrNotFound)
		}

		var n int
		if err := tx.QueryRowContext(ctx, countRefs, args...).Scan(&n); err != nil {
			return fmt.Errorf("count products of %s %d: %w", table, id, err)
		}
		if n > 0 {
			return fmt.Errorf("still used by %d products: %w", n, models.ErrConflict)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete %s %d: %w", table, id, err)
		}
		return nil
	})
}
