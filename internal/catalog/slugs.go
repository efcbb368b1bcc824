// Package catalog stores what the shop sells: products and their variants,
// the category, subcategory and brand taxonomies, reviews, and newsletter
// subscriptions.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/gosimple/slug"
)

// uniqueSlug derives a slug from name that is free in table, appending -2,
// -3, ... on collisions. exceptID excludes the row being renamed.
func uniqueSlug(ctx context.Context, q database.Querier, table, name string, exceptID int64) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "item"
	}

	candidate := base
	for n := 2; ; n++ {
		var id int64
		err := q.QueryRowContext(ctx,
			"SELECT id FROM "+table+" WHERE slug = ? AND id <> ?", candidate, exceptID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check %s slug: %w", table, err)
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// exists reports whether table has a row with id.
func exists(ctx context.Context, q database.Querier, table string, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s %d: %w", table, id, err)
	}
	return true, nil
}
