package cart

import (
	"context"
	"testing"

	"github.com/01moynul/storefront-golang/internal/database/dbtest"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertReplacesQuantity(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	productID := dbtest.CreateProduct(t, db, "Mug", 10, 0, 10)

	_, err := store.Upsert(ctx, userID, productID, nil, 2)
	require.NoError(t, err)
	line, err := store.Upsert(ctx, userID, productID, nil, 5)
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 1, dbtest.CountRows(t, db, "cart_items"))
}

func TestUpsertKeepsVariantsApart(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	productID := dbtest.CreateProduct(t, db, "Shirt", 20, 0, 0)
	red := dbtest.CreateVariant(t, db, productID, "red", nil, 5)
	blue := dbtest.CreateVariant(t, db, productID, "blue", nil, 5)

	_, err := store.Upsert(ctx, userID, productID, &red, 1)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, userID, productID, &blue, 2)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, userID, productID, &red, 4)
	require.NoError(t, err)

	lines, err := store.Load(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.Equal(t, red, *lines[0].VariantID)
	assert.Equal(t, 2, lines[1].Quantity)
	assert.Equal(t, blue, *lines[1].VariantID)
}

func TestUpsertRequiresVariantWhenProductHasVariants(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	shirt := dbtest.CreateProduct(t, db, "Shirt", 20, 0, 7)
	dbtest.CreateVariant(t, db, shirt, "red", nil, 3)
	dbtest.CreateVariant(t, db, shirt, "blue", nil, 4)

	_, err := store.Upsert(ctx, userID, shirt, nil, 5)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "variant_id")
	assert.Equal(t, 0, dbtest.CountRows(t, db, "cart_items"))
}

func TestUpsertKeepsCreationTime(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	productID := dbtest.CreateProduct(t, db, "Mug", 10, 0, 10)

	first, err := store.Upsert(ctx, userID, productID, nil, 1)
	require.NoError(t, err)
	second, err := store.Upsert(ctx, userID, productID, nil, 4)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, 4, second.Quantity)
}

func TestUpsertValidation(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	shirt := dbtest.CreateProduct(t, db, "Shirt", 20, 0, 0)
	mug := dbtest.CreateProduct(t, db, "Mug", 10, 0, 10)
	red := dbtest.CreateVariant(t, db, shirt, "red", nil, 5)

	var verr *models.ValidationError

	_, err := store.Upsert(ctx, userID, mug, nil, 0)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "quantity")

	_, err = store.Upsert(ctx, userID, 999, nil, 1)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "product_id")

	missing := int64(999)
	_, err = store.Upsert(ctx, userID, mug, &missing, 1)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "variant_id")

	_, err = store.Upsert(ctx, userID, mug, &red, 1)
	assert.ErrorIs(t, err, models.ErrVariantMismatch)

	assert.Equal(t, 0, dbtest.CountRows(t, db, "cart_items"))
}

func TestLoadResolvesPricePerLine(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	productID := dbtest.CreateProduct(t, db, "Shirt", 20, 0, 0)
	cheap := dbtest.CreateVariant(t, db, productID, "red", dbtest.Ptr(12.5), 5)
	plain := dbtest.CreateVariant(t, db, productID, "blue", nil, 5)
	dbtest.AddCartLine(t, db, userID, productID, &cheap, 2)
	dbtest.AddCartLine(t, db, userID, productID, &plain, 1)

	lines, err := Load(ctx, db, userID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, 12.5, lines[0].UnitPrice)
	assert.Equal(t, 25.0, lines[0].LineTotal)
	require.NotNil(t, lines[0].Variant)
	assert.Equal(t, "red", lines[0].Variant.Color)
	assert.Equal(t, 20.0, lines[1].UnitPrice)
	assert.Equal(t, 45.0, Subtotal(lines))
}

func TestSubtotalAndSummary(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	a := dbtest.CreateProduct(t, db, "A", 10, 0, 10)
	b := dbtest.CreateProduct(t, db, "B", 5, 0, 10)
	dbtest.AddCartLine(t, db, userID, a, nil, 2)
	dbtest.AddCartLine(t, db, userID, b, nil, 3)

	lines, err := Load(ctx, db, userID)
	require.NoError(t, err)
	assert.Equal(t, 35.0, Subtotal(lines))

	sum := Summary(lines, 4)
	assert.Equal(t, models.CartSummary{Subtotal: 35, Shipping: 4, Total: 39}, sum)
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	productID := dbtest.CreateProduct(t, db, "Mug", 10, 0, 10)

	_, err := store.UpdateQuantity(ctx, userID, productID, nil, 3)
	require.ErrorIs(t, err, models.ErrNotFound)

	dbtest.AddCartLine(t, db, userID, productID, nil, 1)
	line, err := store.UpdateQuantity(ctx, userID, productID, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, 30.0, line.LineTotal)

	require.NoError(t, store.Remove(ctx, userID, productID, nil))
	assert.ErrorIs(t, store.Remove(ctx, userID, productID, nil), models.ErrNotFound)
}

func TestClearLinesRemovesOnlyGivenLines(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	alice := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	bob := dbtest.CreateUser(t, db, "b@example.com", models.RoleCustomer)
	mug := dbtest.CreateProduct(t, db, "Mug", 10, 0, 10)
	lamp := dbtest.CreateProduct(t, db, "Lamp", 30, 0, 10)
	dbtest.AddCartLine(t, db, alice, mug, nil, 1)
	dbtest.AddCartLine(t, db, bob, mug, nil, 1)

	loaded, err := Load(ctx, db, alice)
	require.NoError(t, err)
	dbtest.AddCartLine(t, db, alice, lamp, nil, 1)

	require.NoError(t, ClearLines(ctx, db, alice, loaded))
	// Another user's line ids do nothing.
	bobs, err := Load(ctx, db, bob)
	require.NoError(t, err)
	require.NoError(t, ClearLines(ctx, db, alice, bobs))

	lines, err := Load(ctx, db, alice)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, lamp, lines[0].ProductID)
	assert.Equal(t, 2, dbtest.CountRows(t, db, "cart_items"))
}
