package orders

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/database/dbtest"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db        *sql.DB
	userID    int64
	addressID int64
	productID int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	zoneID := dbtest.CreateZone(t, db, "Beirut", 4)
	return fixture{
		db:        db,
		userID:    userID,
		addressID: dbtest.CreateAddress(t, db, userID, &zoneID),
		productID: dbtest.CreateProduct(t, db, "Mug", 10, 0, 10),
	}
}

// placeRaw writes an order with one line of the fixture product.
func placeRaw(t *testing.T, f fixture, qty int, createdAt time.Time) int64 {
	t.Helper()
	ctx := context.Background()
	o := &models.Order{
		UserID:      f.userID,
		AddressID:   f.addressID,
		Subtotal:    float64(qty) * 10,
		Shipping:    4,
		Total:       float64(qty)*10 + 4,
		PaymentCode: models.PaymentCash.String(),
		Status:      models.OrderPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	err := database.WithTx(ctx, f.db, func(tx *sql.Tx) error {
		if err := Create(ctx, tx, o); err != nil {
			return err
		}
		return AddLine(ctx, tx, &models.OrderLine{
			OrderID:     o.ID,
			ProductID:   f.productID,
			ProductName: "Mug",
			UnitPrice:   10,
			Quantity:    qty,
			LineTotal:   float64(qty) * 10,
			CreatedAt:   createdAt,
		})
	})
	require.NoError(t, err)
	return o.ID
}

func TestGetLoadsRelations(t *testing.T) {
	f := setup(t)
	id := placeRaw(t, f, 2, time.Now().UTC())

	o, err := Get(context.Background(), f.db, id)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, o.Status)
	require.NotNil(t, o.User)
	assert.Equal(t, "a@example.com", o.User.Email)
	require.NotNil(t, o.Address)
	require.NotNil(t, o.Address.Zone)
	assert.Equal(t, 4.0, o.Address.Zone.ShippingPrice)
	require.Len(t, o.Lines, 1)
	require.NotNil(t, o.Lines[0].Product)
	assert.Equal(t, 20.0, o.Lines[0].LineTotal)

	_, err = Get(context.Background(), f.db, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLinesSurviveProductChanges(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := placeRaw(t, f, 1, time.Now().UTC())

	_, err := f.db.Exec("UPDATE products SET selling_price = 99 WHERE id = ?", f.productID)
	require.NoError(t, err)
	o, err := Get(ctx, f.db, id)
	require.NoError(t, err)
	assert.Equal(t, 10.0, o.Lines[0].UnitPrice)

	_, err = f.db.Exec("DELETE FROM products WHERE id = ?", f.productID)
	require.NoError(t, err)
	o, err = Get(ctx, f.db, id)
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.Nil(t, o.Lines[0].Product)
	assert.Equal(t, "Mug", o.Lines[0].ProductName)
}

func TestUpdateStatusMovesForwardOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	store := &Store{DB: f.db}
	id := placeRaw(t, f, 1, time.Now().UTC())

	o, err := store.UpdateStatus(ctx, id, models.OrderProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, o.Status)

	_, err = store.UpdateStatus(ctx, id, models.OrderPending)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	_, err = store.UpdateStatus(ctx, id, models.OrderProcessing)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	o, err = store.UpdateStatus(ctx, id, models.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, o.Status)

	_, err = store.UpdateStatus(ctx, 9999, models.OrderDelivered)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListForUserNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	store := &Store{DB: f.db}

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	older := placeRaw(t, f, 1, base)
	newer := placeRaw(t, f, 2, base.Add(time.Hour))
	_, err := store.UpdateStatus(ctx, older, models.OrderProcessing)
	require.NoError(t, err)

	other := dbtest.CreateUser(t, f.db, "b@example.com", models.RoleCustomer)

	page, err := store.ListForUser(ctx, models.Principal{UserID: f.userID}, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, newer, page.Orders[0].ID)
	assert.NotEmpty(t, page.Orders[0].Lines)

	page, err = store.ListForUser(ctx, models.Principal{UserID: f.userID}, Filter{Status: models.OrderProcessing})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, older, page.Orders[0].ID)

	page, err = store.ListForUser(ctx, models.Principal{UserID: other}, Filter{})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)

	page, err = store.List(ctx, Filter{PerPage: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, older, page.Orders[0].ID)
}

func TestProfitUsesCurrentCost(t *testing.T) {
	f := setup(t)
	store := &Store{DB: f.db}
	id := placeRaw(t, f, 3, time.Now().UTC())

	// dbtest products cost half their regular price: (10 - 5) * 3.
	profit, err := store.Profit(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 15.0, profit)

	_, err = f.db.Exec("DELETE FROM products WHERE id = ?", f.productID)
	require.NoError(t, err)
	profit, err = store.Profit(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, profit)
}

func TestStatsCountsEveryStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	store := &Store{DB: f.db}

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Orders)
	assert.Equal(t, 0, st.ByStatus[models.OrderDelivered])

	placeRaw(t, f, 1, time.Now().UTC())
	id := placeRaw(t, f, 2, time.Now().UTC())
	_, err = store.UpdateStatus(ctx, id, models.OrderProcessing)
	require.NoError(t, err)

	st, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Orders)
	assert.Equal(t, 1, st.ByStatus[models.OrderPending])
	assert.Equal(t, 1, st.ByStatus[models.OrderProcessing])
	assert.Equal(t, 38.0, st.Revenue)
}
