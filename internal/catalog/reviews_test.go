package catalog_test

import (
	"context"
	"testing"

	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/database/dbtest"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewCreateAndList(t *testing.T) {
	db := dbtest.Open(t)
	s := &catalog.Reviews{DB: db}
	ctx := context.Background()

	product := dbtest.CreateProduct(t, db, "Kettle", 20, 0, 5)
	user := dbtest.CreateUser(t, db, "r@example.com", models.RoleCustomer)
	p := models.Principal{UserID: user, Role: models.RoleCustomer}

	_, err := s.Create(ctx, p, product, 6, nil)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "rating")

	_, err = s.Create(ctx, p, 999, 4, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	r, err := s.Create(ctx, p, product, 5, dbtest.Ptr("Boils fast"))
	require.NoError(t, err)
	assert.NotZero(t, r.ID)

	list, err := s.List(ctx, product)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Test User", list[0].UserName)
	assert.Equal(t, "Boils fast", *list[0].Comment)
}

func TestNewsletterSubscribeIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	s := &catalog.Newsletter{DB: db}
	ctx := context.Background()

	first, err := s.Subscribe(ctx, "News@Example.com")
	require.NoError(t, err)
	second, err := s.Subscribe(ctx, "news@example.com ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, dbtest.CountRows(t, db, "newsletter_subscriptions"))

	_, err = s.Subscribe(ctx, "not-an-email")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	subs, err := s.Subscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "news@example.com", subs[0].Email)
}
