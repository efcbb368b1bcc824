package addresses

import (
	"context"
	"testing"

	"github.com/01moynul/storefront-golang/internal/database/dbtest"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(zoneID int64, phone string) Input {
	return Input{
		FirstName:   "Rana",
		LastName:    "Haddad",
		PhoneNumber: phone,
		ZoneID:      zoneID,
		FullAddress: "Hamra Street, Beirut",
	}
}

func TestCreateAndList(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	zoneID := dbtest.CreateZone(t, db, "Beirut", 3)
	p := models.Principal{UserID: userID, Role: models.RoleCustomer}

	a, err := store.Create(ctx, p, validInput(zoneID, "70123456"))
	require.NoError(t, err)
	require.NotNil(t, a.Zone)
	assert.Equal(t, "Beirut", a.Zone.Name)
	assert.Equal(t, userID, a.UserID)

	list, err := store.List(ctx, p)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateValidation(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	p := models.Principal{UserID: userID}

	_, err := store.Create(ctx, p, Input{PhoneNumber: "123", ZoneID: 42})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"first_name", "last_name", "full_address", "phone_number", "zone_id"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestPhoneNumberMustBeEightDigits(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	zoneID := dbtest.CreateZone(t, db, "Beirut", 3)
	p := models.Principal{UserID: userID}

	for _, phone := range []string{"7012345", "701234567", "+7012345", "7012.345", "7012345a"} {
		_, err := store.Create(ctx, p, validInput(zoneID, phone))
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr, phone)
		assert.Contains(t, verr.Fields, "phone_number", phone)
	}
	assert.Equal(t, 0, dbtest.CountRows(t, db, "addresses"))
}

func TestPhoneNumberUniqueAcrossUsers(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	zoneID := dbtest.CreateZone(t, db, "Beirut", 3)
	alice := models.Principal{UserID: dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)}
	bob := models.Principal{UserID: dbtest.CreateUser(t, db, "b@example.com", models.RoleCustomer)}

	_, err := store.Create(ctx, alice, validInput(zoneID, "70123456"))
	require.NoError(t, err)

	// The same user may reuse a number.
	_, err = store.Create(ctx, alice, validInput(zoneID, "70123456"))
	require.NoError(t, err)

	_, err = store.Create(ctx, bob, validInput(zoneID, "70123456"))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "phone_number")
}

func TestOwnershipIsEnforced(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := &Store{DB: db}

	zoneID := dbtest.CreateZone(t, db, "Beirut", 3)
	alice := models.Principal{UserID: dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)}
	bob := models.Principal{UserID: dbtest.CreateUser(t, db, "b@example.com", models.RoleCustomer)}

	a, err := store.Create(ctx, alice, validInput(zoneID, "70123456"))
	require.NoError(t, err)

	_, err = store.Get(ctx, bob, a.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = store.Update(ctx, bob, a.ID, validInput(zoneID, "71000000"))
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, store.Delete(ctx, bob, a.ID), models.ErrForbidden)

	_, err = store.Get(ctx, alice, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	updated, err := store.Update(ctx, alice, a.ID, validInput(zoneID, "71000000"))
	require.NoError(t, err)
	assert.Equal(t, "71000000", updated.PhoneNumber)

	require.NoError(t, store.Delete(ctx, alice, a.ID))
	assert.Equal(t, 0, dbtest.CountRows(t, db, "addresses"))
}
