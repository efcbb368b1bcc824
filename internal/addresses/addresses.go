// Package addresses stores delivery addresses. Every operation is scoped
// to the calling principal.
package addresses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
)

type Input struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	ZoneID      int64
	FullAddress string
	MoreDetails *string
}

type Store struct {
	DB *sql.DB
}

const addressQuery = `
	SELECT a.id, a.user_id, a.zone_id, a.first_name, a.last_name, a.phone_number,
		a.full_address, a.more_details, a.created_at, a.updated_at,
		z.id, z.name, z.shipping_price, z.created_at, z.updated_at
	FROM addresses a
	LEFT JOIN zones z ON z.id = a.zone_id`

// Scan reads one row of the address+zone join. It is shared with the
// orders package, which selects the same columns.
func Scan(row interface{ Scan(...any) error }) (*models.Address, error) {
	var (
		a       models.Address
		zoneRef sql.NullInt64
		more    sql.NullString
		zoneID  sql.NullInt64
		name    sql.NullString
		price   sql.NullFloat64
		zc, zu  sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.UserID, &zoneRef, &a.FirstName, &a.LastName, &a.PhoneNumber,
		&a.FullAddress, &more, &a.CreatedAt, &a.UpdatedAt,
		&zoneID, &name, &price, &zc, &zu); err != nil {
		return nil, err
	}
	a.ZoneID = database.Int64Ptr(zoneRef)
	a.MoreDetails = database.StringPtr(more)
	if zoneID.Valid {
		a.Zone = &models.Zone{
			ID:            zoneID.Int64,
			Name:          name.String,
			ShippingPrice: price.Float64,
			CreatedAt:     zc.Time,
			UpdatedAt:     zu.Time,
		}
	}
	return &a, nil
}

// List returns the caller's addresses with their zones.
func (s *Store) List(ctx context.Context, p models.Principal) ([]models.Address, error) {
	rows, err := s.DB.QueryContext(ctx, addressQuery+" WHERE a.user_id = ? ORDER BY a.id ASC", p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	out := []models.Address{}
	for rows.Next() {
		a, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Get returns one address. Addresses owned by someone else are reported as
// models.ErrForbidden.
func (s *Store) Get(ctx context.Context, p models.Principal, id int64) (*models.Address, error) {
	a, err := Lookup(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != p.UserID {
		return nil, models.ErrForbidden
	}
	return a, nil
}

// Create validates and inserts an address for the caller.
func (s *Store) Create(ctx context.Context, p models.Principal, in Input) (*models.Address, error) {
	if err := s.validate(ctx, p.UserID, 0, in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO addresses (user_id, zone_id, first_name, last_name, phone_number, full_address, more_details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, in.ZoneID, in.FirstName, in.LastName, in.PhoneNumber, in.FullAddress, in.MoreDetails, now, now)
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return Lookup(ctx, s.DB, id)
}

// Update replaces an address the caller owns.
func (s *Store) Update(ctx context.Context, p models.Principal, id int64, in Input) (*models.Address, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, p.UserID, id, in); err != nil {
		return nil, err
	}

	_, err := s.DB.ExecContext(ctx, `
		UPDATE addresses
		SET zone_id = ?, first_name = ?, last_name = ?, phone_number = ?, full_address = ?, more_details = ?, updated_at = ?
		WHERE id = ?`,
		in.ZoneID, in.FirstName, in.LastName, in.PhoneNumber, in.FullAddress, in.MoreDetails, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update address %d: %w", id, err)
	}
	return Lookup(ctx, s.DB, id)
}

// Delete removes an address the caller owns.
func (s *Store) Delete(ctx context.Context, p models.Principal, id int64) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, "DELETE FROM addresses WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete address %d: %w", id, err)
	}
	return nil
}

// Lookup loads an address without an ownership check, on q.
func Lookup(ctx context.Context, q database.Querier, id int64) (*models.Address, error) {
	a, err := Scan(q.QueryRowContext(ctx, addressQuery+" WHERE a.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("address %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get address %d: %w", id, err)
	}
	return a, nil
}

func (s *Store) validate(ctx context.Context, userID, addressID int64, in Input) error {
	verr := &models.ValidationError{Fields: map[string]string{}}
	if in.FirstName == "" {
		verr.Fields["first_name"] = "The first name field is required."
	}
	if in.LastName == "" {
		verr.Fields["last_name"] = "The last name field is required."
	}
	if in.FullAddress == "" {
		verr.Fields["full_address"] = "The full address field is required."
	}
	verr.Check("phone_number", in.PhoneNumber, "len=8,number", "The phone number must be 8 digits.")

	var one int
	err := s.DB.QueryRowContext(ctx, "SELECT 1 FROM zones WHERE id = ?", in.ZoneID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		verr.Fields["zone_id"] = "The selected zone id is invalid."
	case err != nil:
		return fmt.Errorf("check zone %d: %w", in.ZoneID, err)
	}

	if _, bad := verr.Fields["phone_number"]; !bad {
		err = s.DB.QueryRowContext(ctx, `
			SELECT 1 FROM addresses
			WHERE phone_number = ? AND user_id <> ? AND id <> ?
			LIMIT 1`, in.PhoneNumber, userID, addressID).Scan(&one)
		switch {
		case err == nil:
			verr.Fields["phone_number"] = "Phone number already used by another user"
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check phone number: %w", err)
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
