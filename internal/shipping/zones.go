// Package shipping resolves delivery prices through shipping zones and
// stores the zones themselves.
package shipping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
)

// Pricing quotes shipping costs. It never fails for a missing address or
// zone; shipping degrades to zero instead of blocking checkout.
type Pricing struct{}

// QuoteForAddress returns the shipping price of the zone assigned to the
// address, or 0 when the address or its zone does not exist. Ownership is
// the caller's concern.
func (Pricing) QuoteForAddress(ctx context.Context, q database.Querier, addressID int64) (float64, error) {
	var price sql.NullFloat64
	err := q.QueryRowContext(ctx, `
		SELECT z.shipping_price
		FROM addresses a
		LEFT JOIN zones z ON z.id = a.zone_id
		WHERE a.id = ?`, addressID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quote shipping for address %d: %w", addressID, err)
	}
	return price.Float64, nil
}

// QuoteForZone returns the zone's shipping price, or 0 when it does not exist.
func (Pricing) QuoteForZone(ctx context.Context, q database.Querier, zoneID int64) (float64, error) {
	var price float64
	err := q.QueryRowContext(ctx, "SELECT shipping_price FROM zones WHERE id = ?", zoneID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quote shipping for zone %d: %w", zoneID, err)
	}
	return price, nil
}

// ZoneInput is the writable part of a zone.
type ZoneInput struct {
	Name          string
	ShippingPrice float64
}

// ZoneStore persists zones.
type ZoneStore struct {
	DB *sql.DB
}

const zoneColumns = `
	SELECT z.id, z.name, z.shipping_price, z.created_at, z.updated_at,
		(SELECT COUNT(*) FROM addresses a WHERE a.zone_id = z.id)
	FROM zones z`

func scanZone(row interface{ Scan(...any) error }) (*models.Zone, error) {
	var z models.Zone
	if err := row.Scan(&z.ID, &z.Name, &z.ShippingPrice, &z.CreatedAt, &z.UpdatedAt, &z.AddressCount); err != nil {
		return nil, err
	}
	return &z, nil
}

// List returns all zones with their address counts, ordered by name.
func (s *ZoneStore) List(ctx context.Context) ([]models.Zone, error) {
	rows, err := s.DB.QueryContext(ctx, zoneColumns+" ORDER BY z.name ASC")
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	zones := []models.Zone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, *z)
	}
	return zones, rows.Err()
}

// Get returns one zone or models.ErrNotFound.
func (s *ZoneStore) Get(ctx context.Context, id int64) (*models.Zone, error) {
	z, err := scanZone(s.DB.QueryRowContext(ctx, zoneColumns+" WHERE z.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("zone %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get zone %d: %w", id, err)
	}
	return z, nil
}

// Create inserts a zone. Names are unique.
func (s *ZoneStore) Create(ctx context.Context, in ZoneInput) (*models.Zone, error) {
	if err := s.ensureNameFree(ctx, in.Name, 0); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO zones (name, shipping_price, created_at, updated_at) VALUES (?, ?, ?, ?)",
		in.Name, in.ShippingPrice, now, now)
	if err != nil {
		return nil, fmt.Errorf("create zone: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create zone: %w", err)
	}
	return s.Get(ctx, id)
}

// Update replaces a zone's name and price.
func (s *ZoneStore) Update(ctx context.Context, id int64, in ZoneInput) (*models.Zone, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, in.Name, id); err != nil {
		return nil, err
	}

	_, err := s.DB.ExecContext(ctx,
		"UPDATE zones SET name = ?, shipping_price = ?, updated_at = ? WHERE id = ?",
		in.Name, in.ShippingPrice, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update zone %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Delete removes a zone. Zones still referenced by addresses are kept and
// models.ErrZoneInUse is returned.
func (s *ZoneStore) Delete(ctx context.Context, id int64) error {
	z, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if z.AddressCount > 0 {
		return models.ErrZoneInUse
	}

	res, err := s.DB.ExecContext(ctx, "DELETE FROM zones WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete zone %d: %w", id, err)
	}
	return database.RowsAffectedOne(res, fmt.Errorf("zone %d: %w", id, models.ErrNotFound))
}

// Exists reports whether a zone with the id exists.
func (s *ZoneStore) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM zones WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check zone %d: %w", id, err)
	}
	return true, nil
}

func (s *ZoneStore) ensureNameFree(ctx context.Context, name string, exceptID int64) error {
	var id int64
	err := s.DB.QueryRowContext(ctx, "SELECT id FROM zones WHERE name = ? AND id <> ?", name, exceptID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check zone name: %w", err)
	}
	return models.NewValidationError("name", "The name has already been taken.")
}
