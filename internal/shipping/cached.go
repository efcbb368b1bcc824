package shipping

import (
	"context"
	"encoding/json"
	"time"

	"github.com/01moynul/storefront-golang/internal/cache"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/rs/zerolog"
)

const zoneListTTL = 10 * time.Minute

// CachedZones serves the public zone list from a cache and drops the cached
// copy after every write. Cache failures fall through to the store.
type CachedZones struct {
	*ZoneStore
	Cache  cache.Cache
	Logger zerolog.Logger
}

func (c *CachedZones) key() string { return c.Cache.Key("zones", "all") }

func (c *CachedZones) List(ctx context.Context) ([]models.Zone, error) {
	if raw, ok, err := c.Cache.Get(ctx, c.key()); err != nil {
		c.Logger.Warn().Err(err).Msg("zone cache read failed")
	} else if ok {
		var zones []models.Zone
		if err := json.Unmarshal([]byte(raw), &zones); err == nil {
			return zones, nil
		}
	}

	zones, err := c.ZoneStore.List(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(zones); err == nil {
		if err := c.Cache.Set(ctx, c.key(), string(raw), zoneListTTL); err != nil {
			c.Logger.Warn().Err(err).Msg("zone cache write failed")
		}
	}
	return zones, nil
}

func (c *CachedZones) Create(ctx context.Context, in ZoneInput) (*models.Zone, error) {
	z, err := c.ZoneStore.Create(ctx, in)
	c.invalidate(ctx, err)
	return z, err
}

func (c *CachedZones) Update(ctx context.Context, id int64, in ZoneInput) (*models.Zone, error) {
	z, err := c.ZoneStore.Update(ctx, id, in)
	c.invalidate(ctx, err)
	return z, err
}

func (c *CachedZones) Delete(ctx context.Context, id int64) error {
	err := c.ZoneStore.Delete(ctx, id)
	c.invalidate(ctx, err)
	return err
}

// Invalidate drops the cached list; address writes change the counts.
func (c *CachedZones) Invalidate(ctx context.Context) {
	c.invalidate(ctx, nil)
}

func (c *CachedZones) invalidate(ctx context.Context, writeErr error) {
	if writeErr != nil {
		return
	}
	if err := c.Cache.Delete(ctx, c.key()); err != nil {
		c.Logger.Warn().Err(err).Msg("zone cache invalidation failed")
	}
}
