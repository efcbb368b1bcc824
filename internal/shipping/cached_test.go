package shipping

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/cache"
	"github.com/01moynul/storefront-golang/internal/database/dbtest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedZonesInvalidatesOnWrite(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	zones := &CachedZones{
		ZoneStore: &ZoneStore{DB: db},
		Cache:     cache.NewMemory(8, time.Minute, "test"),
		Logger:    zerolog.Nop(),
	}

	list, err := zones.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// A row written behind the cache's back is not visible until a write
	// through the cache invalidates it.
	dbtest.CreateZone(t, db, "Hidden", 1)
	list, err = zones.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = zones.Create(ctx, ZoneInput{Name: "Beirut", ShippingPrice: 3})
	require.NoError(t, err)

	list, err = zones.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
