package handlers

import (
	"context"
	"strconv"

	"github.com/01moynul/storefront-golang/internal/addresses"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/01moynul/storefront-golang/internal/shipping"
	"github.com/01moynul/storefront-golang/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ShippingQuoter prices delivery to an address.
type ShippingQuoter interface {
	QuoteForAddress(ctx context.Context, q database.Querier, addressID int64) (float64, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB     database.Querier
	Logger zerolog.Logger

	Users      *users.Store
	Tokens     *auth.Manager
	Zones      *shipping.CachedZones
	Shipping   ShippingQuoter
	Addresses  *addresses.Store
	Cart       *cart.Store
	Checkout   *checkout.Workflow
	Orders     *orders.Store
	Products   *catalog.Products
	Taxonomy   *catalog.Taxonomy
	Reviews    *catalog.Reviews
	Newsletter *catalog.Newsletter
}

// principal returns the caller. Routes using it sit behind AuthMiddleware.
func principal(c *gin.Context) models.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

// isAdmin reports whether the caller, if any, holds an admin token.
func isAdmin(c *gin.Context) bool {
	p, ok := middleware.PrincipalFrom(c)
	return ok && p.IsAdmin()
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// optionalInt64 parses a query value, returning nil when it is absent.
func optionalInt64(v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
