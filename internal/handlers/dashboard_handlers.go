package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

//
// --- Admin Dashboard Stats ---
//

type DashboardStats struct {
	TotalUsers    int `json:"total_users"`
	TotalProducts int `json:"total_products"`
	*orders.Stats
}

// GetDashboardStats returns KPI data for the admin dashboard
// GET /dashboard-stats
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	var stats DashboardStats

	g, gctx := errgroup.WithContext(ctx)

	// 1. Registered Customers
	g.Go(func() (err error) {
		stats.TotalUsers, err = h.Users.Count(gctx)
		return err
	})

	// 2. Catalog Size
	g.Go(func() (err error) {
		stats.TotalProducts, err = h.Products.Count(gctx)
		return err
	})

	// 3. Orders by Status & Revenue
	g.Go(func() (err error) {
		stats.Stats, err = h.Orders.Stats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"stats": stats})
}
