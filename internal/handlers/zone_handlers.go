package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/shipping"
	"github.com/gin-gonic/gin"
)

//
// --- Zones ---
//

type ZoneInput struct {
	Name          string   `json:"name" binding:"required,max=255"`
	ShippingPrice *float64 `json:"shipping_price" binding:"required,gte=0"`
}

func (in ZoneInput) toStore() shipping.ZoneInput {
	return shipping.ZoneInput{Name: in.Name, ShippingPrice: *in.ShippingPrice}
}

// ListZones is the handler for GET /zones.
func (h *Handlers) ListZones(c *gin.Context) {
	zones, err := h.Zones.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"zones": zones})
}

// GetZone is the handler for GET /zones/:id.
func (h *Handlers) GetZone(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Zone")
		return
	}
	zone, err := h.Zones.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"zone": zone})
}

// CreateZone is the handler for POST /zones.
func (h *Handlers) CreateZone(c *gin.Context) {
	var input ZoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	zone, err := h.Zones.Create(c.Request.Context(), input.toStore())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Zone created successfully", gin.H{"zone": zone})
}

// UpdateZone is the handler for PUT /zones/:id.
func (h *Handlers) UpdateZone(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Zone")
		return
	}
	var input ZoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	zone, err := h.Zones.Update(c.Request.Context(), id, input.toStore())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Zone updated successfully", gin.H{"zone": zone})
}

// DeleteZone is the handler for DELETE /zones/:id. Zones with addresses
// are kept (400).
func (h *Handlers) DeleteZone(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Zone")
		return
	}
	if err := h.Zones.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Zone deleted successfully", nil)
}

type ShippingPriceQuery struct {
	AddressID int64 `form:"address_id" binding:"required,gt=0"`
}

// ShippingPrice is the handler for GET /shipping-price?address_id=.
func (h *Handlers) ShippingPrice(c *gin.Context) {
	var q ShippingPriceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	// 1. --- Check Ownership ---
	if _, err := h.Addresses.Get(c.Request.Context(), principal(c), q.AddressID); err != nil {
		fail(c, err)
		return
	}

	// 2. --- Quote ---
	price, err := h.Shipping.QuoteForAddress(c.Request.Context(), h.DB, q.AddressID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"shipping_price": price})
}
