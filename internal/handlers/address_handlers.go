package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/addresses"
	"github.com/gin-gonic/gin"
)

//
// --- Addresses ---
//

type AddressInput struct {
	FirstName   string  `json:"first_name" binding:"required,max=100"`
	LastName    string  `json:"last_name" binding:"required,max=100"`
	PhoneNumber string  `json:"phone_number" binding:"required"`
	ZoneID      int64   `json:"zone_id" binding:"required,gt=0"`
	FullAddress string  `json:"full_address" binding:"required"`
	MoreDetails *string `json:"more_details"`
}

func (in AddressInput) toStore() addresses.Input {
	return addresses.Input{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		ZoneID:      in.ZoneID,
		FullAddress: in.FullAddress,
		MoreDetails: in.MoreDetails,
	}
}

// ListAddresses is the handler for GET /addresses.
func (h *Handlers) ListAddresses(c *gin.Context) {
	list, err := h.Addresses.List(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"addresses": list})
}

// GetAddress is the handler for GET /addresses/:id.
func (h *Handlers) GetAddress(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Address")
		return
	}
	addr, err := h.Addresses.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"address": addr})
}

// CreateAddress is the handler for POST /addresses.
func (h *Handlers) CreateAddress(c *gin.Context) {
	var input AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	addr, err := h.Addresses.Create(c.Request.Context(), principal(c), input.toStore())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Address added successfully", gin.H{"address": addr})
}

// UpdateAddress is the handler for PUT /addresses/:id.
func (h *Handlers) UpdateAddress(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Address")
		return
	}
	var input AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	addr, err := h.Addresses.Update(c.Request.Context(), principal(c), id, input.toStore())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Address updated successfully", gin.H{"address": addr})
}

// DeleteAddress is the handler for DELETE /addresses/:id.
func (h *Handlers) DeleteAddress(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Address")
		return
	}
	if err := h.Addresses.Delete(c.Request.Context(), principal(c), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Address deleted successfully", nil)
}
