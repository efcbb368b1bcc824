package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers ---
//

func (h *Handlers) hideCartCost(c *gin.Context, lines ...*models.CartItem) {
	if principal(c).IsAdmin() {
		return
	}
	for _, l := range lines {
		if l.Product != nil {
			l.Product.HideCost()
		}
		if l.Variant != nil {
			l.Variant.BuyingPrice = nil
		}
	}
}

// GetCart is the handler for GET /cart. With ?address_id= the summary
// includes that address's shipping price.
func (h *Handlers) GetCart(c *gin.Context) {
	ctx := c.Request.Context()
	p := principal(c)

	addressID, err := optionalInt64(c.Query("address_id"))
	if err != nil {
		fail(c, models.NewValidationError("address_id", "The address id must be an integer."))
		return
	}

	// 1. --- Load Lines ---
	lines, err := h.Cart.Load(ctx, p.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	// 2. --- Shipping for the Chosen Address ---
	var shippingPrice float64
	if len(lines) > 0 && addressID != nil {
		if _, err := h.Addresses.Get(ctx, p, *addressID); err != nil {
			fail(c, err)
			return
		}
		if shippingPrice, err = h.Shipping.QuoteForAddress(ctx, h.DB, *addressID); err != nil {
			fail(c, err)
			return
		}
	}

	// 3. --- Respond ---
	for i := range lines {
		h.hideCartCost(c, &lines[i])
	}
	ok(c, http.StatusOK, "", gin.H{"items": lines, "summary": cart.Summary(lines, shippingPrice)})
}

type AddToCartInput struct {
	ProductID int64  `json:"product_id" binding:"required,gt=0"`
	VariantID *int64 `json:"variant_id" binding:"omitempty,gt=0"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// AddToCart is the handler for POST /cart. Adding the same product and
// variant again replaces the line's quantity.
func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	line, err := h.Cart.Upsert(c.Request.Context(), principal(c).UserID, input.ProductID, input.VariantID, input.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	h.hideCartCost(c, line)
	ok(c, http.StatusCreated, "Product added to cart", gin.H{"cart": line})
}

type UpdateCartInput struct {
	VariantID *int64 `json:"variant_id" binding:"omitempty,gt=0"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// cartVariant reads variant_id from the body value or, failing that, the
// query string.
func cartVariant(c *gin.Context, fromBody *int64) (*int64, error) {
	if fromBody != nil {
		return fromBody, nil
	}
	return optionalInt64(c.Query("variant_id"))
}

// UpdateCartItem is the handler for PUT /cart/:product_id.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	productID, valid := idParam(c, "product_id")
	if !valid {
		notFound(c, "Product")
		return
	}
	var input UpdateCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	variantID, err := cartVariant(c, input.VariantID)
	if err != nil {
		fail(c, models.NewValidationError("variant_id", "The variant id must be an integer."))
		return
	}

	line, err := h.Cart.UpdateQuantity(c.Request.Context(), principal(c).UserID, productID, variantID, input.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	h.hideCartCost(c, line)
	ok(c, http.StatusOK, "Cart updated", gin.H{"cart": line})
}

// DeleteCartItem is the handler for DELETE /cart/:product_id.
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	productID, valid := idParam(c, "product_id")
	if !valid {
		notFound(c, "Product")
		return
	}
	variantID, err := cartVariant(c, nil)
	if err != nil {
		fail(c, models.NewValidationError("variant_id", "The variant id must be an integer."))
		return
	}

	if err := h.Cart.Remove(c.Request.Context(), principal(c).UserID, productID, variantID); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product removed from cart", nil)
}
