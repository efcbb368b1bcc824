package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/gin-gonic/gin"
)

//
// --- Products ---
//

type ProductInput struct {
	CategoryID    *int64   `json:"category_id" binding:"omitempty,gt=0"`
	SubcategoryID *int64   `json:"subcategory_id" binding:"omitempty,gt=0"`
	BrandID       *int64   `json:"brand_id" binding:"omitempty,gt=0"`
	Name          string   `json:"name" binding:"required,max=255"`
	Description   string   `json:"description"`
	Image         *string  `json:"image" binding:"omitempty,max=500"`
	BuyingPrice   *float64 `json:"buying_price" binding:"required,gte=0"`
	RegularPrice  *float64 `json:"regular_price" binding:"required,gte=0"`
	Discount      float64  `json:"discount" binding:"gte=0,lte=100"`
	Quantity      int      `json:"quantity" binding:"gte=0"`
	IsTrending    bool     `json:"is_trending"`
	IsNew         bool     `json:"is_new"`
}

func (in ProductInput) toStore() catalog.ProductInput {
	return catalog.ProductInput{
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		BrandID:       in.BrandID,
		Name:          in.Name,
		Description:   in.Description,
		Image:         in.Image,
		BuyingPrice:   in.BuyingPrice,
		RegularPrice:  *in.RegularPrice,
		Discount:      in.Discount,
		Quantity:      in.Quantity,
		IsTrending:    in.IsTrending,
		IsNew:         in.IsNew,
	}
}

type PageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// ListProducts is the handler for GET /products.
func (h *Handlers) ListProducts(c *gin.Context) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.Products.List(c.Request.Context(), q.Page, q.PerPage)
	if err != nil {
		fail(c, err)
		return
	}
	if !isAdmin(c) {
		for i := range page.Products {
			page.Products[i].HideCost()
		}
	}
	ok(c, http.StatusOK, "", gin.H{"products": page})
}

// GetProduct is the handler for GET /products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Product")
		return
	}
	product, err := h.Products.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !isAdmin(c) {
		product.HideCost()
	}
	ok(c, http.StatusOK, "", gin.H{"product": product})
}

// CountProducts is the handler for GET /products/count (admin).
func (h *Handlers) CountProducts(c *gin.Context) {
	n, err := h.Products.Count(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"total_products": n})
}

// CreateProduct is the handler for POST /products (admin).
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.Products.Create(c.Request.Context(), input.toStore())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Product created successfully", gin.H{"product": product})
}

// UpdateProduct is the handler for PUT /products/:id (admin). The quantity
// of a product with variants stays derived from them.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Product")
		return
	}
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.Products.Update(c.Request.Context(), id, input.toStore())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product updated successfully", gin.H{"product": product})
}

// DeleteProduct is the handler for DELETE /products/:id (admin).
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Product")
		return
	}
	if err := h.Products.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product deleted successfully", nil)
}

//
// --- Variants ---
//

type VariantInput struct {
	Color        string   `json:"color" binding:"required,max=50"`
	HexColor     *string  `json:"hex_color" binding:"omitempty,hexcolor,len=7"`
	Size         *string  `json:"size" binding:"omitempty,max=50"`
	BuyingPrice  *float64 `json:"buying_price" binding:"omitempty,gte=0"`
	RegularPrice *float64 `json:"regular_price" binding:"omitempty,gte=0"`
	Discount     *float64 `json:"discount" binding:"omitempty,gte=0,lte=100"`
	SellingPrice *float64 `json:"selling_price" binding:"omitempty,gte=0"`
	Weight       *string  `json:"weight" binding:"omitempty,max=100"`
	Quantity     int      `json:"quantity" binding:"gte=0"`
}

func (in VariantInput) toStore() catalog.VariantInput {
	return catalog.VariantInput{
		Color:        in.Color,
		HexColor:     in.HexColor,
		Size:         in.Size,
		BuyingPrice:  in.BuyingPrice,
		RegularPrice: in.RegularPrice,
		Discount:     in.Discount,
		SellingPrice: in.SellingPrice,
		Weight:       in.Weight,
		Quantity:     in.Quantity,
	}
}

// ListVariants is the handler for GET /products/:id/variants.
func (h *Handlers) ListVariants(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Product")
		return
	}
	product, err := h.Products.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !isAdmin(c) {
		product.HideCost()
	}
	ok(c, http.StatusOK, "", gin.H{"variants": product.Variants})
}

// CreateVariant is the handler for POST /products/:id/variants (admin).
func (h *Handlers) CreateVariant(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Product")
		return
	}
	var input VariantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	variant, err := h.Products.CreateVariant(c.Request.Context(), id, input.toStore())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Variant created successfully", gin.H{"variant": variant})
}

// UpdateVariant is the handler for PUT /variants/:id (admin).
func (h *Handlers) UpdateVariant(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Variant")
		return
	}
	var input VariantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	variant, err := h.Products.UpdateVariant(c.Request.Context(), id, input.toStore())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Variant updated successfully", gin.H{"variant": variant})
}

// DeleteVariant is the handler for DELETE /variants/:id (admin).
func (h *Handlers) DeleteVariant(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Variant")
		return
	}
	if err := h.Products.DeleteVariant(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Variant deleted successfully", nil)
}
