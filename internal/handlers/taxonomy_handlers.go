package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Categories ---
//

type CategoryInput struct {
	Name  string  `json:"name" binding:"required,max=255"`
	Image *string `json:"image" binding:"omitempty,max=500"`
}

// GetAllCategories is the handler for GET /categories.
func (h *Handlers) GetAllCategories(c *gin.Context) {
	categories, err := h.Taxonomy.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"categories": categories})
}

// GetCategory is the handler for GET /categories/:id.
func (h *Handlers) GetCategory(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Category")
		return
	}
	category, err := h.Taxonomy.GetCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"category": category})
}

// CreateCategory is the handler for POST /categories (admin).
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.Taxonomy.CreateCategory(c.Request.Context(), input.Name, input.Image)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Category created successfully", gin.H{"category": category})
}

// UpdateCategory is the handler for PUT /categories/:id (admin).
func (h *Handlers) UpdateCategory(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Category")
		return
	}
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.Taxonomy.UpdateCategory(c.Request.Context(), id, input.Name, input.Image)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Category updated successfully", gin.H{"category": category})
}

// DeleteCategory is the handler for DELETE /categories/:id (admin).
// Categories that products still use are kept (409).
func (h *Handlers) DeleteCategory(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Category")
		return
	}
	if err := h.Taxonomy.DeleteCategory(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Category deleted successfully", nil)
}

//
// --- Subcategories ---
//

type SubcategoryInput struct {
	CategoryID int64  `json:"category_id" binding:"required,gt=0"`
	Name       string `json:"name" binding:"required,max=255"`
}

// CreateSubcategory is the handler for POST /subcategories (admin).
func (h *Handlers) CreateSubcategory(c *gin.Context) {
	var input SubcategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.Taxonomy.CreateSubcategory(c.Request.Context(), input.CategoryID, input.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Subcategory created successfully", gin.H{"subcategory": sub})
}

// UpdateSubcategory is the handler for PUT /subcategories/:id (admin).
func (h *Handlers) UpdateSubcategory(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Subcategory")
		return
	}
	var input SubcategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.Taxonomy.UpdateSubcategory(c.Request.Context(), id, input.CategoryID, input.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Subcategory updated successfully", gin.H{"subcategory": sub})
}

// DeleteSubcategory is the handler for DELETE /subcategories/:id (admin).
func (h *Handlers) DeleteSubcategory(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Subcategory")
		return
	}
	if err := h.Taxonomy.DeleteSubcategory(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Subcategory deleted successfully", nil)
}

//
// --- Brands ---
//

type BrandInput struct {
	Name string `json:"name" binding:"required,max=255"`
}

// GetAllBrands is the handler for GET /brands.
func (h *Handlers) GetAllBrands(c *gin.Context) {
	brands, err := h.Taxonomy.ListBrands(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"brands": brands})
}

// GetBrand is the handler for GET /brands/:id (admin).
func (h *Handlers) GetBrand(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Brand")
		return
	}
	brand, err := h.Taxonomy.GetBrand(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"brand": brand})
}

// CreateBrand is the handler for POST /brands (admin).
func (h *Handlers) CreateBrand(c *gin.Context) {
	var input BrandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	brand, err := h.Taxonomy.CreateBrand(c.Request.Context(), input.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Brand created successfully", gin.H{"brand": brand})
}

// UpdateBrand is the handler for PUT /brands/:id (admin).
func (h *Handlers) UpdateBrand(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Brand")
		return
	}
	var input BrandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	brand, err := h.Taxonomy.UpdateBrand(c.Request.Context(), id, input.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Brand updated successfully", gin.H{"brand": brand})
}

// DeleteBrand is the handler for DELETE /brands/:id (admin).
func (h *Handlers) DeleteBrand(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Brand")
		return
	}
	if err := h.Taxonomy.DeleteBrand(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Brand deleted successfully", nil)
}
