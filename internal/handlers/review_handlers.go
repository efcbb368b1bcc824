package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Reviews ---
//

type ReviewInput struct {
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

// ListReviews is the handler for GET /products/:id/reviews.
func (h *Handlers) ListReviews(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Product")
		return
	}
	reviews, err := h.Reviews.List(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"reviews": reviews})
}

// CreateReview is the handler for POST /products/:id/reviews.
func (h *Handlers) CreateReview(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Product")
		return
	}
	var input ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	review, err := h.Reviews.Create(c.Request.Context(), principal(c), id, input.Rating, input.Comment)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Review added successfully", gin.H{"review": review})
}

//
// --- Newsletter ---
//

type SubscribeInput struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// Subscribe is the handler for POST /newsletter.
func (h *Handlers) Subscribe(c *gin.Context) {
	var input SubscribeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.Newsletter.Subscribe(c.Request.Context(), input.Email)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Subscribed successfully", gin.H{"subscription": sub})
}

// ListSubscriptions is the handler for GET /newsletter (admin).
func (h *Handlers) ListSubscriptions(c *gin.Context) {
	subs, err := h.Newsletter.Subscriptions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"subscriptions": subs})
}
