package handlers

import (
	"net/http"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/gin-gonic/gin"
)

//
// --- Checkout ---
//

type CheckoutInput struct {
	AddressID   int64  `json:"address_id" binding:"required,gt=0"`
	PaymentCode string `json:"payment_code" binding:"required"`
}

// PlaceOrder is the handler for POST /checkout. It places an order from the
// caller's cart; notification failures never change the response.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	payment, err := models.ParsePaymentMethod(input.PaymentCode)
	if err != nil {
		fail(c, models.NewValidationError("payment_code", "The selected payment code is invalid."))
		return
	}

	// 2. --- Place the Order ---
	order, err := h.Checkout.PlaceOrder(c.Request.Context(), principal(c), input.AddressID, payment)
	if err != nil {
		fail(c, err)
		return
	}

	// 3. --- Respond ---
	hideOrderCost(order)
	ok(c, http.StatusCreated, "Order placed successfully.", gin.H{
		"payment_type": payment.String(),
		"order":        order,
	})
}

func hideOrderCost(orders ...*models.Order) {
	for _, o := range orders {
		for i := range o.Lines {
			if o.Lines[i].Product != nil {
				o.Lines[i].Product.HideCost()
			}
			if o.Lines[i].Variant != nil {
				o.Lines[i].Variant.BuyingPrice = nil
			}
		}
	}
}

//
// --- Orders ---
//

type OrderListQuery struct {
	Status      string `form:"status" binding:"omitempty,oneof=pending processing delivered"`
	PaymentCode string `form:"payment_code"`
	From        string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To          string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PerPage     int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

func (q OrderListQuery) filter() orders.Filter {
	f := orders.Filter{
		Status:      models.OrderStatus(q.Status),
		PaymentCode: q.PaymentCode,
		Page:        q.Page,
		PerPage:     q.PerPage,
	}
	if t, err := time.Parse(time.DateOnly, q.From); err == nil {
		f.From = &t
	}
	if t, err := time.Parse(time.DateOnly, q.To); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	return f
}

// MyOrders is the handler for GET /orders/my.
func (h *Handlers) MyOrders(c *gin.Context) {
	var q OrderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.Orders.ListForUser(c.Request.Context(), principal(c), q.filter())
	if err != nil {
		fail(c, err)
		return
	}
	for i := range page.Orders {
		hideOrderCost(&page.Orders[i])
	}
	ok(c, http.StatusOK, "", gin.H{"orders": page})
}

// ListOrders is the handler for GET /orders (admin).
func (h *Handlers) ListOrders(c *gin.Context) {
	var q OrderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.Orders.List(c.Request.Context(), q.filter())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"orders": page})
}

// GetOrder is the handler for GET /orders/:id (admin).
func (h *Handlers) GetOrder(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Order")
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"order": order})
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending processing delivered"`
}

// UpdateOrderStatus is the handler for PUT /orders/:id/update-status
// (admin). Status only moves forward.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Order")
		return
	}
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	next, err := models.ParseOrderStatus(input.Status)
	if err != nil {
		fail(c, models.NewValidationError("status", "The selected status is invalid."))
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), id, next)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Order status updated successfully", gin.H{"order": order})
}

// OrderProfit is the handler for GET /orders/:id/profit (admin).
func (h *Handlers) OrderProfit(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "Order")
		return
	}
	profit, err := h.Orders.Profit(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"order_id": id, "total_profit": profit})
}
