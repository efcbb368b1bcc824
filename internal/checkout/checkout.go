// Package checkout turns a user's cart into an order.
//
// Placing an order is one unit of work: the cart read, the order row, its
// lines, the stock decrements, the variant quantity sync, the cart clear and
// the outbox event commit together or not at all. Notification runs after commit and
// can never undo or fail the order.
package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/01moynul/storefront-golang/internal/addresses"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/01moynul/storefront-golang/internal/outbox"
	"github.com/rs/zerolog"
)

// Stock is the inventory ledger as seen by checkout.
type Stock interface {
	Decrement(ctx context.Context, q database.Querier, productID int64, variantID *int64, qty int) error
	HasVariants(ctx context.Context, q database.Querier, productID int64) (bool, error)
	SyncProductQuantityFromVariants(ctx context.Context, q database.Querier, productID int64) error
}

// Shipping quotes the delivery price of an address.
type Shipping interface {
	QuoteForAddress(ctx context.Context, q database.Querier, addressID int64) (float64, error)
}

type Workflow struct {
	DB       *sql.DB
	Stock    Stock
	Shipping Shipping
	Notifier outbox.Notifier
	Logger   zerolog.Logger

	// DispatchAsync moves post-commit notification off the request path.
	DispatchAsync   bool
	DispatchTimeout time.Duration

	wg sync.WaitGroup
}

// PlaceOrder places an order from the principal's cart, delivered to
// addressID and paid with payment.
func (w *Workflow) PlaceOrder(ctx context.Context, p models.Principal, addressID int64, payment models.PaymentMethod) (*models.Order, error) {
	// 1. --- Preconditions ---
	if payment.IsZero() {
		return nil, models.NewValidationError("payment_code", "The selected payment code is invalid.")
	}
	addr, err := addresses.Lookup(ctx, w.DB, addressID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewValidationError("address_id", "The selected address id is invalid.")
	}
	if err != nil {
		return nil, err
	}
	if addr.UserID != p.UserID {
		return nil, models.ErrForbidden
	}

	// 2. --- Atomic unit of work ---
	lock := database.LockClause(w.DB)
	order := &models.Order{}
	var event *models.OrderEvent
	err = database.WithTx(ctx, w.DB, func(tx *sql.Tx) error {
		// Load the cart
		lines, err := cart.LoadLocked(ctx, tx, p.UserID, lock)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return models.ErrEmptyCart
		}
		if err := w.checkVariants(ctx, tx, lines); err != nil {
			return err
		}

		// Price the order
		subtotal := cart.Subtotal(lines)
		shipping, err := w.Shipping.QuoteForAddress(ctx, tx, addressID)
		if err != nil {
			return err
		}

		// a. Order row
		now := time.Now().UTC()
		*order = models.Order{
			UserID:      p.UserID,
			AddressID:   addressID,
			Subtotal:    subtotal,
			Shipping:    shipping,
			Total:       models.RoundMoney(subtotal + shipping),
			PaymentCode: payment.String(),
			Status:      models.OrderPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := orders.Create(ctx, tx, order); err != nil {
			return err
		}

		// b. Lines and stock
		var touched []int64
		seen := map[int64]bool{}
		for _, item := range lines {
			unit := models.EffectiveUnitPrice(item.Product, item.Variant)
			line := &models.OrderLine{
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				ProductName: item.Product.Name,
				UnitPrice:   unit,
				Quantity:    item.Quantity,
				LineTotal:   models.RoundMoney(unit * float64(item.Quantity)),
				CreatedAt:   now,
			}
			if err := orders.AddLine(ctx, tx, line); err != nil {
				return err
			}
			if err := w.Stock.Decrement(ctx, tx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return err
			}
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				touched = append(touched, item.ProductID)
			}
		}

		// c. Derived product quantities
		for _, productID := range touched {
			if err := w.Stock.SyncProductQuantityFromVariants(ctx, tx, productID); err != nil {
				return err
			}
		}

		// d. Cart
		if err := cart.ClearLines(ctx, tx, p.UserID, lines); err != nil {
			return err
		}

		// e. Outbox
		ev, err := outbox.EnqueueOrderPlaced(ctx, tx, order)
		if err != nil {
			return err
		}
		event = ev
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	// 3. --- Reload ---
	placed, err := orders.Get(ctx, w.DB, order.ID)
	if err != nil {
		// The order is committed; answer with what was written.
		w.Logger.Error().Err(err).Int64("order_id", order.ID).Msg("could not reload placed order")
		placed = order
	}

	// 4. --- Notify (best effort) ---
	w.dispatch(ctx, event, placed)

	return placed, nil
}

// checkVariants rejects variantless lines on products that have variants;
// their stock lives on the variants, so the order could not take it.
func (w *Workflow) checkVariants(ctx context.Context, tx *sql.Tx, lines []models.CartItem) error {
	for _, item := range lines {
		if item.VariantID != nil {
			continue
		}
		has, err := w.Stock.HasVariants(ctx, tx, item.ProductID)
		if err != nil {
			return err
		}
		if has {
			return models.NewValidationError("variant_id",
				fmt.Sprintf("Choose a variant of %s before checking out.", item.Product.Name))
		}
	}
	return nil
}

func (w *Workflow) dispatch(ctx context.Context, ev *models.OrderEvent, o *models.Order) {
	if !w.DispatchAsync {
		_ = outbox.Deliver(ctx, w.DB, w.Notifier, ev, o, w.Logger)
		return
	}

	timeout := w.DispatchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	// The caller keeps o and may strip fields from it for its response.
	o = o.Clone()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		_ = outbox.Deliver(dctx, w.DB, w.Notifier, ev, o, w.Logger)
	}()
}

// Wait blocks until in-flight asynchronous notifications finish.
func (w *Workflow) Wait() {
	w.wg.Wait()
}
