package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/rs/zerolog"
)

// Deliver hands the order to n and records the outcome on the event row.
// Errors and panics raised by n are converted into a failed attempt; the
// returned error is the delivery error, for logging only.
func Deliver(ctx context.Context, db *sql.DB, n Notifier, ev *models.OrderEvent, order *models.Order, log zerolog.Logger) error {
	deliveryErr := notifySafely(ctx, n, order)

	if deliveryErr != nil {
		log.Error().Err(deliveryErr).
			Int64("order_id", order.ID).
			Str("event_id", ev.EventID).
			Msg("order notification failed")
		if err := MarkFailed(ctx, db, ev.ID, deliveryErr); err != nil {
			log.Error().Err(err).Int64("event", ev.ID).Msg("could not record notification failure")
		}
		return deliveryErr
	}

	if err := MarkDispatched(ctx, db, ev.ID); err != nil {
		log.Error().Err(err).Int64("event", ev.ID).Msg("could not record notification success")
	}
	return nil
}

func notifySafely(ctx context.Context, n Notifier, order *models.Order) (err error) {
	if n == nil {
		return fmt.Errorf("no notifier configured")
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("notifier panic: %v", p)
		}
	}()
	return n.OrderPlaced(ctx, order)
}
