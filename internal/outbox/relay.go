package outbox

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/rs/zerolog"
)

// Relay periodically retries events whose post-commit delivery failed or
// never ran (for example after a crash between commit and dispatch).
type Relay struct {
	DB          *sql.DB
	Notifier    Notifier
	Logger      zerolog.Logger
	Interval    time.Duration
	MaxAttempts int
	BatchSize   int
	// Grace keeps the relay away from events the request path is still
	// delivering.
	Grace time.Duration
}

// Run blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()

	r.Logger.Info().Dur("interval", r.interval()).Msg("outbox relay started")
	for {
		select {
		case <-ctx.Done():
			r.Logger.Info().Msg("outbox relay stopped")
			return nil
		case <-ticker.C:
			if n, err := r.Tick(ctx); err != nil {
				r.Logger.Error().Err(err).Msg("outbox relay pass failed")
			} else if n > 0 {
				r.Logger.Info().Int("events", n).Msg("outbox relay pass done")
			}
		}
	}
}

// Tick runs one pass and returns how many events it attempted.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	events, err := Pending(ctx, r.DB, time.Now().UTC().Add(-r.Grace), r.maxAttempts(), r.batchSize())
	if err != nil {
		return 0, err
	}

	for i := range events {
		ev := &events[i]
		order, err := orders.Get(ctx, r.DB, ev.OrderID)
		if errors.Is(err, models.ErrNotFound) {
			if err := MarkFailed(ctx, r.DB, ev.ID, err); err != nil {
				r.Logger.Error().Err(err).Int64("event", ev.ID).Msg("could not record missing order")
			}
			continue
		}
		if err != nil {
			return i, err
		}
		_ = Deliver(ctx, r.DB, r.Notifier, ev, order, r.Logger)
	}
	return len(events), nil
}

func (r *Relay) interval() time.Duration {
	if r.Interval <= 0 {
		return time.Minute
	}
	return r.Interval
}

func (r *Relay) maxAttempts() int {
	if r.MaxAttempts <= 0 {
		return 5
	}
	return r.MaxAttempts
}

func (r *Relay) batchSize() int {
	if r.BatchSize <= 0 {
		return 50
	}
	return r.BatchSize
}
