// Package outbox records order events inside the transaction that produced
// them and delivers them after commit. Delivery is best effort: failures
// are recorded on the event row and retried by the Relay, never surfaced
// to the customer.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/google/uuid"
)

// Notifier delivers an order event to the outside world.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
}

// Payload is the JSON body stored with an order.placed event.
type Payload struct {
	EventID     string    `json:"event_id"`
	OrderID     int64     `json:"order_id"`
	UserID      int64     `json:"user_id"`
	Subtotal    float64   `json:"subtotal"`
	Shipping    float64   `json:"shipping"`
	Total       float64   `json:"total"`
	PaymentCode string    `json:"payment_code"`
	PlacedAt    time.Time `json:"placed_at"`
}

// NewPayload snapshots the order fields carried by the event.
func NewPayload(eventID string, o *models.Order) Payload {
	return Payload{
		EventID:     eventID,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Subtotal:    o.Subtotal,
		Shipping:    o.Shipping,
		Total:       o.Total,
		PaymentCode: o.PaymentCode,
		PlacedAt:    o.CreatedAt,
	}
}

// EnqueueOrderPlaced writes an order.placed event for o on q. It must run
// inside the transaction that created the order.
func EnqueueOrderPlaced(ctx context.Context, q database.Querier, o *models.Order) (*models.OrderEvent, error) {
	ev := &models.OrderEvent{
		EventID:   uuid.NewString(),
		OrderID:   o.ID,
		Type:      models.EventOrderPlaced,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(NewPayload(ev.EventID, o))
	if err != nil {
		return nil, fmt.Errorf("encode event payload: %w", err)
	}
	ev.Payload = string(raw)

	res, err := q.ExecContext(ctx, `
		INSERT INTO order_events (event_id, order_id, event_type, payload, attempts, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		ev.EventID, ev.OrderID, ev.Type, ev.Payload, ev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order event: %w", err)
	}
	if ev.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("insert order event: %w", err)
	}
	return ev, nil
}

// MarkDispatched records a successful delivery.
func MarkDispatched(ctx context.Context, q database.Querier, id int64) error {
	now := time.Now().UTC()
	_, err := q.ExecContext(ctx,
		"UPDATE order_events SET attempts = attempts + 1, last_error = NULL, dispatched_at = ? WHERE id = ?",
		now, id)
	if err != nil {
		return fmt.Errorf("mark event %d dispatched: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed attempt.
func MarkFailed(ctx context.Context, q database.Querier, id int64, cause error) error {
	_, err := q.ExecContext(ctx,
		"UPDATE order_events SET attempts = attempts + 1, last_error = ? WHERE id = ?",
		cause.Error(), id)
	if err != nil {
		return fmt.Errorf("mark event %d failed: %w", id, err)
	}
	return nil
}

// Get loads one event.
func Get(ctx context.Context, q database.Querier, id int64) (*models.OrderEvent, error) {
	ev, err := scanEvent(q.QueryRowContext(ctx, eventQuery+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return ev, nil
}

// Pending returns undispatched events created before olderThan that have
// been tried fewer than maxAttempts times, oldest first.
func Pending(ctx context.Context, q database.Querier, olderThan time.Time, maxAttempts, limit int) ([]models.OrderEvent, error) {
	rows, err := q.QueryContext(ctx, eventQuery+`
		WHERE dispatched_at IS NULL AND attempts < ? AND created_at < ?
		ORDER BY id ASC
		LIMIT ?`, maxAttempts, olderThan.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	defer rows.Close()

	events := []models.OrderEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

const eventQuery = `
	SELECT id, event_id, order_id, event_type, payload, attempts, last_error, dispatched_at, created_at
	FROM order_events`

func scanEvent(row interface{ Scan(...any) error }) (*models.OrderEvent, error) {
	var (
		ev         models.OrderEvent
		lastError  sql.NullString
		dispatched sql.NullTime
	)
	if err := row.Scan(&ev.ID, &ev.EventID, &ev.OrderID, &ev.Type, &ev.Payload, &ev.Attempts,
		&lastError, &dispatched, &ev.CreatedAt); err != nil {
		return nil, err
	}
	ev.LastError = database.StringPtr(lastError)
	ev.DispatchedAt = database.TimePtr(dispatched)
	return &ev, nil
}
