package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/database/dbtest"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierFunc func(ctx context.Context, o *models.Order) error

func (f notifierFunc) OrderPlaced(ctx context.Context, o *models.Order) error { return f(ctx, o) }

type recordingNotifier struct {
	mu     sync.Mutex
	orders []int64
}

func (r *recordingNotifier) OrderPlaced(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, o.ID)
	return nil
}

func placeOrderWithEvent(t *testing.T, db *sql.DB) (*models.Order, *models.OrderEvent) {
	t.Helper()
	ctx := context.Background()
	userID := dbtest.CreateUser(t, db, "a@example.com", models.RoleCustomer)
	addressID := dbtest.CreateAddress(t, db, userID, nil)

	now := time.Now().UTC().Add(-time.Hour)
	o := &models.Order{
		UserID: userID, AddressID: addressID, Subtotal: 10, Total: 10,
		PaymentCode: "cash", Status: models.OrderPending, CreatedAt: now, UpdatedAt: now,
	}
	var ev *models.OrderEvent
	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
		if err := orders.Create(ctx, tx, o); err != nil {
			return err
		}
		var err error
		ev, err = EnqueueOrderPlaced(ctx, tx, o)
		return err
	})
	require.NoError(t, err)
	return o, ev
}

func TestEnqueueWritesPayload(t *testing.T) {
	db := dbtest.Open(t)
	o, ev := placeOrderWithEvent(t, db)

	stored, err := Get(context.Background(), db, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventOrderPlaced, stored.Type)
	assert.Equal(t, 0, stored.Attempts)
	assert.Nil(t, stored.DispatchedAt)

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(stored.Payload), &p))
	assert.Equal(t, o.ID, p.OrderID)
	assert.Equal(t, ev.EventID, p.EventID)
}

func TestDeliverRecordsOutcome(t *testing.T) {
	tests := []struct {
		name       string
		notifier   Notifier
		wantErr    bool
		dispatched bool
	}{
		{name: "success", notifier: &recordingNotifier{}, dispatched: true},
		{name: "error", notifier: notifierFunc(func(context.Context, *models.Order) error {
			return errors.New("smtp down")
		}), wantErr: true},
		{name: "panic", notifier: notifierFunc(func(context.Context, *models.Order) error {
			panic("nil mailer")
		}), wantErr: true},
		{name: "missing notifier", notifier: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := dbtest.Open(t)
			ctx := context.Background()
			o, ev := placeOrderWithEvent(t, db)

			err := Deliver(ctx, db, tt.notifier, ev, o, zerolog.Nop())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			stored, err := Get(ctx, db, ev.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, stored.Attempts)
			assert.Equal(t, tt.dispatched, stored.DispatchedAt != nil)
			assert.Equal(t, tt.wantErr, stored.LastError != nil)
		})
	}
}

func TestRelayRetriesPendingEvents(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	o, ev := placeOrderWithEvent(t, db)
	require.NoError(t, MarkFailed(ctx, db, ev.ID, errors.New("first try failed")))

	n := &recordingNotifier{}
	relay := &Relay{DB: db, Notifier: n, Logger: zerolog.Nop(), MaxAttempts: 3}

	attempted, err := relay.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, attempted)
	assert.Equal(t, []int64{o.ID}, n.orders)

	stored, err := Get(ctx, db, ev.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.DispatchedAt)
	assert.Equal(t, 2, stored.Attempts)

	attempted, err = relay.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, attempted)
}

func TestRelayStopsAtMaxAttempts(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	_, ev := placeOrderWithEvent(t, db)

	failing := notifierFunc(func(context.Context, *models.Order) error { return errors.New("down") })
	relay := &Relay{DB: db, Notifier: failing, Logger: zerolog.Nop(), MaxAttempts: 2}

	for i := 0; i < 3; i++ {
		_, err := relay.Tick(ctx)
		require.NoError(t, err)
	}

	stored, err := Get(ctx, db, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Attempts)
	assert.Nil(t, stored.DispatchedAt)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	db := dbtest.Open(t)
	ctx, cancel := context.WithCancel(context.Background())

	relay := &Relay{DB: db, Notifier: &recordingNotifier{}, Logger: zerolog.Nop(), Interval: 10 * time.Millisecond}
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
