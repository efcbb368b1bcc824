// Package notify sends order confirmations to the customer and to the shop
// operator, and publishes order events.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/rs/zerolog"
)

// Publisher emits an event for a placed order.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o *models.Order) error
}

// Dispatcher implements outbox.Notifier. A missing customer email or
// operator address skips that message with a warning; the other channels
// still run. Channel errors are joined.
type Dispatcher struct {
	Mailer        Mailer
	OperatorEmail string
	Publisher     Publisher // optional
	Logger        zerolog.Logger
}

func (d *Dispatcher) OrderPlaced(ctx context.Context, o *models.Order) error {
	var errs []error

	// 1. --- Customer confirmation ---
	if o.User == nil || o.User.Email == "" {
		d.Logger.Warn().Int64("order_id", o.ID).Msg("user email missing, customer email skipped")
	} else if err := d.Mailer.Send(ctx, o.User.Email, customerSubject(o), customerBody(o)); err != nil {
		errs = append(errs, fmt.Errorf("customer email: %w", err))
	}

	// 2. --- Operator notice ---
	if d.OperatorEmail == "" {
		d.Logger.Warn().Int64("order_id", o.ID).Msg("operator email not set, admin email skipped")
	} else if err := d.Mailer.Send(ctx, d.OperatorEmail, operatorSubject(o), operatorBody(o)); err != nil {
		errs = append(errs, fmt.Errorf("operator email: %w", err))
	}

	// 3. --- Event ---
	if d.Publisher != nil {
		if err := d.Publisher.PublishOrderPlaced(ctx, o); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}

	return errors.Join(errs...)
}

func customerSubject(o *models.Order) string {
	return fmt.Sprintf("Your order #%d has been placed", o.ID)
}

func operatorSubject(o *models.Order) string {
	return fmt.Sprintf("New order #%d", o.ID)
}

func customerBody(o *models.Order) string {
	var b strings.Builder
	name := ""
	if o.User != nil {
		name = o.User.FirstName
	}
	fmt.Fprintf(&b, "Hello %s,\n\nThank you for your order #%d.\n\n", name, o.ID)
	writeSummary(&b, o)
	b.WriteString("\nWe will contact you when it ships.\n")
	return b.String()
}

func operatorBody(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d was placed", o.ID)
	if o.User != nil {
		fmt.Fprintf(&b, " by %s %s <%s>", o.User.FirstName, o.User.LastName, o.User.Email)
	}
	b.WriteString(".\n\n")
	writeSummary(&b, o)
	if a := o.Address; a != nil {
		fmt.Fprintf(&b, "\nDeliver to: %s %s, %s, phone %s", a.FirstName, a.LastName, a.FullAddress, a.PhoneNumber)
		if a.Zone != nil {
			fmt.Fprintf(&b, " (zone %s)", a.Zone.Name)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeSummary(b *strings.Builder, o *models.Order) {
	for _, l := range o.Lines {
		fmt.Fprintf(b, "- %s x%d @ %.2f = %.2f\n", l.ProductName, l.Quantity, l.UnitPrice, l.LineTotal)
	}
	fmt.Fprintf(b, "\nSubtotal: %.2f\nShipping: %.2f\nTotal: %.2f\nPayment: %s\n",
		o.Subtotal, o.Shipping, o.Total, o.PaymentCode)
}
