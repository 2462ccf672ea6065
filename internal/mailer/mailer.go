// Package mailer hands confirmed-payment ticket deliveries to the external
// mail worker. Dispatch is fire-and-forget: a delivery failure is logged and
// never rolls back a paid order.
package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// Attachment is one file carried by a ticket message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// TicketMessage is the payload handed to the mail worker: one message per
// paid order, one QR attachment per issued ticket.
type TicketMessage struct {
	OrderID     string       `json:"orderId"`
	Recipient   string       `json:"recipient"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments"`
}

// Dispatcher delivers ticket messages to the mail worker.
type Dispatcher interface {
	DispatchTickets(ctx context.Context, msg *TicketMessage) error
	Close() error
}

// nopDispatcher drops messages. Used when the broker is disabled.
type nopDispatcher struct {
	logger zerolog.Logger
}

// NewNopDispatcher creates a dispatcher that logs and drops every message.
func NewNopDispatcher(logger zerolog.Logger) Dispatcher {
	return &nopDispatcher{
		logger: logger.With().Str("component", "nop-mailer").Logger(),
	}
}

func (d *nopDispatcher) DispatchTickets(_ context.Context, msg *TicketMessage) error {
	d.logger.Info().
		Str("order_id", msg.OrderID).
		Str("recipient", msg.Recipient).
		Int("attachments", len(msg.Attachments)).
		Msg("ticket delivery dropped (mailer disabled)")
	return nil
}

func (d *nopDispatcher) Close() error {
	return nil
}
