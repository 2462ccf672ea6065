package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const ticketRoutingKey = "ticket.delivery"

// amqpDispatcher publishes ticket messages to a topic exchange consumed by
// the mail worker.
type amqpDispatcher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger
}

// NewAMQPDispatcher connects to the broker and declares the topic exchange.
func NewAMQPDispatcher(url, exchange string, logger zerolog.Logger) (Dispatcher, error) {
	logger = logger.With().Str("component", "amqp-mailer").Logger()

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info().Str("exchange", exchange).Msg("mailer dispatcher connected")

	return &amqpDispatcher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// DispatchTickets publishes one ticket-delivery message.
func (d *amqpDispatcher) DispatchTickets(_ context.Context, msg *TicketMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket message: %w", err)
	}

	err = d.channel.Publish(
		d.exchange,
		ticketRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		d.logger.Error().Err(err).Str("order_id", msg.OrderID).Msg("failed to publish ticket message")
		return fmt.Errorf("failed to publish ticket message: %w", err)
	}

	d.logger.Info().
		Str("order_id", msg.OrderID).
		Str("recipient", msg.Recipient).
		Int("attachments", len(msg.Attachments)).
		Msg("ticket delivery dispatched")

	return nil
}

// Close releases the channel and connection.
func (d *amqpDispatcher) Close() error {
	if err := d.channel.Close(); err != nil {
		d.conn.Close()
		return err
	}
	return d.conn.Close()
}
