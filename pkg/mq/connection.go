package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "events"

	// DelayedExchangeName is served by the rabbitmq_delayed_message_exchange
	// plugin; messages published with an x-delay header are held back until
	// the delay elapses, then routed like a normal topic exchange.
	DelayedExchangeName = "events.delayed"
)

// NewConnection creates a new RabbitMQ connection.
func NewConnection(url string) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares the events exchange.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
}

// DeclareDelayedExchange declares the delayed-delivery exchange.
func DeclareDelayedExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		DelayedExchangeName,
		"x-delayed-message",
		true,
		false,
		false,
		false,
		amqp091.Table{"x-delayed-type": "topic"},
	)
}
