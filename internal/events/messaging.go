package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange       = "hustlecare.events"
	ListSharedRoutingKey = "list.shared.v1"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
