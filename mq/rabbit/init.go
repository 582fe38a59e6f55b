package rabbit

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	applog "wallet/logger"
)

// NewRabbitConnection dials the broker at addr.
func NewRabbitConnection(addr string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	applog.MQ.Info().Str("vhost", conn.Config.Vhost).Msg("connected to RabbitMQ")
	return conn, nil
}

// declareExchange declares the topic exchange every send event goes through.
func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchangeName, err)
	}
	return nil
}
