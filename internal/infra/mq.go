// README: RabbitMQ connection for the notification publisher.
package infra

import amqp "github.com/rabbitmq/amqp091-go"

func NewMQ(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}
