// README: RabbitMQ publisher for dispatch lifecycle events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"laborhub/internal/types"
)

const exchangeName = "dispatch_events"

// Event is the wire shape consumed by downstream notification workers
// (push, SMS, in-app feeds).
type Event struct {
	Kind      string    `json:"kind"`
	OrderID   types.ID  `json:"order_id"`
	WorkerID  types.ID  `json:"worker_id"`
	Score     float64   `json:"score,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher opens a channel on the connection and declares the topic
// exchange. Declaration is idempotent.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) DispatchCreated(ctx context.Context, orderID, workerID types.ID, score float64) error {
	return p.publish(ctx, "dispatch.created", Event{
		Kind:     "created",
		OrderID:  orderID,
		WorkerID: workerID,
		Score:    score,
	})
}

func (p *Publisher) DispatchAccepted(ctx context.Context, orderID, workerID types.ID) error {
	return p.publish(ctx, "dispatch.accepted", Event{
		Kind:     "accepted",
		OrderID:  orderID,
		WorkerID: workerID,
	})
}

func (p *Publisher) DispatchRejected(ctx context.Context, orderID, workerID types.ID, reason string) error {
	return p.publish(ctx, "dispatch.rejected", Event{
		Kind:     "rejected",
		OrderID:  orderID,
		WorkerID: workerID,
		Reason:   reason,
	})
}

func (p *Publisher) publish(ctx context.Context, key string, ev Event) error {
	ev.Timestamp = time.Now().UTC()
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.ch.PublishWithContext(ctx, exchangeName, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.Timestamp,
		ContentType:  "application/json",
		Body:         body,
	})
}
