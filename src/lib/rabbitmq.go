package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes booking events to a durable topic exchange. The
// event name is the routing key.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, topic, key string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error processing payload: %s\n", err.Error())
		return err
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, topic, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: key,
		DeliveryMode:  amqp.Persistent,
		Body:          body,
	})
	if err != nil {
		log.Printf("[rabbitmq] Error publishing %s for %s: %s\n", topic, key, err.Error())
		return err
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
