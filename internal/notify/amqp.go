package notify

import (
	"context"
	"fmt"
	"time"

	"autobid/utils"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes events to a topic exchange with routing key "vehicle.<event>"
type AMQPSink struct {
	ch       amqpPublisher
	exchange string
}

func NewAMQPSink(ch amqpPublisher, exchange string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange}
}

// RoutingKey returns the routing key used for event
func RoutingKey(event EventType) string {
	return "vehicle." + string(event)
}

func (s *AMQPSink) Publish(ctx context.Context, vehicleID string, event EventType, payload any) error {
	body, err := Encode(vehicleID, event, payload)
	if err != nil {
		return err
	}

	err = s.ch.PublishWithContext(ctx, s.exchange, RoutingKey(event), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    utils.GenerateID(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("notify: amqp publish %s for vehicle %s: %w", event, vehicleID, err)
	}
	return nil
}

// DialAMQP connects to url and declares the durable topic exchange.
// The returned function closes the channel and the connection.
func DialAMQP(url, exchange string) (*AMQPSink, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("notify: amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("notify: amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("notify: declare exchange %s: %w", exchange, err)
	}

	closeFn := func() {
		ch.Close()
		conn.Close()
	}
	return NewAMQPSink(ch, exchange), closeFn, nil
}
