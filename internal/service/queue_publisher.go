package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	q "github.com/iliyamo/flowdesk/internal/queue"
)

// DefaultEventsQueue is the broker queue queue events are published to.
const DefaultEventsQueue = "flowdesk.queue.events"

const dialTimeout = 5 * time.Second

// AMQPPublisher publishes queue events to RabbitMQ.  It dials per publish,
// which keeps it free of connection state; errors are logged and returned
// so the engine can carry on.  Messages are marked as persistent.
type AMQPPublisher struct {
	URL   string
	Queue string
	Log   logrus.FieldLogger
}

// NewAMQPPublisher returns a publisher for the given broker URL and queue.
func NewAMQPPublisher(url, queueName string, log logrus.FieldLogger) *AMQPPublisher {
	if queueName == "" {
		queueName = DefaultEventsQueue
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AMQPPublisher{URL: url, Queue: queueName, Log: log}
}

// Publish sends ev to the configured queue.  The broker dial gives up at
// ctx's deadline, or after dialTimeout when ctx has none.
func (p *AMQPPublisher) Publish(ctx context.Context, ev q.QueueEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Dial:      amqp.DefaultDial(timeout),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Declaring is idempotent. Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}
