// internal/notifications/rabbitmq.go
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JobQueue is the queue notification jobs travel through when RabbitMQ is
// configured. Sending then becomes enqueue-and-forget; a dispatcher on
// the other side does the actual delivery.
const JobQueue = "notification_jobs"

// Job is one queued notification.
type Job struct {
	Channel string            `json:"channel"`
	Contact string            `json:"contact"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Client wraps one RabbitMQ connection and channel.
type Client struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

func NewClient(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &Client{conn: conn, chn: chn}, nil
}

func (c *Client) Close() error {
	if err := c.chn.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}

// CreateQueue declares a durable queue.
func (c *Client) CreateQueue(name string) error {
	_, err := c.chn.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

func (c *Client) publish(ctx context.Context, queue string, body []byte) error {
	return c.chn.PublishWithContext(
		ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (c *Client) consume(queue string) (<-chan amqp.Delivery, error) {
	return c.chn.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack off: ack only after delivery succeeded
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
}

// QueueNotifier implements Notifier by enqueueing jobs instead of sending
// inline, decoupling webhook latency from channel provider latency.
type QueueNotifier struct {
	client *Client
}

func NewQueueNotifier(client *Client) (*QueueNotifier, error) {
	if err := client.CreateQueue(JobQueue); err != nil {
		return nil, fmt.Errorf("failed to create %s queue: %w", JobQueue, err)
	}
	return &QueueNotifier{client: client}, nil
}

func (q *QueueNotifier) Send(ctx context.Context, channel, contact, message string, meta map[string]string) error {
	body, err := json.Marshal(Job{
		Channel: channel,
		Contact: contact,
		Message: message,
		Meta:    meta,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}
	return q.client.publish(ctx, JobQueue, body)
}

// Dispatcher consumes queued jobs and hands them to the real senders.
type Dispatcher struct {
	client   *Client
	delegate Notifier
}

func NewDispatcher(client *Client, delegate Notifier) *Dispatcher {
	return &Dispatcher{client: client, delegate: delegate}
}

// Run blocks consuming jobs until ctx is cancelled or the delivery
// channel closes. Failed sends are requeued once by the broker.
func (d *Dispatcher) Run(ctx context.Context) error {
	msgs, err := d.client.consume(JobQueue)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", JobQueue, err)
	}
	log.Printf("[Notifications] dispatcher listening on %s", JobQueue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var job Job
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				log.Printf("[WARN] dropping malformed notification job: %v", err)
				msg.Nack(false, false)
				continue
			}
			if err := d.delegate.Send(ctx, job.Channel, job.Contact, job.Message, job.Meta); err != nil {
				log.Printf("[WARN] notification delivery failed (%s/%s): %v", job.Channel, job.Contact, err)
				msg.Nack(false, !msg.Redelivered)
				continue
			}
			msg.Ack(false)
		}
	}
}
