package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// GraphQueue carries tenant wake-up messages for the job driver.
const GraphQueue = "graph_queue"

// MaxRetries is the number of redeliveries before a message is parked in
// the dead-letter queue.
const MaxRetries = 10

const retryHeader = "x-retries"

// WakeMsg tells a worker that a tenant has pending graph jobs. The jobs
// themselves live in the database.
type WakeMsg struct {
	TenantID uuid.UUID `json:"tenant_id"`
}

// Publisher is the subset of *amqp091.Channel used to publish.
type Publisher interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp091.Publishing,
	) error
}

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnvString("RABBITMQ_HOST", "localhost")
	port := util.GetEnvString("RABBITMQ_PORT", "5672")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares every queue together with its _retry queue, which
// dead-letters back into the main queue after retryTTL, and its _dlq queue.
func SetupQueues(ch *amqp091.Channel, queueNames []string, retryTTL time.Duration) error {
	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			return fmt.Errorf("declare %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		if _, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTL.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		); err != nil {
			return fmt.Errorf("declare %s: %w", retryName, err)
		}
	}
	return nil
}

func PublishFIFO(ctx context.Context, pub Publisher, queueName string, data []byte) error {
	return pub.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// PublishWake enqueues a wake-up for tenantID on GraphQueue.
func PublishWake(ctx context.Context, pub Publisher, tenantID uuid.UUID) error {
	body, err := json.Marshal(WakeMsg{TenantID: tenantID})
	if err != nil {
		return err
	}
	return PublishFIFO(ctx, pub, GraphQueue, body)
}

func retries(msg amqp091.Delivery) int {
	switch v := msg.Headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleFailure moves a failed delivery to the retry queue, or to the
// dead-letter queue once it was retried MaxRetries times. The original
// delivery is acked only after the copy was published.
func HandleFailure(ctx context.Context, pub Publisher, msg amqp091.Delivery, queueName string) {
	n := retries(msg)

	target := queueName + "_retry"
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if n >= MaxRetries {
		target = queueName + "_dlq"
		logger.Warn("[Queue] Sending message to DLQ", "dlq", target, "retries", n)
	} else {
		headers[retryHeader] = int32(n + 1)
	}

	err := pub.PublishWithContext(ctx, "", target, false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
