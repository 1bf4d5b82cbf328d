package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"chatlog-archive/internal/domain"
	"chatlog-archive/internal/infra/metrics"
)

// AMQPLineQueue читает сырые строки файрхоза из durable-очереди RabbitMQ.
type AMQPLineQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

// NewAMQPLineQueue подключается к брокеру и объявляет очередь.
func NewAMQPLineQueue(url, queue string) (*AMQPLineQueue, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	start := time.Now()
	conn, err := amqp.Dial(url)
	metrics.ObserveNetworkRequest("rabbitmq", "dial", queue, start, err)
	if err != nil {
		return nil, fmt.Errorf("подключение к RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("открытие канала: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("объявление очереди: %w", err)
	}
	return &AMQPLineQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Pop блокирующе читает одну строку из очереди. Нечитаемые сообщения
// отбрасываются без возврата в очередь.
func (q *AMQPLineQueue) Pop(ctx context.Context) (domain.LogLine, error) {
	if q.deliveries == nil {
		tag := "archive-ingest-" + uuid.NewString()
		deliveries, err := q.ch.Consume(q.queue, tag, false, false, false, false, nil)
		if err != nil {
			return domain.LogLine{}, fmt.Errorf("подписка на очередь: %w", err)
		}
		q.deliveries = deliveries
	}
	for {
		select {
		case <-ctx.Done():
			return domain.LogLine{}, ctx.Err()
		case d, ok := <-q.deliveries:
			if !ok {
				return domain.LogLine{}, errors.New("amqp queue: delivery channel closed")
			}
			var line domain.LogLine
			if err := json.Unmarshal(d.Body, &line); err != nil {
				_ = d.Nack(false, false)
				continue
			}
			if err := d.Ack(false); err != nil {
				return domain.LogLine{}, fmt.Errorf("подтверждение доставки: %w", err)
			}
			return line, nil
		}
	}
}

// Close закрывает канал и соединение с брокером.
func (q *AMQPLineQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
