package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	URL      string
	Exchange string
}

func connect(cfg Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}

	return conn, ch, nil
}

// Publisher broadcasts invalidations to every subscribed instance,
// including the publishing one.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// NewPublisher connects to RabbitMQ and declares the exchange.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	conn, ch, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to rabbitmq", "exchange", cfg.Exchange, "role", "publisher")

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.Debug("published invalidation", "keys", msg.Keys, "all", msg.All)

	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Subscriber applies broadcast invalidations to the local cache. Each
// instance consumes from its own exclusive queue.
type Subscriber struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	target  Target
	logger  *slog.Logger
}

// NewSubscriber connects to RabbitMQ and binds a private queue to the exchange.
func NewSubscriber(cfg Config, target Target, logger *slog.Logger) (*Subscriber, error) {
	conn, ch, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(
		"",
		false,
		true,
		true,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq", "exchange", cfg.Exchange, "queue", q.Name, "role", "subscriber")

	return &Subscriber{
		conn:    conn,
		channel: ch,
		queue:   q.Name,
		target:  target,
		logger:  logger,
	}, nil
}

// Run consumes messages until ctx is cancelled or the channel closes.
func (s *Subscriber) Run(ctx context.Context) error {
	deliveries, err := s.channel.ConsumeWithContext(ctx, s.queue, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("consume queue: delivery channel closed")
			}
			s.handle(ctx, d)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, d amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		s.logger.Warn("dropping malformed invalidation", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := Apply(ctx, s.target, msg); err != nil {
		s.logger.Error("failed to apply invalidation", "error", err)
		_ = d.Nack(false, false)
		return
	}

	s.logger.Debug("applied invalidation", "keys", msg.Keys, "all", msg.All)
	_ = d.Ack(false)
}

func (s *Subscriber) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
