package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/streadway/amqp"
)

// Client holds the broker connection and the single channel the outbox relay publishes on.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Close closes the channel and connection for graceful shutdown.
func (r *Client) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("failed to close channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		return r.conn.Close()
	}

	return nil
}

// Check reports an error when the connection to the broker is lost.
func (r *Client) Check(_ context.Context) error {
	if r.conn == nil || r.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}

	return nil
}

// MustNewClient connects to the broker described by the RABBITMQ_* environment variables.
func MustNewClient() *Client {
	host := os.Getenv("RABBITMQ_HOST")
	if host == "" {
		host = "rabbitmq"
	}
	port := os.Getenv("RABBITMQ_PORT")
	if port == "" {
		port = "5672"
	}

	connStr := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		os.Getenv("RABBITMQ_DEFAULT_USER"),
		os.Getenv("RABBITMQ_DEFAULT_PASS"),
		host,
		port,
	)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Error("Failed to close RabbitMQ connection", "error", closeErr)
		}
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	go watchClose(conn.NotifyClose(make(chan *amqp.Error, 1)))

	slog.Info("RabbitMQ connected", "host", host, "port", port)

	return &Client{
		conn:    conn,
		channel: channel,
	}
}

// watchClose logs an unexpected connection loss. A graceful Close delivers nothing.
func watchClose(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		slog.Error("RabbitMQ connection lost", "code", err.Code, "reason", err.Reason)
	}
}

// DeclareExchangeConfig describes an exchange to declare.
type DeclareExchangeConfig struct {
	Name       string
	Kind       string
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareExchange declares an exchange with the given configuration.
func (r *Client) DeclareExchange(cfg DeclareExchangeConfig) error {
	kind := cfg.Kind
	if kind == "" {
		kind = amqp.ExchangeTopic
	}

	return r.channel.ExchangeDeclare(
		cfg.Name,
		kind,
		cfg.Durable,
		cfg.AutoDelete,
		cfg.Internal,
		cfg.NoWait,
		cfg.Args,
	)
}

// Publish sends a persistent message to an exchange.
func (r *Client) Publish(exchange, routingKey string, msg amqp.Publishing) error {
	if msg.DeliveryMode == 0 {
		msg.DeliveryMode = amqp.Persistent
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.Publish(exchange, routingKey, false, false, msg)
}

// DeclareQueueConfig describes a queue to declare.
type DeclareQueueConfig struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareQueue declares a queue with the given configuration.
func (r *Client) DeclareQueue(cfg DeclareQueueConfig) (amqp.Queue, error) {
	return r.channel.QueueDeclare(
		cfg.Name,
		cfg.Durable,
		cfg.AutoDelete,
		cfg.Exclusive,
		cfg.NoWait,
		cfg.Args,
	)
}

// BindQueue binds a queue to an exchange by routing key pattern.
func (r *Client) BindQueue(queue, routingKey, exchange string) error {
	return r.channel.QueueBind(queue, routingKey, exchange, false, nil)
}
