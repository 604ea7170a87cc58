// Package rabbitmq publishes parcel events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

const defaultExchange = "parcels"

// Config captures the broker settings.
type Config struct {
	URL      string
	Exchange string
}

// Publisher keeps one connection and channel open and re-dials lazily after
// the broker drops them. Routing key format: parcel.<status>, lower case.
type Publisher struct {
	cfg Config
	log zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(cfg Config, log zerolog.Logger) (*Publisher, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = defaultExchange
	}
	p := &Publisher{cfg: cfg, log: log}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

var _ ports.EventPublisher = (*Publisher)(nil)

// Publish sends the event as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, e domain.ParcelEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Timestamp:    time.Now().UTC(),
		Type:         e.Operation,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connectLocked(); err != nil {
			return err
		}
	}

	if err := p.ch.PublishWithContext(ctx, p.cfg.Exchange, RoutingKey(e.Status), false, false, msg); err != nil {
		p.closeLocked()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

// RoutingKey returns the topic routing key for a status.
func RoutingKey(status domain.ParcelStatus) string {
	return "parcel." + strings.ToLower(string(status))
}

func (p *Publisher) connectLocked() error {
	p.closeLocked()

	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	// Durable so the exchange survives broker restarts.
	if err := ch.ExchangeDeclare(
		p.cfg.Exchange, // name
		"topic",        // kind
		true,           // durable
		false,          // autoDelete
		false,          // internal
		false,          // noWait
		nil,            // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: declare exchange: %w", err)
	}

	p.conn, p.ch = conn, ch
	p.log.Info().Str("exchange", p.cfg.Exchange).Msg("rabbitmq publisher connected")
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
