// Package rabbit publica los eventos de lavandería en un exchange topic de RabbitMQ.
package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
)

var _ applaundry.EventPublisher = (*Publisher)(nil)

var errClosed = errors.New("rabbit: publisher cerrado")

// Channel es el subconjunto de *amqp091.Channel que usa el publisher.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher serializa el payload a JSON y lo publica como mensaje persistente.
// Un canal AMQP no admite publicaciones concurrentes, por eso el mutex.
type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
	appID    string
	closed   bool
}

// Dial abre la conexión, el canal y declara el exchange.
func Dial(url, exchange, appID string) (*Publisher, *amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbit: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbit: channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange, appID)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return p, conn, nil
}

// NewPublisher declara el exchange topic durable sobre ch.
func NewPublisher(ch Channel, exchange, appID string) (*Publisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		amqp091.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false,
		false,
		nil,
	); err != nil {
		return nil, fmt.Errorf("rabbit: declarar exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, appID: appID}, nil
}

// Publish envía payload con la routing key indicada.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("rabbit: encode %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		AppId:        p.appID,
		Type:         routingKey,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbit: publish %s: %w", routingKey, err)
	}
	return nil
}

// Close cierra el canal. Publicaciones posteriores fallan.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.ch.Close()
}
