// Package events publishes domain events about orders to a message broker.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"isdn/internal/config"
	applog "isdn/internal/log"
)

// Routing keys.
const (
	OrderPlaced   = "order.placed"
	OrderStatus   = "order.status"
	OrderAssigned = "order.assigned"
)

type Event struct {
	Type    string         `json:"type"`
	OrderID string         `json:"order_id"`
	Actor   string         `json:"actor,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher writes events to the process log. It is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) error {
	applog.Info(nil, "event."+e.Type, map[string]any{"order_id": e.OrderID, "actor": e.Actor, "data": e.Data})
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// AMQP publishes JSON events on a durable topic exchange.
type AMQP struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

func DialAMQP(cfg config.AMQPConfig) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	applog.Info(nil, "amqp.connected", map[string]any{"exchange": cfg.Exchange})
	return &AMQP{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

// Encode renders an event body; a zero At is stamped with the current time.
func Encode(e Event) ([]byte, error) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return json.Marshal(e)
}

func (a *AMQP) Publish(ctx context.Context, e Event) error {
	body, err := Encode(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishes
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ch.PublishWithContext(ctx,
		a.exchange, // exchange
		e.Type,     // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Body:         body,
		})
}

func (a *AMQP) Close() {
	if a.ch != nil {
		a.ch.Close()
	}
	if a.conn != nil {
		a.conn.Close()
	}
}
