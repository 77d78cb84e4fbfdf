// Package events publishes order lifecycle events to RabbitMQ so kitchen
// displays and printers can follow new orders.
package events

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-pos/internal/domain/order"
)

// RoutingKeyOrderCreated is the routing key of order creation events.
const RoutingKeyOrderCreated = "order.created"

// ErrBrokerUnavailable is returned without contacting the broker while a
// connection attempt is in flight or a failed one is backing off.
var ErrBrokerUnavailable = errors.New("broker unavailable")

var _ order.Publisher = (*Publisher)(nil)

// Config configures a Publisher.
type Config struct {
	URL      string
	Exchange string
	// DialTimeout bounds connecting to the broker. The caller's context
	// deadline applies when it is shorter.
	DialTimeout time.Duration
	// MaxRetryInterval caps the delay between reconnect attempts.
	MaxRetryInterval time.Duration
}

// Publisher sends order events to a topic exchange. The broker connection is
// opened on first use and reopened after it drops. Only one caller dials at
// a time; the others fail fast with ErrBrokerUnavailable.
type Publisher struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	dialing bool
	closed  bool
	retry   *backoff.ExponentialBackOff
	retryAt time.Time
}

// NewPublisher returns a Publisher for cfg. It does not connect.
func NewPublisher(cfg Config) *Publisher {
	if cfg.Exchange == "" {
		cfg.Exchange = "pos.orders"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.MaxRetryInterval <= 0 {
		cfg.MaxRetryInterval = 30 * time.Second
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = time.Second
	retry.MaxInterval = cfg.MaxRetryInterval
	return &Publisher{cfg: cfg, now: time.Now, retry: retry}
}

// OrderCreated publishes an order.created event for o.
func (p *Publisher) OrderCreated(ctx context.Context, o *order.Order) error {
	ch, err := p.channel(ctx)
	if err != nil {
		return errors.Wrap(err, "open channel")
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    o.ID,
		Timestamp:    o.CreatedAt,
		Type:         RoutingKeyOrderCreated,
		Body:         EncodeOrderCreated(o),
	}
	if err := ch.PublishWithContext(ctx, p.cfg.Exchange, RoutingKeyOrderCreated, false, false, msg); err != nil {
		return errors.Wrap(err, "publish")
	}

	zctx.From(ctx).Debug("Order event published",
		zap.String("order_id", o.ID),
		zap.String("exchange", p.cfg.Exchange),
	)
	return nil
}

// channel returns an open channel, dialing the broker when needed. The dial
// runs without p.mu held.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return nil, amqp.ErrClosed
	case p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed():
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	case p.dialing:
		p.mu.Unlock()
		return nil, errors.Wrap(ErrBrokerUnavailable, "connect in progress")
	case p.now().Before(p.retryAt):
		wait := p.retryAt.Sub(p.now()).Round(time.Millisecond)
		p.mu.Unlock()
		return nil, errors.Wrapf(ErrBrokerUnavailable, "retry in %s", wait)
	}
	_ = p.closeLocked()
	p.dialing = true
	p.mu.Unlock()

	conn, ch, err := p.connect(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.retryAt = p.now().Add(p.retry.NextBackOff())
		return nil, err
	}
	if p.closed {
		_ = conn.Close()
		return nil, amqp.ErrClosed
	}
	p.retry.Reset()
	p.retryAt = time.Time{}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// connect dials the broker and declares the exchange. Both the TCP dial and
// the AMQP handshake are bounded by ctx and DialTimeout.
func (p *Publisher) connect(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.DialTimeout)
	defer cancel()

	var (
		mu  sync.Mutex
		raw net.Conn
	)
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		if raw != nil {
			_ = raw.SetDeadline(time.Now())
		}
	})

	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// Cleared by the client once the handshake completes.
			deadline, _ := ctx.Deadline()
			if err := c.SetDeadline(deadline); err != nil {
				_ = c.Close()
				return nil, err
			}
			mu.Lock()
			raw = c
			if ctx.Err() != nil {
				_ = c.SetDeadline(time.Now())
			}
			mu.Unlock()
			return c, nil
		},
	})
	if !stop() && err == nil {
		// ctx expired after the handshake: the connection may carry a past
		// deadline.
		_ = conn.Close()
		err = ctx.Err()
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "channel")
	}
	if err := ch.ExchangeDeclare(
		p.cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrapf(err, "declare exchange %q", p.cfg.Exchange)
	}
	return conn, ch, nil
}

func (p *Publisher) closeLocked() error {
	var err error
	if p.ch != nil && !p.ch.IsClosed() {
		err = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	p.conn, p.ch = nil, nil
	return err
}

// Close releases the broker connection. Later calls to OrderCreated fail.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeLocked()
}
