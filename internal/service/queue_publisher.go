package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/faculty-fest/internal/queue"
)

// ErrPublishBufferFull is returned when the broker publisher cannot
// accept another event without blocking the caller.
var ErrPublishBufferFull = errors.New("publish buffer full")

// AMQPPublisher publishes rank-assigned events to RabbitMQ from a single
// long-lived goroutine holding one connection.  PublishRankAssigned only
// enqueues, so a slow or silent broker never holds up a signup.
type AMQPPublisher struct {
	url         string
	dialTimeout time.Duration
	events      chan queue.RankAssignedEvent

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher buffers up to buffer events.  dialTimeout bounds the
// TCP connect and the AMQP handshake.
func NewAMQPPublisher(url string, buffer int, dialTimeout time.Duration) *AMQPPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}
	return &AMQPPublisher{
		url:         url,
		dialTimeout: dialTimeout,
		events:      make(chan queue.RankAssignedEvent, buffer),
	}
}

// PublishRankAssigned enqueues ev for Run.  It never blocks.
func (p *AMQPPublisher) PublishRankAssigned(_ context.Context, ev queue.RankAssignedEvent) error {
	select {
	case p.events <- ev:
		return nil
	default:
		log.Printf("rabbitmq: dropping rank-assigned for registrant %d: %v", ev.RegistrantID, ErrPublishBufferFull)
		return ErrPublishBufferFull
	}
}

// Run drains the buffer until ctx is cancelled, reconnecting lazily
// after a failure.  An event that cannot be published is logged and
// dropped.
func (p *AMQPPublisher) Run(ctx context.Context) {
	defer p.reset()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if err := p.publish(ctx, ev); err != nil {
				log.Printf("rabbitmq: rank-assigned for registrant %d: %v", ev.RegistrantID, err)
				p.reset()
			}
		}
	}
}

func (p *AMQPPublisher) publish(ctx context.Context, ev queue.RankAssignedEvent) error {
	if err := p.ensureChannel(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.MessageID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	pctx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()
	return p.ch.PublishWithContext(pctx, "", queue.RankAssignedQueue, false, false, pub)
}

func (p *AMQPPublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.RankAssignedQueue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// AsyncPublisher hands events straight to a handler on a background
// goroutine, for deployments without a broker.  The handler gets its
// own bounded context so it never holds up the request.
type AsyncPublisher struct {
	Handle  queue.Handler
	Timeout time.Duration
}

func (p *AsyncPublisher) PublishRankAssigned(_ context.Context, ev queue.RankAssignedEvent) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := p.Handle(ctx, ev); err != nil {
			log.Printf("notify: rank-assigned for registrant %d: %v", ev.RegistrantID, err)
		}
	}()
	return nil
}
