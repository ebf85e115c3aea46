package hermes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrPermanent marks a handler failure that redelivery cannot fix.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so the message is terminated instead of redelivered.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Handler processes one message. A nil return acks it, an ErrPermanent
// terminates it, anything else asks for redelivery.
type Handler func(subject string, data []byte) error

// Client publishes JSON events and consumes subjects of the event stream
// through durable consumers.
type Client interface {
	Publish(subject string, data interface{}) error
	Consume(ctx context.Context, durable, subject string, handler Handler) error
	Close()
}

type NATSClient struct {
	conn      *nats.Conn
	js        jetstream.JetStream
	consumers []jetstream.ConsumeContext
	logger    *slog.Logger
}

func NewNATSClient(ctx context.Context, url string, logger *slog.Logger) (*NATSClient, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	c := &NATSClient{conn: nc, js: js, logger: logger}
	if err := c.ensureStream(ctx); err != nil {
		logger.Warn("failed to ensure stream", "error", err)
	}
	return c, nil
}

func (c *NATSClient) ensureStream(ctx context.Context) error {
	maxAge, err := time.ParseDuration(StreamMaxAge)
	if err != nil {
		return fmt.Errorf("stream max age: %w", err)
	}
	_, err = c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{StreamSubjects},
		MaxAge:   maxAge,
	})
	return err
}

func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	return c.conn.Publish(subject, payload)
}

// Consume attaches a durable, explicitly acked consumer for subject to the
// event stream, so messages published while the service is down are still
// handled.
func (c *NATSClient) Consume(ctx context.Context, durable, subject string, handler Handler) error {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    ConsumerMaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("consumer %s: %w", durable, err)
	}
	cc, err := cons.Consume(func(msg jetstream.Msg) {
		herr := handler(msg.Subject(), msg.Data())
		if herr != nil {
			c.logger.Warn("event handler failed", "subject", msg.Subject(), "consumer", durable, "error", herr)
		}
		if err := settle(msg, herr); err != nil {
			c.logger.Warn("failed to settle message", "subject", msg.Subject(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", subject, err)
	}
	c.consumers = append(c.consumers, cc)
	return nil
}

type acker interface {
	Ack() error
	Nak() error
	Term() error
}

func settle(msg acker, handlerErr error) error {
	switch {
	case handlerErr == nil:
		return msg.Ack()
	case errors.Is(handlerErr, ErrPermanent):
		return msg.Term()
	default:
		return msg.Nak()
	}
}

func (c *NATSClient) Close() {
	for _, cc := range c.consumers {
		cc.Stop()
	}
	c.conn.Close()
}

var _ Client = (*NATSClient)(nil)
