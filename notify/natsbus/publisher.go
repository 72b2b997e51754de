// Package natsbus publishes trade notifications to NATS. With JetStream
// enabled every publish is persisted and acknowledged, and the message id
// header makes retries idempotent on the server side.
package natsbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
	"github.com/hupe1980/agriconnect/notify"
)

const (
	// DefaultStream is the JetStream stream capturing notification topics.
	DefaultStream = "TRADE_NOTIFICATIONS"

	// DefaultPublishTimeout applies when the caller's context has no deadline.
	DefaultPublishTimeout = 10 * time.Second
)

// Options configures a Publisher.
type Options struct {
	// JetStream enables persisted, acknowledged publishing. Defaults to true.
	JetStream bool
	Stream    string
	// Subjects bound to Stream; defaults to notify.DefaultTopic.
	Subjects []string
	Logger   logging.Logger
	// ConnOptions are passed to nats.Connect.
	ConnOptions []nats.Option
}

// Publisher implements core.NotificationChannel on NATS.
type Publisher struct {
	*core.LoggerAdapter
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to url and, with JetStream, ensures the stream exists.
func NewPublisher(url string, optFns ...func(o *Options)) (*Publisher, error) {
	opts := Options{JetStream: true, Stream: DefaultStream, Subjects: []string{notify.DefaultTopic}}
	for _, fn := range optFns {
		fn(&opts)
	}

	conn, err := nats.Connect(url, append([]nats.Option{nats.Name("agriconnect-notify")}, opts.ConnOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	p := &Publisher{LoggerAdapter: core.NewLoggerAdapter(opts.Logger), conn: conn}

	if opts.JetStream {
		js, err := conn.JetStream()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("jetstream context: %w", err)
		}
		if err := ensureStream(js, opts.Stream, opts.Subjects); err != nil {
			conn.Close()
			return nil, err
		}
		p.js = js
	}
	return p, nil
}

func ensureStream(js nats.JetStreamContext, name string, subjects []string) error {
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	} else if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", name, err)
	}
	if _, err := js.AddStream(&nats.StreamConfig{Name: name, Subjects: subjects}); err != nil {
		return fmt.Errorf("add stream %s: %w", name, err)
	}
	return nil
}

// Publish implements core.NotificationChannel. The returned MessageID is the
// Nats-Msg-Id header value of the publish.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) (core.PublishResult, error) {
	if strings.TrimSpace(topic) == "" {
		return core.PublishResult{}, fmt.Errorf("publish: %w: topic", core.ErrMissingInput)
	}
	data, err := notify.Encode(payload)
	if err != nil {
		return core.PublishResult{}, err
	}
	id := uuid.NewString()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPublishTimeout)
		defer cancel()
	}

	if p.js != nil {
		ack, err := p.js.Publish(topic, data, nats.MsgId(id), nats.Context(ctx))
		if err != nil {
			p.LogError("Failed to publish notification", "topic", topic, "error", err)
			return core.PublishResult{}, fmt.Errorf("publish to %s: %w", topic, err)
		}
		p.LogInfo("Notification published", "topic", topic, "message_id", id, "stream", ack.Stream, "sequence", ack.Sequence)
		return core.PublishResult{Status: notify.StatusSuccess, MessageID: id, Topic: topic}, nil
	}

	msg := nats.NewMsg(topic)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, id)
	if err := p.conn.PublishMsg(msg); err != nil {
		return core.PublishResult{}, fmt.Errorf("publish to %s: %w", topic, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return core.PublishResult{}, fmt.Errorf("flush %s: %w", topic, err)
	}
	p.LogInfo("Notification published", "topic", topic, "message_id", id)
	return core.PublishResult{Status: notify.StatusSuccess, MessageID: id, Topic: topic}, nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
