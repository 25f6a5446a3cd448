// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Strob0t/DealerForge/internal/logger"
	"github.com/Strob0t/DealerForge/internal/port/messagequeue"
)

// DefaultStream is the JetStream stream used when none is configured.
const DefaultStream = "DEALERFORGE"

const (
	headerRequestID  = "X-Request-ID"
	headerRetryCount = "Retry-Count"
	dlqSuffix        = ".dlq"

	// maxRetries is the number of failed deliveries after which a message
	// is parked on its dead-letter subject.
	maxRetries = 3
)

var _ messagequeue.Queue = (*Queue)(nil)

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
}

// Connect establishes a connection to NATS and ensures the JetStream stream
// exists. An empty stream name selects DefaultStream.
func Connect(ctx context.Context, url, stream string) (*Queue, error) {
	if stream == "" {
		stream = DefaultStream
	}

	nc, err := nats.Connect(url,
		nats.Name("dealerforge"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	// Status changes and events are only interesting to live instances, so
	// the stream keeps them for a short window.
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{"tenants.>", messagequeue.SubjectEvents + ".>"},
		MaxAge:   time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", stream)
	return &Queue{nc: nc, js: js, stream: stream}, nil
}

// JetStream exposes the JetStream context, e.g. for key/value buckets.
func (q *Queue) JetStream() jetstream.JetStream { return q.js }

// Publish sends a message to the given subject. The request ID and the
// trace context of ctx travel as message headers.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	if reqID := logger.RequestID(ctx); reqID != "" {
		msg.Header.Set(headerRequestID, reqID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a handler for messages on the given subject. Each call
// creates an ephemeral consumer that only sees messages published from now
// on, so every instance receives its own copy.
//
// Messages that fail validation go straight to <subject>.dlq. Messages whose
// handler fails are republished with an incremented Retry-Count header until
// maxRetries is reached, then moved to the dead-letter subject.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, q.stream, jetstream.ConsumerConfig{
		FilterSubject:     subject,
		AckPolicy:         jetstream.AckExplicitPolicy,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		q.handle(msg, handler)
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}

	return cons.Stop, nil
}

func (q *Queue) handle(msg jetstream.Msg, handler messagequeue.Handler) {
	subject := msg.Subject()
	hdrs := msg.Headers()

	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(hdrs))
	if reqID := hdrs.Get(headerRequestID); reqID != "" {
		ctx = logger.WithRequestID(ctx, reqID)
	}

	// Dead letters are handed over as-is and never dead-lettered again.
	if strings.HasSuffix(subject, dlqSuffix) {
		if err := handler(ctx, subject, msg.Data()); err != nil {
			slog.ErrorContext(ctx, "dead letter handler failed", "subject", subject, "error", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			slog.ErrorContext(ctx, "nats ack failed", "error", ackErr)
		}
		return
	}

	if err := messagequeue.Validate(subject, msg.Data()); err != nil {
		slog.WarnContext(ctx, "invalid message", "subject", subject, "error", err)
		q.moveToDLQ(ctx, msg)
		return
	}

	if err := handler(ctx, subject, msg.Data()); err != nil {
		attempt := retryCount(hdrs) + 1
		slog.ErrorContext(ctx, "message handler failed", "subject", subject, "attempt", attempt, "error", err)
		if attempt >= maxRetries {
			q.moveToDLQ(ctx, msg)
			return
		}
		if err := q.retry(ctx, msg, attempt); err != nil {
			slog.ErrorContext(ctx, "nats retry publish failed", "subject", subject, "error", err)
			if nakErr := msg.Nak(); nakErr != nil {
				slog.ErrorContext(ctx, "nats nak failed", "error", nakErr)
			}
			return
		}
	}

	if ackErr := msg.Ack(); ackErr != nil {
		slog.ErrorContext(ctx, "nats ack failed", "error", ackErr)
	}
}

// retry republishes msg with its Retry-Count header set to attempt.
func (q *Queue) retry(ctx context.Context, msg jetstream.Msg, attempt int) error {
	out := &nats.Msg{Subject: msg.Subject(), Data: msg.Data(), Header: copyHeader(msg.Headers())}
	out.Header.Set(headerRetryCount, strconv.Itoa(attempt))
	_, err := q.js.PublishMsg(ctx, out)
	return err
}

// moveToDLQ copies msg onto its dead-letter subject and acks the original.
// If the copy cannot be published the message is left for redelivery.
func (q *Queue) moveToDLQ(ctx context.Context, msg jetstream.Msg) {
	out := &nats.Msg{Subject: msg.Subject() + dlqSuffix, Data: msg.Data(), Header: copyHeader(msg.Headers())}
	if _, err := q.js.PublishMsg(ctx, out); err != nil {
		slog.ErrorContext(ctx, "nats dlq publish failed", "subject", out.Subject, "error", err)
		if nakErr := msg.Nak(); nakErr != nil {
			slog.ErrorContext(ctx, "nats nak failed", "error", nakErr)
		}
		return
	}
	slog.WarnContext(ctx, "message moved to dlq", "subject", out.Subject)
	if ackErr := msg.Ack(); ackErr != nil {
		slog.ErrorContext(ctx, "nats ack failed", "error", ackErr)
	}
}

func retryCount(h nats.Header) int {
	n, err := strconv.Atoi(h.Get(headerRetryCount))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func copyHeader(h nats.Header) nats.Header {
	out := make(nats.Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Drain gracefully drains all subscriptions before closing.
func (q *Queue) Drain() error {
	return q.nc.Drain()
}

// IsConnected reports whether the underlying connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}
