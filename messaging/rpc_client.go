package messaging

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/trace"
)

// DirectReplyTo is RabbitMQ's pseudo-queue for replies without a declared
// reply queue. It must be consumed on the channel that publishes.
const DirectReplyTo = "amq.rabbitmq.reply-to"

const (
	defaultReconnectDelay = 5 * time.Second
	defaultReInitDelay    = 2 * time.Second
	defaultContentType    = "application/json"

	messagingTracerName     = "go-proposals/messaging"
	messagingSystemRabbitMQ = "rabbitmq"
	operationSend           = "send"
)

// RPCClient publishes requests and matches replies by correlation ID. It
// keeps one connection and one channel, reconnecting in the background.
type RPCClient struct {
	brokerURL string
	log       logger.Logger
	dial      dialFunc

	m               sync.Mutex
	connection      amqpConnection
	channel         amqpChannel
	notifyConnClose chan *amqp.Error
	notifyChanClose chan *amqp.Error
	isReady         bool
	readyCh         chan struct{}
	closed          bool
	pending         map[string]chan amqp.Delivery

	done      chan struct{}
	closeOnce sync.Once

	reconnectDelay time.Duration
	reInitDelay    time.Duration
}

var _ Requester = (*RPCClient)(nil)

// NewRPCClient starts connecting to brokerURL in the background and returns
// immediately. Requests wait for the first channel up to their deadline.
func NewRPCClient(brokerURL string, log logger.Logger) *RPCClient {
	return newRPCClient(brokerURL, log, dialAMQP, defaultReconnectDelay, defaultReInitDelay)
}

func newRPCClient(brokerURL string, log logger.Logger, dial dialFunc, reconnectDelay, reInitDelay time.Duration) *RPCClient {
	if log == nil {
		log = logger.Nop()
	}
	c := &RPCClient{
		brokerURL:      brokerURL,
		log:            log,
		dial:           dial,
		readyCh:        make(chan struct{}),
		pending:        make(map[string]chan amqp.Delivery),
		done:           make(chan struct{}),
		reconnectDelay: reconnectDelay,
		reInitDelay:    reInitDelay,
	}
	go c.handleReconnect()
	return c
}

// IsReady reports whether a channel is currently open.
func (c *RPCClient) IsReady() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.isReady
}

// Request publishes body and blocks until the correlated reply arrives, ctx
// ends or the client is closed. A reply that arrives after ctx ended is
// dropped.
func (c *RPCClient) Request(ctx context.Context, opts RequestOptions, body []byte) (*Reply, error) {
	ctx, span := startSendSpan(ctx, opts, len(body))
	defer span.End()

	reply, err := c.request(ctx, opts, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return reply, nil
}

func (c *RPCClient) request(ctx context.Context, opts RequestOptions, body []byte) (*Reply, error) {
	ch, err := c.waitReady(ctx)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.NewString()
	waiter := make(chan amqp.Delivery, 1)
	c.m.Lock()
	c.pending[correlationID] = waiter
	c.m.Unlock()
	defer c.forget(correlationID)

	headers := amqp.Table{}
	maps.Copy(headers, opts.Headers)
	trace.InjectHeaders(ctx, amqpHeaders(headers))
	otel.GetTextMapPropagator().Inject(ctx, amqpHeaders(headers))

	contentType := opts.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	msg := amqp.Publishing{
		ContentType:   contentType,
		Headers:       headers,
		CorrelationId: correlationID,
		ReplyTo:       DirectReplyTo,
		MessageId:     uuid.NewString(),
		Timestamp:     time.Now(),
		Body:          body,
	}
	if deadline, ok := ctx.Deadline(); ok {
		if ms := time.Until(deadline).Milliseconds(); ms > 0 {
			msg.Expiration = strconv.FormatInt(ms, 10)
		}
	}

	if err := ch.PublishWithContext(ctx, opts.Exchange, opts.RoutingKey, false, false, msg); err != nil {
		return nil, fmt.Errorf("publish request: %w", err)
	}
	c.log.Debug().
		Str("routing_key", opts.RoutingKey).
		Str("correlation_id", correlationID).
		Int("body_size", len(body)).
		Msg("AMQP request published")

	select {
	case d, ok := <-waiter:
		if !ok {
			return nil, ErrConnectionLost
		}
		return &Reply{
			CorrelationID: d.CorrelationId,
			ContentType:   d.ContentType,
			Headers:       d.Headers,
			Body:          d.Body,
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// waitReady returns the live channel, waiting for a reconnect if needed.
func (c *RPCClient) waitReady(ctx context.Context) (amqpChannel, error) {
	for {
		c.m.Lock()
		if c.closed {
			c.m.Unlock()
			return nil, ErrClosed
		}
		if c.isReady {
			ch := c.channel
			c.m.Unlock()
			return ch, nil
		}
		readyCh := c.readyCh
		c.m.Unlock()

		select {
		case <-readyCh:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
		case <-c.done:
			return nil, ErrClosed
		}
	}
}

func (c *RPCClient) forget(correlationID string) {
	c.m.Lock()
	delete(c.pending, correlationID)
	c.m.Unlock()
}

// dispatch routes replies to their waiters until the delivery stream closes.
func (c *RPCClient) dispatch(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		c.m.Lock()
		waiter, ok := c.pending[d.CorrelationId]
		if ok {
			delete(c.pending, d.CorrelationId)
		}
		c.m.Unlock()

		if !ok {
			c.log.Debug().Str("correlation_id", d.CorrelationId).Msg("Discarding unmatched AMQP reply")
			continue
		}
		waiter <- d
	}
}

// Close stops reconnecting, releases the broker resources and fails every
// request still waiting for a reply.
func (c *RPCClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.m.Lock()
		c.closed = true
		close(c.done)
		ch, conn := c.channel, c.connection
		c.setNotReadyLocked()
		c.m.Unlock()

		if ch != nil {
			err = ch.Close()
		}
		if conn != nil {
			if closeErr := conn.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
		c.log.Info().Msg("AMQP RPC client closed")
	})
	return err
}

func (c *RPCClient) handleReconnect() {
	for {
		c.setNotReady()

		c.log.Info().Str("broker_url", redactURL(c.brokerURL)).Msg("Connecting to AMQP broker")

		conn, err := c.dial(c.brokerURL)
		if err != nil {
			c.log.Error().Err(err).Msg("Failed to connect to AMQP broker, retrying")

			select {
			case <-c.done:
				return
			case <-time.After(c.reconnectDelay):
			}
			continue
		}
		select {
		case <-c.done:
			_ = conn.Close()
			return
		default:
		}
		c.changeConnection(conn)

		if done := c.handleReInit(conn); done {
			return
		}
	}
}

// handleReInit keeps a channel open on conn. It returns true once the client
// is closed and false when the connection dropped.
func (c *RPCClient) handleReInit(conn amqpConnection) bool {
	for {
		c.setNotReady()

		if err := c.init(conn); err != nil {
			c.log.Error().Err(err).Msg("Failed to open AMQP reply channel, retrying")

			select {
			case <-c.done:
				return true
			case <-c.notifyConnClose:
				c.log.Info().Msg("AMQP connection closed, reconnecting")
				return false
			case <-time.After(c.reInitDelay):
			}
			continue
		}

		select {
		case <-c.done:
			return true
		case <-c.notifyConnClose:
			c.log.Info().Msg("AMQP connection closed, reconnecting")
			return false
		case <-c.notifyChanClose:
			c.log.Info().Msg("AMQP channel closed, reinitializing")
		}
	}
}

func (c *RPCClient) init(conn amqpConnection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	deliveries, err := ch.Consume(DirectReplyTo, "", true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume %s: %w", DirectReplyTo, err)
	}

	c.changeChannel(ch)
	go c.dispatch(deliveries)

	c.m.Lock()
	if !c.isReady && !c.closed {
		c.isReady = true
		close(c.readyCh)
	}
	c.m.Unlock()

	c.log.Info().Msg("AMQP RPC client ready")
	return nil
}

func (c *RPCClient) changeConnection(conn amqpConnection) {
	c.m.Lock()
	defer c.m.Unlock()
	c.connection = conn
	c.notifyConnClose = make(chan *amqp.Error, 1)
	conn.NotifyClose(c.notifyConnClose)
}

func (c *RPCClient) changeChannel(ch amqpChannel) {
	c.m.Lock()
	defer c.m.Unlock()
	c.channel = ch
	c.notifyChanClose = make(chan *amqp.Error, 1)
	ch.NotifyClose(c.notifyChanClose)
}

func (c *RPCClient) setNotReady() {
	c.m.Lock()
	defer c.m.Unlock()
	c.setNotReadyLocked()
}

// setNotReadyLocked re-arms readyCh and fails pending waiters, since their
// replies were addressed to a channel that no longer exists.
func (c *RPCClient) setNotReadyLocked() {
	if c.isReady {
		c.isReady = false
		c.readyCh = make(chan struct{})
	}
	for id, waiter := range c.pending {
		delete(c.pending, id)
		close(waiter)
	}
}

func startSendSpan(ctx context.Context, opts RequestOptions, bodySize int) (context.Context, oteltrace.Span) {
	destination := opts.Exchange
	if destination == "" {
		destination = opts.RoutingKey
	}

	ctx, span := otel.Tracer(messagingTracerName).Start(ctx, destination+" "+operationSend,
		oteltrace.WithSpanKind(oteltrace.SpanKindProducer),
	)

	attrs := []attribute.KeyValue{
		attribute.String(string(semconv.MessagingSystemKey), messagingSystemRabbitMQ),
		semconv.MessagingOperationName(operationSend),
		semconv.MessagingDestinationName(destination),
		semconv.MessagingMessageBodySize(bodySize),
	}
	if opts.RoutingKey != "" {
		attrs = append(attrs, attribute.String("messaging.rabbitmq.routing_key", opts.RoutingKey))
	}
	span.SetAttributes(attrs...)
	return ctx, span
}
