package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/internal/utils"
)

const (
	ExchangeMailroom = "mailroom-events"

	DefaultPublishTimeout   = 5 * time.Second
	DefaultReconnectBackoff = time.Second
	MaxReconnectBackoff     = 30 * time.Second
)

// envelope is the wire form of every published event.
type envelope struct {
	ID        string      `json:"id"`
	EventType string      `json:"eventType"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type RabbitMQPublisher struct {
	connection      *amqp091.Connection
	connectionMutex sync.Mutex
	publishChannel  *amqp091.Channel
	publishMutex    sync.Mutex
	url             string
	logger          logger.Logger
	closed          chan struct{}
	closeOnce       sync.Once
}

func NewRabbitMQPublisher(rabbitmqURL string, logger logger.Logger) (interfaces.EventPublisher, error) {
	publisher := &RabbitMQPublisher{
		url:    rabbitmqURL,
		logger: logger,
		closed: make(chan struct{}),
	}

	if err := publisher.connect(); err != nil {
		return nil, err
	}

	return publisher, nil
}

func (r *RabbitMQPublisher) connect() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	var err error
	r.connection, err = amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open channel")
	}

	err = channel.ExchangeDeclare(
		ExchangeMailroom,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to declare exchange")
	}

	r.publishChannel = channel

	go r.handleReconnection()

	return nil
}

func (r *RabbitMQPublisher) handleReconnection() {
	backoff := DefaultReconnectBackoff
	notifyClose := r.connection.NotifyClose(make(chan *amqp091.Error))

	select {
	case <-r.closed:
		return
	case err := <-notifyClose:
		if err == nil {
			return
		}
		r.logger.Warnf("RabbitMQ connection closed: %v, reconnecting", err)
	}

	for {
		select {
		case <-r.closed:
			return
		default:
		}

		if err := r.connect(); err == nil {
			r.logger.Info("reconnected to RabbitMQ")
			return
		}

		time.Sleep(backoff)
		backoff *= 2
		if backoff > MaxReconnectBackoff {
			backoff = MaxReconnectBackoff
		}
	}
}

// Publish sends one event on the mailroom exchange with the event type as
// routing key.
func (r *RabbitMQPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.Publish")
	defer span.Finish()
	tracing.TagComponentService(span)

	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if r.connection == nil || r.connection.IsClosed() || r.publishChannel == nil || r.publishChannel.IsClosed() {
		err := errors.New("RabbitMQ connection is not available")
		tracing.TraceErr(span, err)
		return err
	}

	body, err := json.Marshal(envelope{
		ID:        utils.GenerateNanoIDWithPrefix("event", 21),
		EventType: eventType,
		Timestamp: utils.Now().Format(time.RFC3339),
		Data:      payload,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to marshal event")
	}

	publishCtx, cancel := context.WithTimeout(ctx, DefaultPublishTimeout)
	defer cancel()

	err = r.publishChannel.PublishWithContext(
		publishCtx,
		ExchangeMailroom,
		eventType,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			DeliveryMode: amqp091.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to publish event")
	}

	return nil
}

func (r *RabbitMQPublisher) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })

	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	if r.publishChannel != nil && !r.publishChannel.IsClosed() {
		r.publishChannel.Close()
	}
	if r.connection != nil && !r.connection.IsClosed() {
		return r.connection.Close()
	}
	return nil
}
