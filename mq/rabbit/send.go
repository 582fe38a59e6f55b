package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	applog "wallet/logger"
	"wallet/mq/mq"
)

const (
	exchangeName = "send_events_exchange" // All send-related events go through this exchange

	featureFlagRoutingPrefix = "flags"
	actionRoutingPrefix      = "action"

	subscriberBuffer = 16
	publishTimeout   = 5 * time.Second
	deliverTimeout   = time.Second
)

// routingKey is "<prefix>.<topic>"; the broadcast topic binds "<prefix>.#".
func routingKey(prefix string, topic uuid.UUID) string {
	return prefix + "." + topic.String()
}

func bindingKey(prefix string, topic uuid.UUID) string {
	if topic == uuid.Nil {
		return prefix + ".#"
	}
	return routingKey(prefix, topic)
}

// rabbitQueue gives every subscriber its own exclusive queue bound to the
// exchange, so each one sees every message of its topic.
type rabbitQueue[M mq.TopicProvider] struct {
	conn    *amqp.Connection
	prefix  string
	pubMu   sync.Mutex
	channel *amqp.Channel

	mu        sync.Mutex
	consumers map[uuid.UUID]*amqp.Channel
}

func newRabbitQueue[M mq.TopicProvider](conn *amqp.Connection, prefix string) (*rabbitQueue[M], error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		ch.Close()
		return nil, err
	}
	return &rabbitQueue[M]{
		conn:      conn,
		prefix:    prefix,
		channel:   ch,
		consumers: make(map[uuid.UUID]*amqp.Channel),
	}, nil
}

func (q *rabbitQueue[M]) Publish(msg M) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	err = q.channel.PublishWithContext(ctx,
		exchangeName,                          // exchange
		routingKey(q.prefix, msg.GetTopic()), // routing key
		false,                                 // mandatory
		false,                                 // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (q *rabbitQueue[M]) Subscribe(topic uuid.UUID) (uuid.UUID, <-chan M, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	deliveries, err := q.consume(ch, topic)
	if err != nil {
		ch.Close()
		return uuid.Nil, nil, err
	}

	subscriberID := uuid.New()
	outputChan := make(chan M, subscriberBuffer)

	q.mu.Lock()
	q.consumers[subscriberID] = ch
	q.mu.Unlock()

	go func() {
		// deliveries closes once the consumer channel is closed
		defer close(outputChan)
		for d := range deliveries {
			var msg M
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				applog.MQ.Warn().Err(err).Str("routingKey", d.RoutingKey).Msg("failed to unmarshal message")
				continue
			}
			select {
			case outputChan <- msg:
			case <-time.After(deliverTimeout):
				applog.MQ.Warn().Str("subscriber", subscriberID.String()).Msg("timeout delivering message, skipping")
			}
		}
	}()

	return subscriberID, outputChan, nil
}

func (q *rabbitQueue[M]) consume(ch *amqp.Channel, topic uuid.UUID) (<-chan amqp.Delivery, error) {
	queue, err := ch.QueueDeclare(
		"",    // name, server generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	key := bindingKey(q.prefix, topic)
	if err := ch.QueueBind(queue.Name, key, exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue %s to %s: %w", queue.Name, key, err)
	}
	deliveries, err := ch.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register a consumer: %w", err)
	}
	return deliveries, nil
}

func (q *rabbitQueue[M]) DeSubscribe(subscriberID uuid.UUID) error {
	q.mu.Lock()
	ch, ok := q.consumers[subscriberID]
	delete(q.consumers, subscriberID)
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("consumer %s: %w", subscriberID, mq.ErrSubscriberNotFound)
	}
	if err := ch.Close(); err != nil {
		return fmt.Errorf("failed to close consumer channel: %w", err)
	}
	return nil
}

func (q *rabbitQueue[M]) close() {
	q.mu.Lock()
	for id, ch := range q.consumers {
		ch.Close()
		delete(q.consumers, id)
	}
	q.mu.Unlock()
	q.channel.Close()
}

// rabbitSendMessageQueueWrapper implements mq.SendMessageQueueWrapper for RabbitMQ
type rabbitSendMessageQueueWrapper struct {
	flags   *rabbitQueue[mq.FeatureFlagMessage]
	actions *rabbitQueue[mq.ActionMessage]
	conn    *amqp.Connection // closed with the wrapper
}

func NewRabbitSendMessageQueueWrapper(conn *amqp.Connection) (mq.SendMessageQueueWrapper, error) {
	flags, err := newRabbitQueue[mq.FeatureFlagMessage](conn, featureFlagRoutingPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature flag mq: %w", err)
	}
	actions, err := newRabbitQueue[mq.ActionMessage](conn, actionRoutingPrefix)
	if err != nil {
		flags.close()
		return nil, fmt.Errorf("failed to create action mq: %w", err)
	}
	return &rabbitSendMessageQueueWrapper{flags: flags, actions: actions, conn: conn}, nil
}

func (w *rabbitSendMessageQueueWrapper) GetFeatureFlagMessageQueue() mq.FeatureFlagMessageQueue {
	return w.flags
}

func (w *rabbitSendMessageQueueWrapper) GetActionMessageQueue() mq.ActionMessageQueue {
	return w.actions
}

// Close closes all channels and the RabbitMQ connection.
func (w *rabbitSendMessageQueueWrapper) Close() {
	w.flags.close()
	w.actions.close()
	if w.conn != nil {
		w.conn.Close()
	}
}
