package gcppubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	applog "wallet/logger"
	"wallet/mq/mq"
)

const (
	walletIDAttribute = "walletId"

	featureFlagTopicID = "send-feature-flags"
	actionTopicID      = "send-actions"
)

// subscriptionInfo holds details about an active Pub/Sub subscription.
type subscriptionInfo struct {
	gcpSubscription *pubsub.Subscription
	cancel          context.CancelFunc
}

// GenericPubSubService provides a generic implementation for GCP Pub/Sub operations.
type GenericPubSubService[M mq.TopicProvider] struct {
	client              *pubsub.Client
	topic               *pubsub.Topic
	activeSubscriptions map[uuid.UUID]*subscriptionInfo
	subscriptionsMutex  sync.Mutex
	ctx                 context.Context
}

// NewGenericPubSubService creates and initializes a generic service for a specific message type.
// It ensures the underlying Pub/Sub topic exists, creating it if necessary.
func NewGenericPubSubService[M mq.TopicProvider](ctx context.Context, client *pubsub.Client, topicID string) (*GenericPubSubService[M], error) {
	if client == nil {
		return nil, fmt.Errorf("GCP Pub/Sub client is nil")
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existence of topic %s: %w", topicID, err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to create topic %s: %w", topicID, err)
		}
		applog.MQ.Info().Str("topic", topicID).Msg("created Pub/Sub topic")
	}

	return &GenericPubSubService[M]{
		client:              client,
		topic:               topic,
		activeSubscriptions: make(map[uuid.UUID]*subscriptionInfo),
		ctx:                 ctx,
	}, nil
}

func typeName[M any]() string {
	return reflect.TypeOf(*new(M)).Name()
}

// Publish sends msg with its wallet ID as an attribute and waits for the
// server to accept it.
func (s *GenericPubSubService[M]) Publish(msg M) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", typeName[M](), err)
	}

	result := s.topic.Publish(s.ctx, &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			walletIDAttribute: msg.GetTopic().String(),
		},
	})
	if _, err := result.Get(s.ctx); err != nil {
		return fmt.Errorf("failed to publish %s to topic %s: %w", typeName[M](), s.topic.ID(), err)
	}
	return nil
}

// Subscribe creates a new subscription on GCP and starts listening for
// messages. A non-nil topic filters on the wallet ID attribute.
func (s *GenericPubSubService[M]) Subscribe(topic uuid.UUID) (uuid.UUID, <-chan M, error) {
	subscriptionID := uuid.New() // Internal ID for tracking
	name := typeName[M]()

	gcpSubName := fmt.Sprintf("sub-%s-%s-%s", name, topic.String(), subscriptionID.String())
	config := pubsub.SubscriptionConfig{
		Topic:            s.topic,
		ExpirationPolicy: 24 * time.Hour,
		AckDeadline:      10 * time.Second,
	}
	if topic != uuid.Nil {
		config.Filter = fmt.Sprintf("attributes.%s = \"%s\"", walletIDAttribute, topic.String())
	}

	gcpSub, err := s.client.CreateSubscription(s.ctx, gcpSubName, config)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to create GCP subscription %s for %s: %w", gcpSubName, name, err)
	}

	msgChan := make(chan M, 5)
	receiveCtx, cancel := context.WithCancel(s.ctx)

	s.subscriptionsMutex.Lock()
	s.activeSubscriptions[subscriptionID] = &subscriptionInfo{
		gcpSubscription: gcpSub,
		cancel:          cancel,
	}
	s.subscriptionsMutex.Unlock()

	log := applog.MQ.With().Str("subscription", gcpSub.ID()).Logger()

	go func() {
		defer func() {
			s.subscriptionsMutex.Lock()
			delete(s.activeSubscriptions, subscriptionID)
			s.subscriptionsMutex.Unlock()

			// GCP subscriptions outlive the process unless deleted.
			if deleteErr := gcpSub.Delete(context.Background()); deleteErr != nil {
				log.Error().Err(deleteErr).Msg("error deleting GCP subscription")
			}
			close(msgChan)
		}()

		// Receive blocks until the context is cancelled.
		err := gcpSub.Receive(receiveCtx, func(ctx context.Context, pubsubMsg *pubsub.Message) {
			pubsubMsg.Ack()

			var msg M
			if err := json.Unmarshal(pubsubMsg.Data, &msg); err != nil {
				log.Warn().Err(err).Str("body", string(pubsubMsg.Data)).Msgf("error unmarshaling %s", name)
				return
			}

			select {
			case msgChan <- msg:
			case <-time.After(2 * time.Second):
				log.Warn().Msgf("timeout delivering %s", name)
			case <-receiveCtx.Done():
				return
			}
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("error in Receive loop")
		}
	}()

	return subscriptionID, msgChan, nil
}

// DeSubscribe stops the message receiver. The GCP subscription is deleted
// once the receiver exits.
func (s *GenericPubSubService[M]) DeSubscribe(id uuid.UUID) error {
	s.subscriptionsMutex.Lock()
	info, ok := s.activeSubscriptions[id]
	if ok {
		info.cancel()
	}
	s.subscriptionsMutex.Unlock()

	if !ok {
		return fmt.Errorf("subscription %s for %s: %w", id, typeName[M](), mq.ErrSubscriberNotFound)
	}
	return nil
}

// Close shuts down all active subscriptions and flushes pending publishes.
func (s *GenericPubSubService[M]) Close() {
	s.subscriptionsMutex.Lock()
	for _, info := range s.activeSubscriptions {
		info.cancel()
	}
	s.subscriptionsMutex.Unlock()
	s.topic.Stop()
}

// GCPSendMessageQueueWrapper implements mq.SendMessageQueueWrapper on Pub/Sub.
type GCPSendMessageQueueWrapper struct {
	client  *pubsub.Client
	flags   *GenericPubSubService[mq.FeatureFlagMessage]
	actions *GenericPubSubService[mq.ActionMessage]
}

// NewGCPSendMessageQueueWrapper creates a new MQ wrapper instance using GCP Pub/Sub.
func NewGCPSendMessageQueueWrapper(ctx context.Context, projectID string) (mq.SendMessageQueueWrapper, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Pub/Sub client for project %s: %w", projectID, err)
	}

	flags, err := NewGenericPubSubService[mq.FeatureFlagMessage](ctx, client, featureFlagTopicID)
	if err != nil {
		client.Close()
		return nil, err
	}
	actions, err := NewGenericPubSubService[mq.ActionMessage](ctx, client, actionTopicID)
	if err != nil {
		flags.Close()
		client.Close()
		return nil, err
	}

	return &GCPSendMessageQueueWrapper{client: client, flags: flags, actions: actions}, nil
}

func (w *GCPSendMessageQueueWrapper) GetFeatureFlagMessageQueue() mq.FeatureFlagMessageQueue {
	return w.flags
}

func (w *GCPSendMessageQueueWrapper) GetActionMessageQueue() mq.ActionMessageQueue {
	return w.actions
}

func (w *GCPSendMessageQueueWrapper) Close() {
	w.flags.Close()
	w.actions.Close()
	if err := w.client.Close(); err != nil {
		applog.MQ.Error().Err(err).Msg("error closing Pub/Sub client")
	}
}
