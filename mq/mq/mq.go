package mq

import "github.com/google/uuid"

// TopicProvider is implemented by every message so queues can route it.
// uuid.Nil is the broadcast topic.
type TopicProvider interface {
	GetTopic() uuid.UUID
}

type SendMessageQueueWrapper interface {
	GetFeatureFlagMessageQueue() FeatureFlagMessageQueue
	GetActionMessageQueue() ActionMessageQueue
	Close()
}

// FeatureFlagMessageQueue carries the global feature flags. Every message
// is on the broadcast topic.
type FeatureFlagMessageQueue interface {
	Publish(msg FeatureFlagMessage) error
	Subscribe(topic uuid.UUID) (uuid.UUID, <-chan FeatureFlagMessage, error)
	DeSubscribe(id uuid.UUID) error
}

// ActionMessageQueue carries encoded send actions addressed to one wallet.
// Subscribing to uuid.Nil receives the actions of every wallet.
type ActionMessageQueue interface {
	Publish(msg ActionMessage) error
	Subscribe(walletID uuid.UUID) (uuid.UUID, <-chan ActionMessage, error)
	DeSubscribe(id uuid.UUID) error
}
