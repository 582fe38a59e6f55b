package mq

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wallet/featureflag"
)

type Mode string

const (
	ModeGoChan    Mode = "go_chan"
	ModeRabbitMQ  Mode = "rabbitmq"
	ModeGCPPubSub Mode = "gcp_pub_sub"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGoChan, ModeRabbitMQ, ModeGCPPubSub:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mq mode %q", s)
	}
}

type FeatureFlagMessage struct {
	Flags featureflag.Flags `json:"flags"`
}

func (FeatureFlagMessage) GetTopic() uuid.UUID {
	return uuid.Nil
}

// ActionMessage is a send action in its wire form, addressed to a wallet.
type ActionMessage struct {
	WalletID uuid.UUID       `json:"walletId"`
	Action   json.RawMessage `json:"action"`
}

func (m ActionMessage) GetTopic() uuid.UUID {
	return m.WalletID
}

type QueueError string

func (e QueueError) Error() string {
	return string(e)
}

const (
	ErrQueueFull          QueueError = "message queue is full"
	ErrQueueClosed        QueueError = "message queue is closed"
	ErrSubscriberNotFound QueueError = "subscriber not found"
)
