package goch

import (
	"wallet/mq/mq"
)

// GoChanSendMessageQueueWrapper keeps every queue in process.
type GoChanSendMessageQueueWrapper struct {
	flags   *fanOutQueueCore[mq.FeatureFlagMessage]
	actions *fanOutQueueCore[mq.ActionMessage]
}

func NewGoChanSendMessageQueueWrapper(bufferSize int) mq.SendMessageQueueWrapper {
	return &GoChanSendMessageQueueWrapper{
		flags:   newFanOutQueueCore[mq.FeatureFlagMessage](bufferSize),
		actions: newFanOutQueueCore[mq.ActionMessage](bufferSize),
	}
}

func (w *GoChanSendMessageQueueWrapper) GetFeatureFlagMessageQueue() mq.FeatureFlagMessageQueue {
	return w.flags
}

func (w *GoChanSendMessageQueueWrapper) GetActionMessageQueue() mq.ActionMessageQueue {
	return w.actions
}

func (w *GoChanSendMessageQueueWrapper) Close() {
	w.flags.Stop()
	w.actions.Stop()
}
