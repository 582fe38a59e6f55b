package mq

import (
	"context"

	"github.com/google/uuid"

	applog "wallet/logger"
)

// Subscriber is any queue that can be subscribed to per topic.
type Subscriber[M any] interface {
	Subscribe(uuid.UUID) (uuid.UUID, <-chan M, error)
	DeSubscribe(id uuid.UUID) error
}

// SubscribeProcessor subscribes service to topic and forwards every message
// through transformFunc into outputStream until ctx is done or the
// subscription closes. outputStream is closed on exit. transformFunc may
// skip a message or fail on it; either way the loop goes on.
func SubscribeProcessor[S Subscriber[M], M any, O any](
	topic uuid.UUID,
	ctx context.Context,
	service S,
	transformFunc func(msg M) (O, bool, error),
	outputStream chan<- O,
) {
	go func() {
		uid, inputCh, err := service.Subscribe(topic)
		if err != nil {
			applog.MQ.Error().Err(err).Str("topic", topic.String()).Msg("subscribe failed")
			close(outputStream)
			return
		}

		defer func() {
			if err := service.DeSubscribe(uid); err != nil {
				applog.MQ.Debug().Err(err).Str("subscriber", uid.String()).Msg("de-subscribe")
			}
			close(outputStream)
		}()

		for {
			select {
			case msg, ok := <-inputCh:
				if !ok {
					return
				}

				output, skip, err := transformFunc(msg)
				if err != nil {
					applog.MQ.Warn().Err(err).Str("subscriber", uid.String()).Msg("dropping message")
					continue
				}
				if skip {
					continue
				}

				select {
				case outputStream <- output:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}
