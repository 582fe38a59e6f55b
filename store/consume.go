package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wallet/featureflag"
	applog "wallet/logger"
	"wallet/mq/mq"
	"wallet/send"
)

type addressedAction struct {
	walletID uuid.UUID
	action   send.Action
}

// ConsumeFeatureFlags broadcasts every flag update from queue until ctx is
// done. It returns once the subscription is set up.
func (r *Registry) ConsumeFeatureFlags(ctx context.Context, queue mq.FeatureFlagMessageQueue) {
	out := make(chan featureflag.Flags)
	mq.SubscribeProcessor(uuid.Nil, ctx, queue, func(msg mq.FeatureFlagMessage) (featureflag.Flags, bool, error) {
		return msg.Flags, false, nil
	}, out)

	go func() {
		for flags := range out {
			r.Broadcast(flags)
		}
		applog.MQ.Info().Msg("feature flag consumer stopped")
	}()
}

// ConsumeActions dispatches every action from queue into its wallet's
// store until ctx is done. Undecodable messages are dropped.
func (r *Registry) ConsumeActions(ctx context.Context, queue mq.ActionMessageQueue) {
	out := make(chan addressedAction)
	mq.SubscribeProcessor(uuid.Nil, ctx, queue, decodeActionMessage, out)

	go func() {
		for msg := range out {
			s, err := r.Get(msg.walletID)
			if err != nil {
				applog.MQ.Error().Err(err).Str("wallet", msg.walletID.String()).Msg("dropping action")
				continue
			}
			s.Dispatch(msg.action)
		}
		applog.MQ.Info().Msg("action consumer stopped")
	}()
}

func decodeActionMessage(msg mq.ActionMessage) (addressedAction, bool, error) {
	if msg.WalletID == uuid.Nil {
		return addressedAction{}, false, fmt.Errorf("action message without wallet")
	}
	action, err := send.DecodeAction(msg.Action)
	if err != nil {
		return addressedAction{}, false, fmt.Errorf("wallet %s: %w", msg.WalletID, err)
	}
	return addressedAction{walletID: msg.WalletID, action: action}, false, nil
}
