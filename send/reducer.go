package send

import (
	"time"

	"wallet/recipient"
)

// Reducer applies actions to a State. It holds no state of its own, only the
// recipient equivalence relation used for de-duplication.
type Reducer struct {
	equivalent recipient.Equivalence
}

// NewReducer returns a Reducer using eq to de-duplicate recipients. A nil eq
// falls back to recipient.AreEquivalent.
func NewReducer(eq recipient.Equivalence) *Reducer {
	if eq == nil {
		eq = recipient.AreEquivalent
	}
	return &Reducer{equivalent: eq}
}

var defaultReducer = NewReducer(nil)

// Reduce applies action to state with the default recipient equivalence.
func Reduce(state State, action Action, now time.Time) State {
	return defaultReducer.Reduce(state, action, now)
}

// Reduce returns the state that follows state after action at time now.
// It never modifies state and never fails: actions it does not know return
// state unchanged.
func (r *Reducer) Reduce(state State, action Action, now time.Time) State {
	switch a := action.(type) {
	case Rehydrate:
		next := r.rehydrate(state, a.Payload)
		next.IsSending = false
		return next
	case SendPaymentOrInvite:
		next := state
		next.RecentRecipients = r.storeLatestRecent(state.RecentRecipients, a.Recipient)
		next.IsSending = true
		return next
	case SendPaymentOrInviteSuccess:
		nowMs := now.UnixMilli()
		payments := make([]PaymentInfo, 0, len(state.RecentPayments)+1)
		for _, p := range state.RecentPayments {
			if timeDeltaInHours(nowMs, p.Timestamp) < PaymentWindow.Hours() {
				payments = append(payments, p)
			}
		}
		payments = append(payments, PaymentInfo{Amount: a.Amount.InexactFloat64(), Timestamp: nowMs})
		next := state
		next.IsSending = false
		next.RecentPayments = payments
		return next
	case SendPaymentOrInviteFailure:
		next := state
		next.IsSending = false
		return next
	case UpdateFeatureFlags:
		next := state
		next.InviteRewardsEnabled = a.Flags.InviteRewardsEnabled
		next.InviteRewardCusd = a.Flags.InviteRewardCusd
		next.InviteRewardWeeklyLimit = a.Flags.InviteRewardWeeklyLimit
		return next
	case UpdateLastUsedCurrency:
		next := state
		next.LastUsedCurrency = a.Currency
		return next
	case SetShowWarning:
		next := state
		next.ShowSendToAddressWarning = a.ShowWarning
		return next
	default:
		return state
	}
}

// storeLatestRecent puts newRecipient first, drops entries equivalent to it
// and keeps at most RecentRecipientsToStore entries.
func (r *Reducer) storeLatestRecent(current []recipient.Recipient, newRecipient recipient.Recipient) []recipient.Recipient {
	recents := make([]recipient.Recipient, 0, RecentRecipientsToStore)
	recents = append(recents, newRecipient)
	for _, existing := range current {
		if len(recents) == RecentRecipientsToStore {
			break
		}
		if r.equivalent(newRecipient, existing) {
			continue
		}
		recents = append(recents, existing)
	}
	return recents
}

func (r *Reducer) rehydrate(state State, p *Persisted) State {
	next := state
	if p == nil {
		return next
	}
	if p.RecentRecipients != nil {
		next.RecentRecipients = r.normalizeRecipients(p.RecentRecipients)
	}
	if p.RecentPayments != nil {
		next.RecentPayments = append([]PaymentInfo{}, p.RecentPayments...)
	}
	if p.InviteRewardsEnabled != nil {
		next.InviteRewardsEnabled = *p.InviteRewardsEnabled
	}
	if p.InviteRewardCusd != nil {
		next.InviteRewardCusd = *p.InviteRewardCusd
	}
	if p.InviteRewardWeeklyLimit != nil {
		next.InviteRewardWeeklyLimit = *p.InviteRewardWeeklyLimit
	}
	if p.LastUsedCurrency != nil {
		next.LastUsedCurrency = *p.LastUsedCurrency
	}
	if p.ShowSendToAddressWarning != nil {
		next.ShowSendToAddressWarning = *p.ShowSendToAddressWarning
	}
	return next
}

// normalizeRecipients keeps the first of any equivalent entries, in order,
// up to RecentRecipientsToStore. Stored lists written by this package are
// already normal; older or foreign snapshots may not be.
func (r *Reducer) normalizeRecipients(list []recipient.Recipient) []recipient.Recipient {
	out := make([]recipient.Recipient, 0, min(len(list), RecentRecipientsToStore))
	for _, candidate := range list {
		if len(out) == RecentRecipientsToStore {
			break
		}
		duplicate := false
		for _, kept := range out {
			if r.equivalent(kept, candidate) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, candidate)
		}
	}
	return out
}

func timeDeltaInHours(nowMs, timestampMs int64) float64 {
	return float64(nowMs-timestampMs) / float64(time.Hour/time.Millisecond)
}
