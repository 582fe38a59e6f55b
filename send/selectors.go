package send

import (
	"time"

	"wallet/recipient"
)

// RecentRecipients returns a copy of the recent recipients, most recent first.
func RecentRecipients(s State) []recipient.Recipient {
	return append([]recipient.Recipient{}, s.RecentRecipients...)
}

// PaymentsInLast24Hours returns the ledger entries inside the window ending at
// now. The state itself is not pruned; stale entries stay until the next
// successful payment.
func PaymentsInLast24Hours(s State, now time.Time) []PaymentInfo {
	nowMs := now.UnixMilli()
	out := make([]PaymentInfo, 0, len(s.RecentPayments))
	for _, p := range s.RecentPayments {
		if timeDeltaInHours(nowMs, p.Timestamp) < PaymentWindow.Hours() {
			out = append(out, p)
		}
	}
	return out
}

// DailyTotal sums the amounts sent in the last 24 hours.
func DailyTotal(s State, now time.Time) float64 {
	total := 0.0
	for _, p := range PaymentsInLast24Hours(s, now) {
		total += p.Amount
	}
	return total
}

// DailyAmountRemaining is how much more may be sent today under limit.
// It never goes below zero.
func DailyAmountRemaining(s State, now time.Time, limit float64) float64 {
	remaining := limit - DailyTotal(s, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
