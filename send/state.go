package send

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"wallet/currency"
	"wallet/featureflag"
	"wallet/recipient"
)

// RecentRecipientsToStore caps the recent-recipients list.
const RecentRecipientsToStore = 8

// PaymentWindow is how far back the payment ledger reaches.
const PaymentWindow = 24 * time.Hour

// PaymentInfo is one entry of the trailing 24 hour payment ledger.
// Amounts are informational and stored as float64.
type PaymentInfo struct {
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
	Amount    float64 `json:"amount"`
}

// State is the send feature's state. A State value is never modified in
// place by the reducer: every transition that changes a slice allocates a
// new one.
type State struct {
	IsSending                bool                  `json:"isSending"`
	RecentRecipients         []recipient.Recipient `json:"recentRecipients"`
	RecentPayments           []PaymentInfo         `json:"recentPayments"`
	InviteRewardsEnabled     bool                  `json:"inviteRewardsEnabled"`
	InviteRewardCusd         float64               `json:"inviteRewardCusd"`
	InviteRewardWeeklyLimit  int                   `json:"inviteRewardWeeklyLimit"`
	LastUsedCurrency         currency.Currency     `json:"lastUsedCurrency"`
	ShowSendToAddressWarning bool                  `json:"showSendToAddressWarning"`
}

// InitialState returns the default seed state.
func InitialState() State {
	return State{
		IsSending:                false,
		RecentRecipients:         []recipient.Recipient{},
		RecentPayments:           []PaymentInfo{},
		InviteRewardsEnabled:     featureflag.Defaults.InviteRewardsEnabled,
		InviteRewardCusd:         featureflag.Defaults.InviteRewardCusd,
		InviteRewardWeeklyLimit:  featureflag.Defaults.InviteRewardWeeklyLimit,
		LastUsedCurrency:         currency.Dollar,
		ShowSendToAddressWarning: true,
	}
}

// Persisted is the stored form of State. A nil field was absent from the
// stored payload and is left untouched on rehydration. A list stored as
// null counts as absent too, so State slices are never nil. IsSending is
// never persisted.
type Persisted struct {
	RecentRecipients         []recipient.Recipient `json:"recentRecipients"`
	RecentPayments           []PaymentInfo         `json:"recentPayments"`
	InviteRewardsEnabled     *bool                 `json:"inviteRewardsEnabled,omitempty"`
	InviteRewardCusd         *float64              `json:"inviteRewardCusd,omitempty"`
	InviteRewardWeeklyLimit  *int                  `json:"inviteRewardWeeklyLimit,omitempty"`
	LastUsedCurrency         *currency.Currency    `json:"lastUsedCurrency,omitempty"`
	ShowSendToAddressWarning *bool                 `json:"showSendToAddressWarning,omitempty"`

	skipped []string
}

// UnmarshalJSON decodes every field on its own. A field or list element
// that does not decode is left out and reported by Skipped; the remaining
// fields are kept.
func (p *Persisted) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var out Persisted
	out.RecentRecipients = decodeList[recipient.Recipient](fields, "recentRecipients", &out.skipped)
	out.RecentPayments = decodeList[PaymentInfo](fields, "recentPayments", &out.skipped)
	out.InviteRewardsEnabled = decodeField[bool](fields, "inviteRewardsEnabled", &out.skipped)
	out.InviteRewardCusd = decodeField[float64](fields, "inviteRewardCusd", &out.skipped)
	out.InviteRewardWeeklyLimit = decodeField[int](fields, "inviteRewardWeeklyLimit", &out.skipped)
	out.LastUsedCurrency = decodeField[currency.Currency](fields, "lastUsedCurrency", &out.skipped)
	out.ShowSendToAddressWarning = decodeField[bool](fields, "showSendToAddressWarning", &out.skipped)
	*p = out
	return nil
}

// Skipped lists the stored fields, or list elements as "field[i]", that
// could not be decoded.
func (p *Persisted) Skipped() []string {
	if p == nil {
		return nil
	}
	return p.skipped
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func decodeField[T any](fields map[string]json.RawMessage, key string, skipped *[]string) *T {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		*skipped = append(*skipped, key)
		return nil
	}
	return &v
}

func decodeList[T any](fields map[string]json.RawMessage, key string, skipped *[]string) []T {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*skipped = append(*skipped, key)
		return nil
	}
	list := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			*skipped = append(*skipped, fmt.Sprintf("%s[%d]", key, i))
			continue
		}
		list = append(list, v)
	}
	return list
}

// persistRoot mirrors the whole-app snapshot layout; only the "send" key is
// read, everything else is ignored.
type persistRoot struct {
	Send *Persisted `json:"send"`
}

// Snapshot extracts the persistable fields of s.
func Snapshot(s State) Persisted {
	return Persisted{
		RecentRecipients:         append([]recipient.Recipient{}, s.RecentRecipients...),
		RecentPayments:           append([]PaymentInfo{}, s.RecentPayments...),
		InviteRewardsEnabled:     &s.InviteRewardsEnabled,
		InviteRewardCusd:         &s.InviteRewardCusd,
		InviteRewardWeeklyLimit:  &s.InviteRewardWeeklyLimit,
		LastUsedCurrency:         &s.LastUsedCurrency,
		ShowSendToAddressWarning: &s.ShowSendToAddressWarning,
	}
}

// MarshalSnapshot encodes s as a rehydration payload.
func MarshalSnapshot(s State) ([]byte, error) {
	p := Snapshot(s)
	data, err := json.Marshal(persistRoot{Send: &p})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send snapshot: %w", err)
	}
	return data, nil
}

// ParseRehydratePayload reads the "send" section of a persisted snapshot.
// An empty payload or a payload without a "send" key yields nil. Only a
// payload that is not JSON, or whose "send" section is not an object, is an
// error; bad fields inside the section are reported by Persisted.Skipped.
func ParseRehydratePayload(data []byte) (*Persisted, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var root persistRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse rehydrate payload: %w", err)
	}
	return root.Send, nil
}
