package send

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"wallet/currency"
	"wallet/featureflag"
	"wallet/recipient"
)

// DecodeAction reads a JSON action envelope of the form {"type": ..., ...}.
// It fails only when data is not a JSON object. Unknown types, and known
// types whose fields are missing or malformed, decode to Unknown.
func DecodeAction(data []byte) (Action, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode action envelope: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("failed to decode action envelope: null")
	}
	var typ string
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &typ); err != nil {
			return Unknown{}, nil
		}
	}
	action, ok := decodeFields(typ, fields)
	if !ok {
		return Unknown{Kind: typ}, nil
	}
	return action, nil
}

func decodeFields(typ string, fields map[string]json.RawMessage) (Action, bool) {
	switch typ {
	case TypeRehydrate:
		raw, ok := fields["payload"]
		if !ok || string(raw) == "null" {
			return Rehydrate{}, true
		}
		p, err := ParseRehydratePayload(raw)
		if err != nil {
			return nil, false
		}
		return Rehydrate{Payload: p}, true
	case TypeSendPaymentOrInvite, TypeSendPaymentOrInviteLegacy:
		var a SendPaymentOrInvite
		if !field(fields, "recipient", &a.Recipient, true) ||
			!field(fields, "amount", &a.Amount, false) ||
			!field(fields, "comment", &a.Comment, false) {
			return nil, false
		}
		a.Legacy = typ == TypeSendPaymentOrInviteLegacy
		return a, true
	case TypeSendPaymentOrInviteSuccess:
		var a SendPaymentOrInviteSuccess
		if !field(fields, "amount", &a.Amount, true) {
			return nil, false
		}
		return a, true
	case TypeSendPaymentOrInviteFailure:
		return SendPaymentOrInviteFailure{}, true
	case TypeUpdateFeatureFlags:
		var a UpdateFeatureFlags
		if !field(fields, "flags", &a.Flags, true) {
			return nil, false
		}
		return a, true
	case TypeUpdateLastUsedCurrency:
		var a UpdateLastUsedCurrency
		if !field(fields, "currency", &a.Currency, true) {
			return nil, false
		}
		return a, true
	case TypeSetShowWarning:
		var a SetShowWarning
		if !field(fields, "showWarning", &a.ShowWarning, true) {
			return nil, false
		}
		return a, true
	}
	return nil, false
}

// field decodes fields[name] into dst. A missing field is fine unless required.
func field(fields map[string]json.RawMessage, name string, dst any, required bool) bool {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return !required
	}
	return json.Unmarshal(raw, dst) == nil
}

type envelope struct {
	Type        string               `json:"type"`
	Payload     *persistRoot         `json:"payload,omitempty"`
	Recipient   *recipient.Recipient `json:"recipient,omitempty"`
	Amount      *decimal.Decimal     `json:"amount,omitempty"`
	Comment     string               `json:"comment,omitempty"`
	Flags       *featureflag.Flags   `json:"flags,omitempty"`
	Currency    *currency.Currency   `json:"currency,omitempty"`
	ShowWarning *bool                `json:"showWarning,omitempty"`
}

// EncodeAction writes action in the envelope format DecodeAction reads.
func EncodeAction(action Action) ([]byte, error) {
	env := envelope{Type: action.Type()}
	switch a := action.(type) {
	case Rehydrate:
		if a.Payload != nil {
			env.Payload = &persistRoot{Send: a.Payload}
		}
	case SendPaymentOrInvite:
		env.Recipient = &a.Recipient
		env.Amount = &a.Amount
		env.Comment = a.Comment
	case SendPaymentOrInviteSuccess:
		env.Amount = &a.Amount
	case UpdateFeatureFlags:
		env.Flags = &a.Flags
	case UpdateLastUsedCurrency:
		env.Currency = &a.Currency
	case SetShowWarning:
		env.ShowWarning = &a.ShowWarning
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action %s: %w", action.Type(), err)
	}
	return data, nil
}
