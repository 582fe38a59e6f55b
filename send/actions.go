package send

import (
	"github.com/shopspring/decimal"

	"wallet/currency"
	"wallet/featureflag"
	"wallet/recipient"
)

// Action type discriminants used on the wire.
const (
	TypeRehydrate                  = "persist/REHYDRATE"
	TypeSendPaymentOrInvite        = "SEND/SEND_PAYMENT_OR_INVITE"
	TypeSendPaymentOrInviteLegacy  = "SEND/SEND_PAYMENT_OR_INVITE_LEGACY"
	TypeSendPaymentOrInviteSuccess = "SEND/SEND_PAYMENT_OR_INVITE_SUCCESS"
	TypeSendPaymentOrInviteFailure = "SEND/SEND_PAYMENT_OR_INVITE_FAILURE"
	TypeUpdateFeatureFlags         = "APP/UPDATE_FEATURE_FLAGS"
	TypeUpdateLastUsedCurrency     = "SEND/UPDATE_LAST_USED_CURRENCY"
	TypeSetShowWarning             = "SEND/SET_SHOW_WARNING"
)

// Action is a request to change the send state. The set of actions is
// closed: only types in this package implement it.
type Action interface {
	Type() string
	isAction()
}

// Rehydrate restores persisted fields. A nil Payload restores nothing but
// still clears the in-flight flag. Restored recipients are deduplicated and
// capped like any other recent-recipients list.
type Rehydrate struct {
	Payload *Persisted
}

// SendPaymentOrInvite starts a payment or invite submission to Recipient.
// Legacy marks the older submission flow; both behave the same.
type SendPaymentOrInvite struct {
	Recipient recipient.Recipient
	Amount    decimal.Decimal
	Comment   string
	Legacy    bool
}

type SendPaymentOrInviteSuccess struct {
	Amount decimal.Decimal
}

type SendPaymentOrInviteFailure struct{}

type UpdateFeatureFlags struct {
	Flags featureflag.Flags
}

type UpdateLastUsedCurrency struct {
	Currency currency.Currency
}

type SetShowWarning struct {
	ShowWarning bool
}

// Unknown carries an action type this package does not understand, or a
// known type whose fields could not be read. Reducing it is a no-op.
type Unknown struct {
	Kind string
}

func (Rehydrate) Type() string { return TypeRehydrate }

func (a SendPaymentOrInvite) Type() string {
	if a.Legacy {
		return TypeSendPaymentOrInviteLegacy
	}
	return TypeSendPaymentOrInvite
}

func (SendPaymentOrInviteSuccess) Type() string { return TypeSendPaymentOrInviteSuccess }
func (SendPaymentOrInviteFailure) Type() string { return TypeSendPaymentOrInviteFailure }
func (UpdateFeatureFlags) Type() string         { return TypeUpdateFeatureFlags }
func (UpdateLastUsedCurrency) Type() string     { return TypeUpdateLastUsedCurrency }
func (SetShowWarning) Type() string             { return TypeSetShowWarning }
func (a Unknown) Type() string                  { return a.Kind }

func (Rehydrate) isAction()                  {}
func (SendPaymentOrInvite) isAction()        {}
func (SendPaymentOrInviteSuccess) isAction() {}
func (SendPaymentOrInviteFailure) isAction() {}
func (UpdateFeatureFlags) isAction()         {}
func (UpdateLastUsedCurrency) isAction()     {}
func (SetShowWarning) isAction()             {}
func (Unknown) isAction()                    {}
