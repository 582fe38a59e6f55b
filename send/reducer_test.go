package send

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/currency"
	"wallet/featureflag"
	"wallet/recipient"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func addressRecipient(i int) recipient.Recipient {
	return recipient.Recipient{
		Kind:    recipient.KindAddress,
		Name:    fmt.Sprintf("Payee %d", i),
		Address: fmt.Sprintf("0x%040d", i),
	}
}

type foreignAction struct{}

func (foreignAction) Type() string { return "OTHER/SOMETHING" }
func (foreignAction) isAction()    {}

func TestInitialState(t *testing.T) {
	s := InitialState()

	assert.False(t, s.IsSending)
	assert.Empty(t, s.RecentRecipients)
	assert.NotNil(t, s.RecentRecipients)
	assert.Empty(t, s.RecentPayments)
	assert.NotNil(t, s.RecentPayments)
	assert.Equal(t, featureflag.Defaults.InviteRewardsEnabled, s.InviteRewardsEnabled)
	assert.Equal(t, featureflag.Defaults.InviteRewardCusd, s.InviteRewardCusd)
	assert.Equal(t, featureflag.Defaults.InviteRewardWeeklyLimit, s.InviteRewardWeeklyLimit)
	assert.Equal(t, currency.Dollar, s.LastUsedCurrency)
	assert.True(t, s.ShowSendToAddressWarning)
}

func TestRecentRecipientsCappedAtEight(t *testing.T) {
	s := InitialState()
	for i := 1; i <= 9; i++ {
		s = Reduce(s, SendPaymentOrInvite{Recipient: addressRecipient(i)}, testNow)
	}

	require.Len(t, s.RecentRecipients, RecentRecipientsToStore)
	assert.Equal(t, addressRecipient(9), s.RecentRecipients[0])
	assert.Equal(t, addressRecipient(2), s.RecentRecipients[7])
	for _, r := range s.RecentRecipients {
		assert.NotEqual(t, addressRecipient(1), r, "oldest recipient should have been evicted")
	}
}

func TestEquivalentRecipientMovesToFront(t *testing.T) {
	s := InitialState()
	for i := 1; i <= 4; i++ {
		s = Reduce(s, SendPaymentOrInvite{Recipient: addressRecipient(i)}, testNow)
	}
	// same address, different name and casing
	again := addressRecipient(2)
	again.Name = "Renamed"
	s = Reduce(s, SendPaymentOrInvite{Recipient: again, Legacy: true}, testNow)

	require.Len(t, s.RecentRecipients, 4)
	assert.Equal(t, again, s.RecentRecipients[0])
	assert.Equal(t, addressRecipient(4), s.RecentRecipients[1])
	assert.Equal(t, addressRecipient(3), s.RecentRecipients[2])
	assert.Equal(t, addressRecipient(1), s.RecentRecipients[3])
}

func TestInjectedEquivalence(t *testing.T) {
	byName := NewReducer(func(a, b recipient.Recipient) bool { return a.Name == b.Name })

	s := InitialState()
	s = byName.Reduce(s, SendPaymentOrInvite{Recipient: recipient.Recipient{Name: "Bob", Address: "0x1"}}, testNow)
	s = byName.Reduce(s, SendPaymentOrInvite{Recipient: recipient.Recipient{Name: "Bob", Address: "0x2"}}, testNow)

	require.Len(t, s.RecentRecipients, 1)
	assert.Equal(t, "0x2", s.RecentRecipients[0].Address)
}

func TestSendingFlag(t *testing.T) {
	s := Reduce(InitialState(), SendPaymentOrInvite{Recipient: addressRecipient(1)}, testNow)
	assert.True(t, s.IsSending)

	succeeded := Reduce(s, SendPaymentOrInviteSuccess{Amount: decimal.NewFromInt(1)}, testNow)
	assert.False(t, succeeded.IsSending)

	failed := Reduce(s, SendPaymentOrInviteFailure{}, testNow)
	assert.False(t, failed.IsSending)
	assert.Equal(t, s.RecentRecipients, failed.RecentRecipients)
	assert.Equal(t, s.RecentPayments, failed.RecentPayments)
}

func TestSuccessPurgesStalePayments(t *testing.T) {
	tests := []struct {
		name     string
		existing []PaymentInfo
		amount   decimal.Decimal
		expected []PaymentInfo
	}{
		{
			name:     "entry older than 24h is dropped",
			existing: []PaymentInfo{{Amount: 10, Timestamp: testNow.Add(-25 * time.Hour).UnixMilli()}},
			amount:   decimal.NewFromInt(5),
			expected: []PaymentInfo{{Amount: 5, Timestamp: testNow.UnixMilli()}},
		},
		{
			name:     "recent entry is kept oldest first",
			existing: []PaymentInfo{{Amount: 7, Timestamp: testNow.Add(-1 * time.Hour).UnixMilli()}},
			amount:   decimal.NewFromInt(3),
			expected: []PaymentInfo{
				{Amount: 7, Timestamp: testNow.Add(-1 * time.Hour).UnixMilli()},
				{Amount: 3, Timestamp: testNow.UnixMilli()},
			},
		},
		{
			name:     "entry exactly 24h old is dropped",
			existing: []PaymentInfo{{Amount: 1, Timestamp: testNow.Add(-24 * time.Hour).UnixMilli()}},
			amount:   decimal.NewFromInt(2),
			expected: []PaymentInfo{{Amount: 2, Timestamp: testNow.UnixMilli()}},
		},
		{
			name:     "entry one millisecond inside the window is kept",
			existing: []PaymentInfo{{Amount: 1, Timestamp: testNow.Add(-24*time.Hour + time.Millisecond).UnixMilli()}},
			amount:   decimal.NewFromInt(2),
			expected: []PaymentInfo{
				{Amount: 1, Timestamp: testNow.Add(-24*time.Hour + time.Millisecond).UnixMilli()},
				{Amount: 2, Timestamp: testNow.UnixMilli()},
			},
		},
		{
			name:     "amount is narrowed to float64",
			existing: nil,
			amount:   decimal.RequireFromString("12.345"),
			expected: []PaymentInfo{{Amount: 12.345, Timestamp: testNow.UnixMilli()}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := InitialState()
			s.RecentPayments = tt.existing
			s.IsSending = true

			next := Reduce(s, SendPaymentOrInviteSuccess{Amount: tt.amount}, testNow)

			assert.Equal(t, tt.expected, next.RecentPayments)
			assert.False(t, next.IsSending)
		})
	}
}

func TestStalePaymentsSurviveOtherTransitions(t *testing.T) {
	stale := []PaymentInfo{{Amount: 10, Timestamp: testNow.Add(-48 * time.Hour).UnixMilli()}}
	s := InitialState()
	s.RecentPayments = stale

	s = Reduce(s, SendPaymentOrInvite{Recipient: addressRecipient(1)}, testNow)
	s = Reduce(s, SendPaymentOrInviteFailure{}, testNow)
	s = Reduce(s, SetShowWarning{ShowWarning: false}, testNow)

	assert.Equal(t, stale, s.RecentPayments)
}

func TestUpdateFeatureFlagsOverwritesOnlyInviteFields(t *testing.T) {
	before := InitialState()
	before = Reduce(before, SendPaymentOrInvite{Recipient: addressRecipient(1)}, testNow)
	before = Reduce(before, UpdateLastUsedCurrency{Currency: currency.Euro}, testNow)

	after := Reduce(before, UpdateFeatureFlags{Flags: featureflag.Flags{
		InviteRewardsEnabled:    true,
		InviteRewardCusd:        10,
		InviteRewardWeeklyLimit: 2,
	}}, testNow)

	assert.True(t, after.InviteRewardsEnabled)
	assert.Equal(t, 10.0, after.InviteRewardCusd)
	assert.Equal(t, 2, after.InviteRewardWeeklyLimit)

	expected := before
	expected.InviteRewardsEnabled = true
	expected.InviteRewardCusd = 10
	expected.InviteRewardWeeklyLimit = 2
	assert.Equal(t, expected, after)
}

func TestUpdateFeatureFlagsIsNotAMerge(t *testing.T) {
	s := InitialState()
	s.InviteRewardsEnabled = true
	s.InviteRewardCusd = 5

	s = Reduce(s, UpdateFeatureFlags{Flags: featureflag.Flags{}}, testNow)

	assert.False(t, s.InviteRewardsEnabled)
	assert.Zero(t, s.InviteRewardCusd)
	assert.Zero(t, s.InviteRewardWeeklyLimit)
}

func TestCurrencyAndWarning(t *testing.T) {
	s := Reduce(InitialState(), UpdateLastUsedCurrency{Currency: currency.Celo}, testNow)
	assert.Equal(t, currency.Celo, s.LastUsedCurrency)

	s = Reduce(s, SetShowWarning{ShowWarning: false}, testNow)
	assert.False(t, s.ShowSendToAddressWarning)
	s = Reduce(s, SetShowWarning{ShowWarning: true}, testNow)
	assert.True(t, s.ShowSendToAddressWarning)
}

func TestUnknownActionsAreIdentity(t *testing.T) {
	s := Reduce(InitialState(), SendPaymentOrInvite{Recipient: addressRecipient(1)}, testNow)

	tests := []struct {
		name   string
		action Action
	}{
		{name: "unknown kind", action: Unknown{Kind: "SEND/NOT_A_THING"}},
		{name: "empty unknown", action: Unknown{}},
		{name: "foreign implementation", action: foreignAction{}},
		{name: "nil action", action: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Reduce(s, tt.action, testNow)
			assert.Equal(t, s, next)
			require.NotEmpty(t, next.RecentRecipients)
			assert.Same(t, &s.RecentRecipients[0], &next.RecentRecipients[0], "identity must not copy")
		})
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := InitialState()
	for i := 1; i <= 8; i++ {
		s = Reduce(s, SendPaymentOrInvite{Recipient: addressRecipient(i)}, testNow)
	}
	s = Reduce(s, SendPaymentOrInviteSuccess{Amount: decimal.NewFromInt(1)}, testNow)

	recipientsBefore := append([]recipient.Recipient{}, s.RecentRecipients...)
	paymentsBefore := append([]PaymentInfo{}, s.RecentPayments...)

	_ = Reduce(s, SendPaymentOrInvite{Recipient: addressRecipient(5)}, testNow)
	_ = Reduce(s, SendPaymentOrInvite{Recipient: addressRecipient(100)}, testNow)
	_ = Reduce(s, SendPaymentOrInviteSuccess{Amount: decimal.NewFromInt(2)}, testNow.Add(30*time.Hour))

	assert.Equal(t, recipientsBefore, s.RecentRecipients)
	assert.Equal(t, paymentsBefore, s.RecentPayments)
}

func TestRehydrate(t *testing.T) {
	enabled := true
	cur := currency.Euro

	t.Run("merges only present fields and forces idle", func(t *testing.T) {
		s := InitialState()
		s.IsSending = true

		next := Reduce(s, Rehydrate{Payload: &Persisted{
			RecentRecipients:     []recipient.Recipient{addressRecipient(1)},
			InviteRewardsEnabled: &enabled,
			LastUsedCurrency:     &cur,
		}}, testNow)

		assert.False(t, next.IsSending)
		assert.Equal(t, []recipient.Recipient{addressRecipient(1)}, next.RecentRecipients)
		assert.True(t, next.InviteRewardsEnabled)
		assert.Equal(t, currency.Euro, next.LastUsedCurrency)
		// untouched
		assert.Equal(t, s.RecentPayments, next.RecentPayments)
		assert.Equal(t, s.InviteRewardCusd, next.InviteRewardCusd)
		assert.Equal(t, s.InviteRewardWeeklyLimit, next.InviteRewardWeeklyLimit)
		assert.Equal(t, s.ShowSendToAddressWarning, next.ShowSendToAddressWarning)
	})

	t.Run("nil payload still clears sending", func(t *testing.T) {
		s := InitialState()
		s.IsSending = true
		next := Reduce(s, Rehydrate{}, testNow)

		expected := InitialState()
		assert.Equal(t, expected, next)
	})

	t.Run("persisted sending flag is ignored", func(t *testing.T) {
		p, err := ParseRehydratePayload([]byte(`{"send":{"isSending":true,"showSendToAddressWarning":false},"app":{"x":1}}`))
		require.NoError(t, err)

		next := Reduce(InitialState(), Rehydrate{Payload: p}, testNow)
		assert.False(t, next.IsSending)
		assert.False(t, next.ShowSendToAddressWarning)
	})

	t.Run("oversized or duplicated recipient lists are normalized", func(t *testing.T) {
		list := []recipient.Recipient{addressRecipient(1), addressRecipient(1)}
		for i := 2; i <= 12; i++ {
			list = append(list, addressRecipient(i))
		}
		next := Reduce(InitialState(), Rehydrate{Payload: &Persisted{RecentRecipients: list}}, testNow)

		require.Len(t, next.RecentRecipients, RecentRecipientsToStore)
		assert.Equal(t, addressRecipient(1), next.RecentRecipients[0])
		assert.Equal(t, addressRecipient(2), next.RecentRecipients[1])
		assert.Equal(t, addressRecipient(8), next.RecentRecipients[7])
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := InitialState()
	s = Reduce(s, SendPaymentOrInvite{Recipient: addressRecipient(3)}, testNow)
	s = Reduce(s, SendPaymentOrInviteSuccess{Amount: decimal.NewFromFloat(12.5)}, testNow)
	s = Reduce(s, UpdateLastUsedCurrency{Currency: currency.Celo}, testNow)
	s = Reduce(s, SendPaymentOrInvite{Recipient: addressRecipient(4)}, testNow)

	data, err := MarshalSnapshot(s)
	require.NoError(t, err)
	p, err := ParseRehydratePayload(data)
	require.NoError(t, err)
	require.NotNil(t, p)

	restored := Reduce(InitialState(), Rehydrate{Payload: p}, testNow)

	expected := s
	expected.IsSending = false
	assert.Equal(t, expected, restored)
}

func TestParseRehydratePayload(t *testing.T) {
	p, err := ParseRehydratePayload(nil)
	assert.NoError(t, err)
	assert.Nil(t, p)

	p, err = ParseRehydratePayload([]byte(`{"other":{}}`))
	assert.NoError(t, err)
	assert.Nil(t, p)

	_, err = ParseRehydratePayload([]byte(`{"send":`))
	assert.Error(t, err)

	_, err = ParseRehydratePayload([]byte(`{"send":[1]}`))
	assert.Error(t, err)
}

func TestParseRehydratePayloadSkipsBadFields(t *testing.T) {
	tests := []struct {
		name    string
		send    string
		skipped []string
		check   func(t *testing.T, p *Persisted)
	}{
		{
			name:    "unknown currency",
			send:    `{"lastUsedCurrency":"cREAL","showSendToAddressWarning":false}`,
			skipped: []string{"lastUsedCurrency"},
			check: func(t *testing.T, p *Persisted) {
				assert.Nil(t, p.LastUsedCurrency)
				require.NotNil(t, p.ShowSendToAddressWarning)
				assert.False(t, *p.ShowSendToAddressWarning)
			},
		},
		{
			name:    "bad list element",
			send:    `{"recentPayments":[{"timestamp":1,"amount":2},{"timestamp":"x"}]}`,
			skipped: []string{"recentPayments[1]"},
			check: func(t *testing.T, p *Persisted) {
				assert.Equal(t, []PaymentInfo{{Timestamp: 1, Amount: 2}}, p.RecentPayments)
			},
		},
		{
			name:    "list of the wrong shape",
			send:    `{"recentRecipients":{},"inviteRewardWeeklyLimit":4}`,
			skipped: []string{"recentRecipients"},
			check: func(t *testing.T, p *Persisted) {
				assert.Nil(t, p.RecentRecipients)
				require.NotNil(t, p.InviteRewardWeeklyLimit)
				assert.Equal(t, 4, *p.InviteRewardWeeklyLimit)
			},
		},
		{
			name: "null lists are absent",
			send: `{"recentRecipients":null,"recentPayments":null}`,
			check: func(t *testing.T, p *Persisted) {
				assert.Nil(t, p.RecentRecipients)
				assert.Nil(t, p.RecentPayments)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseRehydratePayload([]byte(`{"send":` + tt.send + `}`))
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tt.skipped, p.Skipped())
			tt.check(t, p)
		})
	}
}

func TestRehydrateKeepsDecodableFields(t *testing.T) {
	p, err := ParseRehydratePayload([]byte(`{"send":{"recentRecipients":[{"kind":"Address","address":"0xabc"}],"lastUsedCurrency":"cREAL","showSendToAddressWarning":false}}`))
	require.NoError(t, err)

	next := Reduce(InitialState(), Rehydrate{Payload: p}, testNow)
	require.Len(t, next.RecentRecipients, 1)
	assert.Equal(t, "0xabc", next.RecentRecipients[0].Address)
	assert.Equal(t, currency.Dollar, next.LastUsedCurrency)
	assert.False(t, next.ShowSendToAddressWarning)
	assert.Equal(t, []PaymentInfo{}, next.RecentPayments)
}
