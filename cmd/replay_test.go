package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/currency"
	"wallet/send"
)

const actionLog = `time,type,payload
2026-10-16T08:00:00Z,SEND/SEND_PAYMENT_OR_INVITE,"{""recipient"":{""kind"":""Address"",""name"":""Alice"",""address"":""0xa11ce""},""amount"":""5""}"
2026-10-16T08:00:05Z,SEND/SEND_PAYMENT_OR_INVITE_SUCCESS,"{""amount"":""5""}"
2026-10-17T09:00:00Z,SEND/SEND_PAYMENT_OR_INVITE,"{""recipient"":{""kind"":""Address"",""name"":""Bob"",""address"":""0xb0b""},""amount"":""7""}"
2026-10-17T09:00:05Z,SEND/SEND_PAYMENT_OR_INVITE_SUCCESS,"{""amount"":""7""}"
2026-10-17T09:01:00Z,SEND/UPDATE_LAST_USED_CURRENCY,"{""currency"":""cEUR""}"
2026-10-17T09:02:00Z,OTHER/IGNORED,
`

func readCSV(t *testing.T, content string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParseCSVToActions(t *testing.T) {
	actions, err := ParseCSVToActions(readCSV(t, actionLog))
	require.NoError(t, err)
	require.Len(t, actions, 6)

	assert.Equal(t, time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC), actions[0].At)
	first, ok := actions[0].Action.(send.SendPaymentOrInvite)
	require.True(t, ok)
	assert.Equal(t, "Alice", first.Recipient.Name)
	assert.Equal(t, send.UpdateLastUsedCurrency{Currency: currency.Euro}, actions[4].Action)
	assert.Equal(t, send.Unknown{Kind: "OTHER/IGNORED"}, actions[5].Action)
}

func TestParseCSVToActionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content [][]string
	}{
		{"empty", nil},
		{"wrong columns", [][]string{{"time", "type", "payload"}, {"2026-10-17T09:00:00Z", "SEND/SET_SHOW_WARNING"}}},
		{"bad time", [][]string{{"time", "type", "payload"}, {"yesterday", "SEND/SET_SHOW_WARNING", ""}}},
		{"payload not an object", [][]string{{"time", "type", "payload"}, {"2026-10-17T09:00:00Z", "SEND/SET_SHOW_WARNING", "[1]"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSVToActions(tt.content)
			assert.Error(t, err)
		})
	}
}

func TestReplay(t *testing.T) {
	actions, err := ParseCSVToActions(readCSV(t, actionLog))
	require.NoError(t, err)

	state := Replay(send.InitialState(), actions)
	assert.False(t, state.IsSending)
	require.Len(t, state.RecentRecipients, 2)
	assert.Equal(t, "Bob", state.RecentRecipients[0].Name)
	assert.Equal(t, currency.Euro, state.LastUsedCurrency)
	// the first payment was more than 24h before the second success and got purged
	require.Len(t, state.RecentPayments, 1)
	assert.Equal(t, 7.0, state.RecentPayments[0].Amount)
}

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "actions.csv")
	require.NoError(t, os.WriteFile(input, []byte(actionLog), 0o600))

	cmd := replayCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--input", input})
	require.NoError(t, cmd.Execute())

	var state send.State
	require.NoError(t, json.Unmarshal(out.Bytes(), &state))
	assert.Equal(t, currency.Euro, state.LastUsedCurrency)
	assert.Len(t, state.RecentPayments, 1)
}
