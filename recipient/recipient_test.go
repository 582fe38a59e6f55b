package recipient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAreEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a, b Recipient
		want bool
	}{
		{
			name: "identical",
			a:    Recipient{Name: "Alice"},
			b:    Recipient{Name: "Alice"},
			want: true,
		},
		{
			name: "same address different case",
			a:    Recipient{Name: "Alice", Address: "0xABCDEF"},
			b:    Recipient{Name: "A.", Address: "0xabcdef"},
			want: true,
		},
		{
			name: "different addresses win over same number",
			a:    Recipient{Address: "0x01", E164PhoneNumber: "+15555550100"},
			b:    Recipient{Address: "0x02", E164PhoneNumber: "+15555550100"},
			want: false,
		},
		{
			name: "same e164 number",
			a:    Recipient{Kind: KindMobileNumber, E164PhoneNumber: "+15555550100"},
			b:    Recipient{Kind: KindContact, Name: "Bob", E164PhoneNumber: "+15555550100"},
			want: true,
		},
		{
			name: "same contact id",
			a:    Recipient{ContactID: "42", Name: "Bob"},
			b:    Recipient{ContactID: "42", Name: "Robert"},
			want: true,
		},
		{
			name: "address versus number only",
			a:    Recipient{Address: "0x01"},
			b:    Recipient{E164PhoneNumber: "+15555550100"},
			want: false,
		},
		{
			name: "names only and different",
			a:    Recipient{Name: "Alice"},
			b:    Recipient{Name: "Bob"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AreEquivalent(tt.a, tt.b))
			assert.Equal(t, tt.want, AreEquivalent(tt.b, tt.a), "relation must be commutative")
			assert.True(t, AreEquivalent(tt.a, tt.a), "relation must be reflexive")
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "addr:0xabc", Recipient{Address: "0xABC", E164PhoneNumber: "+1"}.Key())
	assert.Equal(t, "e164:+1", Recipient{E164PhoneNumber: "+1"}.Key())
	assert.Equal(t, "contact:7", Recipient{ContactID: "7"}.Key())
	assert.Equal(t, "name:Alice|555", Recipient{Name: "Alice", DisplayNumber: "555"}.Key())
}
